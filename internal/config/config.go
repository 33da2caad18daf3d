package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "DIARY_CONFIG"

type Config struct {
	HTTPPort    string `yaml:"httpPort" validate:"required,numeric"`
	DatabaseURL string `yaml:"databaseUrl" validate:"required"`
	LogLevel    string `yaml:"logLevel" validate:"required"`
	LogFormat   string `yaml:"logFormat" validate:"oneof=json console"`
	JWTSecret   string `yaml:"jwtSecret" validate:"required"`
	Timezone    string `yaml:"timezone"`

	SentimentProvider string `yaml:"sentimentProvider" validate:"oneof=gemini http"`
	GeminiAPIKey      string `yaml:"geminiApiKey" validate:"required_if=SentimentProvider gemini"`
	GeminiModel       string `yaml:"geminiModel"`
	SentimentURL      string `yaml:"sentimentUrl" validate:"required_if=SentimentProvider http"`
	SentimentAPIKey   string `yaml:"sentimentApiKey"`

	JPushAppKey       string `yaml:"jpushAppKey"`
	JPushMasterSecret string `yaml:"jpushMasterSecret" validate:"required_with=JPushAppKey"`
	JPushURL          string `yaml:"jpushUrl" validate:"omitempty,url"`

	location *time.Location
}

// Location is the zone whose calendar days bound recommendations.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.Local
}

// PushEnabled reports whether JPush credentials are configured.
func (c *Config) PushEnabled() bool {
	return c.JPushAppKey != ""
}

func defaults() Config {
	return Config{
		HTTPPort:          "8080",
		DatabaseURL:       "diary_notes.db",
		LogLevel:          "INFO",
		LogFormat:         "json",
		SentimentProvider: "gemini",
	}
}

// Load reads .env (if present), then the YAML file named by DIARY_CONFIG (if
// set), then environment variables, and validates the result.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may carry everything.
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	overrideFromEnv(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		cfg.location = loc
	}
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	setFromEnv(&cfg.HTTPPort, "HTTP_PORT")
	setFromEnv(&cfg.DatabaseURL, "DATABASE_URL")
	setFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	setFromEnv(&cfg.LogFormat, "LOG_FORMAT")
	setFromEnv(&cfg.JWTSecret, "JWT_SECRET")
	setFromEnv(&cfg.Timezone, "TIMEZONE")
	setFromEnv(&cfg.SentimentProvider, "SENTIMENT_PROVIDER")
	setFromEnv(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&cfg.GeminiModel, "GEMINI_MODEL")
	setFromEnv(&cfg.SentimentURL, "SENTIMENT_URL")
	setFromEnv(&cfg.SentimentAPIKey, "SENTIMENT_API_KEY")
	setFromEnv(&cfg.JPushAppKey, "JPUSH_APP_KEY")
	setFromEnv(&cfg.JPushMasterSecret, "JPUSH_MASTER_SECRET")
	setFromEnv(&cfg.JPushURL, "JPUSH_URL")
}

func setFromEnv(dst *string, key string) {
	if value, exists := os.LookupEnv(key); exists {
		*dst = value
	}
}
