package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"gwi.com/diary-notes/internal/api"
	"gwi.com/diary-notes/internal/auth"
	"gwi.com/diary-notes/internal/config"
	"gwi.com/diary-notes/internal/core"
	"gwi.com/diary-notes/internal/logging"
	"gwi.com/diary-notes/internal/push"
	"gwi.com/diary-notes/internal/sentiment"
	"gwi.com/diary-notes/internal/store"
)

func main() {
	tokenFor := flag.Int64("token", 0, "Print a bearer token for the given user id and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *tokenFor != 0 {
		token, err := auth.GenerateJWT(cfg.JWTSecret, *tokenFor)
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	var oracle sentiment.Oracle
	switch cfg.SentimentProvider {
	case sentiment.ProviderHTTP:
		oracle = sentiment.NewHTTPOracle(cfg.SentimentURL, cfg.SentimentAPIKey, nil)
	default:
		gemini, err := sentiment.NewGeminiOracle(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return err
		}
		defer gemini.Close()
		oracle = gemini
	}
	oracle = sentiment.NewBreakerOracle(oracle, sentiment.DefaultBreakerConfig(), logger)

	var notifier core.NotificationSender = push.NewNopSender(logger)
	if cfg.PushEnabled() {
		notifier = push.NewJPushSender(cfg.JPushURL, cfg.JPushAppKey, cfg.JPushMasterSecret, nil, logger)
	}

	clock := clockwork.NewRealClock()
	notesService := core.NewNotesService(core.NotesServiceDeps{
		Users:    dbStore,
		Notes:    dbStore,
		Messages: dbStore,
		Oracle:   oracle,
		Notifier: notifier,
		Selector: core.NewRecommendationSelector(dbStore, clock, cfg.Location(), logger),
		Clock:    clock,
		Logger:   logger,
	})

	apiHandler := api.NewAPIHandler(notesService, cfg.JWTSecret, logger)
	router := api.NewRouter(apiHandler, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // sentiment calls sit on the publish path
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr), zap.String("sentiment", cfg.SentimentProvider))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}
