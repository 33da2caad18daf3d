package sentiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	ProviderGemini = "gemini"

	defaultGeminiModel = "gemini-1.5-flash-latest"

	scoreSystemInstruction = "You rate the emotional tone of diary entries. " +
		"Reply with a single number between 0 and 1, where 0 is entirely negative and 1 is entirely positive. " +
		"Reply with the number only."
)

// GeminiOracle asks a Gemini model for the positivity of a text.
type GeminiOracle struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

func NewGeminiOracle(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiOracle{client: client, modelName: modelName, logger: logger}, nil
}

func (o *GeminiOracle) Close() {
	if o.client == nil {
		return
	}
	if err := o.client.Close(); err != nil {
		o.logger.Warn("error closing GenAI client", zap.Error(err))
	}
}

func (o *GeminiOracle) Score(ctx context.Context, text string) (score float64, err error) {
	start := time.Now()
	defer func() { observe(ProviderGemini, start, err) }()

	model := o.client.GenerativeModel(o.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(scoreSystemInstruction)},
	}
	temp := float32(0)
	maxTokens := int32(8)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return 0, fmt.Errorf("gemini sentiment request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return 0, fmt.Errorf("gemini returned no candidates")
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		}
	}
	return parseScore(reply.String())
}

// parseScore reads a model reply such as "0.8" or " 0.80.\n" as a score in [0,1].
func parseScore(reply string) (float64, error) {
	cleaned := strings.TrimRight(strings.Trim(reply, "\"'`\n\r\t "), ".")
	if cleaned == "" {
		return 0, fmt.Errorf("empty sentiment reply")
	}
	score, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable sentiment reply %q: %w", reply, err)
	}
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("sentiment reply %v outside [0,1]", score)
	}
	return score, nil
}
