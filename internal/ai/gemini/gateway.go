package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/logger"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gateway wraps the Google GenAI client and implements ai.Gateway.
type Gateway struct {
	models contentGenerator
	model  string
	logger *zap.Logger
}

// New creates a Gateway configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gateway, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGateway(client.Models, model, log), nil
}

func newGateway(models contentGenerator, model string, log *zap.Logger) *Gateway {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Gateway{
		models: models,
		model:  model,
		logger: logger.WithProviderFields(log, providerName, model),
	}
}

func (g *Gateway) Name() string { return providerName }

func (g *Gateway) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Send makes a single GenerateContent call and returns the concatenated text parts.
func (g *Gateway) Send(ctx context.Context, prompt string, opts ai.Options) (string, error) {
	if g == nil || g.models == nil {
		return "", ai.NewError(ai.KindUnknown, "gemini gateway is not initialized", nil)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ai.NewError(ai.KindUnknown, "prompt must not be empty", nil)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), generationConfig(opts))
	if err != nil {
		perr := classify(err)
		g.logger.Debug("gemini generate content failed",
			zap.String("error_kind", string(perr.Kind)),
			zap.Error(err),
		)
		return "", perr
	}

	output := collectText(resp)
	if output == "" {
		return "", ai.NewError(ai.KindMalformedResponse, "gemini api returned empty response", nil)
	}

	return output, nil
}

func generationConfig(opts ai.Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}

	temperature := float32(min(max(opts.Temperature, 0), 1))
	cfg.Temperature = &temperature

	return cfg
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func classify(err error) *ai.ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := ai.ClassifyStatus(apiErr.Code)
		if strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED") {
			kind = ai.KindRateLimited
		}
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = fmt.Sprintf("gemini api returned status %d", apiErr.Code)
		}
		return ai.NewError(kind, msg, err)
	}

	return ai.Classify(err)
}
