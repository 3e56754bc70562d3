package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/ai/httpgw"
	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/screening"
	"github.com/spigell/cv-screener/internal/secrets"
)

const (
	geminiKeyEnv = "GEMINI_API_KEY"
	httpKeyEnv   = envPrefix + "_HTTP_API_KEY"
)

// components holds everything a command needs to talk to the pipeline.
type components struct {
	config       *Config
	logger       *zap.Logger
	orchestrator *screening.Orchestrator
	store        candidates.Store
	service      *pipeline.Service
}

func (c *components) Close() {
	if c.service != nil {
		c.service.Wait()
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("closing candidate store", zap.Error(err))
		}
	}
	_ = c.logger.Sync()
}

// setup builds the logger, provider gateway, store and services from the
// loaded configuration. Failures here are fatal for every command.
func setup(ctx context.Context) *components {
	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Provider == nil || config.Screening == nil || config.Store == nil || config.Serve == nil {
		lg.Fatal("config is incomplete")
	}

	lg.Debug("starting with config",
		zap.String("provider", config.Provider.Name),
		zap.Duration("timeout", config.Provider.Timeout),
		zap.Int("workers", config.Screening.Workers),
		zap.String("store", config.Store.Driver),
	)

	gateway, err := newGateway(ctx, config.Provider, lg)
	if err != nil {
		// Every request still gets an answer from the fallback catalog.
		lg.Warn("provider unavailable, fallback results will be used",
			zap.Error(err),
			zap.String("hint", fmt.Sprintf("set provider.gemini.api-key-file or %s", geminiKeyEnv)),
		)
		gateway = nil
	}

	prompts, err := screening.NewPromptEngine(config.Screening.MaxInputLength)
	if err != nil {
		lg.Fatal("loading prompt templates", zap.Error(err))
	}

	orchestrator := screening.NewOrchestrator(gateway, prompts, screening.NewCatalog(), screening.Config{
		Timeout:         config.Provider.Timeout,
		MaxOutputTokens: config.Provider.MaxOutputTokens,
		Temperature:     config.Provider.Temperature,
		MaxLogLength:    config.Screening.MaxLogLength,
	}, lg)

	store, err := newStore(ctx, config.Store)
	if err != nil {
		lg.Fatal("opening candidate store", zap.Error(err))
	}

	return &components{
		config:       config,
		logger:       lg,
		orchestrator: orchestrator,
		store:        store,
		service:      pipeline.New(orchestrator, store, config.Screening.Workers, lg),
	}
}

func newGateway(ctx context.Context, cfg *ProviderConfig, lg *zap.Logger) (ai.Gateway, error) {
	switch name := strings.ToLower(strings.TrimSpace(cfg.Name)); name {
	case "", "gemini":
		if cfg.Gemini == nil {
			return nil, errors.New("provider.gemini section is required")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  geminiKeyEnv,
		})
		if err != nil {
			return nil, err
		}
		return gemini.New(ctx, apiKey, cfg.Gemini.Model, lg)
	case "http":
		if cfg.HTTP == nil {
			return nil, errors.New("provider.http section is required")
		}
		// The endpoint may not need authentication at all.
		token, err := secrets.Load(secrets.Source{
			Name: "http provider api key",
			File: cfg.HTTP.APIKeyFile,
			Env:  httpKeyEnv,
		})
		if err != nil && strings.TrimSpace(cfg.HTTP.APIKeyFile) != "" {
			return nil, err
		}
		return httpgw.New(cfg.HTTP.URL, cfg.HTTP.Model, token, lg)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Name)
	}
}

func newStore(ctx context.Context, cfg *StoreConfig) (candidates.Store, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "memory":
		return candidates.NewMemoryStore(), nil
	case "sqlite":
		return candidates.OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

func readFile(path, what string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%s file is required", what)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", what, err)
	}
	return string(data), nil
}
