package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/ai/gemini"
	"github.com/spigell/ats-scorer/internal/ai/ollama"
	"github.com/spigell/ats-scorer/internal/ai/openai"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/metrics"
	"github.com/spigell/ats-scorer/internal/secrets"
	"go.uber.org/zap"
)

// newGenerators builds the primary and secondary generators. A provider that
// cannot be built is skipped with a warning; the engine then falls back to
// local analysis for it.
func newGenerators(ctx context.Context, cfg *AIConfig, log *zap.Logger, rec *metrics.Recorder) (primary, secondary ai.Generator) {
	build := func(role, provider string) ai.Generator {
		if strings.TrimSpace(provider) == "" {
			return nil
		}
		g, model, err := newGenerator(ctx, cfg, provider)
		if err != nil {
			log.Warn("skipping text generation provider",
				zap.String("role", role),
				zap.String("provider", provider),
				zap.Error(err),
			)
			return nil
		}
		genLogger := logger.WithFields(log, logger.ProviderFields(provider, model)...)
		genLogger.Info("text generation enabled", zap.String("role", role))
		return ai.Instrument(g, genLogger, cfg.MaxLogLength, rec.ObserveGenerator)
	}

	return build("primary", cfg.Primary), build("secondary", cfg.Secondary)
}

func newGenerator(ctx context.Context, cfg *AIConfig, provider string) (ai.Generator, string, error) {
	switch strings.TrimSpace(strings.ToLower(provider)) {
	case gemini.Provider:
		c := cfg.Gemini
		if c == nil {
			c = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  c.APIKeyFile,
			Env:   "GEMINI_API_KEY",
			Value: c.APIKey,
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		g, err := gemini.NewGenerator(ctx, apiKey, c.Model)
		if err != nil {
			return nil, "", err
		}
		return g, g.Model(), nil

	case openai.Provider:
		c := cfg.OpenAI
		if c == nil {
			c = &OpenAIConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			File:  c.APIKeyFile,
			Env:   "OPENAI_API_KEY",
			Value: c.APIKey,
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}
		g, err := openai.NewGenerator(openai.Config{APIKey: apiKey, Model: c.Model, BaseURL: c.BaseURL})
		if err != nil {
			return nil, "", err
		}
		return g, c.Model, nil

	case ollama.Provider:
		c := cfg.Ollama
		if c == nil {
			c = &OllamaConfig{}
		}
		g, err := ollama.NewGenerator(c.Host, c.Model)
		if err != nil {
			return nil, "", err
		}
		return g, c.Model, nil

	default:
		return nil, "", fmt.Errorf("unsupported ai provider: %s", provider)
	}
}
