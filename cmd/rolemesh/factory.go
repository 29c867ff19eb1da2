package main

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/rolemesh/config"
	"github.com/hupe1980/rolemesh/model"
	"github.com/hupe1980/rolemesh/model/anthropic"
	"github.com/hupe1980/rolemesh/model/gemini"
	"github.com/hupe1980/rolemesh/model/openai"
	"github.com/hupe1980/rolemesh/runner"
)

// modelFactory builds provider models per purpose. An empty model name keeps
// the adapter default; the clarifier falls back to the director model.
func modelFactory(ctx context.Context, cfg *config.Config) runner.ModelFactory {
	return func(purpose runner.Purpose) (model.Model, error) {
		name := modelName(cfg, purpose)

		switch cfg.Provider {
		case config.ProviderOpenAI:
			return openai.NewModel(func(o *openai.Options) {
				o.APIKey = cfg.OpenAIAPIKey
				o.Temperature = cfg.Temperature
				if name != "" {
					o.Model = name
				}
			}), nil
		case config.ProviderAnthropic:
			return anthropic.NewModel(func(o *anthropic.Options) {
				o.APIKey = cfg.AnthropicAPIKey
				o.Temperature = cfg.Temperature
				if name != "" {
					o.Model = anthropicsdk.Model(name)
				}
			}), nil
		case config.ProviderGemini:
			return gemini.NewModel(ctx, func(o *gemini.Options) {
				o.APIKey = cfg.GeminiAPIKey
				o.Temperature = float32(cfg.Temperature)
				if name != "" {
					o.Model = name
				}
			})
		default:
			return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
		}
	}
}

func modelName(cfg *config.Config, purpose runner.Purpose) string {
	switch purpose {
	case runner.PurposeClarifier:
		if cfg.ClarifierModel != "" {
			return cfg.ClarifierModel
		}
		return cfg.DirectorModel
	case runner.PurposeDirector:
		return cfg.DirectorModel
	default:
		return cfg.ExecutorModel
	}
}
