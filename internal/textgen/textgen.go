package textgen

import (
	"context"
	"fmt"

	"assistance-wizard/internal/common/config"
	"assistance-wizard/internal/common/logger"
)

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg *Config, log logger.Logger) (Generator, error) {
	var (
		gen Generator
		err error
	)

	switch cfg.Provider {
	case config.ProviderHTTP:
		if cfg.BaseURL == "" {
			return nil, ErrMissingBaseURL
		}
		gen = NewHTTPGenerator(cfg)
	case config.ProviderGemini:
		gen, err = NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
	case config.ProviderTemplate, "":
		gen = NewTemplateGenerator()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	log.Named("textgen").Info("text generator ready", map[string]interface{}{
		"provider": gen.Name(),
		"timeout":  cfg.Timeout.String(),
	})
	return gen, nil
}
