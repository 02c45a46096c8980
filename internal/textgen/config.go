package textgen

import (
	"time"

	"assistance-wizard/internal/common/config"
)

type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int32
	Temperature float32
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Provider:    cfg.TextGen.Provider,
		BaseURL:     cfg.TextGen.BaseURL,
		APIKey:      cfg.TextGen.APIKey,
		Model:       cfg.TextGen.Model,
		Timeout:     config.GetDuration(cfg.TextGen.Timeout),
		MaxTokens:   300,
		Temperature: 0.7,
	}
}
