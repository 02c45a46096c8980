package submission

import (
	"time"

	"assistance-wizard/internal/common/config"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		BaseURL: cfg.Submission.BaseURL,
		Timeout: config.GetDuration(cfg.Submission.Timeout),
	}
}
