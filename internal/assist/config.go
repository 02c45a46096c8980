package assist

import (
	"time"

	"assistance-wizard/internal/common/config"
)

type Config struct {
	// Timeout bounds a single generation call.
	Timeout time.Duration
	Now     func() time.Time
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(cfg.TextGen.Timeout),
		Now:     time.Now,
	}
}
