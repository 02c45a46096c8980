package wizard

import (
	"time"

	"assistance-wizard/internal/common/config"
)

type Config struct {
	// Locale selects the validation message catalog.
	Locale string
	Now    func() time.Time
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Locale: cfg.Validation.DefaultLocale,
		Now:    time.Now,
	}
}
