package stubserver

import (
	"time"

	"assistance-wizard/internal/common/config"
)

type Config struct {
	Address string
	// Latency is added to every API response to mimic a remote backend.
	Latency time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Address: cfg.Stub.Address,
		Latency: config.GetDuration(cfg.Stub.Latency),
	}
}
