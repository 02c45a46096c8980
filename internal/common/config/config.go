package config

import "fmt"

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Validation  ValidationConfig  `mapstructure:"validation"`
	TextGen     TextGenConfig     `mapstructure:"textgen"`
	Submission  SubmissionConfig  `mapstructure:"submission"`
	Stub        StubConfig        `mapstructure:"stub"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Persistence backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type PersistenceConfig struct {
	Backend  string         `mapstructure:"backend"`
	Key      string         `mapstructure:"key"`
	File     FileConfig     `mapstructure:"file"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // milliseconds, 0 keeps forever
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ValidationConfig struct {
	NarrativeMinLength int    `mapstructure:"narrative_min_length"`
	DefaultLocale      string `mapstructure:"default_locale"`
}

// Text generation providers.
const (
	ProviderHTTP     = "http"
	ProviderGemini   = "gemini"
	ProviderTemplate = "template"
)

type TextGenConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

type SubmissionConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type StubConfig struct {
	Address string `mapstructure:"address"`
	Latency int    `mapstructure:"latency"` // milliseconds
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
