package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it
// and lets WIZARD_* environment variables override any key.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile reads a single explicit config file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WIZARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	// Set here rather than in applyDefaults: zero is a valid minimum.
	v.SetDefault("validation.narrative_min_length", 50)
	return v
}

// bindKeys registers every key so AutomaticEnv can override keys absent from
// the YAML files.
func bindKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.name", "app.version", "app.environment",
		"logging.level", "logging.format", "logging.output",
		"persistence.backend", "persistence.key", "persistence.file.dir",
		"persistence.redis.address", "persistence.redis.password", "persistence.redis.db", "persistence.redis.ttl",
		"persistence.postgres.host", "persistence.postgres.port", "persistence.postgres.database",
		"persistence.postgres.user", "persistence.postgres.password", "persistence.postgres.sslmode",
		"validation.narrative_min_length", "validation.default_locale",
		"textgen.provider", "textgen.base_url", "textgen.api_key", "textgen.model", "textgen.timeout",
		"submission.base_url", "submission.timeout",
		"stub.address", "stub.latency",
		"metrics.address",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e/
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig picks up the conventional unprefixed secret variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.TextGen.APIKey == "" {
		if val := os.Getenv("GEMINI_API_KEY"); val != "" && cfg.TextGen.Provider == ProviderGemini {
			cfg.TextGen.APIKey = val
		} else if val := os.Getenv("TEXTGEN_API_KEY"); val != "" {
			cfg.TextGen.APIKey = val
		}
	}
	if cfg.Persistence.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Persistence.Postgres.User = val
		}
	}
	if cfg.Persistence.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Persistence.Postgres.Password = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "assistance-wizard"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Persistence defaults
	if cfg.Persistence.Backend == "" {
		cfg.Persistence.Backend = BackendFile
	}
	if cfg.Persistence.Key == "" {
		cfg.Persistence.Key = "financial-assistance-form"
	}
	if cfg.Persistence.File.Dir == "" {
		cfg.Persistence.File.Dir = defaultStateDir()
	}
	if cfg.Persistence.Postgres.Port == 0 {
		cfg.Persistence.Postgres.Port = 5432
	}
	if cfg.Persistence.Postgres.MaxConnections == 0 {
		cfg.Persistence.Postgres.MaxConnections = 5
	}
	if cfg.Persistence.Postgres.MaxIdle == 0 {
		cfg.Persistence.Postgres.MaxIdle = 2
	}
	if cfg.Persistence.Postgres.SSLMode == "" {
		cfg.Persistence.Postgres.SSLMode = "disable"
	}

	if cfg.Validation.DefaultLocale == "" {
		cfg.Validation.DefaultLocale = "en"
	}

	// Collaborator defaults
	if cfg.TextGen.Provider == "" {
		cfg.TextGen.Provider = ProviderTemplate
	}
	if cfg.TextGen.Model == "" {
		cfg.TextGen.Model = "gemini-2.0-flash"
	}
	if cfg.TextGen.Timeout == 0 {
		cfg.TextGen.Timeout = 30000
	}
	if cfg.Submission.BaseURL == "" {
		cfg.Submission.BaseURL = "http://localhost:8089/api"
	}
	if cfg.Submission.Timeout == 0 {
		cfg.Submission.Timeout = 15000
	}

	if cfg.Stub.Address == "" {
		cfg.Stub.Address = ":8089"
	}
	if cfg.Stub.Latency == 0 {
		cfg.Stub.Latency = 1500
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9464"
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "assistance-wizard")
	}
	return ".wizard"
}

func validateConfig(cfg *Config) error {
	switch cfg.Persistence.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if cfg.Persistence.Redis.Address == "" {
			return fmt.Errorf("persistence.redis.address is required")
		}
	case BackendPostgres:
		if cfg.Persistence.Postgres.Host == "" {
			return fmt.Errorf("persistence.postgres.host is required")
		}
		if cfg.Persistence.Postgres.Database == "" {
			return fmt.Errorf("persistence.postgres.database is required")
		}
	default:
		return fmt.Errorf("persistence.backend %q is not supported", cfg.Persistence.Backend)
	}

	switch cfg.TextGen.Provider {
	case ProviderTemplate:
	case ProviderHTTP:
		if cfg.TextGen.BaseURL == "" {
			return fmt.Errorf("textgen.base_url is required for the http provider")
		}
	case ProviderGemini:
		if cfg.TextGen.APIKey == "" {
			return fmt.Errorf("textgen.api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("textgen.provider %q is not supported", cfg.TextGen.Provider)
	}

	if cfg.Validation.NarrativeMinLength < 0 {
		return fmt.Errorf("validation.narrative_min_length must not be negative")
	}
	if cfg.Validation.DefaultLocale != "en" && cfg.Validation.DefaultLocale != "ar" {
		return fmt.Errorf("validation.default_locale %q is not supported", cfg.Validation.DefaultLocale)
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
