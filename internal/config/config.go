// Package config resolves service and CLI settings. Sources are applied in
// increasing precedence: built-in defaults, an optional TOML file, a .env
// file, the process environment and finally command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/zombar/contentlens/internal/ollama"
	"github.com/zombar/contentlens/internal/provider"
)

// ConfigPathEnv names the environment variable holding the TOML file path
const ConfigPathEnv = "CONTENTLENS_CONFIG"

// Config is the fully resolved configuration
type Config struct {
	Port              string
	DatabaseURL       string
	RedisAddr         string
	WorkerConcurrency int

	Provider          provider.Config
	ProviderTimeout   time.Duration
	ProviderRateLimit float64
	CacheSize         int

	MaxContentLength   int
	RateLimitPerMinute int
	FetchTimeout       time.Duration

	Archive ArchiveConfig

	OTLPEndpoint string
	ServiceName  string
	LogLevel     string
}

// ArchiveConfig locates the S3-compatible report archive
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled reports whether an archive endpoint was configured
func (a ArchiveConfig) Enabled() bool {
	return a.Endpoint != ""
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:              "8080",
		DatabaseURL:       "contentlens.db",
		WorkerConcurrency: 4,
		Provider: provider.Config{
			Preference:     provider.NameAuto,
			AnthropicModel: provider.DefaultAnthropicModel,
			OpenAIModel:    provider.DefaultOpenAIModel,
			OpenAIBaseURL:  provider.DefaultOpenAIBaseURL,
			GoogleModel:    provider.DefaultGoogleModel,
			OllamaURL:      ollama.DefaultURL,
			OllamaModel:    ollama.DefaultModel,
		},
		ProviderTimeout:    20 * time.Second,
		ProviderRateLimit:  2,
		CacheSize:          512,
		MaxContentLength:   15000,
		RateLimitPerMinute: 60,
		FetchTimeout:       10 * time.Second,
		Archive: ArchiveConfig{
			Bucket: "contentlens-reports",
			Region: "us-east-1",
		},
		ServiceName: "contentlens",
		LogLevel:    "info",
	}
}

// Load builds a Config from defaults, the TOML file at path (or
// $CONTENTLENS_CONFIG), .env and the environment. Flags are applied
// separately with BindFlags.
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env never overrides variables already present in the environment
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig mirrors the TOML layout. Pointers distinguish unset values
// from explicit zeroes.
type fileConfig struct {
	Port               string `toml:"port"`
	DatabaseURL        string `toml:"database_url"`
	RedisAddr          string `toml:"redis_addr"`
	WorkerConcurrency  *int   `toml:"worker_concurrency"`
	MaxContentLength   *int   `toml:"max_content_length"`
	RateLimitPerMinute *int   `toml:"rate_limit_per_minute"`
	FetchTimeout       string `toml:"fetch_timeout"`
	OTLPEndpoint       string `toml:"otlp_endpoint"`
	ServiceName        string `toml:"service_name"`
	LogLevel           string `toml:"log_level"`

	Provider struct {
		Name      string   `toml:"name"`
		Timeout   string   `toml:"timeout"`
		RateLimit *float64 `toml:"rate_limit"`
		CacheSize *int     `toml:"cache_size"`

		Anthropic struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"anthropic"`
		OpenAI struct {
			APIKey  string `toml:"api_key"`
			Model   string `toml:"model"`
			BaseURL string `toml:"base_url"`
		} `toml:"openai"`
		Google struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"google"`
		Ollama struct {
			Enabled *bool  `toml:"enabled"`
			URL     string `toml:"url"`
			Model   string `toml:"model"`
		} `toml:"ollama"`
	} `toml:"provider"`

	Archive struct {
		Endpoint  string `toml:"endpoint"`
		AccessKey string `toml:"access_key"`
		SecretKey string `toml:"secret_key"`
		Bucket    string `toml:"bucket"`
		Region    string `toml:"region"`
		UseSSL    *bool  `toml:"use_ssl"`
	} `toml:"archive"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.Port, f.Port)
	setString(&c.DatabaseURL, f.DatabaseURL)
	setString(&c.RedisAddr, f.RedisAddr)
	setInt(&c.WorkerConcurrency, f.WorkerConcurrency)
	setInt(&c.MaxContentLength, f.MaxContentLength)
	setInt(&c.RateLimitPerMinute, f.RateLimitPerMinute)
	setString(&c.OTLPEndpoint, f.OTLPEndpoint)
	setString(&c.ServiceName, f.ServiceName)
	setString(&c.LogLevel, f.LogLevel)
	if err := setDuration(&c.FetchTimeout, "fetch_timeout", f.FetchTimeout); err != nil {
		return err
	}

	p := f.Provider
	setString(&c.Provider.Preference, p.Name)
	if err := setDuration(&c.ProviderTimeout, "provider.timeout", p.Timeout); err != nil {
		return err
	}
	if p.RateLimit != nil {
		c.ProviderRateLimit = *p.RateLimit
	}
	setInt(&c.CacheSize, p.CacheSize)
	setString(&c.Provider.AnthropicAPIKey, p.Anthropic.APIKey)
	setString(&c.Provider.AnthropicModel, p.Anthropic.Model)
	setString(&c.Provider.OpenAIAPIKey, p.OpenAI.APIKey)
	setString(&c.Provider.OpenAIModel, p.OpenAI.Model)
	setString(&c.Provider.OpenAIBaseURL, p.OpenAI.BaseURL)
	setString(&c.Provider.GoogleAPIKey, p.Google.APIKey)
	setString(&c.Provider.GoogleModel, p.Google.Model)
	if p.Ollama.Enabled != nil {
		c.Provider.UseOllama = *p.Ollama.Enabled
	}
	setString(&c.Provider.OllamaURL, p.Ollama.URL)
	setString(&c.Provider.OllamaModel, p.Ollama.Model)

	a := f.Archive
	setString(&c.Archive.Endpoint, a.Endpoint)
	setString(&c.Archive.AccessKey, a.AccessKey)
	setString(&c.Archive.SecretKey, a.SecretKey)
	setString(&c.Archive.Bucket, a.Bucket)
	setString(&c.Archive.Region, a.Region)
	if a.UseSSL != nil {
		c.Archive.UseSSL = *a.UseSSL
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.DatabaseURL = getEnv("DB_PATH", c.DatabaseURL)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)

	c.Provider.Preference = getEnv("AI_PROVIDER", c.Provider.Preference)
	c.Provider.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.Provider.AnthropicAPIKey)
	c.Provider.AnthropicModel = getEnv("ANTHROPIC_MODEL", c.Provider.AnthropicModel)
	c.Provider.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.Provider.OpenAIAPIKey)
	c.Provider.OpenAIModel = getEnv("OPENAI_MODEL", c.Provider.OpenAIModel)
	c.Provider.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.Provider.OpenAIBaseURL)
	c.Provider.GoogleAPIKey = getEnv("GOOGLE_AI_API_KEY", c.Provider.GoogleAPIKey)
	c.Provider.GoogleModel = getEnv("GOOGLE_AI_MODEL", c.Provider.GoogleModel)
	c.Provider.UseOllama = getEnvBool("USE_OLLAMA", c.Provider.UseOllama)
	c.Provider.OllamaURL = getEnv("OLLAMA_URL", c.Provider.OllamaURL)
	c.Provider.OllamaModel = getEnv("OLLAMA_MODEL", c.Provider.OllamaModel)

	c.Archive.Endpoint = getEnv("ARCHIVE_ENDPOINT", c.Archive.Endpoint)
	c.Archive.AccessKey = getEnv("ARCHIVE_ACCESS_KEY", c.Archive.AccessKey)
	c.Archive.SecretKey = getEnv("ARCHIVE_SECRET_KEY", c.Archive.SecretKey)
	c.Archive.Bucket = getEnv("ARCHIVE_BUCKET", c.Archive.Bucket)
	c.Archive.Region = getEnv("ARCHIVE_REGION", c.Archive.Region)
	c.Archive.UseSSL = getEnvBool("ARCHIVE_USE_SSL", c.Archive.UseSSL)

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	var errs []error
	errs = append(errs,
		getEnvInt("WORKER_CONCURRENCY", &c.WorkerConcurrency),
		getEnvInt("CACHE_SIZE", &c.CacheSize),
		getEnvInt("MAX_CONTENT_LENGTH", &c.MaxContentLength),
		getEnvInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute),
		getEnvFloat("PROVIDER_RATE_LIMIT", &c.ProviderRateLimit),
		getEnvDuration("PROVIDER_TIMEOUT", &c.ProviderTimeout),
		getEnvDuration("FETCH_TIMEOUT", &c.FetchTimeout),
	)
	return errors.Join(errs...)
}

// BindFlags registers server flags on fs using the resolved values as
// defaults, so flags given on the command line take precedence.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "Server port (env: PORT)")
	fs.StringVar(&c.DatabaseURL, "db", c.DatabaseURL, "SQLite path or postgres:// DSN (env: DATABASE_URL, DB_PATH)")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "Redis address for async jobs (env: REDIS_ADDR)")
	fs.IntVar(&c.WorkerConcurrency, "workers", c.WorkerConcurrency, "Queue worker concurrency (env: WORKER_CONCURRENCY)")
	fs.StringVar(&c.Provider.Preference, "provider", c.Provider.Preference, "AI provider: auto, anthropic, openai, google, ollama, heuristic (env: AI_PROVIDER)")
	fs.BoolVar(&c.Provider.UseOllama, "use-ollama", c.Provider.UseOllama, "Enable Ollama under auto selection (env: USE_OLLAMA)")
	fs.StringVar(&c.Provider.OllamaURL, "ollama-url", c.Provider.OllamaURL, "Ollama API URL (env: OLLAMA_URL)")
	fs.StringVar(&c.Provider.OllamaModel, "ollama-model", c.Provider.OllamaModel, "Ollama model to use (env: OLLAMA_MODEL)")
	fs.DurationVar(&c.ProviderTimeout, "provider-timeout", c.ProviderTimeout, "Timeout per provider call (env: PROVIDER_TIMEOUT)")
	fs.IntVar(&c.MaxContentLength, "max-content", c.MaxContentLength, "Maximum content length in characters (env: MAX_CONTENT_LENGTH)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error (env: LOG_LEVEL)")
	// Accepted so flag parsing does not fail; the file is read before flags
	fs.String("config", os.Getenv(ConfigPathEnv), "TOML config file (env: CONTENTLENS_CONFIG)")
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database URL must be set"))
	}
	if c.WorkerConcurrency < 1 {
		errs = append(errs, fmt.Errorf("worker concurrency must be positive, got %d", c.WorkerConcurrency))
	}
	if c.MaxContentLength < 1 {
		errs = append(errs, fmt.Errorf("max content length must be positive, got %d", c.MaxContentLength))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout))
	}
	if c.ProviderRateLimit < 0 || c.CacheSize < 0 || c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("rate limits and cache size cannot be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PathFromArgs finds a --config or -config value without parsing the
// full flag set, so the file can be loaded before flags are bound.
func PathFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func getEnvFloat(key string, dst *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = f
	return nil
}

func getEnvDuration(key string, dst *time.Duration) error {
	return setDuration(dst, key, os.Getenv(key))
}

func setDuration(dst *time.Duration, name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value *int) {
	if value != nil {
		*dst = *value
	}
}
