// File: config/config.go

package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/personabench/lmeval/utils"
)

// Config holds the runtime settings shared by every experiment in a run.
// API keys are discovered from the environment (one <PROVIDER>_API_KEY
// variable per provider) and passed by value into workers.
type Config struct {
	Temperature       float64       `env:"LMEVAL_TEMPERATURE" envDefault:"0"`
	MaxTokens         int           `env:"LMEVAL_MAX_TOKENS" envDefault:"64"`
	Seed              *int          `env:"LMEVAL_SEED"`
	Timeout           time.Duration `env:"LMEVAL_TIMEOUT" envDefault:"120s"`
	MaxRetries        int           `env:"LMEVAL_MAX_RETRIES" envDefault:"2"`
	BaseDelay         time.Duration `env:"LMEVAL_BASE_DELAY" envDefault:"3s"`
	MaxDelay          time.Duration `env:"LMEVAL_MAX_DELAY" envDefault:"5s"`
	RequestsPerMinute int           `env:"LMEVAL_RPM" envDefault:"0"`
	WorkerFraction    float64       `env:"LMEVAL_WORKER_FRACTION" envDefault:"0.75"`
	PromptDir         string        `env:"LMEVAL_PROMPT_DIR" envDefault:"prompts"`
	OutputDir         string        `env:"LMEVAL_OUTPUT_DIR" envDefault:"outputs"`
	LogDir            string        `env:"LMEVAL_LOG_DIR" envDefault:"logs"`
	LogLevel          utils.LogLevel `env:"LMEVAL_LOG_LEVEL" envDefault:"INFO"`
	APIKeys           map[string]string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	loadAPIKeys(cfg)
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// APIKey returns the credential for a provider, if one was present in the
// environment.
func (c *Config) APIKey(provider string) (string, bool) {
	key, ok := c.APIKeys[strings.ToLower(provider)]
	return key, ok
}

type ConfigOption func(*Config)

func NewConfig() *Config {
	return &Config{
		Temperature:    0,
		MaxTokens:      64,
		Timeout:        120 * time.Second,
		MaxRetries:     2,
		BaseDelay:      3 * time.Second,
		MaxDelay:       5 * time.Second,
		WorkerFraction: 0.75,
		PromptDir:      "prompts",
		OutputDir:      "outputs",
		LogDir:         "logs",
		LogLevel:       utils.LogLevelInfo,
		APIKeys:        make(map[string]string),
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		if maxTokens < 1 {
			maxTokens = 1
		}
		c.MaxTokens = maxTokens
	}
}

func SetSeed(seed int) ConfigOption {
	return func(c *Config) {
		c.Seed = &seed
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelays(base, max time.Duration) ConfigOption {
	return func(c *Config) {
		c.BaseDelay = base
		c.MaxDelay = max
	}
}

func SetRequestsPerMinute(rpm int) ConfigOption {
	return func(c *Config) {
		c.RequestsPerMinute = rpm
	}
}

func SetWorkerFraction(fraction float64) ConfigOption {
	return func(c *Config) {
		c.WorkerFraction = fraction
	}
}

func SetAPIKey(provider, apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[strings.ToLower(provider)] = apiKey
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
