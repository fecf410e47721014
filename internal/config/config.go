package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider     = "gemini"
	DefaultModel        = "gemini-1.5-flash"
	DefaultCSSFramework = "Tailwind CSS"
	DefaultUsagePrefix  = "app"
	DefaultTimeout      = 90 * time.Second
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
		Name string `yaml:"name"` // workspace project; empty means the manifest default
	} `yaml:"project"`
	AI struct {
		Provider string        `yaml:"provider"`
		Model    string        `yaml:"model"`
		APIKey   string        `yaml:"api_key"`
		BaseURL  string        `yaml:"base_url"` // OpenAI-compatible endpoints only
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"ai"`
	Generate struct {
		CSSFramework string `yaml:"css_framework"`
		UsagePrefix  string `yaml:"usage_prefix"`
		AddUsage     bool   `yaml:"add_usage"`
	} `yaml:"generate"`
}

// LoadConfig reads path, falling back to defaults when the file does not exist.
// Environment variables (and a local .env) override file values.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	var cfg Config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if apiKey := os.Getenv("PROTOTYPER_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("PROTOTYPER_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("PROTOTYPER_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if baseURL := os.Getenv("PROTOTYPER_BASE_URL"); baseURL != "" {
		cfg.AI.BaseURL = baseURL
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.AI.Provider == "" {
		c.AI.Provider = DefaultProvider
	}
	if c.AI.Model == "" && c.AI.Provider == DefaultProvider {
		c.AI.Model = DefaultModel
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = DefaultTimeout
	}
	if c.Generate.CSSFramework == "" {
		c.Generate.CSSFramework = DefaultCSSFramework
	}
	if c.Generate.UsagePrefix == "" {
		c.Generate.UsagePrefix = DefaultUsagePrefix
	}
}
