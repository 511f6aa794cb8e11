package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Source is an extra RSS channel merged into the channel catalog.
type Source struct {
	Name    string `yaml:"name"`
	Title   string `yaml:"title,omitempty"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// LLMConfig selects the keyword-extraction provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "openai"
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

type Config struct {
	APIBase    string     `yaml:"api_base"`
	CacheDir   string     `yaml:"cache_dir,omitempty"`
	PromptFile string     `yaml:"prompt_file,omitempty"`
	Workers    int        `yaml:"workers,omitempty"`
	Retention  string     `yaml:"retention,omitempty"`
	Sources    []Source   `yaml:"sources,omitempty"`
	LLM        *LLMConfig `yaml:"llm,omitempty"`
}

// LLMKey returns the resolved API key: config value, then HOTWORDS_AI_KEY,
// then GOOGLE_API_KEY for compatibility with the Gemini SDK convention.
func (c *Config) LLMKey() string {
	if c.LLM != nil && c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	if key := os.Getenv("HOTWORDS_AI_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// LLMEnabled reports whether an extraction provider can be constructed.
func (c *Config) LLMEnabled() bool {
	return c.LLM != nil && c.LLMKey() != ""
}

// GetWorkers returns the fetch/extract worker count, defaulting to 4.
func (c *Config) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

func (c *Config) RetentionDuration() time.Duration {
	if c.Retention == "" {
		return 90 * 24 * time.Hour
	}
	// Support "Nd" day syntax
	if len(c.Retention) > 1 && c.Retention[len(c.Retention)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(c.Retention, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(c.Retention)
	if err != nil {
		return 90 * 24 * time.Hour
	}
	return d
}

// EnabledSources returns the RSS sources that should join the catalog.
func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// GetCacheDir returns the hot-list cache directory, one raw response file
// per channel.
func (c *Config) GetCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return filepath.Join(xdg.CacheHome, "hotwords", "hotlists")
}

// GetPromptFile returns the prompt template path. Empty means "prompt.json"
// in the working directory, matching the original tool layout.
func (c *Config) GetPromptFile() string {
	if c.PromptFile != "" {
		return c.PromptFile
	}
	return "prompt.json"
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "hotwords", "config.yaml")
}

// HistoryPath is the sqlite database recording past extraction runs.
func HistoryPath() string {
	return filepath.Join(xdg.CacheHome, "hotwords", "hotwords.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.APIBase == "" {
		cfg.APIBase = defaults.APIBase
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.APIBase)
	if err != nil {
		return fmt.Errorf("invalid api_base: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base scheme must be http or https, got %q", u.Scheme)
	}

	if cfg.LLM != nil {
		switch cfg.LLM.Provider {
		case "", "gemini", "openai":
		default:
			return fmt.Errorf("unknown llm provider: %q (valid: gemini, openai)", cfg.LLM.Provider)
		}
	}

	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		su, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if su.Scheme != "http" && su.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, su.Scheme)
		}
	}
	return nil
}
