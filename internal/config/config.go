package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all personabot configuration.
type Config struct {
	Name string `yaml:"name" mapstructure:"name"`

	// LLM provider candidates, in selection order.
	LLM LLMConfig `yaml:"llm" mapstructure:"llm"`

	// PersonaFile overrides the embedded default persona.
	PersonaFile string `yaml:"persona_file" mapstructure:"persona_file"`

	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Voice   VoiceConfig   `yaml:"voice" mapstructure:"voice"`
	Bridge  BridgeConfig  `yaml:"bridge" mapstructure:"bridge"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// TurnTimeout bounds one capability run (all agent iterations included).
	TurnTimeout string `yaml:"turn_timeout" mapstructure:"turn_timeout"`
}

// SearchConfig configures the web search tool bound to research and music.
type SearchConfig struct {
	Engine       string `yaml:"engine" mapstructure:"engine"` // duckduckgo, serper
	SerperAPIKey string `yaml:"serper_api_key" mapstructure:"serper_api_key"`
	MaxResults   int    `yaml:"max_results" mapstructure:"max_results"`
	CacheTTL     string `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	Timeout      string `yaml:"timeout" mapstructure:"timeout"`
}

// BridgeConfig configures the message bridge adapter.
type BridgeConfig struct {
	Domain     string `yaml:"domain" mapstructure:"domain"`
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string          `yaml:"format" mapstructure:"format"` // json, text
	Dir        string          `yaml:"dir" mapstructure:"dir"`
	DebugMode  bool            `yaml:"debug_mode" mapstructure:"debug_mode"` // Master toggle - false = no logging
	Categories map[string]bool `yaml:"categories" mapstructure:"categories"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter     string  `yaml:"exporter" mapstructure:"exporter"` // none, file, stdout, otlp
	FilePath     string  `yaml:"file_path" mapstructure:"file_path"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	ServiceName  string  `yaml:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:        "personabot",
		LLM:         DefaultLLMConfig(),
		Voice:       DefaultVoiceConfig(),
		TurnTimeout: "5m",
		Search: SearchConfig{
			Engine:     "duckduckgo",
			MaxResults: 5,
			CacheTTL:   "15m",
			Timeout:    "20s",
		},
		Bridge: BridgeConfig{
			ListenAddr: ":6000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    filepath.Join(".personabot", "logs"),
		},
		Tracing: TracingConfig{
			Exporter:     "file",
			FilePath:     filepath.Join(".personabot", "traces.jsonl"),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
			ServiceName:  "personabot",
		},
	}
}

// Load loads configuration from a YAML file layered over the defaults.
// A missing file is not an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v := viper.New()
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			if err := v.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetTurnTimeout returns the per-turn timeout as a duration.
func (c *Config) GetTurnTimeout() time.Duration {
	return parseDuration(c.TurnTimeout, 5*time.Minute)
}

// GetSearchTimeout returns the search HTTP timeout.
func (c *Config) GetSearchTimeout() time.Duration {
	return parseDuration(c.Search.Timeout, 20*time.Second)
}

// GetSearchCacheTTL returns how long search results stay cached.
func (c *Config) GetSearchCacheTTL() time.Duration {
	return parseDuration(c.Search.CacheTTL, 15*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidSearchEngines lists the supported search backends.
var ValidSearchEngines = []string{"duckduckgo", "serper"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Voice.Validate(); err != nil {
		return err
	}

	valid := false
	for _, e := range ValidSearchEngines {
		if c.Search.Engine == e {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid search engine: %s (valid: %v)", c.Search.Engine, ValidSearchEngines)
	}
	if c.Search.Engine == "serper" && c.Search.SerperAPIKey == "" {
		return fmt.Errorf("search engine serper requires SERPER_API_KEY")
	}

	switch c.Tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("unsupported tracing exporter: %s", c.Tracing.Exporter)
	}
	return nil
}
