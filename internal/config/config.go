// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// R-Precision modes for queries that retrieve fewer documents than they have relevant ones.
const (
	RPrecisionLastRank = "last_rank"
	RPrecisionStrict   = "strict"
)

// Config holds all application configuration.
type Config struct {
	// Dataset file locations
	Dataset DatasetConfig `yaml:"dataset"`

	// Search provider settings
	Search SearchConfig `yaml:"search"`

	// Metrics engine settings
	Eval EvalConfig `yaml:"eval"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Run history configuration
	History HistoryConfig `yaml:"history"`

	// Prometheus textfile export
	Metrics MetricsConfig `yaml:"metrics"`

	// Analyzers are evaluated in order.
	Analyzers []AnalyzerConfig `yaml:"analyzers" ignored:"true"`
}

// DatasetConfig holds the input file paths.
type DatasetConfig struct {
	Documents string `envconfig:"RICE_EVAL_DOCUMENTS" yaml:"documents"`
	Queries   string `envconfig:"RICE_EVAL_QUERIES" yaml:"queries"`
	Qrels     string `envconfig:"RICE_EVAL_QRELS" yaml:"qrels"`
	Stopwords string `envconfig:"RICE_EVAL_STOPWORDS" yaml:"stopwords"` // optional
}

// SearchConfig holds search settings.
type SearchConfig struct {
	MaxResults int `envconfig:"RICE_EVAL_MAX_RESULTS" yaml:"max_results"`
}

// EvalConfig holds metrics engine settings.
type EvalConfig struct {
	Workers    int    `envconfig:"RICE_EVAL_WORKERS" yaml:"workers"`
	RPrecision string `envconfig:"RICE_EVAL_R_PRECISION" yaml:"r_precision"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"RICE_EVAL_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"RICE_EVAL_LOG_FORMAT" yaml:"format"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"RICE_EVAL_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"RICE_EVAL_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"RICE_EVAL_KAFKA_GROUP" yaml:"kafka_group"`
	TopicPrefix  string `envconfig:"RICE_EVAL_TOPIC_PREFIX" yaml:"topic_prefix"`
	EventLog     string `envconfig:"RICE_EVAL_EVENT_LOG" yaml:"event_log"` // JSON lines journal, empty = disabled
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Type       string `envconfig:"RICE_EVAL_HISTORY_TYPE" yaml:"type"`
	RedisURL   string `envconfig:"RICE_EVAL_REDIS_URL" yaml:"redis_url"`
	MaxEntries int    `envconfig:"RICE_EVAL_HISTORY_MAX_ENTRIES" yaml:"max_entries"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	File string `envconfig:"RICE_EVAL_METRICS_FILE" yaml:"file"` // empty = disabled
}

// AnalyzerConfig describes one named text-analysis pipeline.
// Empty fields inherit from the preset.
type AnalyzerConfig struct {
	Name       string `yaml:"name"`
	Preset     string `yaml:"preset"`
	Tokenizer  string `yaml:"tokenizer,omitempty"`
	Lowercase  *bool  `yaml:"lowercase,omitempty"`
	Possessive *bool  `yaml:"possessive,omitempty"`
	ASCIIFold  *bool  `yaml:"ascii_fold,omitempty"`
	Normalize  string `yaml:"normalize,omitempty"`
	Stopwords  string `yaml:"stopwords,omitempty"`
	Stemmer    string `yaml:"stemmer,omitempty"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Dataset = DatasetConfig{
		Documents: "documents/cacm.txt",
		Queries:   "evaluation/query.txt",
		Qrels:     "evaluation/qrels.txt",
		Stopwords: "common_words.txt",
	}

	cfg.Search = SearchConfig{
		MaxResults: 1000,
	}

	cfg.Eval = EvalConfig{
		Workers:    1,
		RPrecision: RPrecisionLastRank,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Bus = BusConfig{
		Type:       "memory",
		KafkaGroup: "rice-eval",
	}

	cfg.History = HistoryConfig{
		Type:       "none",
		RedisURL:   "redis://localhost:6379",
		MaxEntries: 100,
	}

	cfg.Analyzers = DefaultAnalyzers()
}

// DefaultAnalyzers returns the four reference configurations.
func DefaultAnalyzers() []AnalyzerConfig {
	return []AnalyzerConfig{
		{Name: "Standard", Preset: "standard"},
		{Name: "Whitespace", Preset: "whitespace"},
		{Name: "English", Preset: "english"},
		{Name: "English with custom stopwords", Preset: "english", Stopwords: "custom"},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Dataset validation
	if c.Dataset.Documents == "" {
		errs = append(errs, "dataset.documents is required")
	}
	if c.Dataset.Queries == "" {
		errs = append(errs, "dataset.queries is required")
	}
	if c.Dataset.Qrels == "" {
		errs = append(errs, "dataset.qrels is required")
	}

	if c.Search.MaxResults < 1 {
		errs = append(errs, "search.max_results must be positive")
	}

	// Eval validation
	if c.Eval.Workers < 1 {
		errs = append(errs, "eval.workers must be positive")
	}
	validModes := map[string]bool{RPrecisionLastRank: true, RPrecisionStrict: true}
	if !validModes[c.Eval.RPrecision] {
		errs = append(errs, fmt.Sprintf("invalid r_precision mode: %s (must be last_rank or strict)", c.Eval.RPrecision))
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	// Bus validation
	validBusTypes := map[string]bool{"none": true, "memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be none, memory, or kafka)", c.Bus.Type))
	}

	// History validation
	validHistoryTypes := map[string]bool{"none": true, "memory": true, "redis": true}
	if !validHistoryTypes[c.History.Type] {
		errs = append(errs, fmt.Sprintf("invalid history type: %s (must be none, memory, or redis)", c.History.Type))
	}
	if c.History.MaxEntries < 1 {
		errs = append(errs, "history.max_entries must be positive")
	}

	// Analyzer validation. Unknown presets are not rejected here: they surface
	// at run time as unavailable configurations.
	if len(c.Analyzers) == 0 {
		errs = append(errs, "at least one analyzer is required")
	}
	seen := make(map[string]bool, len(c.Analyzers))
	for i, a := range c.Analyzers {
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Sprintf("analyzers[%d].name is required", i))
			continue
		}
		if seen[a.Name] {
			errs = append(errs, fmt.Sprintf("duplicate analyzer name: %s", a.Name))
		}
		seen[a.Name] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Analyzer returns the analyzer configuration with the given name.
func (c *Config) Analyzer(name string) (AnalyzerConfig, bool) {
	for _, a := range c.Analyzers {
		if a.Name == name {
			return a, true
		}
	}
	return AnalyzerConfig{}, false
}

// SelectAnalyzers keeps only the named analyzers, in configuration order.
// An empty list keeps all of them.
func (c *Config) SelectAnalyzers(names []string) error {
	if len(names) == 0 {
		return nil
	}

	var (
		kept    []AnalyzerConfig
		missing []string
	)
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := c.Analyzer(n); !ok {
			missing = append(missing, n)
		}
		want[n] = true
	}
	if len(missing) > 0 {
		return fmt.Errorf("unknown analyzer(s): %s", strings.Join(missing, ", "))
	}

	for _, a := range c.Analyzers {
		if want[a.Name] {
			kept = append(kept, a)
		}
	}
	c.Analyzers = kept
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
