// Package config provides the configuration schema, loader, and classifier
// registry for the Tonearbiter agent.
package config

// LogLevel controls log verbosity for the Tonearbiter server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Tonearbiter.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig  `yaml:"server"`
	Classifier ProviderEntry `yaml:"classifier"`

	// ClassifierFallbacks are tried in order when the primary classifier
	// fails or its circuit breaker is open.
	ClassifierFallbacks []ProviderEntry `yaml:"classifier_fallbacks"`

	Chat ChatConfig `yaml:"chat"`
}

// ServerConfig holds logging and metrics settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProviderEntry is the configuration block for the sentiment classifier
// backend. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered classifier implementation
	// (e.g., "openai", "anyllm", "cardiff", "mock").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the backend's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default API endpoint. Required for
	// the cardiff sidecar, optional elsewhere.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the backend (e.g., "gpt-4o-mini").
	Model string `yaml:"model"`

	// Options holds backend-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or
	// nested maps. The anyllm backend reads its upstream provider name from
	// options.provider.
	Options map[string]any `yaml:"options"`
}

// ChatConfig holds conversation-pipeline settings.
type ChatConfig struct {
	// DataDir is the directory transcripts are exported to when a
	// conversation ends. Empty disables export.
	DataDir string `yaml:"data_dir"`

	// JournalPath is the append-only JSON-lines journal file. Empty
	// disables journalling.
	JournalPath string `yaml:"journal_path"`

	// Topics configures topic extraction from user messages.
	Topics TopicsConfig `yaml:"topics"`

	// RandomSeed seeds the response selector's random source for
	// reproducible runs. When nil, a time-based seed is used.
	RandomSeed *int64 `yaml:"random_seed"`
}

// TopicsConfig controls the topic extractor.
type TopicsConfig struct {
	// FuzzyMatching enables Jaro-Winkler matching of message words against
	// topic keywords, catching misspellings like "shiping".
	FuzzyMatching bool `yaml:"fuzzy_matching"`

	// FuzzyThreshold is the minimum Jaro-Winkler similarity in (0, 1].
	// 0 means the default of 0.90.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}
