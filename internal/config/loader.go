package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidClassifierNames lists known classifier backend names.
// Used by [Validate] to warn about unrecognised names.
var ValidClassifierNames = []string{"openai", "anyllm", "cardiff", "mock"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Classifier backends
	errs = append(errs, validateClassifierEntry("classifier", cfg.Classifier)...)
	for i, entry := range cfg.ClassifierFallbacks {
		prefix := fmt.Sprintf("classifier_fallbacks[%d]", i)
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		errs = append(errs, validateClassifierEntry(prefix, entry)...)
	}

	// Chat
	if t := cfg.Chat.Topics.FuzzyThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("chat.topics.fuzzy_threshold %.2f is out of range [0, 1]", t))
	}
	if cfg.Chat.Topics.FuzzyThreshold > 0 && !cfg.Chat.Topics.FuzzyMatching {
		slog.Warn("chat.topics.fuzzy_threshold is set but fuzzy_matching is disabled; threshold will be ignored")
	}

	return errors.Join(errs...)
}

// validateClassifierEntry checks one classifier backend block. prefix names
// the YAML location for error messages.
func validateClassifierEntry(prefix string, entry ProviderEntry) []error {
	if entry.Name != "" && !slices.Contains(ValidClassifierNames, entry.Name) {
		slog.Warn("unknown classifier name — may be a typo or third-party backend",
			"location", prefix,
			"name", entry.Name,
			"known", ValidClassifierNames,
		)
	}

	var errs []error
	switch entry.Name {
	case "openai":
		if entry.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s.api_key is required for the openai backend", prefix))
		}
	case "anyllm":
		if _, ok := entry.Options["provider"].(string); !ok {
			errs = append(errs, fmt.Errorf("%s.options.provider is required for the anyllm backend", prefix))
		}
	case "cardiff":
		if entry.BaseURL == "" {
			errs = append(errs, fmt.Errorf("%s.base_url is required for the cardiff sidecar", prefix))
		}
	}
	return errs
}
