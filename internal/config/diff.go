package config

import "reflect"

// ConfigDiff describes what changed between two configs. Log level and chat
// settings can be hot-reloaded; a classifier change requires a rebuild of the
// arbitration engine and is only reported.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	ClassifierChanged bool
	ChatChanged       bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// ProviderEntry.Options is a map, so reflect.DeepEqual rather than ==.
	if !reflect.DeepEqual(old.Classifier, new.Classifier) {
		d.ClassifierChanged = true
	}

	if !reflect.DeepEqual(old.Chat, new.Chat) {
		d.ChatChanged = true
	}

	return d
}
