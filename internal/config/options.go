package config

import (
	"os"
	"path/filepath"
)

type ConfigOption struct {
	Key     string
	Value   any
	Comment string
}

// GetConfigOptions returns the default configuration options and their
// meanings. Single source of truth for defaults.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "journal_path", Value: DefaultJournalPath(), Comment: "sqlite file where tap --journal records events"},
		{Key: "channel_name", Value: "inputwire", Comment: "Diagnostic name given to channel pairs"},

		{Key: "bench.events", Value: 10000, Comment: "Number of events per bench run"},
		{Key: "bench.pointers", Value: 2, Comment: "Pointer count for bench motion events (1..10)"},

		{Key: "tap.device_id", Value: 1, Comment: "Device id stamped on tapped key events"},
	}
}

// DefaultJournalPath resolves $XDG_DATA_HOME/inputwire/journal.db or
// ~/.local/share/inputwire/journal.db.
func DefaultJournalPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "inputwire", "journal.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "inputwire", "journal.db")
}
