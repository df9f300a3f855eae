package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mithrel/inputwire/pkg/input"
)

// applyDefaults seeds Viper with the defaults from GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Value)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
func Load(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "inputwire"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "inputwire"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// Config file is optional.
	_ = v.ReadInConfig()

	// Environment variables: INPUTWIRE_*.
	v.SetEnvPrefix("inputwire")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(v.GetString("journal_path")) == "" {
		v.Set("journal_path", DefaultJournalPath())
	}
	return Check(v)
}

// Check validates the merged configuration.
func Check(v *viper.Viper) error {
	var problems []string
	if v.GetInt("bench.events") <= 0 {
		problems = append(problems, "bench.events must be greater than 0")
	}
	if pc := v.GetInt("bench.pointers"); pc < 1 || pc > input.MaxPointers {
		problems = append(problems, fmt.Sprintf("bench.pointers must be in [1, %d]", input.MaxPointers))
	}
	if strings.TrimSpace(v.GetString("channel_name")) == "" {
		problems = append(problems, "channel_name is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
