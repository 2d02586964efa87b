package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// configFile is the name of the TOML configuration file inside configDir.
const configFile = "config.toml"

// Config holds user preferences loaded from ~/.config/lumen/config.toml.
// All fields are optional; zero values fall back to built-in defaults.
// Command-line flags take precedence over configuration values.
type Config struct {
	// NoCache disables the artifact cache for all commands.
	NoCache bool `toml:"no_cache"`

	// Format is the default render format (dot, svg, png).
	Format string `toml:"format"`

	// ShowZ includes z values in inspect and render output by default.
	ShowZ bool `toml:"show_z"`

	// Offscreen includes the offscreen hierarchy by default.
	Offscreen bool `toml:"offscreen"`

	// CacheTTLHours overrides how long rendered artifacts stay cached.
	CacheTTLHours int `toml:"cache_ttl_hours"`
}

// LoadConfig reads the configuration file from the standard location.
// A missing file is not an error and returns the zero config.
func LoadConfig() (Config, error) {
	dir, err := configDir()
	if err != nil {
		return Config{}, err
	}
	return loadConfigFile(filepath.Join(dir, configFile))
}

// LoadConfigOrDefault is LoadConfig with errors demoted to the zero config.
// Used during CLI construction, where a broken config file must not prevent
// commands like "--help" from running.
func LoadConfigOrDefault() Config {
	cfg, err := LoadConfig()
	if err != nil {
		return Config{}
	}
	return cfg
}

func loadConfigFile(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
