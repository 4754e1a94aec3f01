package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Injected at build time.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// VersionString formats the injected build metadata for display.
func VersionString() string {
	if Commit == "" && BuildDate == "" {
		return Version
	}
	return fmt.Sprintf("%s-%s-%s", Version, BuildDate, Commit)
}

// Bus holds CLI defaults for bus routing, used when flags are not given.
// Mux and Channel must be set together or not at all.
type Bus struct {
	Bus     int    `yaml:"bus"`
	Mux     *uint8 `yaml:"mux,omitempty"`
	Channel *uint8 `yaml:"channel,omitempty"`
	Verbose bool   `yaml:"verbose"`
}

// Default returns the routing used when no config file is present.
func Default() *Bus {
	return &Bus{Bus: 1}
}

// Load reads bus routing defaults from a yaml file.
func Load(path string) (*Bus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, nil
}
