package main

import (
	"os"

	"github.com/arjunv/i18nscan/pkg/config"
)

// defaultConfigPath is read automatically when --config is not given:
// present a file there, or fall back to the engine's built-in defaults.
const defaultConfigPath = ".i18nscan/config.yaml"

// resolveConfig applies the fallback chain:
//  1. flagValue, if non-empty: load and error out if the file is missing
//  2. defaultConfigPath, if it exists
//  3. config.Defaults()
func resolveConfig(flagValue string) (*config.Config, error) {
	if flagValue != "" {
		return config.Load(flagValue)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.Defaults(), nil
}
