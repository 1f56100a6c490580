package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName = "fleetcred"
	defaultConfigFile    = "config.yaml"
	defaultStoreFile     = "store.yaml"
)

func DefaultConfigPath() string {
	if env := os.Getenv("FLEETCRED_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fleetcred", defaultConfigFile)
}

func DefaultStorePath() string {
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultStoreFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fleetcred", defaultStoreFile)
}
