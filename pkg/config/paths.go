package config

import (
	"os"
	"path/filepath"
)

const (
	EnvConfigPath  = "CARPOOLNAV_CONFIG"
	ConfigFileName = "carpoolnav.yaml"
	ConfigDirName  = "carpoolnav"
)

// FindConfigPath returns the first existing config file, or "" when there is none.
//
// Priority:
//  1. $CARPOOLNAV_CONFIG
//  2. ./carpoolnav.yaml
//  3. $XDG_CONFIG_HOME/carpoolnav/config.yaml
//  4. ~/.config/carpoolnav/config.yaml
//  5. /etc/carpoolnav/config.yaml
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	path := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(path) {
		return path
	}
	return ""
}

func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
