package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Settings is the persisted toolkit configuration.
type Settings struct {
	Version        int    `json:"version"`
	DataDir        string `json:"dataDir"`        // where reports are saved
	TaskTimeoutSec int    `json:"taskTimeoutSec"` // per-task wall clock bound
	MaxLogLines    int    `json:"maxLogLines"`    // retained live log lines
	Verbose        bool   `json:"verbose"`
}

// NewDefaults returns settings suitable for first run.
func NewDefaults() *Settings {
	return &Settings{
		Version:        1,
		DataDir:        defaultDataDir(),
		TaskTimeoutSec: 600,
		MaxLogLines:    2000,
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "techbench", "reports")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "techbench", "reports")
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "techbench")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "techbench")
}

// Path returns the settings file location.
func Path() string {
	return filepath.Join(configDir(), "config.json")
}

// LoadFromFile reads settings from path. Missing fields keep defaults.
func LoadFromFile(path string) (*Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	// Refuse settings writable by group/others.
	if info.Mode().Perm()&0o022 != 0 {
		return nil, fmt.Errorf("config %s has unsafe permissions %o (writable by group/others)", path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := NewDefaults()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Load reads the default settings file, falling back to defaults when it
// does not exist yet.
func Load() (*Settings, error) {
	s, err := LoadFromFile(Path())
	if errors.Is(err, os.ErrNotExist) {
		return NewDefaults(), nil
	}
	return s, err
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	if err := os.MkdirAll(configDir(), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(), data, 0o600)
}
