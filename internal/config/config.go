// Package config loads the flang YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"nickandperla.net/flang/internal/log"
	"nickandperla.net/flang/internal/store"
)

// FileName is the configuration file looked up when no path is given.
const FileName = "flang.yaml"

// Config mirrors the configuration file. Unset optional values stay nil
// so that command line defaults can differ per verb.
type Config struct {
	Optimize    *bool  `yaml:"optimize"`
	Rounds      *int   `yaml:"rounds"`
	DB          string `yaml:"db"`
	PersistMode string `yaml:"persist_mode"`
	Stdlib      *bool  `yaml:"stdlib"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	HistoryFile string `yaml:"history_file"`

	// Path is the file the configuration was read from.
	Path string `yaml:"-"`
}

// Decode parses a configuration document. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the configuration at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Find loads an explicit path if given. Otherwise it tries flang.yaml in
// the working directory and then in the user config directory, returning
// an empty Config when neither exists.
func Find(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "flang", FileName))
	}
	for _, p := range candidates {
		c, err := Load(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return c, err
	}
	return &Config{}, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Rounds != nil && *c.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", *c.Rounds)
	}
	if _, err := store.ParsePersistMode(c.PersistMode); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// OptimizeOr returns the optimize setting, or def when unset.
func (c *Config) OptimizeOr(def bool) bool {
	if c.Optimize == nil {
		return def
	}
	return *c.Optimize
}

// RoundsOr returns the rounds setting, or def when unset.
func (c *Config) RoundsOr(def int) int {
	if c.Rounds == nil {
		return def
	}
	return *c.Rounds
}

// StdlibEnabled reports whether the prelude should load. Defaults to true.
func (c *Config) StdlibEnabled() bool {
	return c.Stdlib == nil || *c.Stdlib
}

// Mode returns the parsed persist mode.
func (c *Config) Mode() store.PersistMode {
	m, _ := store.ParsePersistMode(c.PersistMode)
	return m
}
