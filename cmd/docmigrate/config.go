package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/mgt2e/docmigrate/logger"
	"github.com/mgt2e/docmigrate/vocab"
)

// Config represents the configuration file of docmigrate.
type Config struct {
	Logging    logger.Config `toml:"logging"`
	Vocabulary vocab.Config  `toml:"vocabulary"`
}

// NewConfig returns an instance of Config with reasonable defaults.
func NewConfig() Config {
	return Config{
		Logging:    logger.NewConfig(),
		Vocabulary: vocab.DefaultConfig(),
	}
}

// ParseConfig parses a TOML configuration. Settings missing from s keep
// their default value; a vocabulary given in s replaces the default one.
// An empty vocabulary list counts as missing and keeps the default.
func ParseConfig(s string) (Config, error) {
	var fromFile Config
	md, err := toml.Decode(s, &fromFile)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown configuration keys: %v", undecoded)
	}

	c := NewConfig()
	if err := mergo.Merge(&c, fromFile, mergo.WithOverride); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadConfig reads the configuration file at path. An empty path yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return NewConfig(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := ParseConfig(string(b))
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// docmigrateDir returns the directory holding the default world store.
func docmigrateDir() (string, error) {
	var dir string
	// By default, store the world in the current user's home directory
	u, err := user.Current()
	if err == nil {
		dir = u.HomeDir
	} else if home := os.Getenv("HOME"); home != "" {
		dir = home
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	return filepath.Join(dir, ".docmigrate"), nil
}
