// Package config loads the optional libvend configuration file.
//
// Configuration lives at ~/.config/libvend/config.toml (XDG_CONFIG_HOME
// honored) and overrides the built-in registry location and default owner
// namespace. An absent file is not an error - every field has a default.
//
// Example:
//
//	registry_url = "https://github.com/acme/library-index.git"
//	default_owner = "acme"
//	git_binary = "/usr/local/bin/git"
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	liberrors "github.com/libvend/libvend/pkg/errors"
)

// appName is used for the configuration directory.
const appName = "libvend"

// Defaults for an absent or partial configuration file.
const (
	// DefaultRegistryURL is the canonical location of the central
	// name-to-source registry repository.
	DefaultRegistryURL = "https://github.com/libvend/index.git"

	// DefaultOwner is the owner namespace used to guess a source location
	// for bare names missing from the registry index.
	DefaultOwner = "libvend"
)

// Config holds user-adjustable settings.
type Config struct {
	// RegistryURL is the git location of the central registry repository.
	RegistryURL string `toml:"registry_url"`
	// DefaultOwner is the fallback owner namespace for unindexed bare names.
	DefaultOwner string `toml:"default_owner"`
	// GitBinary overrides the git executable. Empty means "git" from PATH.
	GitBinary string `toml:"git_binary"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		RegistryURL:  DefaultRegistryURL,
		DefaultOwner: DefaultOwner,
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a file that exists but cannot be parsed is an error, since a
// silently ignored config is worse than a loud one.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, liberrors.Wrap(liberrors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), liberrors.Wrap(liberrors.ErrCodeInvalidInput, err, "parse config %s", path)
	}

	if cfg.RegistryURL == "" {
		cfg.RegistryURL = DefaultRegistryURL
	}
	if cfg.DefaultOwner == "" {
		cfg.DefaultOwner = DefaultOwner
	}
	return cfg, nil
}

// Dir returns the libvend configuration directory using the XDG standard
// (~/.config/libvend/). The directory also holds the registry mirror.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// Path returns the default configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
