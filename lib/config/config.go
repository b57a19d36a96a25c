// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// Environment variables consumed by Load.
const (
	// EnvConfigFile points at the optional yaml config file.
	EnvConfigFile = "AGENTCTL_CONFIG"

	// EnvKeyDir overrides the private-key directory.
	EnvKeyDir = "AGENTCTL_KEY_DIR"

	// EnvTempRoot overrides the temp root holding agent directories.
	EnvTempRoot = "AGENTCTL_TMP"

	// EnvAgentPID and EnvAgentSocket are the variables an ssh-agent
	// exports into the shell that started it. agentctl reads them to
	// detect foreign agents and to mark which discovered agent the
	// calling shell currently points at. It never sets them itself;
	// the env command prints export lines for the user's shell to eval.
	EnvAgentPID    = "SSH_AGENT_PID"
	EnvAgentSocket = "SSH_AUTH_SOCK"
)

// Config is the full configuration for one agentctl invocation. All
// ambient state (effective uid, inherited agent environment) is captured
// into the Config at load time so that discovery is a pure function of
// the Config value and can be unit-tested without mutating the real
// environment.
type Config struct {
	// TempRoot is the directory scanned for managed agent directories
	// and used to create new ones. Potentially world-writable (/tmp),
	// which is why discovery ownership-checks every candidate.
	TempRoot string `yaml:"temp_root"`

	// KeyDir is the directory containing candidate private key files
	// used to resolve agent-held fingerprints to identity names.
	KeyDir string `yaml:"key_dir"`

	// IdentityLifetime is how long a started agent's identities are
	// considered valid, as a Go duration string. It is passed to
	// ssh-agent at spawn time and persisted as the expiration marker.
	IdentityLifetime string `yaml:"identity_lifetime"`

	// EUID is the effective user id of the invoking process. Managed
	// directories and sockets not owned by this uid are distrusted.
	EUID int `yaml:"-"`

	// AgentPID and AgentSocket are the inherited SSH_AGENT_PID and
	// SSH_AUTH_SOCK values, empty when unset.
	AgentPID    string `yaml:"-"`
	AgentSocket string `yaml:"-"`
}

// Default returns the default configuration: the system temp directory
// as temp root, ~/.ssh as the key directory, and a one-hour identity
// lifetime.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		TempRoot:         os.TempDir(),
		KeyDir:           filepath.Join(homeDir, ".ssh"),
		IdentityLifetime: "1h",
		EUID:             os.Geteuid(),
	}
}

// Load builds the effective configuration: defaults, then the yaml file
// at path (or at $AGENTCTL_CONFIG when path is empty; no file at all is
// fine), then environment overrides for the key directory and temp
// root. The inherited agent environment is captured last.
//
// Environment overrides intentionally win over the file: the overrides
// exist so a single shell can point one invocation at a different key
// directory or temp root without editing anything.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if keyDir := os.Getenv(EnvKeyDir); keyDir != "" {
		cfg.KeyDir = keyDir
	}
	if tempRoot := os.Getenv(EnvTempRoot); tempRoot != "" {
		cfg.TempRoot = tempRoot
	}

	cfg.EUID = os.Geteuid()
	cfg.AgentPID = os.Getenv(EnvAgentPID)
	cfg.AgentSocket = os.Getenv(EnvAgentSocket)

	return cfg, nil
}

// Validate checks that the configured directories exist and are
// accessible with read/write/execute permission, and that the identity
// lifetime parses to a positive duration. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []error

	if err := checkDirectory(c.TempRoot); err != nil {
		errs = append(errs, fmt.Errorf("temp root: %w", err))
	}
	if err := checkDirectory(c.KeyDir); err != nil {
		errs = append(errs, fmt.Errorf("key directory: %w", err))
	}

	lifetime, err := time.ParseDuration(c.IdentityLifetime)
	if err != nil {
		errs = append(errs, fmt.Errorf("identity_lifetime: %w", err))
	} else if lifetime <= 0 {
		errs = append(errs, fmt.Errorf("identity_lifetime must be positive, got %s", c.IdentityLifetime))
	}

	return errors.Join(errs...)
}

// Lifetime returns the parsed identity lifetime. Call Validate first;
// an unparseable lifetime degrades to the default one hour here rather
// than panicking.
func (c *Config) Lifetime() time.Duration {
	lifetime, err := time.ParseDuration(c.IdentityLifetime)
	if err != nil || lifetime <= 0 {
		return time.Hour
	}
	return lifetime
}

// checkDirectory verifies path is an existing directory with rwx access
// for the invoking process.
func checkDirectory(path string) error {
	if path == "" {
		return fmt.Errorf("not configured")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%s is not read/write/execute accessible: %w", path, err)
	}
	return nil
}
