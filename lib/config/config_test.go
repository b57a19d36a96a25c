// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.TempRoot != os.TempDir() {
		t.Errorf("expected temp_root=%s, got %s", os.TempDir(), cfg.TempRoot)
	}
	if !strings.HasSuffix(cfg.KeyDir, ".ssh") {
		t.Errorf("expected key_dir under ~/.ssh, got %s", cfg.KeyDir)
	}
	if cfg.IdentityLifetime != "1h" {
		t.Errorf("expected identity_lifetime=1h, got %s", cfg.IdentityLifetime)
	}
	if cfg.EUID != os.Geteuid() {
		t.Errorf("expected euid=%d, got %d", os.Geteuid(), cfg.EUID)
	}
}

func TestLoad_FileAndEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agentctl.yaml")

	configContent := `
temp_root: /from/file/tmp
key_dir: /from/file/keys
identity_lifetime: 30m
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv(EnvConfigFile, configPath)
	t.Setenv(EnvKeyDir, "/from/env/keys")
	t.Setenv(EnvTempRoot, "")
	t.Setenv(EnvAgentPID, "4242")
	t.Setenv(EnvAgentSocket, "/run/user/agent.sock")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TempRoot != "/from/file/tmp" {
		t.Errorf("expected temp_root from file, got %s", cfg.TempRoot)
	}
	if cfg.KeyDir != "/from/env/keys" {
		t.Errorf("expected key_dir from environment override, got %s", cfg.KeyDir)
	}
	if cfg.IdentityLifetime != "30m" {
		t.Errorf("expected identity_lifetime=30m, got %s", cfg.IdentityLifetime)
	}
	if cfg.AgentPID != "4242" || cfg.AgentSocket != "/run/user/agent.sock" {
		t.Errorf("ambient agent environment not captured: pid=%q socket=%q", cfg.AgentPID, cfg.AgentSocket)
	}
}

func TestLoad_ExplicitPathBeatsEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	explicitPath := filepath.Join(tmpDir, "explicit.yaml")
	if err := os.WriteFile(explicitPath, []byte("temp_root: /explicit\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv(EnvConfigFile, filepath.Join(tmpDir, "does-not-exist.yaml"))
	t.Setenv(EnvKeyDir, "")
	t.Setenv(EnvTempRoot, "")

	cfg, err := Load(explicitPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.TempRoot != "/explicit" {
		t.Errorf("expected temp_root=/explicit, got %s", cfg.TempRoot)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := &Config{
		TempRoot:         filepath.Join(t.TempDir(), "nope"),
		KeyDir:           "",
		IdentityLifetime: "not-a-duration",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	message := err.Error()
	for _, want := range []string{"temp root", "key directory", "identity_lifetime"} {
		if !strings.Contains(message, want) {
			t.Errorf("validation error missing %q: %s", want, message)
		}
	}
}

func TestValidate_RejectsNonDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	cfg := &Config{TempRoot: file, KeyDir: tmpDir, IdentityLifetime: "1h"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-directory temp root, got nil")
	}
}

func TestValidate_AcceptsUsableDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{TempRoot: tmpDir, KeyDir: tmpDir, IdentityLifetime: "45m"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Lifetime() != 45*time.Minute {
		t.Errorf("Lifetime() = %v, want 45m", cfg.Lifetime())
	}
}

func TestLifetime_DegradesToDefault(t *testing.T) {
	cfg := &Config{IdentityLifetime: "garbage"}
	if cfg.Lifetime() != time.Hour {
		t.Errorf("Lifetime() = %v, want 1h default", cfg.Lifetime())
	}
}
