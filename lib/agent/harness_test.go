// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keyfold/agentctl/lib/clock"
	"github.com/keyfold/agentctl/lib/config"
)

// fakeProber is an in-memory Prober. Liveness answers come from maps
// keyed by pid/path; everything unlisted is dead, invalid, or missing.
type fakeProber struct {
	alivePIDs    map[string]bool
	validSockets map[string]bool
	startTimes   map[string]time.Time
	socketTimes  map[string]time.Time
	disownedDirs map[string]bool
	hangups      []string
	hangupErr    error
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		alivePIDs:    make(map[string]bool),
		validSockets: make(map[string]bool),
		startTimes:   make(map[string]time.Time),
		socketTimes:  make(map[string]time.Time),
		disownedDirs: make(map[string]bool),
	}
}

func (p *fakeProber) PIDValid(pid string) bool     { return p.alivePIDs[pid] }
func (p *fakeProber) SocketValid(path string) bool { return p.validSockets[path] }

// SocketExists consults the real filesystem so tests exercise the same
// on-disk layout the production scan reads.
func (p *fakeProber) SocketExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func (p *fakeProber) DirectoryOwned(path string) bool { return !p.disownedDirs[path] }

func (p *fakeProber) PIDStartTime(pid string) (time.Time, error) {
	if t, ok := p.startTimes[pid]; ok {
		return t, nil
	}
	return time.Time{}, errors.New("no start time recorded")
}

func (p *fakeProber) SocketTime(path string) (time.Time, error) {
	if t, ok := p.socketTimes[path]; ok {
		return t, nil
	}
	return time.Time{}, errors.New("no socket time recorded")
}

func (p *fakeProber) SignalHangup(pid string) error {
	p.hangups = append(p.hangups, pid)
	return p.hangupErr
}

// fakeTools is an in-memory Tooling. Spawned agents report spawnPID;
// fingerprint and identity listings come from maps.
type fakeTools struct {
	spawnPID     string
	spawnErr     error
	spawnedAt    []string // socket paths passed to SpawnAgent
	addedKeys    []string
	addErr       error
	fingerprints map[string]string   // key path → fingerprint
	held         map[string][]string // pid → fingerprints held
	listErr      error
	listCalls    int
}

func newFakeTools() *fakeTools {
	return &fakeTools{
		fingerprints: make(map[string]string),
		held:         make(map[string][]string),
	}
}

func (f *fakeTools) SpawnAgent(_ context.Context, _ time.Duration, socketPath string) (string, error) {
	if f.spawnErr != nil {
		return "", f.spawnErr
	}
	f.spawnedAt = append(f.spawnedAt, socketPath)
	return f.spawnPID, nil
}

func (f *fakeTools) AddIdentity(_ context.Context, _, _, keyPath string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.addedKeys = append(f.addedKeys, keyPath)
	return nil
}

func (f *fakeTools) FingerprintKey(_ context.Context, keyPath string) (string, error) {
	if fingerprint, ok := f.fingerprints[keyPath]; ok {
		return fingerprint, nil
	}
	return "", errors.New("no fingerprint recorded")
}

func (f *fakeTools) ListFingerprints(_ context.Context, pid, _ string) ([]string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.held[pid], nil
}

// testTime is the fixed snapshot time the fake clock starts at.
var testTime = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

// newTestRegistry wires a Registry against fakes and fresh temp
// directories. The returned prober, tools, and clock are the same
// instances the registry holds.
func newTestRegistry(t *testing.T) (*Registry, *fakeProber, *fakeTools, *clock.FakeClock) {
	t.Helper()
	prober := newFakeProber()
	tools := newFakeTools()
	fakeClock := clock.Fake(testTime)
	registry := &Registry{
		Config: &config.Config{
			TempRoot:         t.TempDir(),
			KeyDir:           t.TempDir(),
			IdentityLifetime: "1h",
			EUID:             os.Geteuid(),
		},
		Clock:  fakeClock,
		Probe:  prober,
		Tools:  tools,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return registry, prober, tools, fakeClock
}

// managedDir materializes a managed agent directory under the
// registry's temp root. Empty pid/expiration skip the corresponding
// file; withSocket creates a placeholder socket file (validity is still
// controlled through the fake prober).
func managedDir(t *testing.T, registry *Registry, specifier, pid, expiration string, withSocket bool) string {
	t.Helper()
	directory := filepath.Join(registry.Config.TempRoot, managedDirectoryName(specifier))
	if err := os.Mkdir(directory, 0o700); err != nil {
		t.Fatalf("creating managed directory: %v", err)
	}
	if pid != "" {
		if err := os.WriteFile(filepath.Join(directory, pidFileName), []byte(pid+"\n"), 0o600); err != nil {
			t.Fatalf("writing pidfile: %v", err)
		}
	}
	if expiration != "" {
		if err := os.WriteFile(filepath.Join(directory, expirationFileName), []byte(expiration+"\n"), 0o600); err != nil {
			t.Fatalf("writing expiration: %v", err)
		}
	}
	if withSocket {
		if err := os.WriteFile(filepath.Join(directory, socketFileName), nil, 0o600); err != nil {
			t.Fatalf("writing socket placeholder: %v", err)
		}
	}
	return directory
}

// socketOf returns the expected socket path inside a managed directory.
func socketOf(directory string) string {
	return filepath.Join(directory, socketFileName)
}

// expirationIn formats an expiration marker offset from the fixed test
// time.
func expirationIn(offset time.Duration) string {
	return formatExpiration(testTime.Add(offset))
}
