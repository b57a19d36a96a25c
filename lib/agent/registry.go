// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/keyfold/agentctl/lib/clock"
	"github.com/keyfold/agentctl/lib/config"
)

// Registry composes the managed scan and the foreign environment pass
// into one snapshot of agent records, and coordinates the start/stop
// mutations against it. Each invocation of the tool builds one snapshot;
// nothing is cached or shared across invocations.
type Registry struct {
	Config *config.Config
	Clock  clock.Clock
	Probe  Prober
	Tools  Tooling
	Logger *slog.Logger
}

// New wires a Registry against the live system: real clock, procfs and
// syscall probes, and the ssh executables from PATH.
func New(cfg *config.Config, logger *slog.Logger) *Registry {
	return &Registry{
		Config: cfg,
		Clock:  clock.Real(),
		Probe:  &SystemProber{EUID: cfg.EUID},
		Tools:  ExecTools{},
		Logger: logger,
	}
}

// Discover returns the specifier-keyed snapshot every command operates
// on: the managed scan first, then the foreign environment pass against
// its result.
func (r *Registry) Discover(ctx context.Context) map[string]Record {
	records := r.discoverManaged(ctx)
	if foreign := r.resolveForeign(ctx, records); foreign != nil {
		records[foreign.Specifier] = *foreign
	}
	return records
}

// StartResult reports the agent a Start call resolved to: either a
// freshly spawned one or, when AlreadyRunning is set, an existing valid
// managed agent whose identity configuration already matches the
// request.
type StartResult struct {
	Specifier      string `json:"specifier"`
	PID            string `json:"pid"`
	SocketPath     string `json:"socket_path"`
	AlreadyRunning bool   `json:"already_running"`
}

// Start is the idempotent start operation. When a managed, valid record
// already matches the requested identity configuration — both "no
// identity" and the agent holds none, or exactly the one requested
// identity is held — the existing pid/socket are reported instead of
// starting a duplicate.
//
// Otherwise a fresh owner-only directory is created, the agent is
// spawned bound to a new socket path, the pid and expiration are
// persisted, and the requested identity (if any) is added. A failed
// identity add is returned as an IdentityAddError alongside a populated
// result: the agent is running and is not rolled back.
func (r *Registry) Start(ctx context.Context, identity string) (StartResult, error) {
	records := r.Discover(ctx)
	for _, record := range Sorted(records) {
		if !record.Managed.PID || !record.Valid {
			continue
		}
		if !identityConfigurationMatches(record, identity) {
			continue
		}
		return StartResult{
			Specifier:      record.Specifier,
			PID:            record.PID,
			SocketPath:     record.SocketPath,
			AlreadyRunning: true,
		}, nil
	}

	specifier := NewSpecifier(r.Clock.Now())
	directory := filepath.Join(r.Config.TempRoot, managedDirectoryName(specifier))
	if err := os.Mkdir(directory, 0o700); err != nil {
		return StartResult{}, &StartError{Err: fmt.Errorf("creating agent directory: %w", err)}
	}

	socketPath := filepath.Join(directory, socketFileName)
	lifetime := r.Config.Lifetime()
	pid, err := r.Tools.SpawnAgent(ctx, lifetime, socketPath)
	if err != nil {
		// Leave nothing behind for the reaper to misread: the
		// directory is empty at this point.
		_ = os.Remove(directory)
		return StartResult{}, &StartError{Err: err}
	}

	expiresAt := r.Clock.Now().Add(lifetime)
	if err := os.WriteFile(filepath.Join(directory, pidFileName), []byte(pid+"\n"), 0o600); err != nil {
		return StartResult{}, &StartError{Err: fmt.Errorf("persisting pid: %w", err)}
	}
	if err := os.WriteFile(filepath.Join(directory, expirationFileName), []byte(formatExpiration(expiresAt)+"\n"), 0o600); err != nil {
		return StartResult{}, &StartError{Err: fmt.Errorf("persisting expiration: %w", err)}
	}

	result := StartResult{Specifier: specifier, PID: pid, SocketPath: socketPath}
	r.Logger.Info("started agent", "specifier", specifier, "pid", pid, "socket", socketPath)

	if identity != "" {
		keyPath := filepath.Join(r.Config.KeyDir, identity)
		if err := r.Tools.AddIdentity(ctx, pid, socketPath, keyPath); err != nil {
			return result, &IdentityAddError{Identity: identity, Err: err}
		}
	}
	return result, nil
}

// Stop sends a hang-up signal to the record's process (an already-dead
// process is not an error), removes the pidfile, and removes the
// directory if now empty. The socket is not removed: the terminating
// agent deletes its own socket on exit, and a socket it leaves behind
// is cleaned up by a later discovery pass once the pid is also gone.
func (r *Registry) Stop(record Record) error {
	if record.PID != "" {
		if err := r.Probe.SignalHangup(record.PID); err != nil {
			return fmt.Errorf("stopping agent %s: %w", record.Specifier, err)
		}
	}
	if record.Directory == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(record.Directory, pidFileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pidfile: %w", err)
	}
	// Fails while the socket or expiration marker still exist; the
	// reap rule picks the directory up on a later pass.
	_ = os.Remove(record.Directory)
	r.Logger.Info("stopped agent", "specifier", record.Specifier, "pid", record.PID)
	return nil
}

// identityConfigurationMatches reports whether an existing record's
// identity set matches a start request: no identity requested and none
// held, or exactly one held and it is the requested one.
func identityConfigurationMatches(record Record, identity string) bool {
	if identity == "" {
		return len(record.Identities) == 0
	}
	return len(record.Identities) == 1 && record.Identities[0] == identity
}
