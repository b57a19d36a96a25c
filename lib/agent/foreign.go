// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"time"
)

// resolveForeign inspects the inherited agent environment and, when it
// does not consistently name an already-discovered managed agent,
// synthesizes a record for the foreign agent it points at. Returns nil
// when the environment is unset, or when a single managed record
// carries every value the environment sets.
//
// The single-record requirement matters: an environment holding one
// managed agent's pid and a different managed agent's socket still
// produces a synthetic record, because the environment as a whole
// names no one known agent.
func (r *Registry) resolveForeign(ctx context.Context, managed map[string]Record) *Record {
	envPID := r.Config.AgentPID
	envSocket := r.Config.AgentSocket
	if envPID == "" && envSocket == "" {
		return nil
	}

	for _, record := range managed {
		pidCovered := envPID == "" || (record.Managed.PID && record.PID == envPID)
		socketCovered := envSocket == "" || (record.Managed.Socket && record.SocketPath == envSocket)
		if pidCovered && socketCovered {
			return nil
		}
	}

	pidValid := envPID != "" && r.Probe.PIDValid(envPID)
	socketValid := r.Probe.SocketValid(envSocket)

	record := Record{
		Specifier:  ForeignSpecifier(r.foreignTimestamp(envPID, envSocket, pidValid, socketValid)),
		PID:        envPID,
		SocketPath: envSocket,
		Exported: FlagPair{
			PID:    envPID != "",
			Socket: envSocket != "",
		},
		// No expiration is tracked for foreign agents: validity is the
		// two liveness checks alone, and ExpiresAt stays the zero time
		// ("absent", not "infinite").
		Valid:      pidValid && socketValid,
		Identities: []string{},
	}
	if record.Valid {
		record.Identities = resolveIdentities(ctx, r.Logger, r.Tools, r.Config.KeyDir, envPID, envSocket)
	}
	return &record
}

// foreignTimestamp picks the earlier of the process start time and the
// socket modification time, consulting only the sources that are
// actually valid. The zero time means no source was available.
func (r *Registry) foreignTimestamp(pid, socketPath string, pidValid, socketValid bool) time.Time {
	var observed time.Time
	if pidValid {
		if started, err := r.Probe.PIDStartTime(pid); err == nil {
			observed = started
		} else {
			r.Logger.Debug("process start time unavailable", "pid", pid, "error", err)
		}
	}
	if socketValid {
		if modified, err := r.Probe.SocketTime(socketPath); err == nil {
			if observed.IsZero() || modified.Before(observed) {
				observed = modified
			}
		} else {
			r.Logger.Debug("socket time unavailable", "socket", socketPath, "error", err)
		}
	}
	return observed
}
