// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// discoverManaged scans the temp root for agent directories this tool
// created, loads their persisted state, and reaps directories that are
// stale by every check. Every file read is best-effort: missing or
// unreadable state degrades to empty values so one broken directory
// never hides the others.
func (r *Registry) discoverManaged(ctx context.Context) map[string]Record {
	records := make(map[string]Record)

	entries, err := os.ReadDir(r.Config.TempRoot)
	if err != nil {
		r.Logger.Debug("reading temp root failed", "temp_root", r.Config.TempRoot, "error", err)
		return records
	}

	now := r.Clock.Now()
	for _, entry := range entries {
		if !managedDirPattern.MatchString(entry.Name()) {
			continue
		}
		directory := filepath.Join(r.Config.TempRoot, entry.Name())
		// The temp root may be world-writable; a matching name owned
		// by someone else is not ours to read or delete.
		if !entry.IsDir() || !r.Probe.DirectoryOwned(directory) {
			continue
		}

		record, reaped := r.loadManaged(ctx, directory, entry.Name(), now)
		if reaped {
			continue
		}
		records[record.Specifier] = record
	}
	return records
}

// loadManaged builds the Record for one managed directory, or reaps the
// directory and reports reaped=true when it holds no recoverable state.
func (r *Registry) loadManaged(ctx context.Context, directory, name string, now time.Time) (Record, bool) {
	pid := readTrimmed(filepath.Join(directory, pidFileName))
	socketPath := filepath.Join(directory, socketFileName)

	recordedSocket := ""
	if r.Probe.SocketExists(socketPath) {
		recordedSocket = socketPath
	}

	pidValid := pid != "" && r.Probe.PIDValid(pid)
	socketValid := r.Probe.SocketValid(socketPath)

	// Reap rule: dead by all three checks. Any single positive — a
	// live pid, a recorded socket path, or a valid socket — preserves
	// the directory even when the record is currently invalid, so an
	// expired-but-alive agent stays visible for inspection.
	if !pidValid && recordedSocket == "" && !socketValid {
		r.Logger.Info("reaping stale agent directory", "directory", directory)
		if err := os.RemoveAll(directory); err != nil {
			r.Logger.Debug("reap failed", "directory", directory, "error", err)
		}
		return Record{}, true
	}

	expiresAt := readExpiration(filepath.Join(directory, expirationFileName))
	valid := pidValid && socketValid && !expiresAt.IsZero() && now.Before(expiresAt)

	record := Record{
		Specifier:  ParseSpecifier(name),
		PID:        pid,
		SocketPath: recordedSocket,
		Managed: FlagPair{
			PID:    pid != "",
			Socket: recordedSocket != "",
		},
		Exported: FlagPair{
			PID:    pid != "" && pid == r.Config.AgentPID,
			Socket: recordedSocket != "" && recordedSocket == r.Config.AgentSocket,
		},
		ExpiresAt:  expiresAt,
		Valid:      valid,
		Identities: []string{},
		Directory:  directory,
	}
	if valid {
		record.Identities = resolveIdentities(ctx, r.Logger, r.Tools, r.Config.KeyDir, pid, socketPath)
	}
	return record, false
}

// readTrimmed returns the whitespace-trimmed content of a small state
// file, or "" when it is missing or unreadable.
func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readExpiration parses the expiration marker, a float of epoch
// seconds. Unreadable, unparseable, or zero markers yield the zero
// time: "no expiration tracked", which a managed validity check treats
// as already invalid.
func readExpiration(path string) time.Time {
	content := readTrimmed(path)
	if content == "" {
		return time.Time{}
	}
	seconds, err := strconv.ParseFloat(content, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	whole, fraction := math.Modf(seconds)
	return time.Unix(int64(whole), int64(fraction*float64(time.Second)))
}

// formatExpiration is the inverse of readExpiration, used when
// persisting a new agent's expiration marker.
func formatExpiration(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/float64(time.Second), 'f', 6, 64)
}
