// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"sort"
	"time"
)

// Names of the files inside a managed agent directory.
const (
	pidFileName        = "agent.pid"
	socketFileName     = "agent.sock"
	expirationFileName = "agent.expiration"
)

// FlagPair carries a per-pid and per-socket boolean, used for both the
// "did this tool create it" and "does the current environment point at
// it" dimensions of a Record.
type FlagPair struct {
	PID    bool `json:"pid"`
	Socket bool `json:"socket"`
}

// Record is the unit of discovery output: one agent, managed or
// foreign, as observed at snapshot time.
type Record struct {
	// Specifier is the stable display identifier, unique within a
	// registry snapshot. Managed specifiers come from the directory
	// name; foreign ones from a disjoint timestamp scheme.
	Specifier string `json:"specifier"`

	// PID is the textual process id, empty if unknown.
	PID string `json:"pid,omitempty"`

	// SocketPath is the agent's listening socket, empty if unknown.
	SocketPath string `json:"socket_path,omitempty"`

	// Managed records whether this tool created the pidfile/socket
	// (as opposed to learning them from the environment).
	Managed FlagPair `json:"managed"`

	// Exported records whether the inherited environment currently
	// points at this exact pid/socket.
	Exported FlagPair `json:"exported"`

	// ExpiresAt is the persisted expiration for managed records. The
	// zero time means "no expiration tracked" (foreign agents, or a
	// managed directory with an unreadable marker) — distinct from
	// "infinite": a managed record without it can never be valid.
	ExpiresAt time.Time `json:"expires_at,omitzero"`

	// Valid is the composite liveness verdict: pid valid and socket
	// valid, plus (for managed records) now strictly before ExpiresAt.
	Valid bool `json:"valid"`

	// Identities are the resolved identity names the live agent holds,
	// or raw fingerprints when nothing resolves locally. Always empty
	// for invalid agents.
	Identities []string `json:"identities"`

	// Directory is the managed backing directory, empty for foreign
	// records. Stop uses it to remove the pidfile.
	Directory string `json:"-"`
}

// Sorted returns the records of a snapshot ordered by specifier.
// Specifiers are zero-padded fixed-width digit groups, so the lexical
// order is also time order within each namespace.
func Sorted(records map[string]Record) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Specifier < out[j].Specifier
	})
	return out
}
