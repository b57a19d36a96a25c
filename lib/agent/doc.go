// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements discovery, validation, and reconciliation of
// ssh-agent processes.
//
// The central type is Registry, which turns the on-disk temp root and
// the inherited process environment into one snapshot of Record values,
// keyed by specifier. Discovery runs two passes: the managed scan walks
// <tmp>/ssh-agent-<specifier>/ directories this tool created (loading
// pidfile, socket, and expiration marker, and reaping directories that
// are dead by every check), then the foreign pass inspects the inherited
// SSH_AGENT_PID/SSH_AUTH_SOCK and synthesizes a record for any agent the
// environment names that the managed set does not already cover.
//
// Everything ambient is injected: the wall clock (lib/clock), the
// process/socket probes (Prober), and the external ssh tooling
// (Tooling). Discovery is therefore a pure function of its Config and
// the injected collaborators, which is how the tests exercise partial,
// stale, and externally-mutated state without a live ssh-agent.
//
// A snapshot is point-in-time only: nothing prevents another process
// from deleting a socket the moment after it was validated.
package agent
