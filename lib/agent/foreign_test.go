// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDiscover_ForeignAgentFromEnvironment(t *testing.T) {
	registry, prober, _, _ := newTestRegistry(t)
	registry.Config.AgentPID = "7777"
	registry.Config.AgentSocket = "/run/user/1000/foreign.sock"
	prober.alivePIDs["7777"] = true
	prober.validSockets["/run/user/1000/foreign.sock"] = true
	prober.startTimes["7777"] = time.Unix(1724680123, 0)
	prober.socketTimes["/run/user/1000/foreign.sock"] = time.Unix(1724680999, 0)

	records := registry.Discover(context.Background())

	if len(records) != 1 {
		t.Fatalf("expected exactly one foreign record, got %d", len(records))
	}
	record, ok := records["172.4680.000"]
	if !ok {
		t.Fatalf("foreign specifier should derive from the earlier timestamp: %v", records)
	}
	if !strings.HasSuffix(record.Specifier, ".000") {
		t.Errorf("foreign specifier %q should carry the forced final group", record.Specifier)
	}
	if record.Managed.PID || record.Managed.Socket {
		t.Errorf("foreign record must not be managed: %+v", record.Managed)
	}
	if !record.Exported.PID || !record.Exported.Socket {
		t.Errorf("foreign record values come from the environment, exported flags must be set: %+v", record.Exported)
	}
	if !record.ExpiresAt.IsZero() {
		t.Errorf("foreign record must not track expiration, got %v", record.ExpiresAt)
	}
	if !record.Valid {
		t.Error("live pid + valid socket should be valid with no expiration check")
	}
}

func TestDiscover_ForeignSpecifierPrefersEarlierSource(t *testing.T) {
	registry, prober, _, _ := newTestRegistry(t)
	registry.Config.AgentPID = "7777"
	registry.Config.AgentSocket = "/run/user/1000/foreign.sock"
	prober.alivePIDs["7777"] = true
	prober.validSockets["/run/user/1000/foreign.sock"] = true
	// Socket is older than the process this time.
	prober.startTimes["7777"] = time.Unix(1734680123, 0)
	prober.socketTimes["/run/user/1000/foreign.sock"] = time.Unix(1724680123, 0)

	records := registry.Discover(context.Background())

	if _, ok := records["172.4680.000"]; !ok {
		t.Errorf("specifier should derive from the earlier of the two timestamps: %v", records)
	}
}

func TestDiscover_ForeignInvalidSourcesYieldSentinel(t *testing.T) {
	registry, prober, _, _ := newTestRegistry(t)
	registry.Config.AgentPID = "7777"
	registry.Config.AgentSocket = "/run/user/1000/foreign.sock"
	// Pid is dead and the socket belongs to someone else: neither
	// timestamp source is consulted.
	prober.startTimes["7777"] = time.Unix(1724680123, 0)
	prober.socketTimes["/run/user/1000/foreign.sock"] = time.Unix(1724680123, 0)

	records := registry.Discover(context.Background())

	record, ok := records[SentinelSpecifier]
	if !ok {
		t.Fatalf("expected sentinel-keyed foreign record, got %v", records)
	}
	if record.Valid {
		t.Error("record with dead pid and invalid socket must be invalid")
	}
}

func TestDiscover_EnvironmentMatchingManagedAgentIsDeduplicated(t *testing.T) {
	registry, prober, _, _ := newTestRegistry(t)
	directory := managedDir(t, registry, "111.2222.333", "4321", expirationIn(time.Hour), true)
	prober.alivePIDs["4321"] = true
	prober.validSockets[socketOf(directory)] = true
	registry.Config.AgentPID = "4321"
	registry.Config.AgentSocket = socketOf(directory)

	records := registry.Discover(context.Background())

	if len(records) != 1 {
		t.Fatalf("environment pointing at a known managed agent must not add a record: %v", records)
	}
	if _, ok := records["111.2222.333"]; !ok {
		t.Errorf("the managed record should be the only one: %v", records)
	}
}

func TestDiscover_EnvironmentSplitAcrossAgentsProducesForeignRecord(t *testing.T) {
	registry, prober, _, _ := newTestRegistry(t)
	first := managedDir(t, registry, "111.2222.333", "4321", expirationIn(time.Hour), true)
	second := managedDir(t, registry, "444.5555.666", "8765", expirationIn(time.Hour), true)
	prober.alivePIDs["4321"] = true
	prober.alivePIDs["8765"] = true
	prober.validSockets[socketOf(first)] = true
	prober.validSockets[socketOf(second)] = true

	// Pid from one managed agent, socket from the other: the
	// environment as a whole names no single known agent.
	registry.Config.AgentPID = "4321"
	registry.Config.AgentSocket = socketOf(second)

	records := registry.Discover(context.Background())

	if len(records) != 3 {
		t.Fatalf("expected two managed records plus one synthetic, got %d: %v", len(records), records)
	}
}

func TestDiscover_NoEnvironmentNoForeignRecord(t *testing.T) {
	registry, _, _, _ := newTestRegistry(t)

	records := registry.Discover(context.Background())

	if len(records) != 0 {
		t.Errorf("no environment variables set: resolver must be a no-op, got %v", records)
	}
}

func TestDiscover_PartialEnvironmentStillSynthesizes(t *testing.T) {
	registry, prober, _, _ := newTestRegistry(t)
	registry.Config.AgentSocket = "/run/user/1000/foreign.sock"
	prober.validSockets["/run/user/1000/foreign.sock"] = true
	prober.socketTimes["/run/user/1000/foreign.sock"] = time.Unix(1724680123, 0)

	records := registry.Discover(context.Background())

	record, ok := records["172.4680.000"]
	if !ok {
		t.Fatalf("socket-only environment should synthesize a record: %v", records)
	}
	if record.PID != "" {
		t.Errorf("pid should be empty, got %q", record.PID)
	}
	if record.Exported.PID {
		t.Error("exported pid flag must be clear when the variable is unset")
	}
	if record.Valid {
		t.Error("composite validity requires a valid pid as well")
	}
}
