// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the agentctl command tree: start, stop,
// status, env, and version, all operating on the registry snapshot
// produced by the lib/agent discovery pass.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keyfold/agentctl/cmd/agentctl/cli"
	"github.com/keyfold/agentctl/lib/agent"
	"github.com/keyfold/agentctl/lib/config"
	"github.com/keyfold/agentctl/lib/version"
)

// commandTimeout bounds one invocation's subprocess and probe work.
// Every external call (ssh-agent, ssh-add, ssh-keygen) happens inside
// this window.
const commandTimeout = 30 * time.Second

// Root builds and returns the complete agentctl command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "agentctl",
		Description: `agentctl: per-user ssh-agent lifecycle manager.

Discovers running ssh-agent processes (both ones it started and ones
inherited from the environment), validates their liveness, and starts,
stops, and reports them by stable specifier.`,
		Subcommands: []*cli.Command{
			startCommand(),
			stopCommand(),
			statusCommand(),
			envCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("agentctl %s\n", version.Full())
					return nil
				},
			},
		},
	}
}

// newRegistry loads and validates the configuration and wires a
// registry against the live system.
func newRegistry(configPath, command string) (*agent.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cli.NewCommandLogger().With("command", command)
	return agent.New(cfg, logger), nil
}

// selectRecord resolves the selection modes shared by stop, status,
// and env: an optional positional specifier, the --identity flag, or
// neither (which requires exactly one known agent).
func selectRecord(ctx context.Context, registry *agent.Registry, args []string, identity string) (agent.Record, error) {
	if len(args) > 1 {
		return agent.Record{}, fmt.Errorf("unexpected argument: %s", args[1])
	}
	sel := agent.Selector{Identity: identity}
	if len(args) == 1 {
		sel.Specifier = args[0]
	}
	if sel.Specifier != "" && sel.Identity != "" {
		return agent.Record{}, fmt.Errorf("specify either a specifier or --identity, not both")
	}
	return agent.Select(registry.Discover(ctx), sel)
}
