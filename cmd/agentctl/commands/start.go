// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/keyfold/agentctl/cmd/agentctl/cli"
	"github.com/keyfold/agentctl/lib/agent"
	"github.com/keyfold/agentctl/lib/config"
)

type startParams struct {
	cli.JSONOutput
	Config   string        `flag:"config,c" desc:"path to the yaml config file"`
	Identity string        `flag:"identity,i" desc:"key file in the key directory to load into the agent"`
	Lifetime time.Duration `flag:"lifetime" desc:"identity lifetime override (e.g. 45m)"`
}

func startCommand() *cli.Command {
	var params startParams

	return &cli.Command{
		Name:    "start",
		Summary: "Start an agent, or reuse a matching one",
		Description: `Start a new ssh-agent, or report an existing one. When a managed,
valid agent already matches the requested identity configuration, its
address is printed instead of starting a duplicate.

A new agent gets its own owner-only directory under the temp root,
holding the socket, the pidfile, and the expiration marker. The
requested identity is loaded via ssh-add after the agent is up.

Export lines for the agent go to stdout in the same format ssh-agent
prints, so the calling shell can eval them; diagnostics go to stderr.`,
		Usage: "agentctl start [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("start", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Start an agent and point the current shell at it",
				Command:     "eval \"$(agentctl start)\"",
			},
			{
				Description: "Start an agent holding one identity for 45 minutes",
				Command:     "agentctl start --identity id_ed25519 --lifetime 45m",
			},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			cfg, err := config.Load(params.Config)
			if err != nil {
				return err
			}
			if params.Lifetime > 0 {
				cfg.IdentityLifetime = params.Lifetime.String()
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			registry := agent.New(cfg, cli.NewCommandLogger().With("command", "start"))

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			result, err := registry.Start(ctx, params.Identity)
			// A failed identity add still leaves a running agent worth
			// reporting; everything else is fatal.
			var addErr *agent.IdentityAddError
			if err != nil && !errors.As(err, &addErr) {
				return err
			}

			if done, emitErr := params.EmitJSON(result); done {
				if emitErr != nil {
					return emitErr
				}
				return err
			}

			if result.AlreadyRunning {
				fmt.Fprintf(os.Stderr, "agent %s already running (pid %s)\n", result.Specifier, result.PID)
			} else {
				fmt.Fprintf(os.Stderr, "started agent %s (pid %s)\n", result.Specifier, result.PID)
			}
			fmt.Printf("SSH_AUTH_SOCK=%s; export SSH_AUTH_SOCK;\n", result.SocketPath)
			fmt.Printf("SSH_AGENT_PID=%s; export SSH_AGENT_PID;\n", result.PID)
			return err
		},
	}
}
