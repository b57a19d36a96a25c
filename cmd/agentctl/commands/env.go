// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keyfold/agentctl/cmd/agentctl/cli"
)

type envParams struct {
	cli.JSONOutput
	Config   string `flag:"config,c" desc:"path to the yaml config file"`
	Identity string `flag:"identity,i" desc:"select the agent holding this identity"`
}

func envCommand() *cli.Command {
	var params envParams

	return &cli.Command{
		Name:    "env",
		Summary: "Print shell export lines for an agent",
		Description: `Print sh-style export lines addressing an agent, in the same format
ssh-agent itself prints, for the calling shell to eval. The agent is
selected by positional specifier, by --identity, or by default when
exactly one agent is known.`,
		Usage: "agentctl env [specifier] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("env", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Point the current shell at the only running agent",
				Command:     "eval \"$(agentctl env)\"",
			},
			{
				Description: "Address an agent by specifier",
				Command:     "eval \"$(agentctl env 468.0123.456)\"",
			},
		},
		Run: func(args []string) error {
			registry, err := newRegistry(params.Config, "env")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			record, err := selectRecord(ctx, registry, args, params.Identity)
			if err != nil {
				return err
			}
			if !record.Valid {
				return fmt.Errorf("agent %s is not usable (stale pid, socket, or expiration)", record.Specifier)
			}

			if done, err := params.EmitJSON(record); done {
				return err
			}

			if record.SocketPath != "" {
				fmt.Printf("SSH_AUTH_SOCK=%s; export SSH_AUTH_SOCK;\n", record.SocketPath)
			}
			if record.PID != "" {
				fmt.Printf("SSH_AGENT_PID=%s; export SSH_AGENT_PID;\n", record.PID)
			}
			return nil
		},
	}
}
