// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keyfold/agentctl/cmd/agentctl/cli"
)

type stopParams struct {
	Config   string `flag:"config,c" desc:"path to the yaml config file"`
	Identity string `flag:"identity,i" desc:"select the agent holding this identity"`
}

func stopCommand() *cli.Command {
	var params stopParams

	return &cli.Command{
		Name:    "stop",
		Summary: "Stop an agent",
		Description: `Stop an agent by sending it a hang-up signal. The agent is selected
by positional specifier, by --identity, or — when exactly one agent is
known — by default.

Only the pidfile is removed immediately; the terminating agent deletes
its own socket, and the directory is reaped by a later discovery pass
once nothing alive remains in it.`,
		Usage: "agentctl stop [specifier] [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("stop", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Stop the only running agent",
				Command:     "agentctl stop",
			},
			{
				Description: "Stop the agent holding a specific identity",
				Command:     "agentctl stop --identity id_ed25519",
			},
		},
		Run: func(args []string) error {
			registry, err := newRegistry(params.Config, "stop")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			record, err := selectRecord(ctx, registry, args, params.Identity)
			if err != nil {
				return err
			}
			if err := registry.Stop(record); err != nil {
				return err
			}
			fmt.Printf("stopped agent %s (pid %s)\n", record.Specifier, record.PID)
			return nil
		},
	}
}
