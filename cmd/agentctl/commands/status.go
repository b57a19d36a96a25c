// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/keyfold/agentctl/cmd/agentctl/cli"
	"github.com/keyfold/agentctl/lib/agent"
)

type statusParams struct {
	cli.JSONOutput
	Config string `flag:"config,c" desc:"path to the yaml config file"`
}

// ANSI palette colors so the table degrades on limited terminals;
// lipgloss drops the styling entirely when stdout is not a tty.
var (
	validStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	staleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show known agents",
		Description: `Show every agent the discovery pass finds: managed agent directories
under the temp root plus any agent the inherited environment points
at. Each row reports liveness, expiration, held identities, and
whether the current environment addresses it.`,
		Usage: "agentctl status [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Examples: []cli.Example{
			{
				Description: "Show all discovered agents as JSON",
				Command:     "agentctl status --json",
			},
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			registry, err := newRegistry(params.Config, "status")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			records := agent.Sorted(registry.Discover(ctx))

			if done, err := params.EmitJSON(records); done {
				return err
			}

			if len(records) == 0 {
				fmt.Fprintln(os.Stderr, "No agents found.")
				fmt.Fprintln(os.Stderr, "")
				fmt.Fprintln(os.Stderr, "Start one with: agentctl start")
				return &cli.ExitError{Code: 1}
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "SPECIFIER\tPID\tSTATE\tSOURCE\tEXPIRES\tIDENTITIES\tENV\tSOCKET\n")
			for _, record := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					record.Specifier,
					orDash(record.PID),
					stateCell(record),
					sourceCell(record),
					expiresCell(record),
					orDash(strings.Join(record.Identities, ",")),
					flagCell(record.Exported),
					orDash(record.SocketPath),
				)
			}
			return tw.Flush()
		},
	}
}

func stateCell(record agent.Record) string {
	if record.Valid {
		return validStyle.Render("valid")
	}
	return staleStyle.Render("stale")
}

func sourceCell(record agent.Record) string {
	if record.Managed.PID || record.Managed.Socket {
		return "managed"
	}
	return "foreign"
}

func expiresCell(record agent.Record) string {
	if record.ExpiresAt.IsZero() {
		return "-"
	}
	return record.ExpiresAt.Local().Format("2006-01-02 15:04:05")
}

// flagCell renders which half of the agent address the environment
// carries: pid, sock, both, or neither.
func flagCell(pair agent.FlagPair) string {
	switch {
	case pair.PID && pair.Socket:
		return "pid+sock"
	case pair.PID:
		return "pid"
	case pair.Socket:
		return "sock"
	default:
		return "-"
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
