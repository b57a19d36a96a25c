// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for agentctl.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. Commands are assembled into a tree in cmd/agentctl/commands
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// Flag sets are usually derived from tagged parameter structs via
// [FlagsFromParams]; see [BindFlags] for the tag grammar. Embedding
// [JSONOutput] in a parameter struct gives a command the --json flag
// and the EmitJSON helper.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
package cli
