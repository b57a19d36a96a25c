// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "fmt"

// SelectorKind names which selection mode failed, so NotFoundError
// messages are precise about what the caller asked for.
type SelectorKind string

const (
	// SelectBySpecifier is an explicit specifier lookup.
	SelectBySpecifier SelectorKind = "specifier"

	// SelectByIdentity selects the one valid agent holding an identity.
	SelectByIdentity SelectorKind = "identity"

	// SelectDefault selects the single record when exactly one exists.
	SelectDefault SelectorKind = "default"
)

// NotFoundError reports that no record matched a selector. Matches
// carries how many records did match: more than one means the selection
// was ambiguous (exclusivity violated) rather than empty — reported as
// a sub-kind instead of silently picking one.
type NotFoundError struct {
	Kind    SelectorKind
	Value   string
	Matches int
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case SelectBySpecifier:
		return fmt.Sprintf("no agent with specifier %s", e.Value)
	case SelectByIdentity:
		if e.Matches > 1 {
			return fmt.Sprintf("identity %s is held by %d agents (exclusivity violated)", e.Value, e.Matches)
		}
		return fmt.Sprintf("no valid agent holds identity %s", e.Value)
	default:
		if e.Matches > 1 {
			return fmt.Sprintf("%d agents found; select one by specifier or identity", e.Matches)
		}
		return "no agents found"
	}
}

// Ambiguous reports whether the selector matched more than one record.
func (e *NotFoundError) Ambiguous() bool { return e.Matches > 1 }

// StartError reports that the agent-spawning subprocess failed: it
// exited non-zero or produced no parsable pid.
type StartError struct {
	Err error
}

func (e *StartError) Error() string { return fmt.Sprintf("starting agent: %v", e.Err) }
func (e *StartError) Unwrap() error { return e.Err }

// IdentityAddError reports that adding the requested identity failed
// after the agent was already started. The agent remains running — this
// is deliberately distinct from StartError so callers can report a
// usable agent alongside the failed add.
type IdentityAddError struct {
	Identity string
	Err      error
}

func (e *IdentityAddError) Error() string {
	return fmt.Sprintf("agent started, but adding identity %s failed: %v", e.Identity, e.Err)
}
func (e *IdentityAddError) Unwrap() error { return e.Err }
