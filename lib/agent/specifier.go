// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// SentinelSpecifier is returned when no timestamp source is available
// to derive a specifier from.
const SentinelSpecifier = "000.0000.000"

// managedDirPrefix + specifier is the name of a managed agent directory.
const managedDirPrefix = "ssh-agent-"

var (
	// specifierPattern is the dotted three-group shape carried in
	// managed directory names.
	specifierPattern = regexp.MustCompile(`\d{3}\.\d{4}\.\d{3}`)

	// managedDirPattern matches a complete managed directory name.
	managedDirPattern = regexp.MustCompile(`^ssh-agent-\d{3}\.\d{4}\.\d{3}$`)

	// tickPattern extracts the 10-digit run (seven digits, decimal
	// point, three digits) from a decimal seconds timestamp.
	tickPattern = regexp.MustCompile(`\d{7}\.\d{3}`)
)

// NewSpecifier derives a fresh specifier for a managed agent from the
// current high-resolution time: the last seven digits of the epoch
// seconds and the first three fractional digits, regrouped as
// ddd.dddd.ddd. The result is human-scannable and time-ordered, and
// becomes the suffix of the new agent's directory name.
//
// Two invocations within the same millisecond tick compute the same
// specifier; there is no lock or create-exclusive retry breaking that
// tie. Accepted for a single-operator interactive tool.
func NewSpecifier(now time.Time) string {
	seconds := fmt.Sprintf("%d.%09d", now.Unix(), now.Nanosecond())
	run := tickPattern.FindString(seconds)
	if run == "" {
		return SentinelSpecifier
	}
	digits := run[:7] + run[8:]
	return digits[0:3] + "." + digits[3:7] + "." + digits[7:10]
}

// ParseSpecifier extracts the specifier embedded in a managed directory
// name. The directory name is authoritative — the specifier is never
// recomputed for an existing agent. A name with no embedded specifier
// yields the sentinel.
func ParseSpecifier(directoryName string) string {
	if match := specifierPattern.FindString(directoryName); match != "" {
		return match
	}
	return SentinelSpecifier
}

// ForeignSpecifier derives a specifier for a non-managed agent from an
// observed timestamp (the earlier of the process start time and the
// socket modification time, whichever sources are valid). The first
// seven digits of the epoch seconds fill the leading groups and the
// final group is forced to 000, keeping the foreign namespace visually
// and programmatically apart from directory-backed specifiers, whose
// leading digits come from a different region of the timestamp.
func ForeignSpecifier(observed time.Time) string {
	if observed.IsZero() {
		return SentinelSpecifier
	}
	digits := strconv.FormatInt(observed.Unix(), 10)
	if len(digits) < 7 {
		return SentinelSpecifier
	}
	return digits[0:3] + "." + digits[3:7] + ".000"
}

// managedDirectoryName returns the directory name for a specifier.
func managedDirectoryName(specifier string) string {
	return managedDirPrefix + specifier
}
