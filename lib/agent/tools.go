// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Tooling abstracts the external ssh executables agentctl drives. Each
// method returns a structured result or error rather than raw exit
// codes and byte streams. The production implementation is ExecTools;
// tests inject an in-memory fake.
type Tooling interface {
	// SpawnAgent starts a new agent bound to socketPath with the given
	// identity lifetime and returns the textual pid it reported.
	SpawnAgent(ctx context.Context, lifetime time.Duration, socketPath string) (string, error)

	// AddIdentity loads the key at keyPath into the agent addressed by
	// pid/socketPath.
	AddIdentity(ctx context.Context, pid, socketPath, keyPath string) error

	// FingerprintKey returns the fingerprint of the key file at keyPath.
	FingerprintKey(ctx context.Context, keyPath string) (string, error)

	// ListFingerprints returns the fingerprints currently held by the
	// agent addressed by pid/socketPath. An agent holding nothing is
	// an empty list, not an error.
	ListFingerprints(ctx context.Context, pid, socketPath string) ([]string, error)
}

// ExecTools implements Tooling by shelling out to ssh-agent, ssh-add,
// and ssh-keygen from PATH.
type ExecTools struct{}

var spawnPIDPattern = regexp.MustCompile(`SSH_AGENT_PID=(\d+)`)

// SpawnAgent runs "ssh-agent -a <socket> -t <seconds>" and parses the
// pid out of the sh-style export script the agent prints.
func (ExecTools) SpawnAgent(ctx context.Context, lifetime time.Duration, socketPath string) (string, error) {
	seconds := strconv.Itoa(int(lifetime.Seconds()))
	cmd := exec.CommandContext(ctx, "ssh-agent", "-a", socketPath, "-t", seconds)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ssh-agent -a %s: %w (%s)", socketPath, err, commandStderr(err))
	}
	match := spawnPIDPattern.FindSubmatch(output)
	if match == nil {
		return "", fmt.Errorf("ssh-agent produced no parsable pid in %q", strings.TrimSpace(string(output)))
	}
	return string(match[1]), nil
}

// AddIdentity runs "ssh-add <keyPath>" with the agent environment set.
func (ExecTools) AddIdentity(ctx context.Context, pid, socketPath, keyPath string) error {
	cmd := exec.CommandContext(ctx, "ssh-add", keyPath)
	cmd.Env = agentEnvironment(pid, socketPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ssh-add %s: %w (%s)", keyPath, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// FingerprintKey runs "ssh-keygen -l -f <keyPath>". The output is one
// line of the form "<bits> <fingerprint> <comment> (<type>)".
func (ExecTools) FingerprintKey(ctx context.Context, keyPath string) (string, error) {
	cmd := exec.CommandContext(ctx, "ssh-keygen", "-l", "-f", keyPath)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ssh-keygen -l -f %s: %w (%s)", keyPath, err, commandStderr(err))
	}
	fingerprint, ok := fingerprintField(string(output))
	if !ok {
		return "", fmt.Errorf("ssh-keygen produced no parsable fingerprint in %q", strings.TrimSpace(string(output)))
	}
	return fingerprint, nil
}

// ListFingerprints runs "ssh-add -l" against the agent. ssh-add exits
// with status 1 when the agent holds no identities; that is an empty
// list here, not an error.
func (ExecTools) ListFingerprints(ctx context.Context, pid, socketPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "ssh-add", "-l")
	cmd.Env = agentEnvironment(pid, socketPath)
	output, err := cmd.Output()
	if err != nil {
		// Exit status 1 is "The agent has no identities."; status 2
		// means the agent is unreachable and stays an error.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("ssh-add -l: %w (%s)", err, commandStderr(err))
	}

	var fingerprints []string
	for _, line := range strings.Split(string(output), "\n") {
		if fingerprint, ok := fingerprintField(line); ok {
			fingerprints = append(fingerprints, fingerprint)
		}
	}
	return fingerprints, nil
}

// agentEnvironment is the inherited environment with the agent address
// variables pointed at the given pid/socket.
func agentEnvironment(pid, socketPath string) []string {
	return append(os.Environ(),
		"SSH_AGENT_PID="+pid,
		"SSH_AUTH_SOCK="+socketPath,
	)
}

// fingerprintField extracts the fingerprint column from a ssh-add/ssh-keygen
// listing line ("<bits> <fingerprint> <comment> (<type>)").
func fingerprintField(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return "", false
	}
	return fields[1], true
}

// commandStderr extracts captured stderr from an exec error, for
// diagnostic context.
func commandStderr(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	return ""
}
