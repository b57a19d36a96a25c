// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for agentctl.
//
// Configuration is layered: built-in defaults, then an optional single
// yaml file (AGENTCTL_CONFIG environment variable or --config flag),
// then the AGENTCTL_KEY_DIR and AGENTCTL_TMP environment overrides.
// The inherited SSH_AGENT_PID/SSH_AUTH_SOCK values are captured into
// the Config so downstream code never reads the environment directly.
package config
