// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for agentctl packages.
package testutil
