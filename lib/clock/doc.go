// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall clock so that code deciding
// agent validity and allocating time-derived specifiers can be tested
// against a deterministic time source.
package clock
