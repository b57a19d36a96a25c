// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the wall clock for testability. Production code
// injects Real(); tests inject Fake() with deterministic time control.
//
// agentctl is a one-shot tool, so the only time operation it performs
// is reading the current time: specifier allocation, expiration stamps,
// and expiration comparisons all flow through Now.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
