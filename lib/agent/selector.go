// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "slices"

// Selector names one record out of a snapshot. At most one field is
// set: an explicit specifier, an identity filename, or neither — the
// default mode, which resolves only when exactly one record exists.
// The same selection modes are shared by start, stop, status, and env.
type Selector struct {
	Specifier string
	Identity  string
}

// Select resolves sel against a snapshot. Failures are NotFoundError
// values distinguishing which selector missed and whether the miss was
// ambiguity rather than absence.
func Select(records map[string]Record, sel Selector) (Record, error) {
	if sel.Specifier != "" {
		record, ok := records[sel.Specifier]
		if !ok {
			return Record{}, &NotFoundError{Kind: SelectBySpecifier, Value: sel.Specifier}
		}
		return record, nil
	}

	if sel.Identity != "" {
		var matches []Record
		for _, record := range Sorted(records) {
			if record.Valid && slices.Contains(record.Identities, sel.Identity) {
				matches = append(matches, record)
			}
		}
		if len(matches) != 1 {
			return Record{}, &NotFoundError{Kind: SelectByIdentity, Value: sel.Identity, Matches: len(matches)}
		}
		return matches[0], nil
	}

	if len(records) != 1 {
		return Record{}, &NotFoundError{Kind: SelectDefault, Matches: len(records)}
	}
	for _, record := range records {
		return record, nil
	}
	panic("unreachable")
}
