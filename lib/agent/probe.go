// Copyright 2026 The Agentctl Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Prober answers the liveness and timestamp questions discovery asks
// about processes, sockets, and candidate directories. The production
// implementation is SystemProber; tests inject an in-memory fake.
//
// The pid and socket predicates are independent and never conflated:
// composite validity is assembled by the caller.
type Prober interface {
	// PIDValid reports whether pid parses as a positive integer and a
	// zero-signal probe to it succeeds. This only proves some process
	// with that id is alive — a recycled pid from an unrelated process
	// is reported valid. Documented limitation, not a bug.
	PIDValid(pid string) bool

	// SocketValid reports whether path lstats as a socket-typed
	// special file owned by the effective uid. Dangling paths, regular
	// files, symlinks, and sockets owned by other users all fail.
	SocketValid(path string) bool

	// SocketExists reports whether anything lstats at path, regardless
	// of type or owner. Used for the "recorded socket path" check.
	SocketExists(path string) bool

	// DirectoryOwned reports whether path is a directory owned by the
	// effective uid. The temp root may be world-writable, so every
	// managed-directory candidate passes through this.
	DirectoryOwned(path string) bool

	// PIDStartTime returns the wall-clock start time of the process,
	// for display and for foreign specifier derivation.
	PIDStartTime(pid string) (time.Time, error)

	// SocketTime returns the socket's last-modified time.
	SocketTime(path string) (time.Time, error)

	// SignalHangup sends SIGHUP to the process. A no-longer-existing
	// process is not an error.
	SignalHangup(pid string) error
}

// userHZ is the clock tick frequency the kernel reports process times
// in via procfs. Linux fixes the userspace-visible value at 100
// regardless of the kernel's internal CONFIG_HZ.
const userHZ = 100

// SystemProber implements Prober against the live system: kill(2) with
// signal 0, lstat(2), and procfs.
type SystemProber struct {
	// EUID is the effective uid sockets and directories must be owned
	// by to be trusted.
	EUID int
}

func (p *SystemProber) PIDValid(pid string) bool {
	id, err := parsePID(pid)
	if err != nil {
		return false
	}
	return unix.Kill(id, 0) == nil
}

func (p *SystemProber) SocketValid(path string) bool {
	if path == "" {
		return false
	}
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return false
	}
	return stat.Mode&unix.S_IFMT == unix.S_IFSOCK && int(stat.Uid) == p.EUID
}

func (p *SystemProber) SocketExists(path string) bool {
	if path == "" {
		return false
	}
	var stat unix.Stat_t
	return unix.Lstat(path, &stat) == nil
}

func (p *SystemProber) DirectoryOwned(path string) bool {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return false
	}
	return stat.Mode&unix.S_IFMT == unix.S_IFDIR && int(stat.Uid) == p.EUID
}

// PIDStartTime derives the process start time from the start-tick field
// of /proc/<pid>/stat: boot time plus ticks divided by the tick
// frequency.
func (p *SystemProber) PIDStartTime(pid string) (time.Time, error) {
	id, err := parsePID(pid)
	if err != nil {
		return time.Time{}, err
	}

	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", id))
	if err != nil {
		return time.Time{}, fmt.Errorf("reading process table entry: %w", err)
	}

	// The comm field (2) may contain spaces and parentheses; fields
	// are only well-defined after the last ')'. starttime is overall
	// field 22, which is field 20 counting from the state field.
	closing := strings.LastIndexByte(string(data), ')')
	if closing < 0 {
		return time.Time{}, fmt.Errorf("malformed stat entry for pid %d", id)
	}
	fields := strings.Fields(string(data[closing+1:]))
	if len(fields) < 20 {
		return time.Time{}, fmt.Errorf("truncated stat entry for pid %d", id)
	}
	startTicks, err := strconv.ParseUint(fields[19], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start ticks: %w", err)
	}

	bootTime, err := systemBootTime()
	if err != nil {
		return time.Time{}, err
	}
	return startTimeFromTicks(bootTime, startTicks), nil
}

// startTimeFromTicks converts a start-tick count into a wall-clock
// time. Whole seconds and the tick remainder are added separately: a
// single Duration multiply of the raw tick count overflows int64 for
// processes started after a few years of host uptime.
func startTimeFromTicks(bootTime time.Time, startTicks uint64) time.Time {
	seconds := time.Duration(startTicks/userHZ) * time.Second
	remainder := time.Duration(startTicks%userHZ) * (time.Second / userHZ)
	return bootTime.Add(seconds + remainder)
}

func (p *SystemProber) SocketTime(path string) (time.Time, error) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return time.Time{}, err
	}
	return time.Unix(stat.Mtim.Unix()), nil
}

func (p *SystemProber) SignalHangup(pid string) error {
	id, err := parsePID(pid)
	if err != nil {
		return err
	}
	if err := unix.Kill(id, unix.SIGHUP); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signalling pid %d: %w", id, err)
	}
	return nil
}

// systemBootTime reads the btime line from /proc/stat.
func systemBootTime() (time.Time, error) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return time.Time{}, fmt.Errorf("reading boot time: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		seconds, err := strconv.ParseInt(strings.TrimSpace(line[len("btime "):]), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing boot time: %w", err)
		}
		return time.Unix(seconds, 0), nil
	}
	return time.Time{}, fmt.Errorf("no btime entry in /proc/stat")
}

// parsePID parses a textual pid, rejecting anything that is not a
// positive integer.
func parsePID(pid string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(pid))
	if err != nil {
		return 0, fmt.Errorf("invalid pid %q: %w", pid, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid pid %d: must be positive", id)
	}
	return id, nil
}
