//go:build linux

// File: transport/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"log"
	"runtime"

	"golang.org/x/sys/unix"
)

// setCPUAffinity pins the calling OS thread to cpu using the real
// unix.SchedSetaffinity syscall wrapper (adapted from the teacher's
// hand-rolled syscall.RawSyscall(SYS_SCHED_SETAFFINITY, ...) into the
// golang.org/x/sys/unix equivalent).
func setCPUAffinity(cpu int, logger *log.Logger) {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		if logger != nil {
			logger.Printf("set CPU affinity to %d failed: %v", cpu, err)
		}
	}
}
