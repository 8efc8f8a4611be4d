//go:build !linux

// File: transport/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "log"

// setCPUAffinity is a no-op outside Linux: CPU pinning is a Linux-only
// optimization (spec §4.1 targets a generic TransportAdapter contract).
func setCPUAffinity(cpu int, logger *log.Logger) {
	if logger != nil {
		logger.Printf("CPU affinity pinning not supported on this platform, ignoring core %d", cpu)
	}
}
