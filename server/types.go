// File: server/types.go
// Package server wires transport.Listener, conn.Manager and the handler
// registry into one runnable facade (spec C1/C7/C8, §6/§8).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"time"

	"github.com/momentics/weblet/api"
)

// Config holds every configurable parameter of the engine (spec §6/§8
// EXTERNAL INTERFACES). Field names and defaults track spec.md §6's table
// exactly; TaskCore/TaskPriority/TaskStackSize are carried for parity with
// the embedded original. Only TaskCore is read: when >= 0, the listener pins
// the OS thread of the goroutine that calls Run to that CPU; the service
// loop and accept loop goroutines are not pinned.
type Config struct {
	ServerTCPPort    int
	NumConnSlots     int
	MaxWebSockets    int
	PingInterval     time.Duration
	EnableFileServer bool
	TaskCore         int
	TaskPriority     int
	TaskStackSize    int
	SendBufferMaxLen int
	ResponseHeaders  []api.HeaderPair
	Debug            bool
}

// DefaultConfig returns the spec.md §6 defaults: port 80, 6 slots, 3
// websockets, 1000ms ping, 1000-byte send buffer, affinity pinning
// disabled (TaskCore -1).
func DefaultConfig() *Config {
	return &Config{
		ServerTCPPort:    80,
		NumConnSlots:     6,
		MaxWebSockets:    3,
		PingInterval:     1000 * time.Millisecond,
		EnableFileServer: false,
		TaskCore:         -1,
		TaskPriority:     0,
		TaskStackSize:    0,
		SendBufferMaxLen: 1000,
		Debug:            false,
	}
}
