// File: adapters/control_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Control adapter implementing api.Control using control package primitives.

package adapters

import (
	"github.com/momentics/weblet/api"
	"github.com/momentics/weblet/control"
)

// ControlAdapter bridges api.Control to the engine's config/counters/debug
// primitives.
type ControlAdapter struct {
	config   *control.ConfigStore
	counters *control.Counters
	debug    *control.DebugProbes
}

// NewControlAdapter constructs a new ControlAdapter backed by counters sized
// for totalSlots connection slots.
func NewControlAdapter(totalSlots int) *ControlAdapter {
	adapter := &ControlAdapter{
		config:   control.NewConfigStore(),
		counters: control.NewCounters(totalSlots),
		debug:    control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	adapter.debug.RegisterProbe("engine.stats", func() any {
		return adapter.counters.Snapshot()
	})
	return adapter
}

// Counters exposes the underlying atomic counter block so the connection
// manager can update it directly without going through the map-valued
// Control interface.
func (c *ControlAdapter) Counters() *control.Counters {
	return c.counters
}

// GetConfig returns a snapshot of the current configuration.
func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

// SetConfig merges and applies new configuration, then triggers reload hooks.
func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats returns the config snapshot merged with live counters and debug
// probe output.
func (c *ControlAdapter) Stats() map[string]any {
	combined := make(map[string]any)
	for k, v := range c.config.GetSnapshot() {
		combined[k] = v
	}
	combined["stats"] = c.counters.Snapshot()
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

// OnReload registers a callback invoked on configuration changes.
func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

// RegisterDebugProbe registers a named debug probe function.
func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

var _ api.Control = (*ControlAdapter)(nil)
