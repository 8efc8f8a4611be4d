// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration, metrics counters, and debug introspection layer for
// the web engine. Provides concurrent-safe state handling primitives:
//   - Immutable snapshot config reads and atomic updates
//   - Runtime observers for hot-reload
//   - Atomic counter telemetry (active slots, WS/SSE counts, queue drops)
//   - Debug hooks and probe registration
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
