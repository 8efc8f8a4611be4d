// control/stats.go
// Author: momentics <momentics@gmail.com>
//
// Atomic engine counters backing api.Stats snapshots.

package control

import (
	"sync/atomic"
	"time"

	"github.com/momentics/weblet/api"
)

// Counters holds the mutable side of an api.Stats snapshot. All fields are
// updated with atomic operations from the service loop and producer
// contexts, so no additional locking is required (spec §5 ownership model).
type Counters struct {
	activeSlots      int64
	totalSlots       int64
	activeWebSockets int64
	activeSSEStreams int64
	pendingQueueLen  int64
	queueDrops       uint64
	tokensRefused    uint64
}

// NewCounters creates a Counters block sized for a pool of totalSlots.
func NewCounters(totalSlots int) *Counters {
	c := &Counters{}
	atomic.StoreInt64(&c.totalSlots, int64(totalSlots))
	return c
}

func (c *Counters) SetActiveSlots(n int)      { atomic.StoreInt64(&c.activeSlots, int64(n)) }
func (c *Counters) SetActiveWebSockets(n int) { atomic.StoreInt64(&c.activeWebSockets, int64(n)) }
func (c *Counters) SetActiveSSEStreams(n int) { atomic.StoreInt64(&c.activeSSEStreams, int64(n)) }
func (c *Counters) SetPendingQueueLen(n int)  { atomic.StoreInt64(&c.pendingQueueLen, int64(n)) }
func (c *Counters) IncQueueDrops()            { atomic.AddUint64(&c.queueDrops, 1) }
func (c *Counters) IncTokensRefused()         { atomic.AddUint64(&c.tokensRefused, 1) }

// Snapshot renders the current counter values as an api.Stats value.
func (c *Counters) Snapshot() api.Stats {
	return api.Stats{
		ActiveSlots:      int(atomic.LoadInt64(&c.activeSlots)),
		TotalSlots:       int(atomic.LoadInt64(&c.totalSlots)),
		ActiveWebSockets: int(atomic.LoadInt64(&c.activeWebSockets)),
		ActiveSSEStreams: int(atomic.LoadInt64(&c.activeSSEStreams)),
		PendingQueueLen:  int(atomic.LoadInt64(&c.pendingQueueLen)),
		QueueDrops:       atomic.LoadUint64(&c.queueDrops),
		TokensRefused:    atomic.LoadUint64(&c.tokensRefused),
		SampledAt:        time.Now(),
	}
}
