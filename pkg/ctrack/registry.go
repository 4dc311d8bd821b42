package ctrack

import (
	"sync"

	"github.com/Compaile/ctrack/internal/utils"
)

// goroutineRegistry tracks every goroutine that has ever recorded an event,
// plus a holding area for buffers whose owning goroutine has gone quiet.
// Registration (first use per goroutine) goes through the live sync.Map,
// only draining takes orphanMu, and appends touch neither.
type goroutineRegistry struct {
	live sync.Map // goroutineID -> *goroutineBuffer

	orphanMu sync.Mutex
	orphaned []drainedBuffer

	maxEventsPerGoroutine int
}

type drainedBuffer struct {
	goroutine goroutineID
	events    []RawEvent
	dropped   uint64
}

func newGoroutineRegistry(maxEventsPerGoroutine int) *goroutineRegistry {
	return &goroutineRegistry{maxEventsPerGoroutine: maxEventsPerGoroutine}
}

// bufferFor returns the buffer for id, creating and registering one on
// first use. This is the only path that adds to r.live; drainAll is the
// only one that removes from it.
func (r *goroutineRegistry) bufferFor(id goroutineID) *goroutineBuffer {
	if v, ok := r.live.Load(id); ok {
		return v.(*goroutineBuffer)
	}
	b := newGoroutineBuffer(id, r.maxEventsPerGoroutine)
	actual, loaded := r.live.LoadOrStore(id, b)
	if loaded {
		return actual.(*goroutineBuffer)
	}
	return b
}

// trackedGoroutines reports how many goroutines currently have a live
// buffer registered, for diagnostics.
func (r *goroutineRegistry) trackedGoroutines() int {
	return utils.LenSyncMap(&r.live)
}

// drainAll swaps out every live buffer's contents and moves buffers that
// have gone quiet for long enough into the orphan holding area, returning
// all drained event sets (live and previously orphaned) for aggregation.
func (r *goroutineRegistry) drainAll() ([]drainedBuffer, uint64) {
	var out []drainedBuffer
	var totalDropped uint64

	r.live.Range(func(key, value any) bool {
		id := key.(goroutineID)
		b := value.(*goroutineBuffer)

		events, dropped := b.drain()
		totalDropped += dropped
		if len(events) > 0 {
			out = append(out, drainedBuffer{goroutine: id, events: events, dropped: dropped})
		}

		if b.isQuiet() {
			// A final event can race in between the drain above and the
			// delete below, since append() never takes r's lock. Catch it
			// here and hold it for the next aggregation rather than
			// losing it when the map entry disappears.
			r.live.Delete(id)
			final, finalDropped := b.drain()
			totalDropped += finalDropped
			if len(final) > 0 {
				r.orphanMu.Lock()
				r.orphaned = append(r.orphaned, drainedBuffer{goroutine: id, events: final, dropped: finalDropped})
				r.orphanMu.Unlock()
			}
		}
		return true
	})

	r.orphanMu.Lock()
	out = append(out, r.orphaned...)
	r.orphaned = nil
	r.orphanMu.Unlock()

	return out, totalDropped
}
