package ctrack

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const initialBufferCapacity = 256

// goroutineBuffer is the per-goroutine append-only event log. Only the
// owning goroutine ever appends to it, and the aggregator takes ownership of
// the whole slice with a single atomic pointer swap (drain) — the only
// operation that crosses goroutines. append itself is a CAS retry loop
// rather than a plain store so a drain racing with an in-flight append can
// never be clobbered: on CAS failure append re-reads the (now fresh, empty)
// slice a drain just installed and retries against that instead of losing
// the drain's swap. No mutex sits on either path.
type goroutineBuffer struct {
	id goroutineID

	// osThreadID is diagnostic metadata only, captured once at first use.
	// It plays no role in event attribution: a goroutine is not pinned to
	// one OS thread, so using it as an identity key would silently
	// misattribute events recorded after a goroutine hops threads.
	osThreadID int

	events atomic.Pointer[[]RawEvent]

	maxEvents int
	dropped   uint64

	quietDrains int // consecutive drains that found no new events; touched only by the aggregator's single-threaded drain path
}

func newGoroutineBuffer(id goroutineID, maxEvents int) *goroutineBuffer {
	b := &goroutineBuffer{
		id:         id,
		osThreadID: unix.Gettid(),
		maxEvents:  maxEvents,
	}
	initial := make([]RawEvent, 0, initialBufferCapacity)
	b.events.Store(&initial)
	return b
}

// append adds a closed event. When maxEvents is reached the buffer starts
// dropping events rather than growing without bound, and counts the drops
// so the aggregator can surface a lost-events warning instead of silently
// under-reporting.
func (b *goroutineBuffer) append(e RawEvent) {
	for {
		cur := b.events.Load()
		events := *cur
		if b.maxEvents > 0 && len(events) >= b.maxEvents {
			atomic.AddUint64(&b.dropped, 1)
			return
		}
		next := append(events, e)
		if b.events.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// drain takes ownership of the current contents by swapping in a fresh
// slice, so event capture can continue uninterrupted on the owning
// goroutine while the aggregator works on the drained copy.
func (b *goroutineBuffer) drain() (events []RawEvent, dropped uint64) {
	fresh := make([]RawEvent, 0, initialBufferCapacity)
	old := b.events.Swap(&fresh)
	events = *old
	dropped = atomic.SwapUint64(&b.dropped, 0)

	if len(events) == 0 {
		b.quietDrains++
	} else {
		b.quietDrains = 0
	}

	return events, dropped
}

func (b *goroutineBuffer) isQuiet() bool {
	return b.quietDrains >= quietDrainsBeforeOrphan
}

// quietDrainsBeforeOrphan is the number of consecutive empty drains after
// which a goroutine's buffer is considered abandoned (the Go stand-in for
// "the owning thread exited" — see the registry's orphan handling).
const quietDrainsBeforeOrphan = 2
