package ctrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryBufferForCreatesOnce(t *testing.T) {
	r := newGoroutineRegistry(0)

	b1 := r.bufferFor(1)
	b2 := r.bufferFor(1)
	require.Same(t, b1, b2)

	b3 := r.bufferFor(2)
	require.NotSame(t, b1, b3)
}

func TestRegistryTrackedGoroutines(t *testing.T) {
	r := newGoroutineRegistry(0)
	require.Equal(t, 0, r.trackedGoroutines())

	r.bufferFor(1)
	r.bufferFor(2)
	require.Equal(t, 2, r.trackedGoroutines())
}

func TestRegistryDrainAllCollectsLiveEvents(t *testing.T) {
	r := newGoroutineRegistry(0)

	b1 := r.bufferFor(1)
	b1.append(RawEvent{SiteID: 1, Enter: 0, Exit: 10})

	b2 := r.bufferFor(2)
	b2.append(RawEvent{SiteID: 2, Enter: 0, Exit: 5})

	out, dropped := r.drainAll()
	require.Zero(t, dropped)
	require.Len(t, out, 2)

	byGoroutine := make(map[goroutineID][]RawEvent)
	for _, d := range out {
		byGoroutine[d.goroutine] = d.events
	}
	require.Len(t, byGoroutine[1], 1)
	require.Len(t, byGoroutine[2], 1)
}

func TestRegistryDrainAllOrphansQuietBuffer(t *testing.T) {
	r := newGoroutineRegistry(0)
	r.bufferFor(1)

	for i := 0; i < quietDrainsBeforeOrphan; i++ {
		r.drainAll()
	}

	require.Equal(t, 0, r.trackedGoroutines())
}

// TestRegistryDrainAllDoesNotLoseEventsAcrossOrphaning exercises the actual
// race drainAll guards against: a goroutine still appending to its buffer
// right up until it stops, concurrently with drainAll deciding the buffer
// has gone quiet and removing it from the live set. Every event the
// appender manages to write before it stops must show up in some call's
// output — live or orphaned — exactly once.
func TestRegistryDrainAllDoesNotLoseEventsAcrossOrphaning(t *testing.T) {
	r := newGoroutineRegistry(0)
	const totalAppends = 5000

	done := make(chan struct{})
	go func() {
		defer close(done)
		b := r.bufferFor(1)
		for i := 0; i < totalAppends; i++ {
			b.append(RawEvent{SiteID: 1, Enter: int64(i), Exit: int64(i) + 1})
		}
	}()

	var collected int
	for {
		out, _ := r.drainAll()
		for _, d := range out {
			collected += len(d.events)
		}
		select {
		case <-done:
			out, _ := r.drainAll()
			for _, d := range out {
				collected += len(d.events)
			}
			require.Equal(t, totalAppends, collected)
			return
		default:
		}
	}
}
