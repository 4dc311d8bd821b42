package ctrack

import (
	"fmt"
	"sync"
)

// defaultMaxEventsPerGoroutine bounds per-goroutine buffer growth so a
// runaway instrumented loop degrades to dropped events rather than
// unbounded memory growth.
const defaultMaxEventsPerGoroutine = 1 << 20

// profilerContext bundles the registries that back the package-level API
// into one value, so tests can discard and recreate it wholesale instead of
// resetting each registry by hand.
type profilerContext struct {
	sites     *siteRegistry
	registry  *goroutineRegistry
	startTime int64
}

func newProfilerContext() *profilerContext {
	return &profilerContext{
		sites:     newSiteRegistry(),
		registry:  newGoroutineRegistry(defaultMaxEventsPerGoroutine),
		startTime: now(),
	}
}

var (
	defaultProfilerMu sync.RWMutex
	defaultProfiler   = newProfilerContext()
)

// ResetForTesting discards all recorded events, interned sites, and
// tracked goroutines, starting a fresh measurement window. It exists so
// test suites that exercise package-level Scope/ResultGetTables calls don't
// bleed state between test cases.
func ResetForTesting() {
	defaultProfilerMu.Lock()
	defer defaultProfilerMu.Unlock()
	defaultProfiler = newProfilerContext()
}

func current() *profilerContext {
	defaultProfilerMu.RLock()
	defer defaultProfilerMu.RUnlock()
	return defaultProfiler
}

// ResultGetTables drains all recorded events and computes result tables.
// Settings default to DefaultResultSettings when omitted.
func ResultGetTables(settings ...ResultSettings) (ResultTables, error) {
	p := current()
	return p.compute(resolveSettings(settings))
}

func (p *profilerContext) compute(settings ResultSettings) (ResultTables, error) {
	buffers, lost, start, end := p.drain()
	return computeTables(buffers, p.sites, settings, start, end, lost)
}

// drain takes ownership of every tracked goroutine's events and reports the
// window (start of the previous drain through now) they were recorded in,
// then opens the next window.
func (p *profilerContext) drain() (buffers []drainedBuffer, lostEvents bool, startTime, endTime int64) {
	buffers, dropped := p.registry.drainAll()
	endTime = now()
	startTime = p.startTime
	p.startTime = endTime

	return buffers, dropped > 0, startTime, endTime
}

// TrackedGoroutines reports how many goroutines currently have a live event
// buffer registered. It is a diagnostic, not part of any result computation.
func TrackedGoroutines() int {
	return current().registry.trackedGoroutines()
}

// ResultAsString computes result tables and renders them with this
// package's minimal plain-text formatter (formatTables), not package report.
func ResultAsString(settings ...ResultSettings) (string, error) {
	tables, err := ResultGetTables(settings...)
	if err != nil {
		return "", err
	}
	return formatTables(tables), nil
}

// ResultPrint computes result tables and writes them to stdout.
func ResultPrint(settings ...ResultSettings) error {
	text, err := ResultAsString(settings...)
	if err != nil {
		return err
	}
	_, err = fmt.Print(text)
	return err
}
