package ctrack

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func namedWork() {
	defer Scope()()
}

func TestScopeRecordsSingleCall(t *testing.T) {
	ResetForTesting()

	namedWork()

	tables, err := ResultGetTables()
	require.NoError(t, err)
	require.Len(t, tables.Summary, 1)
	require.Equal(t, 1, tables.Summary[0].Calls)
	require.Equal(t, "namedWork", tables.Summary[0].Site.Name)
}

func TestScopeNamedUsesGivenName(t *testing.T) {
	ResetForTesting()

	func() {
		defer ScopeNamed("custom-label")()
	}()

	tables, err := ResultGetTables()
	require.NoError(t, err)
	require.Len(t, tables.Summary, 1)
	require.Equal(t, "custom-label", tables.Summary[0].Site.Name)
}

func TestResultGetTablesDrainsEvents(t *testing.T) {
	ResetForTesting()

	func() {
		defer Scope()()
	}()

	first, err := ResultGetTables()
	require.NoError(t, err)
	require.Len(t, first.Summary, 1)

	second, err := ResultGetTables()
	require.NoError(t, err)
	require.Empty(t, second.Summary)
}

func TestTrackedGoroutinesReflectsLiveBuffers(t *testing.T) {
	ResetForTesting()
	require.Equal(t, 0, TrackedGoroutines())

	var wg sync.WaitGroup
	started := make(chan struct{})
	release := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		func() {
			defer Scope()()
			close(started)
			<-release
		}()
	}()

	<-started
	require.Equal(t, 1, TrackedGoroutines())
	close(release)
	wg.Wait()
}

func TestResultAsStringRendersSummary(t *testing.T) {
	ResetForTesting()

	func() {
		defer ScopeNamed("rendered-site")()
	}()

	text, err := ResultAsString()
	require.NoError(t, err)
	require.Contains(t, text, "rendered-site")
}

func TestScopeGuardIsIdempotentOnDoubleInvocation(t *testing.T) {
	ResetForTesting()

	stop := Scope()
	stop()
	stop() // must not append a second event

	tables, err := ResultGetTables()
	require.NoError(t, err)
	require.Len(t, tables.Summary, 1)
	require.Equal(t, 1, tables.Summary[0].Calls)
}

func TestResultGetTablesPropagatesSettingsValidationError(t *testing.T) {
	ResetForTesting()

	func() {
		defer ScopeNamed("whatever")()
	}()

	_, err := ResultGetTables(ResultSettings{NonCenterPercent: 0})
	require.ErrorIs(t, err, ErrInvalidNonCenter)
}
