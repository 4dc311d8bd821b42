package ctrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconstructGoroutineFlatSiblings(t *testing.T) {
	// A[0,10], B[10,25]: two disjoint root events, no nesting.
	events := []RawEvent{
		{SiteID: 1, Enter: 0, Exit: 10},
		{SiteID: 2, Enter: 10, Exit: 25},
	}

	out, err := reconstructGoroutine(events)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, r := range out {
		require.True(t, r.isRoot)
		require.Equal(t, r.duration, r.exclusive)
	}
}

func TestReconstructGoroutineSimpleNesting(t *testing.T) {
	// A[0,100] contains B[10,30]: A's exclusive time excludes B's 20.
	events := []RawEvent{
		{SiteID: 2, Enter: 10, Exit: 30}, // B closes first
		{SiteID: 1, Enter: 0, Exit: 100}, // A closes second
	}

	out, err := reconstructGoroutine(events)
	require.NoError(t, err)
	require.Len(t, out, 2)

	bySite := make(map[int]reconstructed)
	for _, r := range out {
		bySite[r.siteID] = r
	}

	require.Equal(t, int64(20), bySite[2].duration)
	require.Equal(t, int64(20), bySite[2].exclusive)
	require.False(t, bySite[2].isRoot)

	require.Equal(t, int64(100), bySite[1].duration)
	require.Equal(t, int64(80), bySite[1].exclusive)
	require.True(t, bySite[1].isRoot)
}

// TestReconstructGoroutineMixedNestingAndSiblings hand-traces:
// A[0,100] contains B[10,30]; A also contains C[40,90], which itself
// contains D[50,60]. Expected exclusive times: D=10, C=40, B=20, A=30.
func TestReconstructGoroutineMixedNestingAndSiblings(t *testing.T) {
	events := []RawEvent{
		{SiteID: 2, Enter: 10, Exit: 30}, // B
		{SiteID: 4, Enter: 50, Exit: 60}, // D
		{SiteID: 3, Enter: 40, Exit: 90}, // C (closes after D)
		{SiteID: 1, Enter: 0, Exit: 100}, // A (closes last)
	}

	out, err := reconstructGoroutine(events)
	require.NoError(t, err)
	require.Len(t, out, 4)

	exclusive := make(map[int]int64)
	for _, r := range out {
		exclusive[r.siteID] = r.exclusive
	}

	require.Equal(t, int64(10), exclusive[4]) // D
	require.Equal(t, int64(40), exclusive[3]) // C
	require.Equal(t, int64(20), exclusive[2]) // B
	require.Equal(t, int64(30), exclusive[1]) // A
}

func TestReconstructGoroutineRejectsPartialOverlap(t *testing.T) {
	// A[0,50] and B[25,75] partially overlap: neither contains the other
	// nor are they disjoint. This can never come from well-formed scopes.
	events := []RawEvent{
		{SiteID: 1, Enter: 0, Exit: 50},
		{SiteID: 2, Enter: 25, Exit: 75},
	}

	_, err := reconstructGoroutine(events)
	require.ErrorIs(t, err, ErrMalformedNesting)
}

func TestReconstructGoroutineRejectsInvertedInterval(t *testing.T) {
	events := []RawEvent{
		{SiteID: 1, Enter: 50, Exit: 10},
	}

	_, err := reconstructGoroutine(events)
	require.ErrorIs(t, err, ErrMalformedNesting)
}

func TestReconstructGoroutineEmpty(t *testing.T) {
	out, err := reconstructGoroutine(nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDisjoint(t *testing.T) {
	require.True(t, disjoint(RawEvent{Enter: 0, Exit: 10}, RawEvent{Enter: 10, Exit: 20}))
	require.True(t, disjoint(RawEvent{Enter: 10, Exit: 20}, RawEvent{Enter: 0, Exit: 10}))
	require.False(t, disjoint(RawEvent{Enter: 0, Exit: 10}, RawEvent{Enter: 5, Exit: 15}))
}
