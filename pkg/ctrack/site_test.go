package ctrack

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSiteRegistryInternSamePC(t *testing.T) {
	r := newSiteRegistry()

	id1, err := r.intern(0x1000, "")
	require.NoError(t, err)

	id2, err := r.intern(0x1000, "")
	require.NoError(t, err)

	require.Equal(t, id1, id2)
}

func TestSiteRegistryInternDifferentPCs(t *testing.T) {
	r := newSiteRegistry()

	// Real return addresses on two different source lines, so they resolve
	// to two different (file, line, name) sites.
	pc1, _, _, _ := runtime.Caller(0)
	pc2, _, _, _ := runtime.Caller(0)

	id1, err := r.intern(pc1, "")
	require.NoError(t, err)

	id2, err := r.intern(pc2, "")
	require.NoError(t, err)

	require.NotEqual(t, id1, id2)
}

func TestSiteRegistryNameConflict(t *testing.T) {
	r := newSiteRegistry()

	id, err := r.intern(0x1000, "alpha")
	require.NoError(t, err)
	require.Equal(t, 0, id)

	_, err = r.intern(0x1000, "beta")
	require.ErrorIs(t, err, ErrSiteNameConflict)
}

func TestSiteRegistryGetOutOfRange(t *testing.T) {
	r := newSiteRegistry()
	_, ok := r.get(42)
	require.False(t, ok)
}

func TestSiteRegistrySnapshotIsACopy(t *testing.T) {
	r := newSiteRegistry()
	_, err := r.intern(0x1000, "alpha")
	require.NoError(t, err)

	snap := r.snapshot()
	require.Len(t, snap, 1)

	snap[0].Name = "mutated"

	snap2 := r.snapshot()
	require.Equal(t, "alpha", snap2[0].Name)
}

func TestSiteRegistryInternExternalDedups(t *testing.T) {
	r := newSiteRegistry()

	id1 := r.internExternal("foo.go", 10, "alpha")
	id2 := r.internExternal("foo.go", 10, "alpha")
	id3 := r.internExternal("foo.go", 11, "alpha")

	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, id3)
}

func TestSiteFingerprintStableAndDistinct(t *testing.T) {
	fp1 := siteFingerprint("foo.go", 10, "alpha")
	fp2 := siteFingerprint("foo.go", 10, "alpha")
	fp3 := siteFingerprint("foo.go", 11, "alpha")

	require.Equal(t, fp1, fp2)
	require.NotEqual(t, fp1, fp3)
}

func TestShortFuncName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"github.com/Compaile/ctrack/pkg/ctrack.Scope", "Scope"},
		{"github.com/Compaile/ctrack/pkg/ctrack.(*profilerContext).scope", "(*profilerContext).scope"},
		{"main.main", "main"},
		{"noop", "noop"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, shortFuncName(tt.in))
	}
}
