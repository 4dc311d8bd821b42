package ctrack

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadEventFileRoundTrip(t *testing.T) {
	sites := []Site{
		{ID: 0, File: "work.go", Line: 10, Name: "work"},
		{ID: 1, File: "work.go", Line: 20, Name: "fetch"},
	}
	buffers := []drainedBuffer{
		{goroutine: 7, events: []RawEvent{
			{SiteID: 0, Enter: 0, Exit: 100},
			{SiteID: 1, Enter: 10, Exit: 30},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeEventFile(&buf, sites, buffers, 1000, 2000))

	reg := newSiteRegistry()
	got, start, end, err := readEventFile(&buf, reg)
	require.NoError(t, err)
	require.Equal(t, int64(1000), start)
	require.Equal(t, int64(2000), end)
	require.Len(t, got, 1)
	require.Equal(t, goroutineID(7), got[0].goroutine)
	require.Len(t, got[0].events, 2)

	snap := reg.snapshot()
	require.Len(t, snap, 2)
}

func TestReadEventFileRejectsBadMagic(t *testing.T) {
	_, _, _, err := readEventFile(bytes.NewReader([]byte("not-ctrack-data-at-all")), newSiteRegistry())
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadEventFileRejectsTruncated(t *testing.T) {
	_, _, _, err := readEventFile(bytes.NewReader([]byte(fileMagic)), newSiteRegistry())
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadEventFileDetectsChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEventFile(&buf, nil, nil, 0, 100))

	corrupted := buf.Bytes()
	corrupted[len(fileMagic)+4] ^= 0xFF // flip a byte inside the ignored reserved field

	_, _, _, err := readEventFile(bytes.NewReader(corrupted), newSiteRegistry())
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestSaveAndLoadEventsEndToEnd(t *testing.T) {
	ResetForTesting()

	func() {
		defer ScopeNamed("outer")()
		func() {
			defer ScopeNamed("inner")()
		}()
	}()

	path := filepath.Join(t.TempDir(), "events.bin")
	require.NoError(t, SaveEventsToFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	tables, err := LoadAndReport(path)
	require.NoError(t, err)
	require.Len(t, tables.Summary, 2)

	var names []string
	for _, row := range tables.Summary {
		names = append(names, row.Site.Name)
	}
	require.Contains(t, names, "outer")
	require.Contains(t, names, "inner")
}
