package ctrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNowIsMonotonic(t *testing.T) {
	var last int64
	for i := 0; i < 1000; i++ {
		ts := now()
		require.GreaterOrEqual(t, ts, last)
		last = ts
	}
}

func TestClockRegressionsIsNonNegative(t *testing.T) {
	require.GreaterOrEqual(t, ClockRegressions(), uint64(0))
}
