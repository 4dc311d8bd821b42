package ctrack

import "math"

// bracket holds the three percentile partitions of a site's sorted
// exclusive durations. Inclusive durations are not kept here; the caller
// looks them up by position in its own (duration, exclusive) pairs.
type bracket struct {
	fastest []int64
	center  []int64
	slowest []int64
}

// partition splits durations (already sorted ascending) into fastest/
// center/slowest using integer-floor partitioning, as specified: fastest is
// the bottom nonCenterPercent%, slowest the top nonCenterPercent%, and
// whatever remains in between is center.
func partition(sorted []int64, nonCenterPercent int) bracket {
	n := len(sorted)
	lo := n * nonCenterPercent / 100
	hi := n - lo

	if lo > hi {
		lo, hi = n/2, n/2
	}

	return bracket{
		fastest: sorted[:lo],
		center:  sorted[lo:hi],
		slowest: sorted[hi:],
	}
}

func minMax(xs []int64) (min, max int64) {
	if len(xs) == 0 {
		return 0, 0
	}
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

func meanInt64(xs []int64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int64
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func sumInt64(xs []int64) int64 {
	var sum int64
	for _, x := range xs {
		sum += x
	}
	return sum
}

// medianSorted assumes xs is sorted ascending.
func medianSorted(xs []int64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 1 {
		return float64(xs[mid])
	}
	return float64(xs[mid-1]+xs[mid]) / 2
}

// meanStddevCV computes the mean, population standard deviation and
// coefficient of variation of xs using a numerically stable two-pass
// algorithm: the mean is computed first, then a second pass accumulates
// squared deviations from that mean. The naive single-pass E[x^2] - E[x]^2
// form is avoided because it can catastrophically cancel for samples whose
// mean is large relative to their spread, which is exactly the shape of
// real-world timing data (most durations cluster tightly around a mean that
// is itself large compared to that spread).
func meanStddevCV(xs []int64) (mean, stddev, cv float64) {
	n := len(xs)
	if n == 0 {
		return 0, 0, 0
	}
	mean = meanInt64(xs)
	if n == 1 {
		return mean, 0, 0
	}

	var sumSquares float64
	for _, x := range xs {
		d := float64(x) - mean
		sumSquares += d * d
	}
	stddev = math.Sqrt(sumSquares / float64(n))

	if mean == 0 {
		return mean, stddev, 0
	}
	return mean, stddev, stddev / mean
}

// excludeFastest drops the fastest pct% of a sorted-ascending slice,
// returning the remainder (still sorted).
func excludeFastest(sorted []int64, pct float64) []int64 {
	return sorted[cutIndexForPercent(len(sorted), pct):]
}

// cutIndexForPercent returns how many of n elements fall in the fastest
// pct%, clamped to n. Shared by excludeFastest and compute.go's identical
// pre-bracketing cut over per-site (duration, exclusive) pairs, which can't
// call excludeFastest directly since it sorts plain int64s, not pairs.
func cutIndexForPercent(n int, pct float64) int {
	if pct <= 0 {
		return 0
	}
	cut := int(float64(n) * pct / 100)
	if cut > n {
		cut = n
	}
	return cut
}
