package ctrack

import "sort"

type sitePair struct {
	duration  int64
	exclusive int64
}

type siteAccumulator struct {
	site      Site
	calls     int
	threads   map[goroutineID]struct{}
	pairs     []sitePair
}

// computeTables runs the full aggregation algorithm over already-drained,
// per-goroutine raw events: reconstruct nesting, group by site, bracket by
// percentile, compute statistics, filter, and sort — steps 2 through 9 of
// the design (step 1, draining, and step 10's pre-filter are handled by the
// caller and within this function respectively).
func computeTables(
	buffers []drainedBuffer,
	sites *siteRegistry,
	settings ResultSettings,
	startTime, endTime int64,
	lostEvents bool,
) (ResultTables, error) {
	if err := settings.validate(); err != nil {
		return ResultTables{}, err
	}

	accum := make(map[int]*siteAccumulator)
	var timeCtracked int64

	for _, buf := range buffers {
		gid := buf.goroutine

		resolved, err := reconstructGoroutine(buf.events)
		if err != nil {
			// This goroutine's data is unusable; skip it but keep going
			// with everything else, per the propagation policy.
			lostEvents = true
			continue
		}

		for _, r := range resolved {
			a, ok := accum[r.siteID]
			if !ok {
				site, _ := sites.get(r.siteID)
				a = &siteAccumulator{site: site, threads: make(map[goroutineID]struct{})}
				accum[r.siteID] = a
			}
			a.calls++
			a.threads[gid] = struct{}{}
			a.pairs = append(a.pairs, sitePair{duration: r.duration, exclusive: r.exclusive})

			if r.isRoot {
				timeCtracked += r.exclusive
			}
		}
	}

	summary := make([]SummaryRow, 0, len(accum))
	details := make([]DetailStats, 0, len(accum))

	for _, a := range accum {
		sort.Slice(a.pairs, func(i, j int) bool { return a.pairs[i].exclusive < a.pairs[j].exclusive })

		timeAccumulated := int64(0)
		timeActiveExclusiveAll := int64(0)
		for _, p := range a.pairs {
			timeAccumulated += p.duration
			timeActiveExclusiveAll += p.exclusive
		}

		cut := cutIndexForPercent(len(a.pairs), settings.PercentExcludeFastestActiveExclusive)
		bracketed := a.pairs[cut:]

		exclusives := make([]int64, len(bracketed))
		for i, p := range bracketed {
			exclusives[i] = p.exclusive
		}
		br := partition(exclusives, settings.NonCenterPercent)

		centerInclusive := make([]int64, 0, len(br.center))
		lo := len(br.fastest)
		for i := lo; i < lo+len(br.center); i++ {
			centerInclusive = append(centerInclusive, bracketed[i].duration)
		}

		fastestMin, _ := minMax(br.fastest)
		centerMin, centerMax := minMax(br.center)
		_, slowestMax := minMax(br.slowest)

		centerMean, stddev, cv := meanStddevCV(br.center)

		centerTimeActiveExclusive := sumInt64(br.center)
		centerTimeActive := sumInt64(centerInclusive)

		summary = append(summary, SummaryRow{
			Site:                   a.site,
			Calls:                  a.calls,
			Threads:                len(a.threads),
			TimeActiveAll:          timeAccumulated,
			TimeActiveExclusiveAll: timeActiveExclusiveAll,
		})

		details = append(details, DetailStats{
			Site:                      a.site,
			FastestMin:                fastestMin,
			FastestMean:               meanInt64(br.fastest),
			FastestRange:              settings.NonCenterPercent,
			CenterMin:                 centerMin,
			CenterMean:                centerMean,
			CenterMedian:              medianSorted(br.center),
			CenterMax:                 centerMax,
			SlowestMean:               meanInt64(br.slowest),
			SlowestMax:                slowestMax,
			SlowestRange:              100 - settings.NonCenterPercent,
			CenterTimeActive:          centerTimeActive,
			CenterTimeActiveExclusive: centerTimeActiveExclusive,
			TimeAccumulated:           timeAccumulated,
			StandardDeviation:         stddev,
			CoefficientOfVariation:    cv,
		})
	}

	summary, details = filterByMinPercent(summary, details, timeCtracked, settings.MinPercentActiveExclusive)
	sortRows(summary, details)
	applyPercentColumns(summary, details)

	return ResultTables{
		Summary:      summary,
		Details:      details,
		StartTime:    startTime,
		EndTime:      endTime,
		TimeTotal:    endTime - startTime,
		TimeCtracked: timeCtracked,
		Settings:     settings,
		LostEvents:   lostEvents,
	}, nil
}

func filterByMinPercent(summary []SummaryRow, details []DetailStats, timeCtracked int64, minPercent float64) ([]SummaryRow, []DetailStats) {
	if minPercent <= 0 || timeCtracked == 0 {
		return summary, details
	}

	keep := make(map[int]bool, len(details))
	for _, d := range details {
		pct := 100 * float64(d.CenterTimeActiveExclusive) / float64(timeCtracked)
		if pct >= minPercent {
			keep[d.Site.ID] = true
		}
	}

	fSummary := summary[:0:0]
	for _, s := range summary {
		if keep[s.Site.ID] {
			fSummary = append(fSummary, s)
		}
	}
	fDetails := details[:0:0]
	for _, d := range details {
		if keep[d.Site.ID] {
			fDetails = append(fDetails, d)
		}
	}
	return fSummary, fDetails
}

// sortRows orders both tables by time_active_exclusive_all descending,
// tie-broken by site id ascending, so Summary and Details always agree on
// ranking even though Details' own metrics (the percentile-trimmed center
// bracket) can rank sites differently once fastest-event exclusion or an
// asymmetric outlier distribution is in play.
func sortRows(summary []SummaryRow, details []DetailStats) {
	exclusiveAllBySite := make(map[int]int64, len(summary))
	for _, s := range summary {
		exclusiveAllBySite[s.Site.ID] = s.TimeActiveExclusiveAll
	}

	sort.SliceStable(summary, func(i, j int) bool {
		if summary[i].TimeActiveExclusiveAll != summary[j].TimeActiveExclusiveAll {
			return summary[i].TimeActiveExclusiveAll > summary[j].TimeActiveExclusiveAll
		}
		return summary[i].Site.ID < summary[j].Site.ID
	})
	sort.SliceStable(details, func(i, j int) bool {
		ei, ej := exclusiveAllBySite[details[i].Site.ID], exclusiveAllBySite[details[j].Site.ID]
		if ei != ej {
			return ei > ej
		}
		return details[i].Site.ID < details[j].Site.ID
	})
}

func applyPercentColumns(summary []SummaryRow, details []DetailStats) {
	var totalAll, totalBracket int64
	for _, s := range summary {
		totalAll += s.TimeActiveExclusiveAll
	}
	for _, d := range details {
		totalBracket += d.CenterTimeActiveExclusive
	}

	for i := range summary {
		if totalAll > 0 {
			summary[i].PercentAEAll = 100 * float64(summary[i].TimeActiveExclusiveAll) / float64(totalAll)
		}
	}

	bracketPct := make(map[int]float64, len(details))
	for _, d := range details {
		if totalBracket > 0 {
			bracketPct[d.Site.ID] = 100 * float64(d.CenterTimeActiveExclusive) / float64(totalBracket)
		}
	}
	for i := range summary {
		summary[i].PercentAEBracket = bracketPct[summary[i].Site.ID]
	}
}
