package ctrack

// SummaryRow is one site's entry in the summary table.
type SummaryRow struct {
	Site                   Site
	Calls                  int
	Threads                int
	TimeActiveAll          int64
	TimeActiveExclusiveAll int64
	PercentAEBracket       float64
	PercentAEAll           float64
}

// DetailStats is one site's entry in the detail table, adding the
// percentile-bracketed statistics.
type DetailStats struct {
	Site Site

	FastestMin  int64
	FastestMean float64
	FastestRange int

	CenterMin    int64
	CenterMean   float64
	CenterMedian float64
	CenterMax    int64

	SlowestMean  float64
	SlowestMax   int64
	SlowestRange int

	CenterTimeActive          int64
	CenterTimeActiveExclusive int64
	TimeAccumulated           int64

	StandardDeviation        float64
	CoefficientOfVariation   float64
}

// ResultTables is the full output of a computation over recorded events.
type ResultTables struct {
	Summary []SummaryRow
	Details []DetailStats

	StartTime      int64
	EndTime        int64
	TimeTotal      int64
	TimeCtracked   int64

	Settings ResultSettings

	// LostEvents is set when any goroutine's buffer dropped events after
	// hitting its per-goroutine cap, or when a goroutine's events were
	// excluded for violating the nesting invariant.
	LostEvents bool
}
