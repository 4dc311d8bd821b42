package ctrack

// ResultSettings controls how raw events are turned into result tables.
type ResultSettings struct {
	// NonCenterPercent splits each site's sorted exclusive durations into a
	// fastest/center/slowest bracket. Must be in [1, 49].
	NonCenterPercent int

	// MinPercentActiveExclusive drops sites whose center-bracket exclusive
	// time is below this percentage of the total tracked exclusive time.
	MinPercentActiveExclusive float64

	// PercentExcludeFastestActiveExclusive drops the fastest X% of a site's
	// events, per site, before bracketing and statistics are computed.
	PercentExcludeFastestActiveExclusive float64
}

// DefaultResultSettings mirrors the defaults of the original profiler.
func DefaultResultSettings() ResultSettings {
	return ResultSettings{
		NonCenterPercent:                     1,
		MinPercentActiveExclusive:            0.0,
		PercentExcludeFastestActiveExclusive: 0.0,
	}
}

func (s ResultSettings) validate() error {
	if s.NonCenterPercent < 1 || s.NonCenterPercent > 49 {
		return ErrInvalidNonCenter
	}
	if s.MinPercentActiveExclusive < 0 || s.MinPercentActiveExclusive > 100 {
		return ErrInvalidMinPercent
	}
	if s.PercentExcludeFastestActiveExclusive < 0 || s.PercentExcludeFastestActiveExclusive > 100 {
		return ErrInvalidExcludePct
	}
	return nil
}

func resolveSettings(settings []ResultSettings) ResultSettings {
	if len(settings) == 0 {
		return DefaultResultSettings()
	}
	return settings[0]
}
