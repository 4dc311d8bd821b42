package report

import (
	"encoding/json"
	"io"

	"github.com/Compaile/ctrack/pkg/ctrack"
)

// JSONReport is the on-disk shape of a profiling report, functional-options
// constructed the same way the teacher builds its coverage report.
type JSONReport struct {
	Summary []JSONSummaryRow `json:"summary"`
	Details []JSONDetailRow  `json:"details,omitempty"`

	StartTime    int64 `json:"start_time_ns"`
	EndTime      int64 `json:"end_time_ns"`
	TimeTotal    int64 `json:"time_total_ns"`
	TimeCtracked int64 `json:"time_ctracked_ns"`

	LostEvents bool `json:"lost_events"`
}

type JSONSummaryRow struct {
	Site                   string  `json:"site"`
	File                   string  `json:"file"`
	Line                   int     `json:"line"`
	Fingerprint            uint64  `json:"fingerprint"`
	Calls                  int     `json:"calls"`
	Threads                int     `json:"threads"`
	TimeActiveAllNs        int64   `json:"time_active_all_ns"`
	TimeActiveExclusiveNs  int64   `json:"time_active_exclusive_all_ns"`
	PercentAEAll           float64 `json:"percent_ae_all"`
}

type JSONDetailRow struct {
	Site string `json:"site"`

	FastestMeanNs float64 `json:"fastest_mean_ns"`
	CenterMinNs   int64   `json:"center_min_ns"`
	CenterMeanNs  float64 `json:"center_mean_ns"`
	CenterMaxNs   int64   `json:"center_max_ns"`
	SlowestMeanNs float64 `json:"slowest_mean_ns"`

	StandardDeviationNs   float64 `json:"standard_deviation_ns"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

type JSONReportOption func(*JSONReport)

// NewJSONReport builds a JSONReport from the engine's ResultTables. Further
// options let a caller override or redact fields before writing.
func NewJSONReport(tables ctrack.ResultTables, opts ...JSONReportOption) *JSONReport {
	r := &JSONReport{
		StartTime:    tables.StartTime,
		EndTime:      tables.EndTime,
		TimeTotal:    tables.TimeTotal,
		TimeCtracked: tables.TimeCtracked,
		LostEvents:   tables.LostEvents,
	}

	for _, row := range tables.Summary {
		r.Summary = append(r.Summary, JSONSummaryRow{
			Site:                  siteLabel(row.Site),
			File:                  row.Site.File,
			Line:                  row.Site.Line,
			Fingerprint:           row.Site.Fingerprint,
			Calls:                 row.Calls,
			Threads:               row.Threads,
			TimeActiveAllNs:       row.TimeActiveAll,
			TimeActiveExclusiveNs: row.TimeActiveExclusiveAll,
			PercentAEAll:          row.PercentAEAll,
		})
	}
	for _, d := range tables.Details {
		r.Details = append(r.Details, JSONDetailRow{
			Site:                   siteLabel(d.Site),
			FastestMeanNs:          d.FastestMean,
			CenterMinNs:            d.CenterMin,
			CenterMeanNs:           d.CenterMean,
			CenterMaxNs:            d.CenterMax,
			SlowestMeanNs:          d.SlowestMean,
			StandardDeviationNs:    d.StandardDeviation,
			CoefficientOfVariation: d.CoefficientOfVariation,
		})
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithoutDetails drops the percentile-bracketed rows, for callers that only
// want the summary table serialized.
func WithoutDetails() JSONReportOption {
	return func(r *JSONReport) { r.Details = nil }
}

func (r *JSONReport) WriteReport(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
