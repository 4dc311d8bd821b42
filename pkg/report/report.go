// Package report renders ctrack.ResultTables for human consumption. It sits
// outside the measurement engine's core: nothing in package ctrack depends
// on it, so callers who only need ResultGetTables never pay for table
// layout or color handling.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Compaile/ctrack/pkg/ctrack"
)

// Options controls rendering. NewOptions defaults to no color, detail rows
// included, and terminal width auto-detected with an 80-column fallback.
type Options struct {
	color      bool
	width      int
	showDetail bool
}

type Option func(*Options)

func NewOptions(opts ...Option) *Options {
	o := &Options{width: detectWidth(), showDetail: true}
	for _, f := range opts {
		f(o)
	}
	return o
}

func WithColor(enabled bool) Option {
	return func(o *Options) { o.color = enabled }
}

func WithWidth(width int) Option {
	return func(o *Options) { o.width = width }
}

func WithDetail(enabled bool) Option {
	return func(o *Options) { o.showDetail = enabled }
}

func detectWidth() int {
	w, _, err := term.GetSize(0)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
)

// Summary writes the summary table (one row per site: calls, threads,
// active/active-exclusive time, share of tracked time).
func Summary(w io.Writer, tables ctrack.ResultTables, opts ...Option) error {
	o := NewOptions(opts...)

	header := []string{"site", "calls", "threads", "active", "active-excl", "% ae"}
	widths := []int{32, 8, 8, 12, 12, 8}
	fitColumns(widths, o.width)

	printRow(w, o, header, widths, colorBold)
	for _, row := range tables.Summary {
		cols := []string{
			truncate(siteLabel(row.Site), widths[0]),
			fmt.Sprintf("%d", row.Calls),
			fmt.Sprintf("%d", row.Threads),
			formatDuration(row.TimeActiveAll),
			formatDuration(row.TimeActiveExclusiveAll),
			fmt.Sprintf("%.2f%%", row.PercentAEAll),
		}
		printRow(w, o, cols, widths, percentColor(o, row.PercentAEAll))
	}
	if tables.LostEvents {
		fmt.Fprintln(w, colorize(o, colorYellow, "warning: some events were dropped or excluded"))
	}
	return nil
}

// Details writes the percentile-bracketed statistics table, one row per
// site that survived filtering.
func Details(w io.Writer, tables ctrack.ResultTables, opts ...Option) error {
	o := NewOptions(opts...)

	header := []string{"site", "fastest", "center min/mean/median/max", "slowest", "stddev", "cv"}
	widths := []int{32, 12, 40, 12, 12, 8}
	fitColumns(widths, o.width)

	printRow(w, o, header, widths, colorBold)
	for _, d := range tables.Details {
		center := fmt.Sprintf("%s / %s / %s / %s",
			formatDuration(d.CenterMin), formatFloatDuration(d.CenterMean),
			formatFloatDuration(d.CenterMedian), formatDuration(d.CenterMax))
		cols := []string{
			truncate(siteLabel(d.Site), widths[0]),
			formatFloatDuration(d.FastestMean),
			center,
			formatFloatDuration(d.SlowestMean),
			formatFloatDuration(d.StandardDeviation),
			fmt.Sprintf("%.2f", d.CoefficientOfVariation),
		}
		printRow(w, o, cols, widths, "")
	}
	return nil
}

func siteLabel(s ctrack.Site) string {
	if s.Name != "" {
		return s.Name
	}
	return s.Function
}

func formatDuration(ns int64) string {
	return time.Duration(ns).String()
}

func formatFloatDuration(ns float64) string {
	return time.Duration(ns).String()
}

func percentColor(o *Options, pct float64) string {
	switch {
	case pct >= 25:
		return colorRed
	case pct >= 5:
		return colorYellow
	default:
		return colorGreen
	}
}

func colorize(o *Options, code, text string) string {
	if !o.color {
		return text
	}
	return code + text + colorReset
}

func printRow(w io.Writer, o *Options, cols []string, widths []int, color string) {
	var b strings.Builder
	for i, c := range cols {
		width := 10
		if i < len(widths) {
			width = widths[i]
		}
		fmt.Fprintf(&b, "%-*s ", width, truncate(c, width))
	}
	fmt.Fprintln(w, colorize(o, color, strings.TrimRight(b.String(), " ")))
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

// fitColumns shrinks the site-name column (index 0) so the row fits within
// width, mirroring the terminal-width-aware padding internal/output already
// does for single-line status text.
func fitColumns(widths []int, width int) {
	total := 0
	for _, w := range widths {
		total += w + 1
	}
	overflow := total - width
	if overflow <= 0 || len(widths) == 0 {
		return
	}
	widths[0] -= overflow
	if widths[0] < 8 {
		widths[0] = 8
	}
}
