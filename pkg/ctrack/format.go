package ctrack

import (
	"fmt"
	"strings"
	"time"
)

// formatTables renders a plain-text summary for ResultAsString/ResultPrint.
// It is intentionally minimal: callers who want column control, terminal
// width awareness or color should use package report instead.
func formatTables(t ResultTables) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ctrack results: %s total, %s tracked across %d site(s)\n",
		time.Duration(t.TimeTotal), time.Duration(t.TimeCtracked), len(t.Summary))
	if t.LostEvents {
		b.WriteString("warning: some events were dropped or excluded — results are a lower bound\n")
	}

	fmt.Fprintf(&b, "%-32s %8s %8s %12s %12s %8s\n",
		"site", "calls", "threads", "active", "active-excl", "%ae")
	for _, s := range t.Summary {
		fmt.Fprintf(&b, "%-32s %8d %8d %12s %12s %7.2f%%\n",
			siteLabel(s.Site), s.Calls, s.Threads,
			time.Duration(s.TimeActiveAll), time.Duration(s.TimeActiveExclusiveAll),
			s.PercentAEAll)
	}

	return b.String()
}

func siteLabel(s Site) string {
	label := s.Name
	if label == "" {
		label = s.Function
	}
	if len(label) > 32 {
		label = label[:29] + "..."
	}
	return label
}
