// Package report renders a Markdown summary of one engine run.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agrisense/crop-alert-engine/internal/domain"
)

const dateLayout = "2006-01-02"

// Render builds the Markdown report: an event-count summary table followed
// by a per-event detail listing. Events are assumed sorted by start date.
func Render(events []domain.MergedEvent, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString("# Crop Stress Alert Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Event Summary\n\n")
	b.WriteString("| event_type | count |\n")
	b.WriteString("|---|---|\n")
	for _, row := range countByType(events) {
		fmt.Fprintf(&b, "| %s | %d |\n", row.eventType, row.count)
	}
	b.WriteString("\n## Event Details\n\n")
	if len(events) == 0 {
		b.WriteString("No stress events detected in the analyzed period.\n")
		return b.String()
	}

	b.WriteString("| event_type | start_date | end_date | duration_days | peak_date | peak_value | peak_metric | severity | reason_summary |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s | %s | %s (%.3f) | %s |\n",
			ev.EventType,
			ev.StartDate.Format(dateLayout),
			ev.EndDate.Format(dateLayout),
			ev.DurationDays,
			ev.PeakDate.Format(dateLayout),
			formatPeak(ev.PeakValue),
			ev.PeakMetric,
			ev.SeverityLevel,
			ev.SeverityScore,
			ev.ReasonSummary,
		)
	}
	return b.String()
}

type typeCount struct {
	eventType domain.EventType
	count     int
}

// countByType tallies events per type, ordered by descending count then
// type name for a stable table.
func countByType(events []domain.MergedEvent) []typeCount {
	counts := make(map[domain.EventType]int)
	for _, ev := range events {
		counts[ev.EventType]++
	}
	out := make([]typeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, typeCount{eventType: t, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].eventType < out[j].eventType
	})
	return out
}

func formatPeak(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}
