// Command validate performs end-to-end integrity checks across the written
// alert-engine outputs: the debug table, raw and gated alert tables, and the
// merged events table. It verifies gating monotonicity, debug-flag
// consistency, event span arithmetic, and severity bounds.
//
// Usage:
//
//	go run ./cmd/validate -out-dir out
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	outDir := flag.String("out-dir", "out", "directory containing engine outputs")
	flag.Parse()

	if code := run(*outDir); code != 0 {
		os.Exit(code)
	}
}

func run(outDir string) int {
	fmt.Println("=== Crop Alert Output Validation ===")
	fmt.Println()

	debug, err := loadCSV(filepath.Join(outDir, "rs_debug.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load debug table: %v\n", err)
		return 1
	}
	raw, err := loadCSV(filepath.Join(outDir, "alerts_raw.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw alerts: %v\n", err)
		return 1
	}
	gated, err := loadCSV(filepath.Join(outDir, "alerts_gated.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load gated alerts: %v\n", err)
		return 1
	}
	events, err := loadCSV(filepath.Join(outDir, "events_merged.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load merged events: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateGatingMonotonicity(raw, gated, debug),
		validateDebugConsistency(debug),
		validateEventSpans(events, gated),
		validateSeverity(events),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d debug, %d raw alerts, %d gated alerts, %d events\n",
		len(debug), len(raw), len(gated), len(events))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 1 {
		return nil, fmt.Errorf("no header in %s", path)
	}

	header := all[0]
	var rows []csvRow
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

func (r csvRow) date(col string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, r.fields[col])
	return t, err == nil
}

func (r csvRow) boolean(col string) bool {
	return r.fields[col] == "true"
}

// ── Phase 1: Gating Monotonicity ──
// The gated alert set must be a subset of the raw alert set, and every gated
// alert must fall on an allow_alert day.

func validateGatingMonotonicity(raw, gated, debug []csvRow) *phase {
	p := &phase{name: "Phase 1: Gating Monotonicity"}

	rawKeys := make(map[string]bool, len(raw))
	for _, r := range raw {
		rawKeys[r.fields["date"]+"|"+r.fields["event_type"]] = true
	}
	allowed := make(map[string]bool, len(debug))
	for _, d := range debug {
		allowed[d.fields["date"]] = d.boolean("allow_alert")
	}

	if len(gated) > len(raw) {
		p.errorf("gated alerts (%d) exceed raw alerts (%d)", len(gated), len(raw))
	}
	for _, g := range gated {
		key := g.fields["date"] + "|" + g.fields["event_type"]
		if !rawKeys[key] {
			p.errorf("line %d: gated alert %s not present in raw alerts", g.lineNum, key)
		}
		if ok, present := allowed[g.fields["date"]]; !present {
			p.errorf("line %d: gated alert date %s missing from debug table", g.lineNum, g.fields["date"])
		} else if !ok {
			p.errorf("line %d: gated alert on %s but allow_alert is false", g.lineNum, g.fields["date"])
		}
	}
	return p
}

// ── Phase 2: Debug Consistency ──
// allow_alert implies qc_ok, skip_reason agrees with the missing flags, and
// dates are strictly increasing.

func validateDebugConsistency(debug []csvRow) *phase {
	p := &phase{name: "Phase 2: Debug Consistency"}

	var prev time.Time
	for i, d := range debug {
		date, ok := d.date("date")
		if !ok {
			p.errorf("line %d: unparseable date %q", d.lineNum, d.fields["date"])
			continue
		}
		if i > 0 && !date.After(prev) {
			p.errorf("line %d: dates not strictly increasing", d.lineNum)
		}
		prev = date

		qcOK := d.boolean("qc_ok")
		if d.boolean("allow_alert") && !qcOK {
			p.errorf("line %d: allow_alert without qc_ok", d.lineNum)
		}
		if qcOK != (d.fields["skip_reason"] == "ok") {
			p.errorf("line %d: qc_ok=%v but skip_reason=%q", d.lineNum, qcOK, d.fields["skip_reason"])
		}
		switch d.fields["skip_reason"] {
		case "missing_remote":
			if !d.boolean("missing_remote") {
				p.errorf("line %d: skip_reason missing_remote without the flag", d.lineNum)
			}
		case "missing_weather":
			if d.boolean("missing_remote") {
				p.errorf("line %d: missing_remote flag should take priority over missing_weather", d.lineNum)
			}
			if !d.boolean("missing_weather") {
				p.errorf("line %d: skip_reason missing_weather without the flag", d.lineNum)
			}
		case "nonfinite", "ok":
		default:
			p.errorf("line %d: unknown skip_reason %q", d.lineNum, d.fields["skip_reason"])
		}
	}
	return p
}

// ── Phase 3: Event Spans ──
// Every gated alert date falls inside an event of its type, spans match the
// duration arithmetic, and peak dates lie within their spans.

func validateEventSpans(events, gated []csvRow) *phase {
	p := &phase{name: "Phase 3: Event Spans (merge arithmetic)"}

	type span struct{ start, end time.Time }
	spansByType := make(map[string][]span)

	for _, ev := range events {
		start, okS := ev.date("start_date")
		end, okE := ev.date("end_date")
		if !okS || !okE {
			p.errorf("line %d: unparseable event span", ev.lineNum)
			continue
		}
		if end.Before(start) {
			p.errorf("line %d: end_date before start_date", ev.lineNum)
		}

		wantDur := int(end.Sub(start).Hours()/24) + 1
		if got, err := strconv.Atoi(ev.fields["duration_days"]); err != nil || got != wantDur {
			p.errorf("line %d: duration_days=%q, want %d", ev.lineNum, ev.fields["duration_days"], wantDur)
		}

		if peak, ok := ev.date("peak_date"); !ok {
			p.errorf("line %d: unparseable peak_date", ev.lineNum)
		} else if peak.Before(start) || peak.After(end) {
			p.errorf("line %d: peak_date outside event span", ev.lineNum)
		}

		spansByType[ev.fields["event_type"]] = append(spansByType[ev.fields["event_type"]], span{start, end})
	}

	for _, g := range gated {
		date, ok := g.date("date")
		if !ok {
			continue
		}
		covered := false
		for _, s := range spansByType[g.fields["event_type"]] {
			if !date.Before(s.start) && !date.After(s.end) {
				covered = true
				break
			}
		}
		if !covered {
			p.errorf("line %d: gated %s alert on %s not covered by any event span",
				g.lineNum, g.fields["event_type"], g.fields["date"])
		}
	}
	return p
}

// ── Phase 4: Severity Bounds ──

func validateSeverity(events []csvRow) *phase {
	p := &phase{name: "Phase 4: Severity Bounds"}

	for _, ev := range events {
		score, err := strconv.ParseFloat(ev.fields["severity_score"], 64)
		if err != nil || math.IsNaN(score) {
			p.errorf("line %d: unparseable severity_score %q", ev.lineNum, ev.fields["severity_score"])
			continue
		}
		if score < 0 || score > 1 {
			p.errorf("line %d: severity_score %g out of [0,1]", ev.lineNum, score)
		}

		level := ev.fields["severity_level"]
		want := "major"
		switch {
		case score < 0.4:
			want = "minor"
		case score < 0.7:
			want = "moderate"
		}
		if level != want {
			p.errorf("line %d: severity_level=%q, want %q for score %g", ev.lineNum, level, want, score)
		}
	}
	return p
}
