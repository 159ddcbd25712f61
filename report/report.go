// Package report formats benchmark results into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/weiihann/vectoor/metrics"
	"github.com/weiihann/vectoor/workload"
)

// Marker rendered for metrics an engine did not report. Absent values
// are never printed as zero.
const notAvailable = "n/a"

// EngineResult is one engine's outcome within a benchmark run: either
// the extracted metrics of a successful run or the failure diagnostics.
type EngineResult struct {
	Engine    string          `json:"engine"`
	Metrics   metrics.Metrics `json:"metrics"`
	Stats     metrics.Stats   `json:"query_stats"`
	WallMs    int64           `json:"wall_ms"`
	DiskBytes uint64          `json:"disk_bytes"`
	Failed    bool            `json:"failed"`
	ExitCode  int             `json:"exit_code"`
	Stderr    string          `json:"stderr,omitempty"`
	TimedOut  bool            `json:"timed_out,omitempty"`
}

// Document aggregates everything a benchmark run produced, in engine
// run order.
type Document struct {
	Config      workload.Config      `json:"config"`
	Reference   string               `json:"reference,omitempty"`
	Results     []EngineResult       `json:"results"`
	Comparisons []metrics.Comparison `json:"comparisons,omitempty"`
}

// Generate writes a markdown comparison report for the given document.
func Generate(w io.Writer, doc Document) error {
	if len(doc.Results) == 0 {
		return fmt.Errorf("no results to report")
	}

	cfg := doc.Config

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	fmt.Fprintf(w,
		"Workload: %d vectors x %d dims, batch %d, %d queries (k=%d), metric %s\n",
		cfg.Vectors, cfg.Dimension, cfg.BatchSize,
		cfg.Queries, cfg.K, cfg.Metric,
	)
	fmt.Fprintf(w,
		"HNSW: M=%d efConstruction=%d efSearch=%d, seed %d\n",
		cfg.M, cfg.EFConstruction, cfg.EFSearch, cfg.Seed,
	)
	fmt.Fprintln(w)

	// Per-engine table.
	fmt.Fprintln(w, "| Engine | Insert | Queries | Mean | P50 | P95 "+
		"| Max | Disk | Status |")
	fmt.Fprintln(w, "|--------|--------|---------|------|-----|-----"+
		"|-----|------|--------|")

	for _, r := range doc.Results {
		if r.Failed {
			fmt.Fprintf(w, "| %s | - | - | - | - | - | - | - | %s |\n",
				r.Engine, failureReason(r),
			)

			continue
		}

		fmt.Fprintf(w, "| %s | %s | %d | %s | %s | %s | %s | %s | ok |\n",
			r.Engine,
			formatInsert(r.Metrics.InsertSeconds),
			r.Stats.Count,
			formatQueryStat(r.Stats.Count, r.Stats.Mean),
			formatQueryStat(r.Stats.Count, r.Stats.P50),
			formatQueryStat(r.Stats.Count, r.Stats.P95),
			formatQueryStat(r.Stats.Count, r.Stats.Max),
			formatBytes(r.DiskBytes),
		)
	}

	fmt.Fprintln(w)

	writeFailures(w, doc.Results)
	writeComparisons(w, doc)

	return nil
}

// GenerateJSON writes the document as indented JSON to w.
func GenerateJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

func writeFailures(w io.Writer, results []EngineResult) {
	var failed []EngineResult

	for _, r := range results {
		if r.Failed {
			failed = append(failed, r)
		}
	}

	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(w, "### Failures")
	fmt.Fprintln(w)

	for _, r := range failed {
		fmt.Fprintf(w, "  - %s: %s\n", r.Engine, failureReason(r))

		if r.Stderr != "" {
			for _, line := range strings.Split(
				strings.TrimRight(r.Stderr, "\n"), "\n",
			) {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}

	fmt.Fprintln(w)
}

func writeComparisons(w io.Writer, doc Document) {
	if len(doc.Comparisons) == 0 {
		return
	}

	fmt.Fprintf(w, "### Comparison vs %s\n", doc.Reference)
	fmt.Fprintln(w)

	for _, c := range doc.Comparisons {
		fmt.Fprintf(w, "%s insert: %s\n",
			c.Candidate, speedupCell(c.Reference, c.Candidate, c.InsertSpeedup),
		)
		fmt.Fprintf(w, "%s mean query: %s\n",
			c.Candidate, speedupCell(c.Reference, c.Candidate, c.MeanQuerySpeedup),
		)
		fmt.Fprintln(w)

		writePerQueryTable(w, doc, c)
	}
}

func writePerQueryTable(w io.Writer, doc Document, c metrics.Comparison) {
	if len(c.QuerySpeedups) == 0 {
		if c.ReferenceQueries == 0 && c.CandidateQueries == 0 {
			return
		}

		// One side ran queries and the other did not: there are no
		// pairs to tabulate, but the gap must still be visible.
		fmt.Fprintf(w, "Per-query comparison: %s\n", notAvailable)
		fmt.Fprintf(w,
			"Note: query counts differ (%s: %d, %s: %d); no queries compared.\n",
			c.Reference, c.ReferenceQueries,
			c.Candidate, c.CandidateQueries,
		)
		fmt.Fprintln(w)

		return
	}

	ref, ok := resultFor(doc.Results, c.Reference)
	if !ok {
		return
	}

	cand, ok := resultFor(doc.Results, c.Candidate)
	if !ok {
		return
	}

	fmt.Fprintf(w, "| Query | %s | %s | Speedup |\n", c.Reference, c.Candidate)
	fmt.Fprintln(w, "|-------|------|------|---------|")

	for i, speedup := range c.QuerySpeedups {
		fmt.Fprintf(w, "| %d | %s | %s | %.2fx |\n",
			i+1,
			formatQueryMs(ref.Metrics.QuerySeconds[i]),
			formatQueryMs(cand.Metrics.QuerySeconds[i]),
			speedup,
		)
	}

	if c.Truncated() {
		fmt.Fprintf(w,
			"\nNote: query counts differ (%s: %d, %s: %d); compared the first %d.\n",
			c.Reference, c.ReferenceQueries,
			c.Candidate, c.CandidateQueries,
			len(c.QuerySpeedups),
		)
	}

	fmt.Fprintln(w)
}

func resultFor(results []EngineResult, engine string) (EngineResult, bool) {
	for _, r := range results {
		if r.Engine == engine {
			return r, true
		}
	}

	return EngineResult{}, false
}

func failureReason(r EngineResult) string {
	switch {
	case r.TimedOut:
		return "timed out"
	case r.ExitCode >= 0:
		return fmt.Sprintf("exited with code %d", r.ExitCode)
	default:
		return "failed to start"
	}
}

func speedupCell(reference, candidate string, ratio *float64) string {
	if ratio == nil {
		return notAvailable
	}

	switch {
	case *ratio > 1:
		return fmt.Sprintf("%.2fx (%s is %.2fx faster)",
			*ratio, candidate, *ratio,
		)
	case *ratio < 1:
		return fmt.Sprintf("%.2fx (%s is %.2fx faster)",
			*ratio, reference, 1 / *ratio,
		)
	default:
		return "1.00x (similar performance)"
	}
}

func formatInsert(seconds *float64) string {
	if seconds == nil {
		return notAvailable
	}

	return fmt.Sprintf("%.2fs", *seconds)
}

func formatQueryMs(seconds float64) string {
	return fmt.Sprintf("%.2fms", seconds*1000)
}

// formatQueryStat renders a latency statistic, or the n/a marker when
// the engine reported no query samples at all.
func formatQueryStat(count int, seconds float64) string {
	if count == 0 {
		return notAvailable
	}

	return formatQueryMs(seconds)
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
