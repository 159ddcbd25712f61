// Package metrics extracts engine-reported timings from captured benchmark
// output and compares them across engines.
package metrics

// Metrics holds the timings a single engine reported during a run.
// InsertSeconds is nil when the engine printed no insertion line; an
// engine that printed no query lines has an empty QuerySeconds.
type Metrics struct {
	InsertSeconds *float64  `json:"insert_seconds"`
	QuerySeconds  []float64 `json:"query_seconds"`
}
