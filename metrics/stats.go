package metrics

import "sort"

// Stats summarizes a query latency series.
type Stats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
}

// Summarize computes distribution statistics over samples. An empty
// series yields a zero Stats.
func Summarize(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return Stats{
		Count: len(sorted),
		Mean:  mean(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   sorted[percentileIndex(len(sorted), 0.50)],
		P95:   sorted[percentileIndex(len(sorted), 0.95)],
	}
}

func percentileIndex(n int, frac float64) int {
	idx := int(frac * float64(n))
	if idx >= n {
		idx = n - 1
	}

	return idx
}
