package metrics

// Comparison holds the pairwise speedups of a candidate engine against
// the reference engine. Every ratio is reference duration divided by
// candidate duration, so values above 1 mean the candidate was faster.
type Comparison struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`

	// InsertSpeedup is nil unless both engines reported an insertion
	// time and the candidate's is positive.
	InsertSpeedup *float64 `json:"insert_speedup"`

	// MeanQuerySpeedup is nil unless both engines reported at least one
	// query sample.
	MeanQuerySpeedup *float64 `json:"mean_query_speedup"`

	// QuerySpeedups pairs queries positionally up to the shorter of the
	// two series. ReferenceQueries and CandidateQueries keep the
	// original lengths so renderers can call out the truncation.
	QuerySpeedups    []float64 `json:"query_speedups"`
	ReferenceQueries int       `json:"reference_queries"`
	CandidateQueries int       `json:"candidate_queries"`
}

// Compare computes the speedups of candidate relative to reference.
// Missing inputs on either side disable the affected ratio rather than
// failing the comparison.
func Compare(
	reference string, ref Metrics,
	candidate string, cand Metrics,
) Comparison {
	c := Comparison{
		Reference:        reference,
		Candidate:        candidate,
		ReferenceQueries: len(ref.QuerySeconds),
		CandidateQueries: len(cand.QuerySeconds),
	}

	if ref.InsertSeconds != nil && cand.InsertSeconds != nil &&
		*cand.InsertSeconds > 0 {
		v := *ref.InsertSeconds / *cand.InsertSeconds
		c.InsertSpeedup = &v
	}

	if len(ref.QuerySeconds) > 0 && len(cand.QuerySeconds) > 0 {
		if candMean := mean(cand.QuerySeconds); candMean > 0 {
			v := mean(ref.QuerySeconds) / candMean
			c.MeanQuerySpeedup = &v
		}
	}

	n := min(len(ref.QuerySeconds), len(cand.QuerySeconds))
	for i := 0; i < n; i++ {
		c.QuerySpeedups = append(
			c.QuerySpeedups, ref.QuerySeconds[i]/cand.QuerySeconds[i],
		)
	}

	return c
}

// Truncated reports whether the per-query pairing dropped trailing
// samples from the longer series.
func (c Comparison) Truncated() bool {
	return c.ReferenceQueries != c.CandidateQueries
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}

	return sum / float64(len(samples))
}
