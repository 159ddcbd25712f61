package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Stats{}, s)
}

func TestSummarizeSingle(t *testing.T) {
	s := Summarize([]float64{0.5})

	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 0.5, s.Mean)
	assert.Equal(t, 0.5, s.Min)
	assert.Equal(t, 0.5, s.Max)
	assert.Equal(t, 0.5, s.P50)
	assert.Equal(t, 0.5, s.P95)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.05, 0.01, 0.03, 0.02, 0.04})

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 0.03, s.Mean, 1e-12)
	assert.Equal(t, 0.01, s.Min)
	assert.Equal(t, 0.05, s.Max)
	assert.Equal(t, 0.03, s.P50)
	assert.Equal(t, 0.05, s.P95)
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	samples := []float64{0.3, 0.1, 0.2}
	Summarize(samples)

	assert.Equal(t, []float64{0.3, 0.1, 0.2}, samples)
}
