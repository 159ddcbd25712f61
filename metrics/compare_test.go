package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestCompareSelf(t *testing.T) {
	m := Metrics{
		InsertSeconds: floatPtr(4.2),
		QuerySeconds:  []float64{0.01, 0.02, 0.03},
	}

	c := Compare("vecgo", m, "vecgo", m)

	require.NotNil(t, c.InsertSpeedup)
	assert.Equal(t, 1.0, *c.InsertSpeedup)

	require.NotNil(t, c.MeanQuerySpeedup)
	assert.Equal(t, 1.0, *c.MeanQuerySpeedup)

	assert.Equal(t, []float64{1.0, 1.0, 1.0}, c.QuerySpeedups)
	assert.False(t, c.Truncated())
}

func TestCompareInsertSpeedup(t *testing.T) {
	ref := Metrics{InsertSeconds: floatPtr(2.0)}
	cand := Metrics{InsertSeconds: floatPtr(1.0)}

	c := Compare("a", ref, "b", cand)

	require.NotNil(t, c.InsertSpeedup)
	assert.Equal(t, 2.0, *c.InsertSpeedup)
}

func TestCompareMissingInsert(t *testing.T) {
	tests := []struct {
		name string
		ref  Metrics
		cand Metrics
	}{
		{
			name: "reference missing",
			cand: Metrics{InsertSeconds: floatPtr(1.0)},
		},
		{
			name: "candidate missing",
			ref:  Metrics{InsertSeconds: floatPtr(1.0)},
		},
		{
			name: "both missing",
		},
		{
			name: "candidate zero",
			ref:  Metrics{InsertSeconds: floatPtr(1.0)},
			cand: Metrics{InsertSeconds: floatPtr(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compare("a", tt.ref, "b", tt.cand)
			assert.Nil(t, c.InsertSpeedup)
		})
	}
}

func TestComparePerQueryTruncation(t *testing.T) {
	ref := Metrics{QuerySeconds: []float64{0.01, 0.02}}
	cand := Metrics{QuerySeconds: []float64{0.02, 0.01, 0.05}}

	c := Compare("a", ref, "b", cand)

	assert.Equal(t, []float64{0.5, 2.0}, c.QuerySpeedups)
	assert.Equal(t, 2, c.ReferenceQueries)
	assert.Equal(t, 3, c.CandidateQueries)
	assert.True(t, c.Truncated())
}

func TestCompareMeanQuerySpeedup(t *testing.T) {
	ref := Metrics{QuerySeconds: []float64{0.01, 0.02}}
	cand := Metrics{QuerySeconds: []float64{0.02, 0.04}}

	c := Compare("a", ref, "b", cand)

	require.NotNil(t, c.MeanQuerySpeedup)
	assert.InDelta(t, 0.5, *c.MeanQuerySpeedup, 1e-12)
}

func TestCompareEmptyQuerySeries(t *testing.T) {
	ref := Metrics{QuerySeconds: []float64{0.01}}
	cand := Metrics{}

	c := Compare("a", ref, "b", cand)

	assert.Nil(t, c.MeanQuerySpeedup)
	assert.Empty(t, c.QuerySpeedups)
	assert.True(t, c.Truncated())

	c = Compare("a", Metrics{}, "b", Metrics{})
	assert.Nil(t, c.MeanQuerySpeedup)
	assert.False(t, c.Truncated())
}
