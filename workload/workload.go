// Package workload defines the shared benchmark workload: how many vectors
// each engine indexes, their dimensionality, the batch size used for bulk
// loading, and the k-NN query plan. Every engine receives the same
// parameters through the environment so results stay comparable.
package workload

import (
	"fmt"
	"strconv"
)

// Distance metrics accepted by the engine harnesses.
const (
	MetricL2     = "l2"
	MetricCosine = "cosine"
	MetricIP     = "ip"
)

// Environment variable names forming the harness parameter contract.
const (
	EnvVectors        = "VECTOOR_VECTORS"
	EnvDimension      = "VECTOOR_DIMENSION"
	EnvBatchSize      = "VECTOOR_BATCH_SIZE"
	EnvQueries        = "VECTOOR_QUERIES"
	EnvK              = "VECTOOR_K"
	EnvMetric         = "VECTOOR_METRIC"
	EnvM              = "VECTOOR_M"
	EnvEFConstruction = "VECTOOR_EF_CONSTRUCTION"
	EnvEFSearch       = "VECTOOR_EF_SEARCH"
	EnvSeed           = "VECTOOR_SEED"
)

// Config controls the synthetic workload every engine runs.
type Config struct {
	Vectors        int    `json:"vectors"`
	Dimension      int    `json:"dimension"`
	BatchSize      int    `json:"batch_size"`
	Queries        int    `json:"queries"`
	K              int    `json:"k"`
	Metric         string `json:"metric"`
	M              int    `json:"m"`
	EFConstruction int    `json:"ef_construction"`
	EFSearch       int    `json:"ef_search"`
	Seed           int64  `json:"seed"`
}

// Default returns the standard workload: 10k 512-dimensional vectors
// inserted in batches of 1000, followed by 10 top-5 queries against an
// L2 HNSW index.
func Default() Config {
	return Config{
		Vectors:        10000,
		Dimension:      512,
		BatchSize:      1000,
		Queries:        10,
		K:              5,
		Metric:         MetricL2,
		M:              32,
		EFConstruction: 200,
		EFSearch:       200,
	}
}

// Validate reports the first invalid parameter, if any.
func (c Config) Validate() error {
	if c.Vectors <= 0 {
		return fmt.Errorf("vectors must be positive, got %d", c.Vectors)
	}

	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}

	if c.Queries < 0 {
		return fmt.Errorf("queries must be non-negative, got %d", c.Queries)
	}

	if c.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", c.K)
	}

	switch c.Metric {
	case MetricL2, MetricCosine, MetricIP:
	default:
		return fmt.Errorf(
			"unknown metric %q (expected %s, %s, or %s)",
			c.Metric, MetricL2, MetricCosine, MetricIP,
		)
	}

	if c.M <= 0 {
		return fmt.Errorf("hnsw M must be positive, got %d", c.M)
	}

	if c.EFConstruction <= 0 {
		return fmt.Errorf(
			"hnsw efConstruction must be positive, got %d", c.EFConstruction,
		)
	}

	if c.EFSearch < c.K {
		return fmt.Errorf(
			"hnsw efSearch %d must be at least k %d", c.EFSearch, c.K,
		)
	}

	return nil
}

// Env renders the workload as VECTOOR_* environment variables in the
// form the engine harnesses read on startup.
func (c Config) Env() []string {
	return []string{
		EnvVectors + "=" + strconv.Itoa(c.Vectors),
		EnvDimension + "=" + strconv.Itoa(c.Dimension),
		EnvBatchSize + "=" + strconv.Itoa(c.BatchSize),
		EnvQueries + "=" + strconv.Itoa(c.Queries),
		EnvK + "=" + strconv.Itoa(c.K),
		EnvMetric + "=" + c.Metric,
		EnvM + "=" + strconv.Itoa(c.M),
		EnvEFConstruction + "=" + strconv.Itoa(c.EFConstruction),
		EnvEFSearch + "=" + strconv.Itoa(c.EFSearch),
		EnvSeed + "=" + strconv.FormatInt(c.Seed, 10),
	}
}
