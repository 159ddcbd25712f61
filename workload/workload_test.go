package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10000, cfg.Vectors)
	assert.Equal(t, 512, cfg.Dimension)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 10, cfg.Queries)
	assert.Equal(t, 5, cfg.K)
	assert.Equal(t, MetricL2, cfg.Metric)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default",
			mutate: func(*Config) {},
		},
		{
			name:    "zero vectors",
			mutate:  func(c *Config) { c.Vectors = 0 },
			wantErr: "vectors",
		},
		{
			name:    "negative dimension",
			mutate:  func(c *Config) { c.Dimension = -1 },
			wantErr: "dimension",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: "batch size",
		},
		{
			name:    "negative queries",
			mutate:  func(c *Config) { c.Queries = -3 },
			wantErr: "queries",
		},
		{
			name:    "zero k",
			mutate:  func(c *Config) { c.K = 0 },
			wantErr: "k must be positive",
		},
		{
			name:    "unknown metric",
			mutate:  func(c *Config) { c.Metric = "hamming" },
			wantErr: "unknown metric",
		},
		{
			name:    "zero M",
			mutate:  func(c *Config) { c.M = 0 },
			wantErr: "M must be positive",
		},
		{
			name:    "zero efConstruction",
			mutate:  func(c *Config) { c.EFConstruction = 0 },
			wantErr: "efConstruction",
		},
		{
			name:    "efSearch below k",
			mutate:  func(c *Config) { c.EFSearch = 3 },
			wantErr: "efSearch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnv(t *testing.T) {
	cfg := Default()
	cfg.Seed = 42

	env := cfg.Env()
	require.Len(t, env, 10)

	assert.Contains(t, env, "VECTOOR_VECTORS=10000")
	assert.Contains(t, env, "VECTOOR_DIMENSION=512")
	assert.Contains(t, env, "VECTOOR_BATCH_SIZE=1000")
	assert.Contains(t, env, "VECTOOR_QUERIES=10")
	assert.Contains(t, env, "VECTOOR_K=5")
	assert.Contains(t, env, "VECTOOR_METRIC=l2")
	assert.Contains(t, env, "VECTOOR_M=32")
	assert.Contains(t, env, "VECTOOR_EF_CONSTRUCTION=200")
	assert.Contains(t, env, "VECTOOR_EF_SEARCH=200")
	assert.Contains(t, env, "VECTOOR_SEED=42")
}

func TestEnvCosineMetric(t *testing.T) {
	cfg := Default()
	cfg.Metric = MetricCosine

	require.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.Env(), "VECTOOR_METRIC=cosine")
}
