// Sqvect harness runs the shared workload against liliang-cn/sqvect's
// SQLite-backed vector store and prints the timings the comparison tool
// extracts. The database file lives in the working directory the runner
// assigns, so the comparison also picks up on-disk size. Workload
// parameters arrive as VECTOOR_* environment variables with defaults
// matching the standard workload.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/liliang-cn/sqvect/v2/pkg/core"
)

type params struct {
	vectors        int
	dimension      int
	batchSize      int
	queries        int
	k              int
	metric         string
	m              int
	efConstruction int
	efSearch       int
	seed           int64
	kvOutput       bool
}

func main() {
	p := loadParams()

	var similarity core.SimilarityFunc

	switch p.metric {
	case "l2":
		similarity = core.EuclideanDist
	case "cosine":
		similarity = core.CosineSimilarity
	case "ip":
		similarity = core.DotProduct
	default:
		fatal("unknown metric %q", p.metric)
	}

	cfg := core.DefaultConfig()
	cfg.Path = "vectors.db"
	cfg.VectorDim = p.dimension
	cfg.SimilarityFn = similarity
	cfg.IndexType = core.IndexTypeHNSW
	cfg.HNSW = core.HNSWConfig{
		Enabled:        true,
		M:              p.m,
		EfConstruction: p.efConstruction,
		EfSearch:       p.efSearch,
	}

	store, err := core.NewWithConfig(cfg)
	if err != nil {
		fatal("create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Init(ctx); err != nil {
		fatal("init store: %v", err)
	}

	rng := rand.New(rand.NewSource(p.seed))

	fmt.Println("Adding vectors in batches...")

	start := time.Now()

	for i := 0; i < p.vectors; i += p.batchSize {
		end := min(i+p.batchSize, p.vectors)

		batch := make([]*core.Embedding, 0, end-i)
		for j := i; j < end; j++ {
			batch = append(batch, &core.Embedding{
				ID:     fmt.Sprintf("vec_%d", j),
				Vector: randomVector(rng, p.dimension),
			})
		}

		if err := store.UpsertBatch(ctx, batch); err != nil {
			fatal("insert batch at %d: %v", i, err)
		}
	}

	insertSeconds := time.Since(start).Seconds()

	if p.kvOutput {
		fmt.Printf("insert_seconds=%.4f\n", insertSeconds)
	} else {
		fmt.Printf("Inserted %d vectors in %.2f seconds\n",
			p.vectors, insertSeconds,
		)
	}

	fmt.Println()
	fmt.Println("Running queries...")

	for i := 0; i < p.queries; i++ {
		query := randomVector(rng, p.dimension)

		queryStart := time.Now()

		results, err := store.Search(ctx, query, core.SearchOptions{
			TopK: p.k,
		})
		if err != nil {
			fatal("query %d: %v", i+1, err)
		}

		querySeconds := time.Since(queryStart).Seconds()

		ids := make([]string, len(results))
		for j, r := range results {
			ids[j] = r.ID
		}

		if p.kvOutput {
			fmt.Printf("query_seconds=%.6f\n", querySeconds)
		} else {
			fmt.Printf("Query %d: %.4fs, top IDs: %v\n",
				i+1, querySeconds, ids,
			)
		}
	}
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()
	}

	return v
}

func loadParams() params {
	return params{
		vectors:        envInt("VECTOOR_VECTORS", 10000),
		dimension:      envInt("VECTOOR_DIMENSION", 512),
		batchSize:      envInt("VECTOOR_BATCH_SIZE", 1000),
		queries:        envInt("VECTOOR_QUERIES", 10),
		k:              envInt("VECTOOR_K", 5),
		metric:         envString("VECTOOR_METRIC", "l2"),
		m:              envInt("VECTOOR_M", 32),
		efConstruction: envInt("VECTOOR_EF_CONSTRUCTION", 200),
		efSearch:       envInt("VECTOOR_EF_SEARCH", 200),
		seed:           envInt64("VECTOOR_SEED", 42),
		kvOutput:       envString("VECTOOR_FORMAT", "prose") == "kv",
	}
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}

	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		fatal("invalid %s=%q: %v", name, v, err)
	}

	return n
}

func envInt64(name string, fallback int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		fatal("invalid %s=%q: %v", name, v, err)
	}

	return n
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sqvect-harness: "+format+"\n", args...)
	os.Exit(1)
}
