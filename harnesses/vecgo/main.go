// Vecgo harness runs the shared workload against hupe1980/vecgo's in-memory
// HNSW index and prints the timings the comparison tool extracts. Workload
// parameters arrive as VECTOOR_* environment variables; the defaults match
// the standard workload so the harness also runs standalone.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hupe1980/vecgo"
	"github.com/hupe1980/vecgo/testutil"
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

	builder := vecgo.HNSW[uint64](p.dimension).
		M(p.m).
		EFConstruction(p.efConstruction).
		RandomSeed(p.seed)

	switch p.metric {
	case "l2":
		builder = builder.SquaredL2()
	case "cosine":
		builder = builder.Cosine()
	case "ip":
		builder = builder.DotProduct()
	default:
		fatal("unknown metric %q", p.metric)
	}

	db, err := builder.Build()
	if err != nil {
		fatal("build index: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rng := testutil.NewRNG(p.seed)
	vectors := rng.UniformVectors(p.vectors, p.dimension)

	fmt.Println("Adding vectors in batches...")

	start := time.Now()

	for i := 0; i < p.vectors; i += p.batchSize {
		end := min(i+p.batchSize, p.vectors)

		items := make([]vecgo.VectorWithData[uint64], 0, end-i)
		for j := i; j < end; j++ {
			items = append(items, vecgo.VectorWithData[uint64]{
				Vector: vectors[j],
				Data:   uint64(j),
			})
		}

		batch := db.BatchInsert(ctx, items)
		for _, err := range batch.Errors {
			if err != nil {
				fatal("insert batch at %d: %v", i, err)
			}
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

	query := make([]float32, p.dimension)

	for i := 0; i < p.queries; i++ {
		rng.FillUniform(query)

		queryStart := time.Now()

		results, err := db.Search(query).
			KNN(p.k).
			EF(p.efSearch).
			Execute(ctx)
		if err != nil {
			fatal("query %d: %v", i+1, err)
		}

		querySeconds := time.Since(queryStart).Seconds()

		ids := make([]uint64, len(results))
		for j, r := range results {
			ids[j] = r.Data
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
	fmt.Fprintf(os.Stderr, "vecgo-harness: "+format+"\n", args...)
	os.Exit(1)
}
