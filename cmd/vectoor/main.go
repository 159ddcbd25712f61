// Package main provides the CLI entry point for vectoor, a comparative
// benchmarking harness for vector similarity search engines.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/vectoor/harness"
	"github.com/weiihann/vectoor/history"
	"github.com/weiihann/vectoor/metrics"
	"github.com/weiihann/vectoor/report"
	"github.com/weiihann/vectoor/workload"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("vectoor failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "vectoor",
		Short: "Comparative benchmarking for vector similarity search engines",
		Long: `Vectoor benchmarks vector similarity search engines by running the same
bulk-load and k-NN query workload through each engine's harness binary,
extracting the timings the engines report, and comparing them pairwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newHistoryCmd())

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		vectors        int
		dimension      int
		batchSize      int
		queries        int
		topK           int
		metric         string
		hnswM          int
		efConstruction int
		efSearch       int
		seed           int64
		engines        []string
		reference      string
		format         string
		workDir        string
		harnessesDir   string
		skipBuild      bool
		timeout        time.Duration
		outputJSON     bool
		chartPath      string
		historyPath    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark workload across vector search engines",
		Long: `Run the same bulk-load and query workload through one or more engine
harnesses sequentially and compare the timings they report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wl := workload.Config{
				Vectors:        vectors,
				Dimension:      dimension,
				BatchSize:      batchSize,
				Queries:        queries,
				K:              topK,
				Metric:         metric,
				M:              hnswM,
				EFConstruction: efConstruction,
				EFSearch:       efSearch,
				Seed:           seed,
			}

			if wl.Seed == 0 {
				wl.Seed = time.Now().UnixNano()
			}

			return runBenchmark(cmd.Context(), logger, runConfig{
				workload:     wl,
				engines:      engines,
				reference:    reference,
				format:       format,
				workDir:      workDir,
				harnessesDir: harnessesDir,
				skipBuild:    skipBuild,
				timeout:      timeout,
				outputJSON:   outputJSON,
				chartPath:    chartPath,
				historyPath:  historyPath,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&vectors, "vectors", 10000,
		"Number of vectors to insert")
	flags.IntVar(&dimension, "dimension", 512,
		"Vector dimensionality")
	flags.IntVar(&batchSize, "batch-size", 1000,
		"Vectors per insert batch")
	flags.IntVar(&queries, "queries", 10,
		"Number of k-NN queries to run")
	flags.IntVar(&topK, "k", 5,
		"Neighbors to retrieve per query")
	flags.StringVar(&metric, "metric", workload.MetricL2,
		"Distance metric: l2, cosine, ip")
	flags.IntVar(&hnswM, "hnsw-m", 32,
		"HNSW graph degree (M)")
	flags.IntVar(&efConstruction, "ef-construction", 200,
		"HNSW construction beam width")
	flags.IntVar(&efSearch, "ef-search", 200,
		"HNSW search beam width")
	flags.Int64Var(&seed, "seed", 0,
		"Random seed (0 = use current time)")
	flags.StringSliceVar(&engines, "engines", harness.KnownEngines(),
		"Engines to benchmark (e.g. vecgo,sqvect)")
	flags.StringVar(&reference, "reference", "",
		"Reference engine for speedups (default: first successful)")
	flags.StringVar(&format, "format", metrics.FormatProse,
		"Harness output format: prose, kv")
	flags.StringVar(&workDir, "work-dir", "",
		"Base directory for engine work directories")
	flags.StringVar(&harnessesDir, "harnesses-dir", "",
		"Path to harnesses directory (default: ./harnesses)")
	flags.BoolVar(&skipBuild, "skip-build", false,
		"Skip building harness binaries")
	flags.DurationVar(&timeout, "timeout", 30*time.Minute,
		"Per-engine run timeout")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of a table")
	flags.StringVar(&chartPath, "chart", "",
		"Write an HTML latency chart to this path")
	flags.StringVar(&historyPath, "history", "",
		"Record the run in this SQLite history database")

	return cmd
}

type runConfig struct {
	workload     workload.Config
	engines      []string
	reference    string
	format       string
	workDir      string
	harnessesDir string
	skipBuild    bool
	timeout      time.Duration
	outputJSON   bool
	chartPath    string
	historyPath  string
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
) error {
	if len(cfg.engines) == 0 {
		return fmt.Errorf(
			"at least one engine must be specified via --engines",
		)
	}

	if cfg.reference != "" && !slices.Contains(cfg.engines, cfg.reference) {
		return fmt.Errorf(
			"reference engine %q is not among --engines", cfg.reference,
		)
	}

	if err := cfg.workload.Validate(); err != nil {
		return fmt.Errorf("invalid workload: %w", err)
	}

	parser, err := metrics.ParserFor(cfg.format)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.Int("vectors", cfg.workload.Vectors),
		slog.Int("dimension", cfg.workload.Dimension),
		slog.Int("queries", cfg.workload.Queries),
		slog.Int("k", cfg.workload.K),
		slog.String("metric", cfg.workload.Metric),
		slog.Int64("seed", cfg.workload.Seed),
		slog.Any("engines", cfg.engines),
	)

	harnessesDir := cfg.harnessesDir
	if harnessesDir == "" {
		harnessesDir = "harnesses"
	}

	harnessesDir, err = filepath.Abs(harnessesDir)
	if err != nil {
		return fmt.Errorf("resolve harnesses dir: %w", err)
	}

	// Step 1: Build harness binaries (unless --skip-build). A failed
	// build only excludes its own engine from the comparison.
	var (
		binaries      map[string]string
		buildFailures map[string]error
	)

	if cfg.skipBuild {
		binaries = make(map[string]string, len(cfg.engines))
		for _, engine := range cfg.engines {
			binaries[engine] = harness.ResolveBinary(harnessesDir, engine)
		}
	} else {
		binaries, buildFailures = harness.BuildAll(
			ctx, logger, harnessesDir, cfg.engines,
		)

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("build harnesses: %w", err)
		}
	}

	// Step 2: Prepare the base work directory.
	workDir := cfg.workDir
	if workDir == "" {
		workDir = "tmp"
	}

	if err = os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	env := cfg.workload.Env()
	if cfg.format != "" && cfg.format != metrics.FormatProse {
		env = append(env, metrics.EnvFormat+"="+cfg.format)
	}

	// Step 3: Run each engine sequentially so measurements never
	// compete for the machine. A failing engine is reported and the
	// rest keep running.
	results := make([]report.EngineResult, 0, len(cfg.engines))
	stored := make([]history.Result, 0, len(cfg.engines))

	for _, engine := range cfg.engines {
		if buildErr, ok := buildFailures[engine]; ok {
			logger.WarnContext(ctx, "engine build failed",
				slog.String("engine", engine),
				slog.String("error", buildErr.Error()),
			)

			results = append(results, report.EngineResult{
				Engine:   engine,
				Failed:   true,
				ExitCode: -1,
				Stderr:   buildErr.Error(),
			})
			stored = append(stored, history.Result{
				Engine:   engine,
				ExitCode: -1,
				Stderr:   buildErr.Error(),
			})

			continue
		}

		inv := harness.WrapCommand(binaries[engine])

		runner := harness.NewRunner(
			engine, inv.Binary, inv.ExtraArgs, inv.Env, logger,
		)
		captured, runErr := runner.Run(ctx, harness.RunConfig{
			WorkDir: workDir,
			Env:     env,
			Timeout: cfg.timeout,
		})

		if runErr != nil {
			var engineErr *harness.RunError
			if !errors.As(runErr, &engineErr) {
				// Interrupts and setup failures abort the whole run.
				return runErr
			}

			logger.WarnContext(ctx, "engine failed",
				slog.String("engine", engine),
				slog.String("error", engineErr.Error()),
			)

			results = append(results, report.EngineResult{
				Engine:   engine,
				Failed:   true,
				ExitCode: engineErr.ExitCode,
				Stderr:   engineErr.Stderr,
				TimedOut: engineErr.TimedOut,
			})
			stored = append(stored, history.Result{
				Engine:   engine,
				ExitCode: engineErr.ExitCode,
				TimedOut: engineErr.TimedOut,
				Stdout:   engineErr.Stdout,
				Stderr:   engineErr.Stderr,
			})

			continue
		}

		extracted := parser.Parse(captured.Stdout)

		results = append(results, report.EngineResult{
			Engine:    engine,
			Metrics:   extracted,
			Stats:     metrics.Summarize(extracted.QuerySeconds),
			WallMs:    captured.Wall.Milliseconds(),
			DiskBytes: captured.DiskBytes,
		})
		stored = append(stored, history.Result{
			Engine:        engine,
			InsertSeconds: extracted.InsertSeconds,
			QuerySeconds:  extracted.QuerySeconds,
			Stdout:        captured.Stdout,
			Stderr:        captured.Stderr,
		})
	}

	// Step 4: Pick the reference engine and compare the rest to it.
	doc := report.Document{
		Config:  cfg.workload,
		Results: results,
	}

	reference := pickReference(cfg.reference, results)
	doc.Reference = reference

	if cfg.reference != "" && reference != cfg.reference {
		logger.WarnContext(ctx,
			"requested reference failed, falling back to first successful engine",
			slog.String("requested", cfg.reference),
			slog.String("reference", reference),
		)
	}

	if refResult, ok := resultFor(results, reference); ok {
		for _, r := range results {
			if r.Failed || r.Engine == reference {
				continue
			}

			doc.Comparisons = append(doc.Comparisons, metrics.Compare(
				reference, refResult.Metrics, r.Engine, r.Metrics,
			))
		}
	}

	// Step 5: Record the run before rendering so even all-failed runs
	// end up in the history.
	if cfg.historyPath != "" {
		if err := recordRun(ctx, logger, cfg, stored); err != nil {
			return err
		}
	}

	// Step 6: Generate the report.
	if cfg.outputJSON {
		if err := report.GenerateJSON(os.Stdout, doc); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, doc); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	if cfg.chartPath != "" {
		if err := report.WriteChart(cfg.chartPath, doc); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}

		logger.InfoContext(ctx, "chart written",
			slog.String("path", cfg.chartPath),
		)
	}

	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
		}
	}

	if failed == len(results) {
		return fmt.Errorf("all engines failed")
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.Int("engines", len(results)),
		slog.Int("failed", failed),
	)

	return nil
}

// pickReference returns the requested engine if it succeeded, otherwise
// the first successful engine in run order. Empty when every engine
// failed.
func pickReference(requested string, results []report.EngineResult) string {
	if requested != "" {
		for _, r := range results {
			if r.Engine == requested && !r.Failed {
				return requested
			}
		}
	}

	for _, r := range results {
		if !r.Failed {
			return r.Engine
		}
	}

	return ""
}

func resultFor(results []report.EngineResult, engine string) (report.EngineResult, bool) {
	for _, r := range results {
		if r.Engine == engine {
			return r, true
		}
	}

	return report.EngineResult{}, false
}

func recordRun(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
	stored []history.Result,
) error {
	store, err := history.Open(cfg.historyPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	id, err := store.Record(ctx, cfg.workload, stored)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	logger.InfoContext(ctx, "run recorded",
		slog.String("run_id", id),
		slog.String("db", cfg.historyPath),
	)

	return nil
}

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded benchmark runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showHistory(cmd.Context(), dbPath, limit)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dbPath, "db", "vectoor-history.db",
		"Path to the history database")
	flags.IntVar(&limit, "limit", 10,
		"Number of runs to show")

	return cmd
}

func showHistory(ctx context.Context, dbPath string, limit int) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no recorded runs")

		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s\n", run.CreatedAt.Format(time.RFC3339), run.ID)
		fmt.Printf("    %d vectors x %d dims, %d queries (k=%d), metric %s\n",
			run.Config.Vectors, run.Config.Dimension,
			run.Config.Queries, run.Config.K, run.Config.Metric,
		)

		for _, r := range run.Results {
			switch {
			case r.TimedOut:
				fmt.Printf("    %-10s timed out\n", r.Engine)
			case r.ExitCode != 0:
				fmt.Printf("    %-10s exited with code %d\n",
					r.Engine, r.ExitCode,
				)
			default:
				stats := metrics.Summarize(r.QuerySeconds)
				fmt.Printf(
					"    %-10s insert %s, mean query %.2fms (%d queries)\n",
					r.Engine, formatInsertSeconds(r.InsertSeconds),
					stats.Mean*1000, stats.Count,
				)
			}
		}

		fmt.Println()
	}

	return nil
}

func formatInsertSeconds(v *float64) string {
	if v == nil {
		return "n/a"
	}

	return fmt.Sprintf("%.2fs", *v)
}
