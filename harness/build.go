package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// KnownEngines returns the list of engines with in-tree harnesses.
func KnownEngines() []string {
	return []string{"vecgo", "sqvect"}
}

// ResolveBinary returns the harness entry point for an engine given the
// harnesses root directory. Compiled engines resolve to
// <dir>/<engine>/<engine>-harness. An engine directory holding a
// main.py instead of Go sources resolves to the script, so Python
// harnesses can join the comparison without a build step.
func ResolveBinary(harnessesDir, engine string) string {
	srcDir := filepath.Join(harnessesDir, engine)

	if isScriptHarness(srcDir) {
		return filepath.Join(srcDir, "main.py")
	}

	return filepath.Join(srcDir, engine+"-harness")
}

// Build compiles the harness binary for the given engine. Script
// harnesses have nothing to compile and resolve immediately.
func Build(
	ctx context.Context,
	logger *slog.Logger,
	harnessesDir string,
	engine string,
) (string, error) {
	srcDir := filepath.Join(harnessesDir, engine)

	if _, err := os.Stat(srcDir); err != nil {
		return "", fmt.Errorf("no harness for engine %q: %w", engine, err)
	}

	binPath := ResolveBinary(harnessesDir, engine)

	if isScriptHarness(srcDir) {
		logger.InfoContext(ctx, "script harness, skipping build",
			slog.String("engine", engine),
			slog.String("script", binPath),
		)

		return binPath, nil
	}

	logger.InfoContext(ctx, "building harness",
		slog.String("engine", engine),
		slog.String("source_dir", srcDir),
	)

	cmd := exec.CommandContext(ctx, "go", "build", "-o", binPath, ".")
	cmd.Dir = srcDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build %s: %w", engine, err)
	}

	if _, err := os.Stat(binPath); err != nil {
		return "", fmt.Errorf(
			"build %s: binary not found at %s", engine, binPath,
		)
	}

	logger.InfoContext(ctx, "harness built",
		slog.String("engine", engine),
		slog.String("binary", binPath),
	)

	return binPath, nil
}

// BuildAll compiles the harness binaries for all engines concurrently
// and returns the binary path per engine. Compile time is not part of
// any measurement, so builds need not be serialized the way runs are.
// A failed build excludes only its own engine: the error lands in the
// returned failure map and the remaining builds continue.
func BuildAll(
	ctx context.Context,
	logger *slog.Logger,
	harnessesDir string,
	engines []string,
) (map[string]string, map[string]error) {
	var (
		mu       sync.Mutex
		binaries = make(map[string]string, len(engines))
		failures = make(map[string]error)
	)

	var g errgroup.Group

	for _, engine := range engines {
		g.Go(func() error {
			binPath, err := Build(ctx, logger, harnessesDir, engine)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failures[engine] = err
			} else {
				binaries[engine] = binPath
			}

			return nil
		})
	}

	_ = g.Wait()

	return binaries, failures
}

// Invocation holds the resolved command, extra arguments, and
// environment variables needed to run an engine harness.
type Invocation struct {
	Binary    string
	ExtraArgs []string
	Env       []string
}

// WrapCommand returns the exec configuration for a harness entry point.
// Compiled harnesses run directly; .py harnesses run under python3.
func WrapCommand(binPath string) Invocation {
	if strings.HasSuffix(binPath, ".py") {
		return Invocation{
			Binary:    "python3",
			ExtraArgs: []string{binPath},
		}
	}

	return Invocation{Binary: binPath}
}

func isScriptHarness(srcDir string) bool {
	if _, err := os.Stat(filepath.Join(srcDir, "go.mod")); err == nil {
		return false
	}

	_, err := os.Stat(filepath.Join(srcDir, "main.py"))

	return err == nil
}
