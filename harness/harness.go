package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// RunConfig holds parameters for a single engine execution.
type RunConfig struct {
	WorkDir string
	Env     []string
	Timeout time.Duration
}

// Runner launches and manages a single engine benchmark binary.
type Runner struct {
	Engine     string
	BinaryPath string
	ExtraArgs  []string
	Env        []string
	Logger     *slog.Logger
}

// NewRunner creates a Runner for the named engine. For engines that
// need a wrapper (e.g. python3 for script harnesses), pass the wrapper
// command as binaryPath and the script path in extraArgs. Env is
// appended to the inherited environment.
func NewRunner(
	engine, binaryPath string,
	extraArgs, env []string,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Engine:     engine,
		BinaryPath: binaryPath,
		ExtraArgs:  extraArgs,
		Env:        env,
		Logger:     logger.With(slog.String("engine", engine)),
	}
}

// Run executes the engine binary in a fresh per-engine work directory
// and captures its output. Process failures, timeouts, and unrunnable
// binaries come back as *RunError so callers can keep benchmarking the
// remaining engines.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*CapturedRun, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	workDir := filepath.Join(cfg.WorkDir, r.Engine)

	if err := os.RemoveAll(workDir); err != nil {
		return nil, fmt.Errorf("clean work dir %s: %w", workDir, err)
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", workDir, err)
	}

	// Catch a missing binary before spawning. Bare command names are
	// left to $PATH lookup at exec time.
	if strings.ContainsRune(r.BinaryPath, os.PathSeparator) {
		if _, err := os.Stat(r.BinaryPath); err != nil {
			return nil, &RunError{
				Engine:   r.Engine,
				ExitCode: -1,
				Stderr:   fmt.Sprintf("binary not runnable: %v", err),
			}
		}
	}

	cmd := exec.CommandContext(ctx, r.BinaryPath, r.ExtraArgs...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), append(r.Env, cfg.Env...)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Info("starting engine",
		slog.String("binary", r.BinaryPath),
		slog.String("work_dir", workDir),
	)

	wallStart := time.Now()
	err := cmd.Run()
	wallElapsed := time.Since(wallStart)

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("engine %s interrupted: %w", r.Engine, ctx.Err())
		}

		runErr := &RunError{
			Engine:   r.Engine,
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}

		var exitErr *exec.ExitError

		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			runErr.TimedOut = true
		case errors.As(err, &exitErr):
			runErr.ExitCode = exitErr.ExitCode()
		default:
			// Spawn failures produce no stderr; carry the OS error.
			runErr.Stderr = err.Error()
		}

		return nil, runErr
	}

	r.Logger.Info("engine finished",
		slog.Duration("wall_time", wallElapsed),
	)

	diskBytes, err := dirSize(workDir)
	if err != nil {
		r.Logger.Warn("failed to measure work dir size",
			slog.String("error", err.Error()),
		)
	}

	return &CapturedRun{
		Engine:    r.Engine,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  0,
		Wall:      wallElapsed,
		DiskBytes: diskBytes,
	}, nil
}

func dirSize(path string) (uint64, error) {
	var size uint64

	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += uint64(info.Size())
		}

		return nil
	})

	return size, err
}
