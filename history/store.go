// Package history persists benchmark runs in a local SQLite database
// so results can be compared across invocations.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/weiihann/vectoor/workload"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	config     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	position       INTEGER NOT NULL,
	engine         TEXT NOT NULL,
	insert_seconds REAL,
	query_seconds  TEXT NOT NULL,
	exit_code      INTEGER NOT NULL,
	timed_out      INTEGER NOT NULL DEFAULT 0,
	stdout         BLOB,
	stderr         BLOB,
	PRIMARY KEY (run_id, engine)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Captured output compresses well, typically 10x for query logs.
var (
	zstdEncoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Result is one engine's stored outcome within a recorded run.
type Result struct {
	Engine        string
	InsertSeconds *float64
	QuerySeconds  []float64
	ExitCode      int
	TimedOut      bool
	Stdout        string
	Stderr        string
}

// Run is a recorded benchmark run with its per-engine results in the
// order the engines were executed.
type Run struct {
	ID        string
	CreatedAt time.Time
	Config    workload.Config
	Results   []Result
}

// Store persists benchmark runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating it and its schema
// when missing.
func Open(path string) (*Store, error) {
	// modernc.org/sqlite only understands _pragma query parameters.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()

		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a completed benchmark run and returns its ID.
func (s *Store) Record(
	ctx context.Context,
	cfg workload.Config,
	results []Result,
) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, config) VALUES (?, ?, ?)`,
		id, time.Now().UnixNano(), string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, r := range results {
		queriesJSON, err := json.Marshal(r.QuerySeconds)
		if err != nil {
			return "", fmt.Errorf("encode query series: %w", err)
		}

		var insert sql.NullFloat64
		if r.InsertSeconds != nil {
			insert = sql.NullFloat64{Float64: *r.InsertSeconds, Valid: true}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO results
			 (run_id, position, engine, insert_seconds, query_seconds,
			  exit_code, timed_out, stdout, stderr)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, r.Engine, insert, string(queriesJSON),
			r.ExitCode, r.TimedOut, compress(r.Stdout), compress(r.Stderr),
		)
		if err != nil {
			return "", fmt.Errorf("insert result for %s: %w", r.Engine, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit history tx: %w", err)
	}

	return id, nil
}

// Recent returns the latest runs, newest first, with their per-engine
// results attached.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, config FROM runs
		 ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			run       Run
			createdAt int64
			cfgJSON   string
		)

		if err := rows.Scan(&run.ID, &createdAt, &cfgJSON); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.CreatedAt = time.Unix(0, createdAt).UTC()

		if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
			return nil, fmt.Errorf("decode run config: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		results, err := s.resultsFor(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}

		runs[i].Results = results
	}

	return runs, nil
}

func (s *Store) resultsFor(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT engine, insert_seconds, query_seconds, exit_code,
		        timed_out, stdout, stderr
		 FROM results WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []Result

	for rows.Next() {
		var (
			r           Result
			insert      sql.NullFloat64
			queriesJSON string
			stdout      []byte
			stderr      []byte
		)

		err := rows.Scan(
			&r.Engine, &insert, &queriesJSON,
			&r.ExitCode, &r.TimedOut, &stdout, &stderr,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		if insert.Valid {
			r.InsertSeconds = &insert.Float64
		}

		if err := json.Unmarshal([]byte(queriesJSON), &r.QuerySeconds); err != nil {
			return nil, fmt.Errorf("decode query series: %w", err)
		}

		if r.Stdout, err = decompress(stdout); err != nil {
			return nil, fmt.Errorf("result stdout for %s: %w", r.Engine, err)
		}

		if r.Stderr, err = decompress(stderr); err != nil {
			return nil, fmt.Errorf("result stderr for %s: %w", r.Engine, err)
		}

		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

func compress(s string) []byte {
	if s == "" {
		return nil
	}

	return zstdEncoder.EncodeAll([]byte(s), nil)
}

func decompress(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}

	out, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}

	return string(out), nil
}
