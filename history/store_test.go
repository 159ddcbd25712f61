package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/vectoor/workload"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestOpenAppliesPragmas(t *testing.T) {
	store := openTestStore(t)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, store.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	cfg := workload.Default()
	cfg.Seed = 7

	insert := 1.25
	results := []Result{
		{
			Engine:        "vecgo",
			InsertSeconds: &insert,
			QuerySeconds:  []float64{0.01, 0.02},
			Stdout:        "Inserted 10000 vectors in 1.25 seconds\n",
		},
		{
			Engine:   "sqvect",
			ExitCode: 1,
			Stderr:   "open database: disk I/O error\n",
		},
	}

	id, err := store.Record(ctx, cfg, results)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.ID)
	assert.Equal(t, cfg, run.Config)
	assert.False(t, run.CreatedAt.IsZero())

	require.Len(t, run.Results, 2)

	vecgo := run.Results[0]
	assert.Equal(t, "vecgo", vecgo.Engine)
	require.NotNil(t, vecgo.InsertSeconds)
	assert.Equal(t, 1.25, *vecgo.InsertSeconds)
	assert.Equal(t, []float64{0.01, 0.02}, vecgo.QuerySeconds)
	assert.Contains(t, vecgo.Stdout, "Inserted 10000 vectors")

	sqvect := run.Results[1]
	assert.Equal(t, "sqvect", sqvect.Engine)
	assert.Nil(t, sqvect.InsertSeconds)
	assert.Empty(t, sqvect.QuerySeconds)
	assert.Equal(t, 1, sqvect.ExitCode)
	assert.Contains(t, sqvect.Stderr, "disk I/O error")
}

func TestRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := workload.Default()
	first.Seed = 1

	second := workload.Default()
	second.Seed = 2

	firstID, err := store.Record(ctx, first, nil)
	require.NoError(t, err)

	secondID, err := store.Record(ctx, second, nil)
	require.NoError(t, err)

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, secondID, runs[0].ID)
	assert.Equal(t, firstID, runs[1].ID)
	assert.Equal(t, int64(2), runs[0].Config.Seed)
	assert.Equal(t, int64(1), runs[1].Config.Seed)
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := store.Record(ctx, workload.Default(), nil)
		require.NoError(t, err)
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRecentEmptyStore(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCompressRoundTrip(t *testing.T) {
	// Query logs repeat heavily, the whole point of compressing them.
	text := strings.Repeat("Query 1: 0.0100s, top IDs: [3 1 4]\n", 500)

	compressed := compress(text)
	require.NotEmpty(t, compressed)
	assert.Less(t, len(compressed), len(text)/10)

	out, err := decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, text, out)
}

func TestCompressEmpty(t *testing.T) {
	assert.Nil(t, compress(""))

	out, err := decompress(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTimedOutRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Record(ctx, workload.Default(), []Result{
		{Engine: "sqvect", ExitCode: -1, TimedOut: true},
	})
	require.NoError(t, err)

	runs, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Len(t, runs[0].Results, 1)

	assert.True(t, runs[0].Results[0].TimedOut)
	assert.Equal(t, -1, runs[0].Results[0].ExitCode)
}
