package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownEngines(t *testing.T) {
	assert.Equal(t, []string{"vecgo", "sqvect"}, KnownEngines())
}

func TestResolveBinaryCompiled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vecgo"), 0o755))

	got := ResolveBinary(dir, "vecgo")
	assert.Equal(t, filepath.Join(dir, "vecgo", "vecgo-harness"), got)
}

func TestResolveBinaryScript(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "chroma")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(src, "main.py"), []byte("print('hi')\n"), 0o644,
	))

	got := ResolveBinary(dir, "chroma")
	assert.Equal(t, filepath.Join(src, "main.py"), got)
}

func TestResolveBinaryGoModWinsOverScript(t *testing.T) {
	// A go.mod marks a compiled harness even when a helper script
	// sits in the same directory.
	dir := t.TempDir()
	src := filepath.Join(dir, "vecgo")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(src, "go.mod"), []byte("module x\n"), 0o644,
	))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.py"), nil, 0o644))

	got := ResolveBinary(dir, "vecgo")
	assert.Equal(t, filepath.Join(src, "vecgo-harness"), got)
}

func TestWrapCommand(t *testing.T) {
	inv := WrapCommand("/opt/harnesses/vecgo/vecgo-harness")
	assert.Equal(t, "/opt/harnesses/vecgo/vecgo-harness", inv.Binary)
	assert.Empty(t, inv.ExtraArgs)

	inv = WrapCommand("/opt/harnesses/chroma/main.py")
	assert.Equal(t, "python3", inv.Binary)
	assert.Equal(t, []string{"/opt/harnesses/chroma/main.py"}, inv.ExtraArgs)
}

func TestBuildMissingHarness(t *testing.T) {
	_, err := Build(context.Background(), testLogger(), t.TempDir(), "mystery")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no harness")
}

func TestBuildScriptHarness(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "chroma")
	require.NoError(t, os.MkdirAll(src, 0o755))

	script := filepath.Join(src, "main.py")
	require.NoError(t, os.WriteFile(script, []byte("print('hi')\n"), 0o644))

	got, err := Build(context.Background(), testLogger(), dir, "chroma")
	require.NoError(t, err)
	assert.Equal(t, script, got)
}

func TestBuildAllScriptHarnesses(t *testing.T) {
	dir := t.TempDir()
	for _, engine := range []string{"alpha", "beta"} {
		src := filepath.Join(dir, engine)
		require.NoError(t, os.MkdirAll(src, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(src, "main.py"), nil, 0o644))
	}

	binaries, failures := BuildAll(
		context.Background(), testLogger(), dir, []string{"alpha", "beta"},
	)
	require.Empty(t, failures)

	assert.Equal(t, map[string]string{
		"alpha": filepath.Join(dir, "alpha", "main.py"),
		"beta":  filepath.Join(dir, "beta", "main.py"),
	}, binaries)
}

func TestBuildAllIsolatesFailure(t *testing.T) {
	// One engine failing to build must not take the others with it.
	dir := t.TempDir()
	src := filepath.Join(dir, "alpha")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.py"), nil, 0o644))

	binaries, failures := BuildAll(
		context.Background(), testLogger(), dir, []string{"alpha", "missing"},
	)

	assert.Equal(t, map[string]string{
		"alpha": filepath.Join(dir, "alpha", "main.py"),
	}, binaries)

	require.Len(t, failures, 1)
	assert.ErrorContains(t, failures["missing"], "no harness")
}
