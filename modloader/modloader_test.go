package modloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisl-lang/aisl/errz"
)

func writeModule(t *testing.T, dir, name, source string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name+".aisl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestResolveStdlib(t *testing.T) {
	base := t.TempDir()
	want := writeModule(t, filepath.Join(base, "stdlib"), "math", "(mod math)")

	l := New(WithBaseDir(base))
	got, err := l.Resolve("math")
	require.NoError(t, err)
	assert.Equal(t, got, want)
}

func TestResolveStdlibTopic(t *testing.T) {
	base := t.TempDir()
	want := writeModule(t, filepath.Join(base, "stdlib", "net"), "netlib", "(mod netlib)")

	l := New(WithBaseDir(base))
	got, err := l.Resolve("netlib")
	require.NoError(t, err)
	assert.Equal(t, got, want)
}

func TestResolveModulesDir(t *testing.T) {
	base := t.TempDir()
	want := writeModule(t, filepath.Join(base, "modules"), "util", "(mod util)")

	l := New(WithBaseDir(base))
	got, err := l.Resolve("util")
	require.NoError(t, err)
	assert.Equal(t, got, want)
}

func TestResolveEnvironmentPath(t *testing.T) {
	base := t.TempDir()
	extra := t.TempDir()
	want := writeModule(t, extra, "envmod", "(mod envmod)")
	t.Setenv("AISL_MODULES", extra)

	l := New(WithBaseDir(base))
	got, err := l.Resolve("envmod")
	require.NoError(t, err)
	assert.Equal(t, got, want)
}

func TestStdlibSearchedBeforeModules(t *testing.T) {
	base := t.TempDir()
	want := writeModule(t, filepath.Join(base, "stdlib"), "dup", "(mod dup)")
	writeModule(t, filepath.Join(base, "modules"), "dup", "(mod dup)")

	l := New(WithBaseDir(base))
	got, err := l.Resolve("dup")
	require.NoError(t, err)
	assert.Equal(t, got, want)
}

func TestMissReportsSearchedPaths(t *testing.T) {
	base := t.TempDir()
	l := New(WithBaseDir(base))

	_, err := l.Resolve("nope")
	require.Error(t, err)

	var se *errz.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, se.Code, errz.CodeImportError)
	assert.Contains(t, se.Message, "Module 'nope' not found. Searched:")
	assert.Contains(t, se.Message, filepath.Join(base, "stdlib", "nope.aisl"))
	assert.Contains(t, se.Message, filepath.Join(base, "modules", "nope.aisl"))
}

func TestLoadCachesByName(t *testing.T) {
	base := t.TempDir()
	path := writeModule(t, filepath.Join(base, "modules"), "cached", "(mod cached)")

	l := New(WithBaseDir(base))
	src, gotPath, err := l.Load(context.Background(), "cached")
	require.NoError(t, err)
	assert.Equal(t, src, "(mod cached)")
	assert.Equal(t, gotPath, path)

	// A second load must come from the cache, not the (now changed) file.
	require.NoError(t, os.WriteFile(path, []byte("(mod changed)"), 0o644))
	src, _, err = l.Load(context.Background(), "cached")
	require.NoError(t, err)
	assert.Equal(t, src, "(mod cached)")
}

func TestManifestSidecarDoesNotAffectResolution(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "modules")
	want := writeModule(t, dir, "manifested", "(mod manifested)")
	require.NoError(t, os.WriteFile(want+".manifest", []byte("version: 1\n"), 0o644))

	l := New(WithBaseDir(base))
	got, err := l.Resolve("manifested")
	require.NoError(t, err)
	assert.Equal(t, got, want)
}

func TestLoadHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(WithBaseDir(t.TempDir())).Load(ctx, "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
