package astexport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisl-lang/aisl/parser"
)

func TestWriteFile(t *testing.T) {
	mod, err := parser.Parse(context.Background(), `
		(mod demo
		  (fn add ((a i64) (b i64)) -> i64
		    (ret (call op_add_i64 a b))))`)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "demo.ast")
	require.NoError(t, WriteFile(path, mod))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "(mod demo\n"))
	assert.Contains(t, out, "(fn add ((a int) (b int)) -> int")
	assert.True(t, strings.HasSuffix(out, ")\n"))
}

func TestFprint(t *testing.T) {
	mod, err := parser.Parse(context.Background(), `(mod tiny (fn main () -> unit))`)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Fprint(&sb, mod))
	assert.Contains(t, sb.String(), "(mod tiny")
	assert.Contains(t, sb.String(), "(fn main ()")
}
