// Package astexport writes the S-expression rendering of a parsed module to
// a file, for downstream tooling that inspects program structure without
// running the compiler.
package astexport

import (
	"io"
	"os"

	"github.com/aisl-lang/aisl/ast"
)

// Fprint writes the S-expression dump of a module to w.
func Fprint(w io.Writer, mod *ast.Module) error {
	_, err := io.WriteString(w, mod.String())
	return err
}

// WriteFile writes the S-expression dump of a module to the named file.
func WriteFile(path string, mod *ast.Module) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Fprint(f, mod); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
