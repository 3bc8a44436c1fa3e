// Package modloader resolves import names to source files on disk.
//
// A loader searches a fixed list of directories for <name>.aisl: the local
// stdlib tree (including its topic subdirectories), ./modules, any paths in
// the AISL_MODULES environment variable, the per-user module directory, and
// the system module directory. Resolution results are cached by name.
package modloader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/aisl-lang/aisl/errz"
)

// stdlib topic subdirectories searched after the stdlib root.
var stdlibTopics = []string{"core", "data", "net", "sys", "crypto", "db", "pattern"}

const systemModuleDir = "/usr/lib/aisl/modules"

type cached struct {
	source string
	path   string
}

// Loader resolves module names to source text. Safe for sequential use by a
// single compilation; not for concurrent use.
type Loader struct {
	baseDir string
	cache   map[string]cached
	logger  zerolog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithBaseDir sets the directory the relative search entries resolve
// against. Defaults to the current working directory.
func WithBaseDir(dir string) Option {
	return func(l *Loader) { l.baseDir = dir }
}

// WithLogger sets the debug logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a module loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		baseDir: ".",
		cache:   make(map[string]cached),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SearchDirs returns the directories searched for a module, in order.
func (l *Loader) SearchDirs() []string {
	dirs := []string{filepath.Join(l.baseDir, "stdlib")}
	for _, topic := range stdlibTopics {
		dirs = append(dirs, filepath.Join(l.baseDir, "stdlib", topic))
	}
	dirs = append(dirs, filepath.Join(l.baseDir, "modules"))
	viper.SetDefault("aisl_modules", "")
	viper.AutomaticEnv()
	if extra := viper.GetString("aisl_modules"); extra != "" {
		for _, dir := range strings.Split(extra, string(os.PathListSeparator)) {
			if dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".aisl", "modules"))
	}
	return append(dirs, systemModuleDir)
}

// Resolve returns the path of the file that would back the named module
// without reading it.
func (l *Loader) Resolve(name string) (string, error) {
	if entry, ok := l.cache[name]; ok {
		return entry.path, nil
	}
	searched := make([]string, 0, 16)
	for _, dir := range l.SearchDirs() {
		candidate := filepath.Join(dir, name+".aisl")
		searched = append(searched, candidate)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if l.hasManifest(candidate) {
			l.logger.Debug().Str("module", name).Str("path", candidate).
				Msg("module has manifest sidecar")
		}
		l.logger.Debug().Str("module", name).Str("path", candidate).Msg("module resolved")
		return candidate, nil
	}
	return "", errz.Newf(errz.ErrImport, errz.CodeImportError,
		"Module '%s' not found. Searched:\n  %s",
		name, strings.Join(searched, "\n  "))
}

// hasManifest reports whether a <file>.manifest sidecar sits next to the
// module source.
func (l *Loader) hasManifest(modulePath string) bool {
	info, err := os.Stat(modulePath + ".manifest")
	return err == nil && !info.IsDir()
}

// Load resolves a module name and returns its source text and path. Results
// are cached by name; repeated imports read the file once.
func (l *Loader) Load(ctx context.Context, name string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if entry, ok := l.cache[name]; ok {
		return entry.source, entry.path, nil
	}
	path, err := l.Resolve(name)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", errz.Newf(errz.ErrImport, errz.CodeImportError,
			"Cannot read module '%s': %s", name, err)
	}
	l.cache[name] = cached{source: string(data), path: path}
	return string(data), path, nil
}
