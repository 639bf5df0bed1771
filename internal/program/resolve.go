package program

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/procshim-go/internal/errors"
)

// Config holds configuration for program resolution.
type Config struct {
	// SearchPaths are directories checked after PATH for bare program names.
	SearchPaths []string

	// Logger is an optional logger for resolution. If nil, logging is disabled.
	Logger *slog.Logger
}

// Resolver locates executables.
type Resolver interface {
	// Resolve returns the path to execute for name, or a
	// *errors.ProgramNotFoundError listing the searched locations.
	Resolve(name string) (string, error)
}

type resolver struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that resolver implements Resolver.
var _ Resolver = (*resolver)(nil)

// NewResolver creates a Resolver with the given configuration.
func NewResolver(cfg *Config) Resolver {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &resolver{
		cfg: cfg,
		log: log.With("component", "program_resolver"),
	}
}

// Resolve locates name.
func (r *resolver) Resolve(name string) (string, error) {
	if name == "" {
		return "", &errors.ProgramNotFoundError{Program: name}
	}

	// Explicit paths are used as is and only checked for existence.
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if err := checkExecutable(name); err != nil {
			r.log.Debug("Explicit program path not usable", "program", name, "error", err)

			return "", &errors.ProgramNotFoundError{Program: name, SearchedPaths: []string{name}}
		}

		return name, nil
	}

	searched := make([]string, 0, 1+len(r.cfg.SearchPaths))

	if path, err := exec.LookPath(name); err == nil {
		r.log.Debug("Found program in PATH", "program", name, "path", path)

		return path, nil
	}

	searched = append(searched, "$PATH")

	for _, dir := range r.cfg.SearchPaths {
		candidate := filepath.Join(dir, name)
		searched = append(searched, candidate)

		if err := checkExecutable(candidate); err == nil {
			r.log.Debug("Found program in search path", "program", name, "path", candidate)

			return candidate, nil
		}
	}

	r.log.Debug("Program not found", "program", name, "searched_paths", searched)

	return "", &errors.ProgramNotFoundError{Program: name, SearchedPaths: searched}
}

// checkExecutable reports whether path names a regular file with an
// executable bit set.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fs.ErrInvalid
	}

	if info.Mode().Perm()&0o111 == 0 {
		return fs.ErrPermission
	}

	return nil
}
