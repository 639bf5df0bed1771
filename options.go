package procshim

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithInitialBufferSize sets the starting line-buffer capacity in bytes.
// The buffer doubles as needed, so this only matters for tuning.
func WithInitialBufferSize(size int) Option {
	return func(o *Options) {
		o.InitialBufferSize = size
	}
}

// WithDir sets the working directory for child processes.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithEnv adds environment variables on top of the current environment.
// Later calls merge with earlier ones.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		base := o.Env
		if base == nil {
			base = os.Environ()
		}

		o.Env = mergeEnv(base, env)
	}
}

// WithStdin feeds r to the child's standard input.
// By default children read from the null device.
func WithStdin(r io.Reader) Option {
	return func(o *Options) {
		o.Stdin = r
	}
}

// WithStderr sends the child's standard error to w.
// By default it is inherited from the current process.
func WithStderr(w io.Writer) Option {
	return func(o *Options) {
		o.Stderr = w
	}
}

// WithDiscardStderr sends the child's standard error to the null device.
func WithDiscardStderr() Option {
	return func(o *Options) {
		o.DiscardStderr = true
	}
}

// WithSearchPaths adds directories searched for bare program names after PATH.
func WithSearchPaths(dirs ...string) Option {
	return func(o *Options) {
		o.SearchPaths = append(o.SearchPaths, dirs...)
	}
}

// WithTerminateGracePeriod sets how long Close waits after SIGTERM before
// sending SIGKILL.
func WithTerminateGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		o.TerminateGracePeriod = d
	}
}

// WithSpawner replaces process creation, for example with a test double.
func WithSpawner(spawner Spawner) Option {
	return func(o *Options) {
		o.Spawner = spawner
	}
}

// mergeEnv overlays extra onto KEY=value pairs in base. Keys from extra
// are appended in sorted order.
func mergeEnv(base []string, extra map[string]string) []string {
	out := make([]string, 0, len(base)+len(extra))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := extra[key]; overridden {
			continue
		}

		out = append(out, kv)
	}

	for _, key := range slices.Sorted(maps.Keys(extra)) {
		out = append(out, key+"="+extra[key])
	}

	return out
}
