package config

import (
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultTerminateGracePeriod is how long Close waits after asking a
	// child to terminate before killing it.
	DefaultTerminateGracePeriod = 2 * time.Second

	// DefaultHTTPTimeout bounds a single download.
	DefaultHTTPTimeout = 5 * time.Minute

	// DefaultServerName is the MCP implementation name of the host.
	DefaultServerName = "procshim"

	// DefaultMaxInstances caps live host instances.
	DefaultMaxInstances = 64
)

// Options configures a process session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger `yaml:"-"`

	// InitialBufferSize is the first line-buffer capacity in bytes.
	// Zero uses the line assembler's default.
	InitialBufferSize int `yaml:"initial_buffer_size"`

	// Dir is the working directory for child processes.
	Dir string `yaml:"dir"`

	// Env is the environment for child processes in KEY=value form.
	// Nil inherits the current environment.
	Env []string `yaml:"env"`

	// Stdin feeds child processes. Nil attaches the null device.
	Stdin io.Reader `yaml:"-"`

	// Stderr receives child stderr. Nil inherits the host's stderr unless
	// DiscardStderr is set.
	Stderr io.Writer `yaml:"-"`

	// DiscardStderr sends child stderr to the null device.
	DiscardStderr bool `yaml:"discard_stderr"`

	// SearchPaths are extra directories searched for bare program names
	// after PATH.
	SearchPaths []string `yaml:"search_paths"`

	// TerminateGracePeriod is the delay between SIGTERM and SIGKILL when a
	// session is closed with a live child. Zero uses the default.
	TerminateGracePeriod time.Duration `yaml:"terminate_grace_period"`

	// Spawner overrides process creation. Nil uses os/exec.
	Spawner Spawner `yaml:"-"`
}

// GracePeriod returns the effective terminate grace period.
func (o *Options) GracePeriod() time.Duration {
	if o == nil || o.TerminateGracePeriod <= 0 {
		return DefaultTerminateGracePeriod
	}

	return o.TerminateGracePeriod
}

// HostOptions configures the tool-call host and its collaborators.
type HostOptions struct {
	// ServerName is reported to MCP clients.
	ServerName string `yaml:"server_name"`

	// ServerVersion is reported to MCP clients.
	ServerVersion string `yaml:"server_version"`

	// UserAgent is sent with every download until changed by set_agent.
	UserAgent string `yaml:"user_agent"`

	// HTTPTimeout bounds each download. Zero uses the default.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// MaxDownloadBytes caps in-memory downloads. Zero means unlimited.
	MaxDownloadBytes int64 `yaml:"max_download_bytes"`

	// MaxInstances caps live process instances. Zero uses the default.
	MaxInstances int `yaml:"max_instances"`
}

// Normalize fills zero fields with defaults.
func (h *HostOptions) Normalize() {
	if h.ServerName == "" {
		h.ServerName = DefaultServerName
	}

	if h.ServerVersion == "" {
		h.ServerVersion = "dev"
	}

	if h.HTTPTimeout <= 0 {
		h.HTTPTimeout = DefaultHTTPTimeout
	}

	if h.MaxInstances <= 0 {
		h.MaxInstances = DefaultMaxInstances
	}
}
