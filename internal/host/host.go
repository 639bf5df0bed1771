package host

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/procshim-go/internal/argv"
	"github.com/wagiedev/procshim-go/internal/config"
	"github.com/wagiedev/procshim-go/internal/errors"
	"github.com/wagiedev/procshim-go/internal/fetch"
	"github.com/wagiedev/procshim-go/internal/metrics"
	"github.com/wagiedev/procshim-go/internal/subprocess"
	"github.com/wagiedev/procshim-go/internal/unzip"
)

// ErrInstanceLimit indicates New was called with every slot in use.
var ErrInstanceLimit = stderrors.New("instance limit reached")

// Config configures a Host.
type Config struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Session is the template applied to every new instance. Stdin is
	// never shared between instances and is ignored.
	Session config.Options

	// Host configures downloads, limits and the MCP identity.
	Host config.HostOptions

	// Transport overrides the HTTP round tripper used for downloads.
	Transport http.RoundTripper

	// Metrics receives host activity. Nil disables metrics.
	Metrics *metrics.Recorder
}

// Host is a registry of process instances. It is safe for concurrent use.
type Host struct {
	log      *slog.Logger
	template config.Options
	limits   config.HostOptions
	fetcher  *fetch.Client
	extract  *unzip.Extractor
	metrics  *metrics.Recorder

	mu        sync.Mutex
	instances map[string]*instance
	closed    bool

	// Outcome of the last download or extraction, for get_error.
	lastMu  sync.Mutex
	lastErr error
}

type instance struct {
	id      string
	session *subprocess.Session
	created time.Time
}

// New creates a Host.
func New(cfg *Config) *Host {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	limits := cfg.Host
	limits.Normalize()

	template := cfg.Session
	template.Stdin = nil

	return &Host{
		log:      log.With("component", "host"),
		template: template,
		limits:   limits,
		fetcher: fetch.New(&fetch.Config{
			Logger:    log,
			UserAgent: limits.UserAgent,
			Timeout:   limits.HTTPTimeout,
			MaxBytes:  limits.MaxDownloadBytes,
			Transport: cfg.Transport,
		}),
		extract:   unzip.New(log),
		metrics:   cfg.Metrics,
		instances: make(map[string]*instance),
	}
}

// Metrics returns the recorder passed in Config, which may be nil.
func (h *Host) Metrics() *metrics.Recorder {
	return h.metrics
}

// Options returns the effective host options.
func (h *Host) Options() config.HostOptions {
	return h.limits
}

// NewInstance creates an idle process instance and returns its ID.
func (h *Host) NewInstance() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", errors.ErrSessionClosed
	}

	if len(h.instances) >= h.limits.MaxInstances {
		return "", fmt.Errorf("%w (%d)", ErrInstanceLimit, h.limits.MaxInstances)
	}

	id := ulid.Make().String()

	opts := h.template
	opts.Logger = h.log.With("instance", id)

	h.instances[id] = &instance{
		id:      id,
		session: subprocess.New(&opts),
		created: time.Now(),
	}

	h.metrics.SetInstances(len(h.instances))
	h.log.Debug("Instance created", "instance", id, "live", len(h.instances))

	return id, nil
}

// FreeInstance closes an instance, killing and reaping any live child.
func (h *Host) FreeInstance(id string) error {
	h.mu.Lock()
	inst, ok := h.instances[id]
	delete(h.instances, id)
	h.metrics.SetInstances(len(h.instances))
	h.mu.Unlock()

	if !ok {
		return unknown(id)
	}

	h.log.Debug("Instance freed", "instance", id, "age", time.Since(inst.created))

	return inst.session.Close()
}

// Instances returns the IDs of live instances.
func (h *Host) Instances() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.instances))
	for id := range h.instances {
		ids = append(ids, id)
	}

	return ids
}

func (h *Host) lookup(id string) (*instance, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, ok := h.instances[id]
	if !ok {
		return nil, unknown(id)
	}

	return inst, nil
}

func unknown(id string) error {
	return fmt.Errorf("%w: %q", errors.ErrUnknownInstance, id)
}

// Exec validates args and starts them on instance id.
func (h *Host) Exec(ctx context.Context, id string, args []any) error {
	inst, err := h.lookup(id)
	if err != nil {
		return err
	}

	list, err := argv.Build(args)
	if err == nil {
		err = inst.session.Start(ctx, list)
	}

	h.metrics.ObserveStart(errors.CodeOf(err).String())

	return err
}

// ReadLine reads the next line or the exit result from instance id.
// A positive timeout bounds the wait; on expiry the error matches
// context.DeadlineExceeded and the instance is unchanged.
func (h *Host) ReadLine(ctx context.Context, id string, timeout time.Duration) (subprocess.LineResult, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return subprocess.LineResult{}, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := inst.session.ReadLine(ctx)

	switch {
	case err != nil:
	case res.IsExited():
		h.metrics.ObserveExit(res.ExitCode)
	default:
		h.metrics.ObserveLine()
	}

	return res, err
}

// State reports the lifecycle state of instance id.
func (h *Host) State(id string) (subprocess.State, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return subprocess.StateIdle, err
	}

	return inst.session.State(), nil
}

// CloseAll frees every instance in parallel and rejects new ones.
func (h *Host) CloseAll(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	instances := h.instances
	h.instances = make(map[string]*instance)
	h.metrics.SetInstances(0)
	h.mu.Unlock()

	if len(instances) == 0 {
		return nil
	}

	h.log.Info("Closing all instances", "count", len(instances))

	eg, _ := errgroup.WithContext(ctx)

	for _, inst := range instances {
		eg.Go(func() error {
			if err := inst.session.Close(); err != nil {
				return fmt.Errorf("close instance %s: %w", inst.id, err)
			}

			return nil
		})
	}

	return eg.Wait()
}

func (h *Host) record(err error) {
	h.lastMu.Lock()
	defer h.lastMu.Unlock()

	h.lastErr = err
}

// LastError returns the outcome of the most recent download or
// extraction. Process operations report their outcome directly.
func (h *Host) LastError() error {
	h.lastMu.Lock()
	defer h.lastMu.Unlock()

	return h.lastErr
}

// SetUserAgent changes the User-Agent used for downloads.
func (h *Host) SetUserAgent(agent string) {
	h.fetcher.SetUserAgent(agent)
}

// DownloadFile downloads rawURL into path and returns the bytes written.
func (h *Host) DownloadFile(ctx context.Context, rawURL, path string) (int64, error) {
	n, err := h.fetcher.ToFile(ctx, rawURL, path)
	h.record(err)
	h.metrics.ObserveDownload("file", fetch.StatusOf(err).String(), n)

	return n, err
}

// DownloadBytes downloads rawURL into memory.
func (h *Host) DownloadBytes(ctx context.Context, rawURL string) ([]byte, error) {
	data, err := h.fetcher.Bytes(ctx, rawURL)
	h.record(err)
	h.metrics.ObserveDownload("bytes", fetch.StatusOf(err).String(), int64(len(data)))

	return data, err
}

// Unzip extracts archive into dest and returns the number of files written.
func (h *Host) Unzip(ctx context.Context, archive, dest string) (int, error) {
	n, err := h.extract.Extract(ctx, archive, dest)
	h.record(err)
	h.metrics.ObserveExtract(unzip.StatusOf(err).String())

	return n, err
}
