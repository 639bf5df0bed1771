package subprocess

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/procshim-go/internal/argv"
	"github.com/wagiedev/procshim-go/internal/config"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix shell utilities")
	}
}

func mustArgs(t *testing.T, values ...string) argv.List {
	t.Helper()

	list, err := argv.FromStrings(values)
	require.NoError(t, err)

	return list
}

func newTestSession(t *testing.T, opts *config.Options) *Session {
	t.Helper()

	if opts == nil {
		opts = &config.Options{}
	}

	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.DiscardStderr = true

	s := New(opts)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// readAll reads until the exit result and returns the lines and exit code.
func readAll(t *testing.T, s *Session) ([]string, int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var lines []string

	for {
		res, err := s.ReadLine(ctx)
		require.NoError(t, err)

		if res.IsExited() {
			return lines, res.ExitCode
		}

		lines = append(lines, res.Text())
	}
}

// fakeHandle is a scripted child process.
type fakeHandle struct {
	stdout      io.Reader
	code        int
	onTerminate func()
	waits      atomic.Int32
	terminates atomic.Int32
	kills      atomic.Int32
}

func (h *fakeHandle) Stdout() io.Reader { return h.stdout }

func (h *fakeHandle) Pid() int { return 4242 }

func (h *fakeHandle) Wait() (int, error) {
	h.waits.Add(1)

	return h.code, nil
}

func (h *fakeHandle) Terminate() error {
	h.terminates.Add(1)

	if h.onTerminate != nil {
		h.onTerminate()
	}

	return nil
}

func (h *fakeHandle) Kill() error {
	h.kills.Add(1)

	return nil
}

// fakeSpawner records spawns and hands out prepared handles.
type fakeSpawner struct {
	handle *fakeHandle
	err    error
	argv   []string
	stdio  config.Stdio
}

func (f *fakeSpawner) Spawn(_ context.Context, argv []string, stdio config.Stdio) (config.Handle, error) {
	f.argv = argv
	f.stdio = stdio

	if f.err != nil {
		return nil, f.err
	}

	return f.handle, nil
}

// brokenReader yields data and then a non-EOF error.
type brokenReader struct {
	data string
	err  error
	sent bool
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true

		return copy(p, r.data), nil
	}

	return 0, r.err
}

var errPipeBroken = errors.New("pipe broken")

func newBrokenReader(data string) *brokenReader {
	return &brokenReader{data: data, err: errPipeBroken}
}

func joinLines(lines ...string) string {
	return strings.Join(lines, "\n")
}
