package host

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/procshim-go/internal/config"
	"github.com/wagiedev/procshim-go/internal/errors"
	"github.com/wagiedev/procshim-go/internal/metrics"
	"github.com/wagiedev/procshim-go/internal/subprocess"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix shell utilities")
	}
}

func newTestHost(t *testing.T, hostOpts config.HostOptions) *Host {
	t.Helper()

	h := New(&Config{
		Session: config.Options{DiscardStderr: true},
		Host:    hostOpts,
	})
	t.Cleanup(func() { _ = h.CloseAll(context.Background()) })

	return h
}

func TestHost_ExecAndReadLines(t *testing.T) {
	skipOnWindows(t)

	h := newTestHost(t, config.HostOptions{})
	ctx := context.Background()

	id, err := h.NewInstance()
	require.NoError(t, err)
	require.Len(t, id, 26)

	require.NoError(t, h.Exec(ctx, id, []any{"printf", "a\\nb\\nc"}))

	state, err := h.State(id)
	require.NoError(t, err)
	require.Equal(t, subprocess.StateRunning, state)

	var got []string

	for {
		res, err := h.ReadLine(ctx, id, 0)
		require.NoError(t, err)

		if res.IsExited() {
			require.Zero(t, res.ExitCode)

			break
		}

		got = append(got, res.Text())
	}

	require.Equal(t, []string{"a", "b", "c"}, got)

	_, err = h.ReadLine(ctx, id, 0)
	require.ErrorIs(t, err, errors.ErrNoActiveProcess)
}

func TestHost_ExecRejectsNonStringArgument(t *testing.T) {
	h := newTestHost(t, config.HostOptions{})

	id, err := h.NewInstance()
	require.NoError(t, err)

	err = h.Exec(context.Background(), id, []any{"cmd", float64(42)})
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	require.Equal(t, errors.CodeInvalidArgument, errors.CodeOf(err))

	err = h.Exec(context.Background(), id, nil)
	require.ErrorIs(t, err, errors.ErrNoArguments)

	state, err := h.State(id)
	require.NoError(t, err)
	require.Equal(t, subprocess.StateIdle, state)
}

func TestHost_InstancesAreIndependent(t *testing.T) {
	skipOnWindows(t)

	h := newTestHost(t, config.HostOptions{})
	ctx := context.Background()

	first, err := h.NewInstance()
	require.NoError(t, err)

	second, err := h.NewInstance()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, h.Exec(ctx, first, []any{"echo", "one"}))
	require.NoError(t, h.Exec(ctx, second, []any{"echo", "two"}))

	res, err := h.ReadLine(ctx, second, 0)
	require.NoError(t, err)
	require.Equal(t, "two", res.Text())

	res, err = h.ReadLine(ctx, first, 0)
	require.NoError(t, err)
	require.Equal(t, "one", res.Text())

	require.ElementsMatch(t, []string{first, second}, h.Instances())
}

func TestHost_ReadLineTimeout(t *testing.T) {
	skipOnWindows(t)

	h := newTestHost(t, config.HostOptions{})
	ctx := context.Background()

	id, err := h.NewInstance()
	require.NoError(t, err)
	require.NoError(t, h.Exec(ctx, id, []any{"sh", "-c", "sleep 0.4; echo done"}))

	_, err = h.ReadLine(ctx, id, 20*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	res, err := h.ReadLine(ctx, id, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "done", res.Text())
}

func TestHost_UnknownInstance(t *testing.T) {
	h := newTestHost(t, config.HostOptions{})

	err := h.Exec(context.Background(), "nope", []any{"true"})
	require.ErrorIs(t, err, errors.ErrUnknownInstance)
	require.Equal(t, errors.CodeUnknownInstance, errors.CodeOf(err))

	require.ErrorIs(t, h.FreeInstance("nope"), errors.ErrUnknownInstance)

	_, err = h.State("nope")
	require.ErrorIs(t, err, errors.ErrUnknownInstance)
}

func TestHost_InstanceLimit(t *testing.T) {
	h := newTestHost(t, config.HostOptions{MaxInstances: 2})

	_, err := h.NewInstance()
	require.NoError(t, err)

	id, err := h.NewInstance()
	require.NoError(t, err)

	_, err = h.NewInstance()
	require.ErrorIs(t, err, ErrInstanceLimit)

	require.NoError(t, h.FreeInstance(id))

	_, err = h.NewInstance()
	require.NoError(t, err)
}

func TestHost_FreeKillsRunningChild(t *testing.T) {
	skipOnWindows(t)

	h := newTestHost(t, config.HostOptions{})

	id, err := h.NewInstance()
	require.NoError(t, err)
	require.NoError(t, h.Exec(context.Background(), id, []any{"sleep", "30"}))

	start := time.Now()
	require.NoError(t, h.FreeInstance(id))
	require.Less(t, time.Since(start), 5*time.Second)

	_, err = h.State(id)
	require.ErrorIs(t, err, errors.ErrUnknownInstance)
}

func TestHost_CloseAll(t *testing.T) {
	skipOnWindows(t)

	h := newTestHost(t, config.HostOptions{})

	for range 3 {
		id, err := h.NewInstance()
		require.NoError(t, err)
		require.NoError(t, h.Exec(context.Background(), id, []any{"sleep", "30"}))
	}

	start := time.Now()
	require.NoError(t, h.CloseAll(context.Background()))
	require.Less(t, time.Since(start), 5*time.Second)
	require.Empty(t, h.Instances())

	_, err := h.NewInstance()
	require.ErrorIs(t, err, errors.ErrSessionClosed)
}

func TestHost_OptionsNormalized(t *testing.T) {
	h := New(nil)

	opts := h.Options()
	require.Equal(t, config.DefaultServerName, opts.ServerName)
	require.Equal(t, config.DefaultMaxInstances, opts.MaxInstances)
	require.Equal(t, config.DefaultHTTPTimeout, opts.HTTPTimeout)
}

func TestHost_RecordsMetrics(t *testing.T) {
	skipOnWindows(t)

	recorder := metrics.New()
	h := New(&Config{
		Session: config.Options{DiscardStderr: true},
		Metrics: recorder,
	})
	t.Cleanup(func() { _ = h.CloseAll(context.Background()) })

	ctx := context.Background()

	id, err := h.NewInstance()
	require.NoError(t, err)

	require.ErrorIs(t, h.Exec(ctx, id, []any{"printf", 1}), errors.ErrInvalidArgument)
	require.NoError(t, h.Exec(ctx, id, []any{"printf", "a\\nb\\nc"}))

	for {
		res, err := h.ReadLine(ctx, id, 0)
		require.NoError(t, err)

		if res.IsExited() {
			break
		}
	}

	expected := `
# HELP procshim_host_instances Live process instances
# TYPE procshim_host_instances gauge
procshim_host_instances 1
# HELP procshim_process_exits_total Reaped processes by exit code
# TYPE procshim_process_exits_total counter
procshim_process_exits_total{code="0"} 1
# HELP procshim_process_lines_total Complete output lines returned
# TYPE procshim_process_lines_total counter
procshim_process_lines_total 3
# HELP procshim_process_starts_total Process start attempts by status
# TYPE procshim_process_starts_total counter
procshim_process_starts_total{status="invalid_argument"} 1
procshim_process_starts_total{status="ok"} 1
`

	require.NoError(t, testutil.GatherAndCompare(recorder.Registry(), strings.NewReader(expected),
		"procshim_host_instances",
		"procshim_process_exits_total",
		"procshim_process_lines_total",
		"procshim_process_starts_total",
	))

	require.NoError(t, h.FreeInstance(id))
	require.NoError(t, testutil.GatherAndCompare(recorder.Registry(), strings.NewReader(`
# HELP procshim_host_instances Live process instances
# TYPE procshim_host_instances gauge
procshim_host_instances 0
`), "procshim_host_instances"))
}

func TestHost_FreeAndCloseAllWithStdoutClosedChild(t *testing.T) {
	skipOnWindows(t)

	h := newTestHost(t, config.HostOptions{})
	ctx := context.Background()

	script := "echo hi; exec >&-; exec sleep 30"

	first, err := h.NewInstance()
	require.NoError(t, err)
	require.NoError(t, h.Exec(ctx, first, []any{"sh", "-c", script}))

	second, err := h.NewInstance()
	require.NoError(t, err)
	require.NoError(t, h.Exec(ctx, second, []any{"sh", "-c", script}))

	for _, id := range []string{first, second} {
		res, err := h.ReadLine(ctx, id, 5*time.Second)
		require.NoError(t, err)
		require.Equal(t, "hi", res.Text())

		_, err = h.ReadLine(ctx, id, 50*time.Millisecond)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		state, err := h.State(id)
		require.NoError(t, err)
		require.Equal(t, subprocess.StateDraining, state)
	}

	start := time.Now()
	require.NoError(t, h.FreeInstance(first))
	require.NoError(t, h.CloseAll(ctx))
	require.Less(t, time.Since(start), 10*time.Second)
	require.Empty(t, h.Instances())
}
