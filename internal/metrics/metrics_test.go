package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.SetInstances(3)
	r.ObserveStart("ok")
	r.ObserveStart("ok")
	r.ObserveStart("spawn_failed")
	r.ObserveLine()
	r.ObserveExit(0)
	r.ObserveExit(-1)
	r.ObserveDownload("file", "ok", 128)
	r.ObserveDownload("bytes", "transport", 0)
	r.ObserveExtract("unsafe_path")

	require.InDelta(t, 3, testutil.ToFloat64(r.instances), 0)
	require.InDelta(t, 2, testutil.ToFloat64(r.spawns.WithLabelValues("ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.spawns.WithLabelValues("spawn_failed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.lines), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.exits.WithLabelValues("-1")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.downloads.WithLabelValues("bytes", "transport")), 0)
	require.InDelta(t, 128, testutil.ToFloat64(r.downloadBytes), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.extractions.WithLabelValues("unsafe_path")), 0)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	require.NotPanics(t, func() {
		r.SetInstances(1)
		r.ObserveStart("ok")
		r.ObserveLine()
		r.ObserveExit(2)
		r.ObserveDownload("file", "ok", 10)
		r.ObserveExtract("ok")
	})
	require.Nil(t, r.Registry())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveLine()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "procshim_process_lines_total 1")
	require.Contains(t, string(body), "go_goroutines")
}
