package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "procshim"

// Recorder holds the host's metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	instances     prometheus.Gauge
	spawns        *prometheus.CounterVec
	lines         prometheus.Counter
	exits         *prometheus.CounterVec
	downloads     *prometheus.CounterVec
	downloadBytes prometheus.Counter
	extractions   *prometheus.CounterVec
}

// New creates a Recorder with its own registry. Go runtime and process
// collectors are registered alongside the procshim metrics.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		instances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "instances",
			Help:      "Live process instances",
		}),
		spawns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "Process start attempts by status",
		}, []string{"status"}),
		lines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "lines_total",
			Help:      "Complete output lines returned",
		}),
		exits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "exits_total",
			Help:      "Reaped processes by exit code",
		}, []string{"code"}),
		downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "downloads_total",
			Help:      "Downloads by status",
		}, []string{"kind", "status"}),
		downloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "bytes_total",
			Help:      "Bytes received by successful downloads",
		}),
		extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unzip",
			Name:      "extractions_total",
			Help:      "Archive extractions by status",
		}, []string{"status"}),
	}
}

// Registry returns the registry backing r.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}

	return r.registry
}

// Handler serves r's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// SetInstances records the number of live instances.
func (r *Recorder) SetInstances(n int) {
	if r == nil {
		return
	}

	r.instances.Set(float64(n))
}

// ObserveStart records a start attempt with its status name.
func (r *Recorder) ObserveStart(status string) {
	if r == nil {
		return
	}

	r.spawns.WithLabelValues(status).Inc()
}

// ObserveLine records one returned line.
func (r *Recorder) ObserveLine() {
	if r == nil {
		return
	}

	r.lines.Inc()
}

// ObserveExit records a reaped process. Signal deaths report -1.
func (r *Recorder) ObserveExit(code int) {
	if r == nil {
		return
	}

	r.exits.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveDownload records a download of the given kind ("file", "string"
// or "bytes") with its status name and size.
func (r *Recorder) ObserveDownload(kind, status string, n int64) {
	if r == nil {
		return
	}

	r.downloads.WithLabelValues(kind, status).Inc()

	if n > 0 {
		r.downloadBytes.Add(float64(n))
	}
}

// ObserveExtract records an extraction with its status name.
func (r *Recorder) ObserveExtract(status string) {
	if r == nil {
		return
	}

	r.extractions.WithLabelValues(status).Inc()
}
