// Package metrics records host activity as Prometheus metrics.
//
// A nil *Recorder is valid and records nothing, so collaborators can
// take one unconditionally.
package metrics
