// Package metrics is a small instrumentation surface for the inference
// engine. The default recorder discards everything; the Prometheus
// recorder is installed at startup when METRICS_PROMETHEUS is set.
package metrics

import (
	"sync"
	"time"
)

// Recorder is the set of measurements taken by the service layer.
type Recorder interface {
	ObserveCompile(success bool, seconds float64, cliques int)
	ObservePropagation(success bool, seconds float64)
	IncVerdict(verdict string)
	IncCacheLookup(hit bool)
}

type noopRecorder struct{}

func (noopRecorder) ObserveCompile(bool, float64, int) {}
func (noopRecorder) ObservePropagation(bool, float64)  {}
func (noopRecorder) IncVerdict(string)                 {}
func (noopRecorder) IncCacheLookup(bool)               {}

var (
	recMu    sync.RWMutex
	recorder Recorder = noopRecorder{}
)

// Default returns the installed recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder. A nil recorder restores the no-op.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = noopRecorder{}
	}
	recorder = r
}

// TimeCompile starts timing a compilation. Call the returned func once it
// finishes.
func TimeCompile() func(success bool, cliques int) {
	start := time.Now()
	return func(success bool, cliques int) {
		Default().ObserveCompile(success, time.Since(start).Seconds(), cliques)
	}
}

// TimePropagation starts timing one propagation.
func TimePropagation() func(success bool) {
	start := time.Now()
	return func(success bool) {
		Default().ObservePropagation(success, time.Since(start).Seconds())
	}
}
