// Package stats summarizes request latencies recorded while running a suite.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// histogramMin and histogramMax bound recordable values in microseconds
	histogramMin     = 1
	histogramMax     = 3600000000 // 1 hour
	histogramSigFigs = 3
)

// Summary is a snapshot of recorded latencies.
type Summary struct {
	Count  int64         `json:"count" yaml:"count"`
	Failed int64         `json:"failed" yaml:"failed"`
	Min    time.Duration `json:"min" yaml:"min"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	P50    time.Duration `json:"p50" yaml:"p50"`
	P90    time.Duration `json:"p90" yaml:"p90"`
	P99    time.Duration `json:"p99" yaml:"p99"`
	Max    time.Duration `json:"max" yaml:"max"`
}

// Recorder collects latencies overall and per request name.
// Recorder is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	overall *hdrhistogram.Histogram
	named   map[string]*hdrhistogram.Histogram
	failed  map[string]int64

	totalFailed int64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		overall: newHistogram(),
		named:   make(map[string]*hdrhistogram.Histogram),
		failed:  make(map[string]int64),
	}
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
}

// Record adds one exchange. The latency of a failed exchange is recorded
// as well and the failure is counted separately.
func (r *Recorder) Record(name string, latency time.Duration, failed bool) {
	micros := latency.Microseconds()

	// Clamp to valid range
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_ = r.overall.RecordValue(micros)

	hist, ok := r.named[name]
	if !ok {
		hist = newHistogram()
		r.named[name] = hist
	}
	_ = hist.RecordValue(micros)

	if failed {
		r.failed[name]++
		r.totalFailed++
	}
}

// Overall summarizes every recorded exchange.
func (r *Recorder) Overall() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return summarize(r.overall, r.totalFailed)
}

// Named summarizes the exchanges recorded under name.
func (r *Recorder) Named(name string) (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hist, ok := r.named[name]
	if !ok {
		return Summary{}, false
	}
	return summarize(hist, r.failed[name]), true
}

// Names returns the recorded request names in sorted order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.named))
	for name := range r.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func summarize(hist *hdrhistogram.Histogram, failed int64) Summary {
	if hist.TotalCount() == 0 {
		return Summary{}
	}

	micros := func(v int64) time.Duration {
		return time.Duration(v) * time.Microsecond
	}

	return Summary{
		Count:  hist.TotalCount(),
		Failed: failed,
		Min:    micros(hist.Min()),
		Mean:   time.Duration(hist.Mean() * float64(time.Microsecond)),
		P50:    micros(hist.ValueAtQuantile(50)),
		P90:    micros(hist.ValueAtQuantile(90)),
		P99:    micros(hist.ValueAtQuantile(99)),
		Max:    micros(hist.Max()),
	}
}
