package obs

import (
	"sort"
	"strings"
	"sync"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters, histograms and
// gauges. Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
	Gauge(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}
func (NopMeter) Gauge(name string, value float64, labels ...Label)     {}

// Recorder keeps measurements in memory: counters are summed, gauges keep
// the last value and histograms keep count and sum. Series are keyed by
// name plus sorted labels, e.g. `reqs{code="200"}`.
type Recorder struct {
	mu     sync.Mutex
	values map[string]float64
}

func NewRecorder() *Recorder {
	return &Recorder{values: make(map[string]float64)}
}

func (r *Recorder) Counter(name string, value float64, labels ...Label) {
	r.mu.Lock()
	r.values[SeriesKey(name, labels...)] += value
	r.mu.Unlock()
}

func (r *Recorder) Gauge(name string, value float64, labels ...Label) {
	r.mu.Lock()
	r.values[SeriesKey(name, labels...)] = value
	r.mu.Unlock()
}

func (r *Recorder) Histogram(name string, value float64, labels ...Label) {
	r.mu.Lock()
	r.values[SeriesKey(name+"_count", labels...)]++
	r.values[SeriesKey(name+"_sum", labels...)] += value
	r.mu.Unlock()
}

// Value returns the current value of a series, 0 if it was never recorded.
func (r *Recorder) Value(name string, labels ...Label) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[SeriesKey(name, labels...)]
}

// Snapshot copies all series.
func (r *Recorder) Snapshot() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// SeriesKey renders name and labels the way Recorder keys its series.
func SeriesKey(name string, labels ...Label) string {
	if len(labels) == 0 {
		return name
	}
	ls := append([]Label(nil), labels...)
	sort.Slice(ls, func(i, j int) bool { return ls[i].Key < ls[j].Key })
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, l := range ls {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.Key)
		b.WriteString(`="`)
		b.WriteString(l.Value)
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}
