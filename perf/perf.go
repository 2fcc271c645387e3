// Package perf collects per-stage latency samples from the detection pipeline
// and summarizes them. A Recorder is attached to a detector when profiling is
// wanted and costs nothing when absent.
package perf

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
)

// Stage identifies one timed section of the pipeline.
type Stage string

// The pipeline stages a detect call passes through.
const (
	StagePreprocess Stage = "preprocess"
	StageInference  Stage = "inference"
	StageDecode     Stage = "decode"
)

// Recorder accumulates duration samples per stage. All methods are safe on a
// nil Recorder, which records nothing.
type Recorder struct {
	clock clock.Clock

	mu      sync.Mutex
	samples map[Stage][]float64
}

// NewRecorder returns a recorder on the wall clock.
func NewRecorder() *Recorder {
	return NewRecorderWithClock(clock.New())
}

// NewRecorderWithClock returns a recorder on the given clock.
func NewRecorderWithClock(c clock.Clock) *Recorder {
	return &Recorder{clock: c, samples: map[Stage][]float64{}}
}

// Time starts timing a stage and returns the function that stops the timer
// and records the elapsed duration.
func (r *Recorder) Time(stage Stage) func() {
	if r == nil {
		return func() {}
	}
	start := r.clock.Now()
	return func() {
		r.Observe(stage, r.clock.Since(start))
	}
}

// Observe records one duration sample for a stage.
func (r *Recorder) Observe(stage Stage, d time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[stage] = append(r.samples[stage], float64(d)/float64(time.Millisecond))
}

// Reset discards all recorded samples.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = map[Stage][]float64{}
}

// Stats summarizes the samples of one stage, in milliseconds.
type Stats struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	P95   float64
}

// Stats returns the summary for a stage and whether any samples exist for it.
func (r *Recorder) Stats(stage Stage) (Stats, bool) {
	if r == nil {
		return Stats{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	samples := r.samples[stage]
	if len(samples) == 0 {
		return Stats{}, false
	}

	// The stats helpers only fail on empty input, which is excluded above.
	mean, _ := stats.Mean(samples)
	min, _ := stats.Min(samples)
	max, _ := stats.Max(samples)
	p95, _ := stats.Percentile(samples, 95)
	return Stats{
		Count: len(samples),
		Mean:  mean,
		Min:   min,
		Max:   max,
		P95:   p95,
	}, true
}
