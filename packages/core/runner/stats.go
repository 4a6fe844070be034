package runner

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

// Latencies are recorded in microseconds from 1us to 60s with 3 significant digits
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

// Stats aggregates outcomes across a run. It is safe for concurrent use.
type Stats struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	total     int
	succeeded int
	errors    map[string]int
	statuses  map[int]int
}

func NewStats() *Stats {
	return &Stats{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs),
		errors:    make(map[string]int),
		statuses:  make(map[int]int),
	}
}

// Record adds one call's outcome.
func (s *Stats) Record(resp *http.Response, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if err != nil {
		s.errors[errorBucket(err)]++
		return
	}

	s.succeeded++
	s.statuses[resp.Status]++
	us := resp.Duration.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	_ = s.histogram.RecordValue(us)
}

// CancelledBucket counts calls that never reached the executor or were
// stopped by the run's context outside of it.
const CancelledBucket = "Cancelled"

func errorBucket(err error) string {
	if kind, ok := http.KindOf(err); ok {
		return kind.String()
	}
	return CancelledBucket
}

// Summary is a point-in-time copy of Stats.
type Summary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Errors    map[string]int `json:"errors,omitempty"`
	Statuses  map[int]int    `json:"statuses,omitempty"`
	Latency   LatencySummary `json:"latency"`
}

type LatencySummary struct {
	Min  time.Duration `json:"min"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P99  time.Duration `json:"p99"`
	Max  time.Duration `json:"max"`
}

func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Total:     s.total,
		Succeeded: s.succeeded,
		Failed:    s.total - s.succeeded,
		Errors:    make(map[string]int, len(s.errors)),
		Statuses:  make(map[int]int, len(s.statuses)),
	}
	for bucket, n := range s.errors {
		sum.Errors[bucket] = n
	}
	for status, n := range s.statuses {
		sum.Statuses[status] = n
	}

	if s.histogram.TotalCount() > 0 {
		sum.Latency = LatencySummary{
			Min:  usToDuration(s.histogram.Min()),
			Mean: time.Duration(s.histogram.Mean() * float64(time.Microsecond)),
			P50:  usToDuration(s.histogram.ValueAtQuantile(50)),
			P90:  usToDuration(s.histogram.ValueAtQuantile(90)),
			P99:  usToDuration(s.histogram.ValueAtQuantile(99)),
			Max:  usToDuration(s.histogram.Max()),
		}
	}
	return sum
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
