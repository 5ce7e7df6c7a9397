package main

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks load test counters.
type Stats struct {
	Rolls    int64
	Received int64
	Wins     int64
	Errors   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (s *Stats) observe(d time.Duration) {
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

// Summary is the exported result of a run.
type Summary struct {
	Rolls      int64         `json:"rolls"`
	Received   int64         `json:"received"`
	Wins       int64         `json:"wins"`
	Errors     int64         `json:"errors"`
	Throughput float64       `json:"rolls_per_second"`
	Samples    int           `json:"latency_samples"`
	MinLatency time.Duration `json:"min_latency_ns"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
	MaxLatency time.Duration `json:"max_latency_ns"`
}

// Summary aggregates the counters over a run of the given length.
func (s *Stats) Summary(elapsed time.Duration) Summary {
	out := Summary{
		Rolls:    atomic.LoadInt64(&s.Rolls),
		Received: atomic.LoadInt64(&s.Received),
		Wins:     atomic.LoadInt64(&s.Wins),
		Errors:   atomic.LoadInt64(&s.Errors),
	}
	if elapsed > 0 {
		out.Throughput = float64(out.Rolls) / elapsed.Seconds()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out.Samples = len(s.latencies)
	if out.Samples == 0 {
		return out
	}
	var total time.Duration
	out.MinLatency, out.MaxLatency = s.latencies[0], s.latencies[0]
	for _, l := range s.latencies {
		total += l
		out.MinLatency = min(out.MinLatency, l)
		out.MaxLatency = max(out.MaxLatency, l)
	}
	out.AvgLatency = total / time.Duration(out.Samples)
	return out
}
