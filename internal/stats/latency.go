// Package stats computes tail-latency summaries of node responses.
// P95/P99 matter more than averages for fleet endpoints: a public node
// that answers fast 9 times and hangs the 10th looks fine on average
// and is still the node that stalls a log stream.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/dmagro/ethlog/internal/ethval"
)

// TailLatency holds p50, p95, p99, and max latency values.
type TailLatency struct {
	P50, P95, P99, Max time.Duration
}

// CalculateTailLatency computes tail percentiles from samples using
// the nearest-rank method. With small sample counts P95/P99 naturally
// equal Max, which is the honest answer, not an artifact.
func CalculateTailLatency(latencies []time.Duration) TailLatency {
	if len(latencies) == 0 {
		return TailLatency{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return TailLatency{
		P50: Percentile(sorted, 0.50),
		P95: Percentile(sorted, 0.95),
		P99: Percentile(sorted, 0.99),
		Max: sorted[len(sorted)-1],
	}
}

// FromTimespans converts the millisecond elapsed values carried in
// NodeResponse instrumentation into durations and summarizes them.
func FromTimespans(spans []ethval.Timespan) TailLatency {
	latencies := make([]time.Duration, len(spans))
	for i, s := range spans {
		latencies[i] = time.Duration(s.Value()) * time.Millisecond
	}
	return CalculateTailLatency(latencies)
}

// Percentile returns the value at percentile p (as a decimal, e.g.
// 0.95) from a pre-sorted ascending slice, nearest-rank:
// index = ceil(n*p) - 1, clamped to [0, n-1].
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
