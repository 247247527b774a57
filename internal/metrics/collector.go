package metrics

import (
	"time"

	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/stats"
)

// EndpointStatus represents the health state of an endpoint.
type EndpointStatus string

const (
	StatusUp       EndpointStatus = "UP"
	StatusSlow     EndpointStatus = "SLOW"
	StatusDegraded EndpointStatus = "DEGRADED"
	StatusDown     EndpointStatus = "DOWN"
)

// CallSample records one call outcome against an endpoint: what was
// asked, whether it succeeded, the failure kind otherwise, and the
// instrumentation the node measured.
type CallSample struct {
	Endpoint string
	Method   string
	Success  bool
	Kind     ethval.ErrKind
	Elapsed  ethval.Timespan
	Size     ethval.DataSize
	Height   uint64 // latest head, when the call reported one
}

// EndpointMetrics holds calculated metrics for a single endpoint.
type EndpointMetrics struct {
	Endpoint    string
	Status      EndpointStatus
	Latency     stats.TailLatency
	LatencyAvg  time.Duration
	SuccessRate float64
	TotalCalls  int
	Failures    int

	// Failure breakdown by kind.
	Overloads    int // implicit + explicit overloading
	ServerErrors int // BAD_SERVER
	ParseErrors  int // BAD_RESPONSE
	BadRequests  int // BAD_REQUEST
	Rejections   int // quota/unsafe-block valve rejections, no HTTP issued
	OtherErrors  int

	// From the most recent successful call that carried one.
	LatestBlock uint64

	Samples []CallSample
}

// Collector aggregates call samples and calculates per-endpoint metrics.
type Collector struct {
	samples map[string][]CallSample
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{samples: make(map[string][]CallSample)}
}

// Add records one call sample.
func (c *Collector) Add(sample CallSample) {
	c.samples[sample.Endpoint] = append(c.samples[sample.Endpoint], sample)
}

// Calculate computes metrics for all endpoints seen so far.
func (c *Collector) Calculate() map[string]*EndpointMetrics {
	metrics := make(map[string]*EndpointMetrics, len(c.samples))
	for endpoint, samples := range c.samples {
		metrics[endpoint] = calculateEndpointMetrics(endpoint, samples)
	}
	return metrics
}

func calculateEndpointMetrics(endpoint string, samples []CallSample) *EndpointMetrics {
	m := &EndpointMetrics{Endpoint: endpoint, Samples: samples}

	if len(samples) == 0 {
		m.Status = StatusDown
		return m
	}

	var latencies []time.Duration
	var successCount int

	for _, s := range samples {
		m.TotalCalls++

		if s.Success {
			successCount++
			latencies = append(latencies, time.Duration(s.Elapsed.Value())*time.Millisecond)
			if s.Height > 0 {
				m.LatestBlock = s.Height
			}
			continue
		}

		m.Failures++
		switch s.Kind {
		case ethval.EthImplicitOverloading, ethval.EthExplicitOverloading:
			m.Overloads++
		case ethval.EthBadServer:
			m.ServerErrors++
		case ethval.EthBadResponse:
			m.ParseErrors++
		case ethval.EthBadRequest:
			m.BadRequests++
		case ethval.NodeRequestQuota, ethval.NodeUnsafeBlock:
			m.Rejections++
		default:
			m.OtherErrors++
		}
	}

	m.SuccessRate = float64(successCount) / float64(m.TotalCalls) * 100

	if len(latencies) > 0 {
		m.Latency = stats.CalculateTailLatency(latencies)
		m.LatencyAvg = avgDuration(latencies)
	}

	m.Status = determineStatus(m.SuccessRate, m.Latency.P95)
	return m
}

// determineStatus categorizes endpoint health: success rate first,
// then p95 latency.
func determineStatus(successRate float64, p95Latency time.Duration) EndpointStatus {
	const (
		downThreshold     = 50.0
		degradedThreshold = 90.0
		slowLatency       = 500 * time.Millisecond
	)

	if successRate < downThreshold {
		return StatusDown
	}
	if successRate < degradedThreshold {
		return StatusDegraded
	}
	if p95Latency > slowLatency {
		return StatusSlow
	}
	return StatusUp
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
