package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/node"
	"github.com/dmagro/ethlog/internal/stats"
)

// EndpointHealth holds health check results for one endpoint.
type EndpointHealth struct {
	Endpoint      string
	Status        string // UP, SLOW, DEGRADED, DOWN
	SuccessRate   float64
	Latency       stats.TailLatency
	BlockHeight   uint64
	BlockDelta    int
	Score         float64
	Excluded      bool
	ExcludeReason string
	Samples       int
}

// RankedEndpoints is a list of endpoints sorted by score, best first.
type RankedEndpoints []EndpointHealth

// Result wraps one endpoint's sample outcome with its position in the
// configured list, so collected results stay in configuration order
// rather than completion order.
type Result[T any] struct {
	Endpoint string
	Index    int
	Value    T
	Err      *ethval.Err
}

// ExecuteAll runs fn concurrently against a fresh Node per endpoint and
// collects per-endpoint results. It never fails fast: every endpoint is
// attempted and errors land in the corresponding Result. Context
// cancellation still short-circuits in-flight calls via gctx.
func ExecuteAll[T any](
	ctx context.Context,
	endpoints []ethval.EthEndpoint,
	fn func(ctx context.Context, n *node.Node) (T, *ethval.Err),
) []Result[T] {
	results := make([]Result[T], len(endpoints))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range endpoints {
		i, ep := i, ep
		g.Go(func() error {
			val, errk := fn(gctx, node.New(ep))
			mu.Lock()
			results[i] = Result[T]{Endpoint: ep.Identity(), Index: i, Value: val, Err: errk}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// QuickHealthCheck samples every endpoint's eth_blockNumber a few
// times concurrently and ranks the fleet on success rate, p95 latency,
// and block-height freshness. It bypasses the valve/gateway dispatch
// path on purpose: a diagnostic probe must not consume the quota or
// trip the locks the real traffic depends on, so each endpoint gets a
// fresh raw Node, exactly one probe tier below SafeNode.
func QuickHealthCheck(ctx context.Context, endpoints []ethval.EthEndpoint, samples int) (RankedEndpoints, error) {
	if samples <= 0 {
		samples = 5
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("gateway: no endpoints to check")
	}

	type probe struct {
		latencies []time.Duration
		heights   []uint64
		successes int
		total     int
	}

	results := ExecuteAll(ctx, endpoints, func(gctx context.Context, n *node.Node) (probe, *ethval.Err) {
		var p probe
		for i := 0; i < samples; i++ {
			select {
			case <-gctx.Done():
				return p, nil
			default:
			}
			resp, errk := n.GetBlockNumber(gctx)
			p.total++
			if errk == nil {
				p.successes++
				p.latencies = append(p.latencies, time.Duration(resp.Elapsed.Value())*time.Millisecond)
				p.heights = append(p.heights, resp.Data.Value())
			}
			if i < samples-1 {
				time.Sleep(50 * time.Millisecond)
			}
		}
		return p, nil
	})

	var maxHeight uint64
	for _, r := range results {
		for _, h := range r.Value.heights {
			if h > maxHeight {
				maxHeight = h
			}
		}
	}

	ranked := make(RankedEndpoints, 0, len(results))
	for _, r := range results {
		p := r.Value
		health := EndpointHealth{Endpoint: r.Endpoint, Samples: p.total}

		if p.total == 0 {
			health.Status = "DOWN"
			health.Excluded = true
			health.ExcludeReason = "no samples collected"
			ranked = append(ranked, health)
			continue
		}

		health.SuccessRate = float64(p.successes) / float64(p.total) * 100
		health.Latency = stats.CalculateTailLatency(p.latencies)
		if len(p.heights) > 0 {
			health.BlockHeight = p.heights[len(p.heights)-1]
			health.BlockDelta = int(maxHeight - health.BlockHeight)
		}

		switch {
		case health.SuccessRate < 50:
			health.Status = "DOWN"
		case health.SuccessRate < 90:
			health.Status = "DEGRADED"
		case health.Latency.P95 > 500*time.Millisecond:
			health.Status = "SLOW"
		default:
			health.Status = "UP"
		}

		health.Score = calculateScore(health)

		if health.SuccessRate < 80 {
			health.Excluded = true
			health.ExcludeReason = fmt.Sprintf("success rate %.1f%% below threshold", health.SuccessRate)
		} else if health.BlockDelta > 5 {
			health.Excluded = true
			health.ExcludeReason = fmt.Sprintf("%d blocks behind", health.BlockDelta)
		}

		ranked = append(ranked, health)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Endpoint < ranked[j].Endpoint
	})

	return ranked, nil
}

// Best returns the best non-excluded endpoint.
func (re RankedEndpoints) Best() (EndpointHealth, error) {
	for _, e := range re {
		if !e.Excluded {
			return e, nil
		}
	}
	if len(re) > 0 {
		return re[0], fmt.Errorf("all endpoints degraded, using least-bad: %s", re[0].Endpoint)
	}
	return EndpointHealth{}, fmt.Errorf("no endpoints available")
}

// calculateScore weighs success rate (half), p95 latency (under a
// second is good), and block freshness (within 10 blocks of the
// fleet's best) into a single 0..1 ranking score.
func calculateScore(h EndpointHealth) float64 {
	successScore := h.SuccessRate / 100.0

	latencyMs := float64(h.Latency.P95.Milliseconds())
	latencyScore := 1.0 - (latencyMs / 1000.0)
	if latencyScore < 0 {
		latencyScore = 0
	}

	freshnessScore := 1.0 - (float64(h.BlockDelta) / 10.0)
	if freshnessScore < 0 {
		freshnessScore = 0
	}

	return (successScore * 0.5) + (latencyScore * 0.3) + (freshnessScore * 0.2)
}
