// Package gateway implements fan-in dispatch across a tier of
// SafeNodes, with round-robin node selection, per-call failover within
// the tier, and cascading fallback to a lower-tier Gateway.
package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/logx"
	"github.com/dmagro/ethlog/internal/safenode"
)

// Backend is the capability set a Gateway dispatches over. SafeNode
// satisfies it directly; Gateway itself also satisfies it, which is
// what makes tier cascading (a Gateway whose lower layer is another
// Gateway) possible without a separate recursive type.
type Backend interface {
	GetBlockNumber(ctx context.Context) (ethval.NodeResponse[ethval.UInt64], *ethval.Err)
	GetBlockByNumber(ctx context.Context, blockNum ethval.UInt64) (ethval.NodeResponse[ethval.Block], *ethval.Err)
	GetTransactionByHash(ctx context.Context, hash ethval.ByteData32) (ethval.NodeResponse[ethval.Transaction], *ethval.Err)
	GetLogs(ctx context.Context, filter ethval.LogFilter) (ethval.NodeResponse[ethval.LogSegment], *ethval.Err)
	Call(ctx context.Context, method string, params ...interface{}) (ethval.NodeResponse[json.RawMessage], *ethval.Err)
}

var _ Backend = (*safenode.SafeNode)(nil)
var _ Backend = (*Gateway)(nil)

// Gateway fans a tier of SafeNodes in via round robin, with per-call
// failover across the tier and an optional cascade to a lower tier.
type Gateway struct {
	nodes      []*safenode.SafeNode
	lowerLayer *Gateway
	logger     logx.Logger

	mu     sync.Mutex
	cursor int
}

// New builds a Gateway over nodes, optionally cascading to lowerLayer
// when every node in this tier fails (pass nil for the top/only tier
// or the bottom tier).
func New(nodes []*safenode.SafeNode, lowerLayer *Gateway, logger logx.Logger) *Gateway {
	return &Gateway{nodes: nodes, lowerLayer: lowerLayer, logger: logger}
}

// Nodes returns the tier's SafeNodes in configuration order, for
// read-only diagnostics (health sampling, consistency checks) that run
// outside the round-robin dispatch path.
func (g *Gateway) Nodes() []*safenode.SafeNode {
	out := make([]*safenode.SafeNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// next returns the round-robin order starting at the shared cursor,
// advancing it exactly once per call regardless of how many nodes are
// tried in the resulting sequence.
func (g *Gateway) next() []*safenode.SafeNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.nodes)
	if n == 0 {
		return nil
	}
	start := g.cursor
	g.cursor = (g.cursor + 1) % n
	order := make([]*safenode.SafeNode, n)
	for i := 0; i < n; i++ {
		order[i] = g.nodes[(start+i)%n]
	}
	return order
}

func (g *Gateway) GetBlockNumber(ctx context.Context) (ethval.NodeResponse[ethval.UInt64], *ethval.Err) {
	order := g.next()
	if len(order) == 0 {
		return cascadeOrNoBackend(g, func(b Backend) (ethval.NodeResponse[ethval.UInt64], *ethval.Err) {
			return b.GetBlockNumber(ctx)
		})
	}
	var lastErr *ethval.Err
	for _, n := range order {
		g.logger.Debug("gateway: dispatch get_block_number", map[string]any{"endpoint": n.Endpoint().Identity()})
		resp, errk := n.GetBlockNumber(ctx)
		if errk == nil {
			return resp, nil
		}
		g.logger.Warn("gateway: node failed", map[string]any{"endpoint": n.Endpoint().Identity(), "kind": errk.Kind.String()})
		lastErr = errk
	}
	return cascadeOrFail(g, func(b Backend) (ethval.NodeResponse[ethval.UInt64], *ethval.Err) {
		return b.GetBlockNumber(ctx)
	}, lastErr)
}

func (g *Gateway) GetBlockByNumber(ctx context.Context, blockNum ethval.UInt64) (ethval.NodeResponse[ethval.Block], *ethval.Err) {
	order := g.next()
	if len(order) == 0 {
		return cascadeOrNoBackend(g, func(b Backend) (ethval.NodeResponse[ethval.Block], *ethval.Err) {
			return b.GetBlockByNumber(ctx, blockNum)
		})
	}
	var lastErr *ethval.Err
	for _, n := range order {
		g.logger.Debug("gateway: dispatch get_block_by_number", map[string]any{"endpoint": n.Endpoint().Identity()})
		resp, errk := n.GetBlockByNumber(ctx, blockNum)
		if errk == nil {
			return resp, nil
		}
		g.logger.Warn("gateway: node failed", map[string]any{"endpoint": n.Endpoint().Identity(), "kind": errk.Kind.String()})
		lastErr = errk
	}
	return cascadeOrFail(g, func(b Backend) (ethval.NodeResponse[ethval.Block], *ethval.Err) {
		return b.GetBlockByNumber(ctx, blockNum)
	}, lastErr)
}

func (g *Gateway) GetTransactionByHash(ctx context.Context, hash ethval.ByteData32) (ethval.NodeResponse[ethval.Transaction], *ethval.Err) {
	order := g.next()
	if len(order) == 0 {
		return cascadeOrNoBackend(g, func(b Backend) (ethval.NodeResponse[ethval.Transaction], *ethval.Err) {
			return b.GetTransactionByHash(ctx, hash)
		})
	}
	var lastErr *ethval.Err
	for _, n := range order {
		g.logger.Debug("gateway: dispatch get_transaction_by_hash", map[string]any{"endpoint": n.Endpoint().Identity()})
		resp, errk := n.GetTransactionByHash(ctx, hash)
		if errk == nil {
			return resp, nil
		}
		g.logger.Warn("gateway: node failed", map[string]any{"endpoint": n.Endpoint().Identity(), "kind": errk.Kind.String()})
		lastErr = errk
	}
	return cascadeOrFail(g, func(b Backend) (ethval.NodeResponse[ethval.Transaction], *ethval.Err) {
		return b.GetTransactionByHash(ctx, hash)
	}, lastErr)
}

func (g *Gateway) GetLogs(ctx context.Context, filter ethval.LogFilter) (ethval.NodeResponse[ethval.LogSegment], *ethval.Err) {
	order := g.next()
	if len(order) == 0 {
		return cascadeOrNoBackend(g, func(b Backend) (ethval.NodeResponse[ethval.LogSegment], *ethval.Err) {
			return b.GetLogs(ctx, filter)
		})
	}
	var lastErr *ethval.Err
	for _, n := range order {
		g.logger.Debug("gateway: dispatch get_logs", map[string]any{"endpoint": n.Endpoint().Identity()})
		resp, errk := n.GetLogs(ctx, filter)
		if errk == nil {
			return resp, nil
		}
		g.logger.Warn("gateway: node failed", map[string]any{"endpoint": n.Endpoint().Identity(), "kind": errk.Kind.String()})
		lastErr = errk
	}
	return cascadeOrFail(g, func(b Backend) (ethval.NodeResponse[ethval.LogSegment], *ethval.Err) {
		return b.GetLogs(ctx, filter)
	}, lastErr)
}

func (g *Gateway) Call(ctx context.Context, method string, params ...interface{}) (ethval.NodeResponse[json.RawMessage], *ethval.Err) {
	order := g.next()
	if len(order) == 0 {
		return cascadeOrNoBackend(g, func(b Backend) (ethval.NodeResponse[json.RawMessage], *ethval.Err) {
			return b.Call(ctx, method, params...)
		})
	}
	var lastErr *ethval.Err
	for _, n := range order {
		g.logger.Debug("gateway: dispatch call", map[string]any{"endpoint": n.Endpoint().Identity(), "method": method})
		resp, errk := n.Call(ctx, method, params...)
		if errk == nil {
			return resp, nil
		}
		g.logger.Warn("gateway: node failed", map[string]any{"endpoint": n.Endpoint().Identity(), "kind": errk.Kind.String()})
		lastErr = errk
	}
	return cascadeOrFail(g, func(b Backend) (ethval.NodeResponse[json.RawMessage], *ethval.Err) {
		return b.Call(ctx, method, params...)
	}, lastErr)
}

// cascadeOrFail delegates to the lower-tier Gateway (if any) once this
// tier has been exhausted; with no lower tier, the last observed error
// is wrapped as GATEWAY_BAD_BACKEND.
func cascadeOrFail[T any](g *Gateway, call func(Backend) (T, *ethval.Err), lastErr *ethval.Err) (T, *ethval.Err) {
	var zero T
	if g.lowerLayer != nil {
		return call(g.lowerLayer)
	}
	msg := "no available nodes"
	if lastErr != nil {
		msg = lastErr.Message
	}
	return zero, ethval.NewErr(ethval.GatewayBadBackend, msg)
}

// cascadeOrNoBackend handles the empty-tier case: cascade if a lower
// tier exists, otherwise GATEWAY_NO_BACKEND.
func cascadeOrNoBackend[T any](g *Gateway, call func(Backend) (T, *ethval.Err)) (T, *ethval.Err) {
	var zero T
	if g.lowerLayer != nil {
		return call(g.lowerLayer)
	}
	return zero, ethval.NewErr(ethval.GatewayNoBackend, "tier has no configured nodes")
}
