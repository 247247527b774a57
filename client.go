package ethlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmagro/ethlog/internal/clockx"
	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/gateway"
	"github.com/dmagro/ethlog/internal/logx"
	"github.com/dmagro/ethlog/internal/node"
	"github.com/dmagro/ethlog/internal/safenode"
	"github.com/dmagro/ethlog/internal/valve"
)

// Client is the public query surface: a primary gateway over the
// primary endpoint tier, cascading to a backup gateway when the whole
// primary tier fails a call.
type Client struct {
	primary   *gateway.Gateway
	endpoints []ethval.EthEndpoint
	logger    logx.Logger
}

// ClientOption adjusts Client construction.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger logx.Logger
	clock  clockx.Clock
}

// WithLogger routes the reliability stack's diagnostics to logger
// instead of discarding them.
func WithLogger(logger logx.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithClock substitutes the time source the valves use for lock expiry
// and safe-block staleness. Tests use this with a fake clock.
func WithClock(clock clockx.Clock) ClientOption {
	return func(o *clientOptions) { o.clock = clock }
}

// NewClient validates and composes the two endpoint tiers. The primary
// list must be non-empty, and no endpoint (identified by host plus
// canonicalized path) may appear twice within or across the lists.
func NewClient(primary, backup []ethval.EthEndpoint, opts ...ClientOption) (*Client, error) {
	o := &clientOptions{logger: logx.Nop, clock: clockx.System{}}
	for _, opt := range opts {
		opt(o)
	}

	if len(primary) == 0 {
		return nil, fmt.Errorf("ethlog: primary endpoint list is empty")
	}
	seen := make(map[string]struct{}, len(primary)+len(backup))
	for _, ep := range append(append([]ethval.EthEndpoint{}, primary...), backup...) {
		id := ep.Identity()
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("ethlog: duplicate endpoint %q", id)
		}
		seen[id] = struct{}{}
	}

	var lower *gateway.Gateway
	if len(backup) > 0 {
		lower = gateway.New(buildSafeNodes(backup, o), nil, o.logger)
	}
	return &Client{
		primary:   gateway.New(buildSafeNodes(primary, o), lower, o.logger),
		endpoints: append(append([]ethval.EthEndpoint{}, primary...), backup...),
		logger:    o.logger,
	}, nil
}

func buildSafeNodes(endpoints []ethval.EthEndpoint, o *clientOptions) []*safenode.SafeNode {
	nodes := make([]*safenode.SafeNode, len(endpoints))
	for i, ep := range endpoints {
		nodes[i] = safenode.New(node.New(ep), valve.New(ep, o.clock, o.logger))
	}
	return nodes
}

// GetBlockNumber returns the chain head height as reported by the
// first healthy node.
func (c *Client) GetBlockNumber(ctx context.Context) (NodeResponse[UInt64], *Err) {
	return c.primary.GetBlockNumber(ctx)
}

// GetBlockByNumber fetches one block by height.
func (c *Client) GetBlockByNumber(ctx context.Context, blockNum UInt64) (NodeResponse[Block], *Err) {
	return c.primary.GetBlockByNumber(ctx, blockNum)
}

// GetTransactionByHash fetches one transaction by hash.
func (c *Client) GetTransactionByHash(ctx context.Context, hash ByteData32) (NodeResponse[Transaction], *Err) {
	return c.primary.GetTransactionByHash(ctx, hash)
}

// GetLogs fetches a safe segment of the filter's window. The returned
// segment's ToBlock is usually well short of filter.ToBlock: it is
// capped at the serving endpoint's adaptive log range and confirmed
// safe horizon, and the caller advances by issuing the next filter from
// segment.ToBlock+1 (LogStream automates this).
func (c *Client) GetLogs(ctx context.Context, filter LogFilter) (NodeResponse[LogSegment], *Err) {
	return c.primary.GetLogs(ctx, filter)
}

// Call performs a generic JSON-RPC call, e.g. eth_call.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (NodeResponse[json.RawMessage], *Err) {
	return c.primary.Call(ctx, method, params...)
}

// Gateway exposes the primary gateway for read-only diagnostics
// (health sampling, consistency checks).
func (c *Client) Gateway() *gateway.Gateway { return c.primary }

// Endpoints returns every configured endpoint, primary tier first.
func (c *Client) Endpoints() []ethval.EthEndpoint {
	out := make([]ethval.EthEndpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// maxLogRangeBoundary is the widest window any configured endpoint is
// allowed to serve; LogStream uses it as its per-cycle request span so
// no endpoint's boundary artificially narrows the stream's asks.
func (c *Client) maxLogRangeBoundary() uint64 {
	var max uint64
	for _, ep := range c.endpoints {
		if ep.LogRangeBoundary > max {
			max = ep.LogRangeBoundary
		}
	}
	if max == 0 {
		max = 1
	}
	return max
}
