// Package safenode implements the reliability facade wrapping one
// Node with its owning Valve: every call passes an admission check
// before touching the network and reports outcomes back to the valve
// afterward, so quota exhaustion, endpoint locks, and log-range
// adaptation all happen in one place regardless of which operation is
// being called.
package safenode

import (
	"context"
	"encoding/json"

	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/node"
	"github.com/dmagro/ethlog/internal/valve"
)

// SafeNode is the reliability facade a Gateway dispatches calls to.
type SafeNode struct {
	node  *node.Node
	valve *valve.Valve
}

// New builds a SafeNode wrapping n with its owning valve v. The valve
// must not be shared with any other node: its quota and locks describe
// this one endpoint.
func New(n *node.Node, v *valve.Valve) *SafeNode {
	return &SafeNode{node: n, valve: v}
}

// Endpoint returns the configuration of the wrapped node.
func (s *SafeNode) Endpoint() ethval.EthEndpoint { return s.node.Endpoint() }

// GetBlockNumber admits a single-token call and forwards to the node.
func (s *SafeNode) GetBlockNumber(ctx context.Context) (ethval.NodeResponse[ethval.UInt64], *ethval.Err) {
	if errk := s.valve.Open(1, nil); errk != nil {
		return ethval.NodeResponse[ethval.UInt64]{}, errk
	}
	resp, errk := s.node.GetBlockNumber(ctx)
	if errk != nil {
		s.valve.ReportError(errk)
		return ethval.NodeResponse[ethval.UInt64]{}, errk
	}
	s.valve.SetLatestBlock(resp.Data)
	return resp, nil
}

// GetBlockByNumber admits a single-token call bound to blockNum and
// forwards to the node.
func (s *SafeNode) GetBlockByNumber(ctx context.Context, blockNum ethval.UInt64) (ethval.NodeResponse[ethval.Block], *ethval.Err) {
	if errk := s.valve.Open(1, &blockNum); errk != nil {
		return ethval.NodeResponse[ethval.Block]{}, errk
	}
	resp, errk := s.node.GetBlockByNumber(ctx, blockNum)
	if errk != nil {
		s.valve.ReportError(errk)
		return ethval.NodeResponse[ethval.Block]{}, errk
	}
	return resp, nil
}

// GetTransactionByHash admits a single-token call and forwards to the node.
func (s *SafeNode) GetTransactionByHash(ctx context.Context, hash ethval.ByteData32) (ethval.NodeResponse[ethval.Transaction], *ethval.Err) {
	if errk := s.valve.Open(1, nil); errk != nil {
		return ethval.NodeResponse[ethval.Transaction]{}, errk
	}
	resp, errk := s.node.GetTransactionByHash(ctx, hash)
	if errk != nil {
		s.valve.ReportError(errk)
		return ethval.NodeResponse[ethval.Transaction]{}, errk
	}
	return resp, nil
}

// Call admits a single-token call and forwards to the node's generic
// JSON-RPC path.
func (s *SafeNode) Call(ctx context.Context, method string, params ...interface{}) (ethval.NodeResponse[json.RawMessage], *ethval.Err) {
	if errk := s.valve.Open(1, nil); errk != nil {
		return ethval.NodeResponse[json.RawMessage]{}, errk
	}
	resp, errk := s.node.Call(ctx, method, params...)
	if errk != nil {
		s.valve.ReportError(errk)
		return ethval.NodeResponse[json.RawMessage]{}, errk
	}
	return resp, nil
}

// GetLogs admits a two-token call (the implicit eth_blockNumber plus
// the eth_getLogs itself), narrows the caller's filter down to the
// confirmed safe horizon and adaptive log range via makeSafeFilter,
// invokes the node, and on success feeds the result back into the
// valve's upward range learning.
func (s *SafeNode) GetLogs(ctx context.Context, filter ethval.LogFilter) (ethval.NodeResponse[ethval.LogSegment], *ethval.Err) {
	if errk := s.valve.Open(2, nil); errk != nil {
		return ethval.NodeResponse[ethval.LogSegment]{}, errk
	}

	safeFilter, latest, safe, errk := s.makeSafeFilter(ctx, filter)
	if errk != nil {
		s.valve.GiveBackQuota(1)
		return ethval.NodeResponse[ethval.LogSegment]{}, errk
	}

	resp, errk := s.node.GetLogs(ctx, safeFilter)
	if errk != nil {
		s.valve.ReportError(errk)
		return ethval.NodeResponse[ethval.LogSegment]{}, errk
	}

	segment, err := ethval.NewLogSegment(resp.Data, safeFilter.FromBlock, safeFilter.ToBlock, latest, safe)
	if err != nil {
		badResp := ethval.NewErr(ethval.EthBadResponse, err.Error())
		s.valve.ReportError(badResp)
		return ethval.NodeResponse[ethval.LogSegment]{}, badResp
	}

	segResp := ethval.NodeResponse[ethval.LogSegment]{Data: segment, Size: resp.Size, Elapsed: resp.Elapsed}
	s.valve.UpdateLogRange(segResp)
	return segResp, nil
}

// makeSafeFilter narrows filter to the confirmed safe horizon and the
// valve's current adaptive log range: it fetches the block number
// (updating the valve's latest-block record), rejects with
// NodeUnsafeBlock if the safe block is unknown or behind
// filter.FromBlock, and otherwise caps ToBlock at
// min(fromBlock+logRange-1, filter.ToBlock, safeBlock).
func (s *SafeNode) makeSafeFilter(ctx context.Context, filter ethval.LogFilter) (ethval.LogFilter, ethval.UInt64, ethval.UInt64, *ethval.Err) {
	latestResp, errk := s.node.GetBlockNumber(ctx)
	if errk != nil {
		// The head fetch is a node call like any other: a 429 or 500
		// here must drive the same lock/adapt discipline as a failed
		// eth_getLogs, or the gateway round-robins straight back to a
		// throttling endpoint.
		s.valve.ReportError(errk)
		return ethval.LogFilter{}, ethval.UInt64{}, ethval.UInt64{}, errk
	}
	s.valve.SetLatestBlock(latestResp.Data)

	safe := s.valve.SafeBlockNumber()
	if safe == nil || safe.Value() < filter.FromBlock.Value() {
		return ethval.LogFilter{}, ethval.UInt64{}, ethval.UInt64{}, ethval.NewErr(ethval.NodeUnsafeBlock, "requested range exceeds the confirmed safe horizon")
	}

	tentativeTo := filter.FromBlock.Value() + s.valve.LogRange() - 1
	effectiveTo := min3(tentativeTo, filter.ToBlock.Value(), safe.Value())

	effectiveToVal, err := ethval.NewUInt64(effectiveTo)
	if err != nil {
		return ethval.LogFilter{}, ethval.UInt64{}, ethval.UInt64{}, ethval.NewErr(ethval.TypeValidation, err.Error())
	}

	safeFilter, err := ethval.NewLogFilter(filter.FromBlock, effectiveToVal, filter.Addresses, filter.Topics)
	if err != nil {
		return ethval.LogFilter{}, ethval.UInt64{}, ethval.UInt64{}, ethval.NewErr(ethval.TypeValidation, err.Error())
	}
	return safeFilter, latestResp.Data, *safe, nil
}

func min3(a, b, c uint64) uint64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
