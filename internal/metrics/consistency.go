// Package metrics aggregates per-endpoint call telemetry and checks
// data consistency across a gateway's fleet. Reporting a height or
// hash disagreement is observability, not reorg reconciliation: the
// checker only says which endpoints disagree, it never picks a winner
// or rewrites history.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/safenode"
)

// ConsistencyReport holds the results of a cross-endpoint consistency check.
type ConsistencyReport struct {
	// Block height analysis.
	Heights               map[string]uint64 // endpoint -> reported head
	MaxHeight             uint64
	HeightVariance        int
	HeightConsensus       bool
	AuthoritativeEndpoint string // endpoint reporting the highest head

	// Block hash analysis at the reference height. The reference is
	// the minimum reported head, so every endpoint has the block and
	// hashes are never compared across different heights.
	ReferenceHeight uint64
	Hashes          map[string]string
	HashConsensus   bool
	HashGroups      []HashGroup

	Consistent bool
	Issues     []string
}

// HashGroup represents endpoints that reported the same block hash.
type HashGroup struct {
	Hash      string
	Endpoints []string
}

// ConsistencyChecker validates data agreement across endpoints.
type ConsistencyChecker struct {
	acceptableHeightDrift int
}

// NewConsistencyChecker creates a checker tolerating 2 blocks of drift
// (roughly 24 seconds of propagation delay on mainnet).
func NewConsistencyChecker() *ConsistencyChecker {
	return &ConsistencyChecker{acceptableHeightDrift: 2}
}

// HeightData holds one endpoint's head reading (phase 1).
type HeightData struct {
	Endpoint string
	Height   uint64
	Success  bool
}

// HashData holds one endpoint's block hash at a specific height (phase 2).
type HashData struct {
	Endpoint string
	Height   uint64
	Hash     string
	Success  bool
}

// Sample runs the two-phase consistency check against live SafeNodes:
// phase 1 collects heads, phase 2 fetches each endpoint's block hash
// at the minimum head, then CheckTwoPhase analyzes the agreement.
// Endpoints whose calls fail (including valve rejections) simply drop
// out of the comparison.
func (c *ConsistencyChecker) Sample(ctx context.Context, nodes []*safenode.SafeNode) *ConsistencyReport {
	heights := make([]HeightData, 0, len(nodes))
	for _, n := range nodes {
		resp, errk := n.GetBlockNumber(ctx)
		heights = append(heights, HeightData{
			Endpoint: n.Endpoint().Identity(),
			Height:   resp.Data.Value(),
			Success:  errk == nil,
		})
	}

	var ref uint64
	var haveRef bool
	for _, h := range heights {
		if h.Success && (!haveRef || h.Height < ref) {
			ref = h.Height
			haveRef = true
		}
	}

	hashes := make([]HashData, 0, len(nodes))
	if haveRef {
		refHex, _ := ethval.NewUInt64(ref)
		for _, n := range nodes {
			hash, ok := blockHashAt(ctx, n, refHex)
			hashes = append(hashes, HashData{
				Endpoint: n.Endpoint().Identity(),
				Height:   ref,
				Hash:     hash,
				Success:  ok,
			})
		}
	}

	return c.CheckTwoPhase(heights, hashes)
}

// blockHashAt reads just the hash field of the block at height via the
// generic call path; the typed Block entity deliberately omits the
// hash, since nothing in the query surface needs it.
func blockHashAt(ctx context.Context, n *safenode.SafeNode, height ethval.UInt64) (string, bool) {
	resp, errk := n.Call(ctx, "eth_getBlockByNumber", height.ToHex(), false)
	if errk != nil {
		return "", false
	}
	var block struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(resp.Data, &block); err != nil || block.Hash == "" {
		return "", false
	}
	return block.Hash, true
}

// CheckTwoPhase performs the consistency analysis: phase 1 finds the
// max/min heads and flags drift beyond the acceptable threshold, phase
// 2 groups endpoints by their hash at the reference (minimum) height
// and flags minority groups.
func (c *ConsistencyChecker) CheckTwoPhase(heights []HeightData, hashes []HashData) *ConsistencyReport {
	report := &ConsistencyReport{
		Heights:    make(map[string]uint64),
		Hashes:     make(map[string]string),
		Consistent: true,
	}

	var maxHeight uint64
	var maxEndpoint string
	var minHeight uint64
	var hasValidHeight bool

	for _, d := range heights {
		if !d.Success {
			continue
		}
		report.Heights[d.Endpoint] = d.Height
		if d.Height > maxHeight {
			maxHeight = d.Height
			maxEndpoint = d.Endpoint
		}
		if !hasValidHeight || d.Height < minHeight {
			minHeight = d.Height
			hasValidHeight = true
		}
	}

	report.MaxHeight = maxHeight
	report.AuthoritativeEndpoint = maxEndpoint
	report.ReferenceHeight = minHeight

	report.HeightVariance = int(maxHeight - minHeight)
	report.HeightConsensus = report.HeightVariance <= c.acceptableHeightDrift

	if !report.HeightConsensus {
		report.Consistent = false
		report.Issues = append(report.Issues,
			fmt.Sprintf("Block height variance of %d blocks exceeds threshold", report.HeightVariance))
	}

	for _, d := range hashes {
		if !d.Success {
			continue
		}
		// Only hashes at exactly the reference height are comparable.
		if d.Height == report.ReferenceHeight {
			report.Hashes[d.Endpoint] = d.Hash
		}
	}

	c.checkHashConsensus(report)
	return report
}

// checkHashConsensus groups endpoints by reported hash and flags any
// minority groups. All hashes in report.Hashes are at ReferenceHeight.
func (c *ConsistencyChecker) checkHashConsensus(report *ConsistencyReport) {
	if len(report.Hashes) == 0 {
		report.HashConsensus = false
		return
	}

	hashToEndpoints := make(map[string][]string)
	for endpoint, hash := range report.Hashes {
		hashToEndpoints[hash] = append(hashToEndpoints[hash], endpoint)
	}

	for hash, endpoints := range hashToEndpoints {
		sort.Strings(endpoints)
		report.HashGroups = append(report.HashGroups, HashGroup{Hash: hash, Endpoints: endpoints})
	}
	sort.Slice(report.HashGroups, func(i, j int) bool {
		if len(report.HashGroups[i].Endpoints) != len(report.HashGroups[j].Endpoints) {
			return len(report.HashGroups[i].Endpoints) > len(report.HashGroups[j].Endpoints)
		}
		return report.HashGroups[i].Hash < report.HashGroups[j].Hash
	})

	report.HashConsensus = len(report.HashGroups) <= 1

	if !report.HashConsensus {
		report.Consistent = false
		majorityCount := len(report.HashGroups[0].Endpoints)
		for _, group := range report.HashGroups[1:] {
			if len(group.Endpoints) < majorityCount {
				report.Issues = append(report.Issues,
					fmt.Sprintf("Endpoint(s) %v report different block hash at height %d (possible reorg or stale data)",
						group.Endpoints, report.ReferenceHeight))
			}
		}
	}
}

// FormatHeightDrift returns a human-readable description of height
// drift, assuming mainnet's ~12 second block time.
func FormatHeightDrift(drift int) string {
	if drift == 0 {
		return "all endpoints in sync"
	}

	seconds := drift * 12
	if seconds < 60 {
		return fmt.Sprintf("%d block(s) behind (~%ds)", drift, seconds)
	}
	minutes := seconds / 60
	return fmt.Sprintf("%d block(s) behind (~%dm)", drift, minutes)
}
