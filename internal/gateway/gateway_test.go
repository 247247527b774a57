package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dmagro/ethlog/internal/clockx"
	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/logx"
	"github.com/dmagro/ethlog/internal/node"
	"github.com/dmagro/ethlog/internal/safenode"
	"github.com/dmagro/ethlog/internal/valve"
)

// countingBackend is an httptest-backed SafeNode that answers
// eth_blockNumber with a fixed result (or status) and counts hits.
type countingBackend struct {
	node *safenode.SafeNode
	hits *atomic.Int64
}

func newBackend(t *testing.T, result string, status int) countingBackend {
	t.Helper()
	hits := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		fmt.Fprintf(w, `{"id":0,"jsonrpc":"2.0","result":%s}`, result)
	}))
	t.Cleanup(srv.Close)

	ep, err := ethval.NewEthEndpoint(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	// A generous quota so round-robin tests don't trip the bucket.
	ep.Quota.BatchLimit = 1000
	clock := clockx.NewFake(ethval.NewTimestamp(1_000_000))
	return countingBackend{
		node: safenode.New(node.New(ep), valve.New(ep, clock, logx.Nop)),
		hits: hits,
	}
}

func nodesOf(backends ...countingBackend) []*safenode.SafeNode {
	out := make([]*safenode.SafeNode, len(backends))
	for i, b := range backends {
		out[i] = b.node
	}
	return out
}

func TestProxy_FailoverWithinTier(t *testing.T) {
	n1 := newBackend(t, "", http.StatusInternalServerError)
	n2 := newBackend(t, `"0x1b4"`, 0)
	g := New(nodesOf(n1, n2), nil, logx.Nop)

	resp, errk := g.GetBlockNumber(context.Background())
	if errk != nil {
		t.Fatalf("unexpected error: %v", errk)
	}
	if resp.Data.Value() != 436 {
		t.Errorf("block number = %d, want 436", resp.Data.Value())
	}
	if n1.hits.Load() != 1 || n2.hits.Load() != 1 {
		t.Errorf("hits = %d/%d, want 1/1", n1.hits.Load(), n2.hits.Load())
	}

	// The cursor advanced exactly once for that call, so the next
	// call starts at n2 and never needs n1 (whose valve is locked
	// from the 500 anyway).
	if _, errk := g.GetBlockNumber(context.Background()); errk != nil {
		t.Fatal(errk)
	}
	if n1.hits.Load() != 1 {
		t.Errorf("n1 hits = %d, want still 1", n1.hits.Load())
	}
	if n2.hits.Load() != 2 {
		t.Errorf("n2 hits = %d, want 2", n2.hits.Load())
	}
}

func TestProxy_RoundRobinFairness(t *testing.T) {
	n1 := newBackend(t, `"0x64"`, 0)
	n2 := newBackend(t, `"0x64"`, 0)
	n3 := newBackend(t, `"0x64"`, 0)
	g := New(nodesOf(n1, n2, n3), nil, logx.Nop)

	const k = 10
	for i := 0; i < k; i++ {
		if _, errk := g.GetBlockNumber(context.Background()); errk != nil {
			t.Fatal(errk)
		}
	}

	// Over K calls to N healthy nodes, each serves floor(K/N) or
	// ceil(K/N).
	for i, b := range []countingBackend{n1, n2, n3} {
		h := b.hits.Load()
		if h < k/3 || h > (k+2)/3 {
			t.Errorf("node %d served %d calls, want %d or %d", i, h, k/3, (k+2)/3)
		}
	}
}

func TestProxy_CascadeToLowerTier(t *testing.T) {
	primary := newBackend(t, "", http.StatusInternalServerError)
	backup := newBackend(t, `"0x1b4"`, 0)

	lower := New(nodesOf(backup), nil, logx.Nop)
	g := New(nodesOf(primary), lower, logx.Nop)

	resp, errk := g.GetBlockNumber(context.Background())
	if errk != nil {
		t.Fatalf("cascade should have served the call: %v", errk)
	}
	if resp.Data.Value() != 436 {
		t.Errorf("block number = %d, want 436", resp.Data.Value())
	}
	if primary.hits.Load() != 1 || backup.hits.Load() != 1 {
		t.Errorf("hits = %d/%d, want 1/1", primary.hits.Load(), backup.hits.Load())
	}
}

func TestProxy_AllTiersExhausted(t *testing.T) {
	primary := newBackend(t, "", http.StatusInternalServerError)
	backup := newBackend(t, "", http.StatusBadGateway)

	lower := New(nodesOf(backup), nil, logx.Nop)
	g := New(nodesOf(primary), lower, logx.Nop)

	_, errk := g.GetBlockNumber(context.Background())
	if errk == nil || errk.Kind != ethval.GatewayBadBackend {
		t.Fatalf("want GATEWAY_BAD_BACKEND, got %v", errk)
	}
	if errk.Message == "" {
		t.Error("BAD_BACKEND should carry the last seen error for diagnosis")
	}
}

func TestProxy_EmptyTier(t *testing.T) {
	g := New(nil, nil, logx.Nop)
	_, errk := g.GetBlockNumber(context.Background())
	if errk == nil || errk.Kind != ethval.GatewayNoBackend {
		t.Fatalf("want GATEWAY_NO_BACKEND, got %v", errk)
	}

	// An empty tier with a healthy lower tier delegates instead.
	backup := newBackend(t, `"0x1b4"`, 0)
	g = New(nil, New(nodesOf(backup), nil, logx.Nop), logx.Nop)
	resp, errk := g.GetBlockNumber(context.Background())
	if errk != nil {
		t.Fatalf("empty tier should cascade: %v", errk)
	}
	if resp.Data.Value() != 436 {
		t.Errorf("block number = %d, want 436", resp.Data.Value())
	}
}

func TestProxy_SequentialAttempts(t *testing.T) {
	// All nodes fail; every node in the tier must have been tried
	// exactly once (strictly sequential, no fan-out, no retry).
	n1 := newBackend(t, "", http.StatusInternalServerError)
	n2 := newBackend(t, "", http.StatusInternalServerError)
	n3 := newBackend(t, "", http.StatusInternalServerError)
	g := New(nodesOf(n1, n2, n3), nil, logx.Nop)

	_, errk := g.GetBlockNumber(context.Background())
	if errk == nil || errk.Kind != ethval.GatewayBadBackend {
		t.Fatalf("want GATEWAY_BAD_BACKEND, got %v", errk)
	}
	for i, b := range []countingBackend{n1, n2, n3} {
		if b.hits.Load() != 1 {
			t.Errorf("node %d hits = %d, want 1", i, b.hits.Load())
		}
	}
}
