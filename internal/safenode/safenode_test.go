package safenode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmagro/ethlog/internal/clockx"
	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/logx"
	"github.com/dmagro/ethlog/internal/node"
	"github.com/dmagro/ethlog/internal/valve"
)

// fakeRPC dispatches on JSON-RPC method name. A nil entry falls back
// to HTTP 500; a status entry answers with that code and no body.
type fakeRPC struct {
	results map[string]string // method -> result JSON
	status  map[string]int    // method -> HTTP status override
	calls   []string
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
		Params []any  `json:"params"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.calls = append(f.calls, req.Method)

	if status, ok := f.status[req.Method]; ok {
		w.WriteHeader(status)
		return
	}
	result, ok := f.results[req.Method]
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, `{"id":0,"jsonrpc":"2.0","result":%s}`, result)
}

func (f *fakeRPC) countOf(method string) int {
	n := 0
	for _, m := range f.calls {
		if m == method {
			n++
		}
	}
	return n
}

func newTestSafeNode(t *testing.T, f *fakeRPC) (*SafeNode, *valve.Valve, *clockx.Fake) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	ep, err := ethval.NewEthEndpoint(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	clock := clockx.NewFake(ethval.NewTimestamp(1_000_000))
	v := valve.New(ep, clock, logx.Nop)
	return New(node.New(ep), v), v, clock
}

func u64(t *testing.T, v uint64) ethval.UInt64 {
	t.Helper()
	u, err := ethval.NewUInt64(v)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func wideFilter(t *testing.T, from, to uint64) ethval.LogFilter {
	t.Helper()
	f, err := ethval.NewLogFilter(u64(t, from), u64(t, to), nil, ethval.EmptyLogTopicFilter())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestGetLogs_SafeWindow(t *testing.T) {
	// Latest 10050, gap 15 -> safe 10035. Initial adaptive range 10.
	// For filter [100, 1000000] the effective window must be
	// [100, min(100+10-1, 1000000, 10035)] = [100, 109].
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber": `"0x2742"`, // 10050
		"eth_getLogs":     `[]`,
	}}
	s, _, _ := newTestSafeNode(t, f)

	resp, errk := s.GetLogs(context.Background(), wideFilter(t, 100, 1_000_000))
	if errk != nil {
		t.Fatalf("unexpected error: %v", errk)
	}
	seg := resp.Data
	if seg.FromBlock.Value() != 100 || seg.ToBlock.Value() != 109 {
		t.Errorf("segment range = [%d, %d], want [100, 109]", seg.FromBlock.Value(), seg.ToBlock.Value())
	}
	if seg.LatestBlock.Value() != 10_050 || seg.SafeBlock.Value() != 10_035 {
		t.Errorf("latest/safe = %d/%d, want 10050/10035", seg.LatestBlock.Value(), seg.SafeBlock.Value())
	}

	// The implicit head fetch precedes the log fetch.
	if len(f.calls) != 2 || f.calls[0] != "eth_blockNumber" || f.calls[1] != "eth_getLogs" {
		t.Errorf("calls = %v", f.calls)
	}
}

func TestGetLogs_CapsAtCallerWindow(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber": `"0x2742"`,
		"eth_getLogs":     `[]`,
	}}
	s, _, _ := newTestSafeNode(t, f)

	resp, errk := s.GetLogs(context.Background(), wideFilter(t, 100, 103))
	if errk != nil {
		t.Fatal(errk)
	}
	if resp.Data.ToBlock.Value() != 103 {
		t.Errorf("toBlock = %d, want caller's 103", resp.Data.ToBlock.Value())
	}
}

func TestGetLogs_UnsafeWhenHorizonBehindFrom(t *testing.T) {
	// Safe block 10035 < fromBlock 20000: nothing safe to serve yet.
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber": `"0x2742"`,
		"eth_getLogs":     `[]`,
	}}
	s, _, _ := newTestSafeNode(t, f)

	_, errk := s.GetLogs(context.Background(), wideFilter(t, 20_000, 30_000))
	if errk == nil || errk.Kind != ethval.NodeUnsafeBlock {
		t.Fatalf("want UNSAFE_BLOCK, got %v", errk)
	}
	if f.countOf("eth_getLogs") != 0 {
		t.Error("no eth_getLogs may be issued past a safety rejection")
	}
}

func TestGetLogs_UnsafeWhenChainTooYoung(t *testing.T) {
	// Latest 10 < gap 15: the safe block is unknown.
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber": `"0xa"`,
		"eth_getLogs":     `[]`,
	}}
	s, _, _ := newTestSafeNode(t, f)

	_, errk := s.GetLogs(context.Background(), wideFilter(t, 0, 100))
	if errk == nil || errk.Kind != ethval.NodeUnsafeBlock {
		t.Fatalf("want UNSAFE_BLOCK, got %v", errk)
	}
}

func TestGetLogs_QuotaAccounting(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber": `"0x2742"`,
		"eth_getLogs":     `[]`,
	}}
	s, _, _ := newTestSafeNode(t, f)

	// Each successful get_logs charges 2 tokens (head fetch + log
	// fetch). 20-token budget -> 10 calls, the 11th is rejected.
	for i := 0; i < 10; i++ {
		if _, errk := s.GetLogs(context.Background(), wideFilter(t, 100, 1_000_000)); errk != nil {
			t.Fatalf("call %d: %v", i, errk)
		}
	}
	_, errk := s.GetLogs(context.Background(), wideFilter(t, 100, 1_000_000))
	if errk == nil || errk.Kind != ethval.NodeRequestQuota {
		t.Fatalf("want REQUEST_QUOTA, got %v", errk)
	}
}

func TestGetLogs_RefundsOneTokenOnSafetyRejection(t *testing.T) {
	// Every get_logs here fails the safety check after the 2-token
	// charge, refunding 1: net cost 1 token per attempt. Admission
	// still needs 2 free tokens, so the 20-token budget admits 19
	// attempts before the bucket (down to 1) rejects the 2-token ask.
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber": `"0xa"`, // chain too young, safe unknown
		"eth_getLogs":     `[]`,
	}}
	s, _, _ := newTestSafeNode(t, f)

	for i := 0; i < 19; i++ {
		_, errk := s.GetLogs(context.Background(), wideFilter(t, 0, 100))
		if errk == nil || errk.Kind != ethval.NodeUnsafeBlock {
			t.Fatalf("attempt %d: want UNSAFE_BLOCK, got %v", i, errk)
		}
	}
	_, errk := s.GetLogs(context.Background(), wideFilter(t, 0, 100))
	if errk == nil || errk.Kind != ethval.NodeRequestQuota {
		t.Fatalf("attempt 20 should hit the quota, got %v", errk)
	}
}

func TestOverloadingLocksWithoutFurtherHTTP(t *testing.T) {
	f := &fakeRPC{
		results: map[string]string{},
		status:  map[string]int{"eth_blockNumber": http.StatusTooManyRequests},
	}
	s, _, clock := newTestSafeNode(t, f)

	_, errk := s.GetBlockNumber(context.Background())
	if errk == nil || errk.Kind != ethval.EthExplicitOverloading {
		t.Fatalf("want EXPLICIT_OVERLOADING, got %v", errk)
	}
	if len(f.calls) != 1 {
		t.Fatalf("HTTP calls = %d, want 1", len(f.calls))
	}

	// The valve holds the 15s lock: the next call is rejected with
	// the same kind and no HTTP is issued.
	_, errk = s.GetBlockNumber(context.Background())
	if errk == nil || errk.Kind != ethval.EthExplicitOverloading {
		t.Fatalf("locked node should reject with the lock cause, got %v", errk)
	}
	if len(f.calls) != 1 {
		t.Errorf("HTTP calls = %d, want still 1", len(f.calls))
	}

	clock.Advance(ethval.NewTimespan(15_000))
	_, _ = s.GetBlockNumber(context.Background())
	if len(f.calls) != 2 {
		t.Errorf("HTTP calls after lock expiry = %d, want 2", len(f.calls))
	}
}

func TestGetLogs_HeadFetchFailureLocksEndpoint(t *testing.T) {
	// The implicit eth_blockNumber inside get_logs throttles: the
	// failure must lock the endpoint and halve the range exactly as
	// if eth_getLogs itself had failed.
	f := &fakeRPC{
		results: map[string]string{"eth_getLogs": `[]`},
		status:  map[string]int{"eth_blockNumber": http.StatusTooManyRequests},
	}
	s, v, _ := newTestSafeNode(t, f)

	_, errk := s.GetLogs(context.Background(), wideFilter(t, 100, 1_000_000))
	if errk == nil || errk.Kind != ethval.EthExplicitOverloading {
		t.Fatalf("want EXPLICIT_OVERLOADING, got %v", errk)
	}
	if v.LogRange() != 5 {
		t.Errorf("log range = %d, want 5 (halved)", v.LogRange())
	}

	httpCalls := len(f.calls)
	_, errk = s.GetLogs(context.Background(), wideFilter(t, 100, 1_000_000))
	if errk == nil || errk.Kind != ethval.EthExplicitOverloading {
		t.Fatalf("locked node should reject with the lock cause, got %v", errk)
	}
	if len(f.calls) != httpCalls {
		t.Errorf("HTTP calls = %d, want still %d (lock held)", len(f.calls), httpCalls)
	}
}

func TestGetLogs_FeedsRangeLearning(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber": `"0x2742"`,
		"eth_getLogs":     `[]`,
	}}
	s, v, _ := newTestSafeNode(t, f)

	if v.LogRange() != 10 {
		t.Fatalf("initial range = %d", v.LogRange())
	}
	if _, errk := s.GetLogs(context.Background(), wideFilter(t, 100, 1_000_000)); errk != nil {
		t.Fatal(errk)
	}
	// A tiny empty response should widen the estimate well past the
	// initial 10 (exact value depends on observed size/elapsed).
	if v.LogRange() <= 10 {
		t.Errorf("range after a cheap success = %d, want > 10", v.LogRange())
	}
	if v.LogRange() > 5000 {
		t.Errorf("range must respect the boundary, got %d", v.LogRange())
	}
}

func TestGetBlockByNumber_GatedBySafeBlock(t *testing.T) {
	f := &fakeRPC{results: map[string]string{
		"eth_blockNumber":      `"0x2742"`,
		"eth_getBlockByNumber": `{"number":"0x64","timestamp":"0x1","transactions":[]}`,
	}}
	s, _, _ := newTestSafeNode(t, f)

	// Prime the valve's latest-block reading.
	if _, errk := s.GetBlockNumber(context.Background()); errk != nil {
		t.Fatal(errk)
	}

	// A block beyond the safe horizon is rejected before HTTP.
	_, errk := s.GetBlockByNumber(context.Background(), u64(t, 10_040))
	if errk == nil || errk.Kind != ethval.NodeUnsafeBlock {
		t.Fatalf("want UNSAFE_BLOCK, got %v", errk)
	}
	if f.countOf("eth_getBlockByNumber") != 0 {
		t.Error("no HTTP may be issued for an unsafe block")
	}

	// A confirmed block is served.
	if _, errk := s.GetBlockByNumber(context.Background(), u64(t, 100)); errk != nil {
		t.Fatalf("confirmed block rejected: %v", errk)
	}
}
