package metrics

import (
	"testing"

	"github.com/dmagro/ethlog/internal/ethval"
)

func TestCheckTwoPhase(t *testing.T) {
	checker := NewConsistencyChecker()

	tests := []struct {
		name          string
		heights       []HeightData
		hashes        []HashData
		wantRef       uint64
		wantConsensus bool
		wantGroups    int
	}{
		{
			name: "all_same_hash",
			heights: []HeightData{
				{Endpoint: "a", Height: 100, Success: true},
				{Endpoint: "b", Height: 100, Success: true},
				{Endpoint: "c", Height: 100, Success: true},
			},
			hashes: []HashData{
				{Endpoint: "a", Height: 100, Hash: "0xabc", Success: true},
				{Endpoint: "b", Height: 100, Hash: "0xabc", Success: true},
				{Endpoint: "c", Height: 100, Hash: "0xabc", Success: true},
			},
			wantRef:       100,
			wantConsensus: true,
			wantGroups:    1,
		},
		{
			name: "one_different_hash",
			heights: []HeightData{
				{Endpoint: "a", Height: 100, Success: true},
				{Endpoint: "b", Height: 100, Success: true},
				{Endpoint: "c", Height: 100, Success: true},
			},
			hashes: []HashData{
				{Endpoint: "a", Height: 100, Hash: "0xabc", Success: true},
				{Endpoint: "b", Height: 100, Hash: "0xabc", Success: true},
				{Endpoint: "c", Height: 100, Hash: "0xdef", Success: true},
			},
			wantRef:       100,
			wantConsensus: false,
			wantGroups:    2,
		},
		{
			name: "single_endpoint",
			heights: []HeightData{
				{Endpoint: "a", Height: 100, Success: true},
			},
			hashes: []HashData{
				{Endpoint: "a", Height: 100, Hash: "0xabc", Success: true},
			},
			wantRef:       100,
			wantConsensus: true,
			wantGroups:    1,
		},
		{
			name: "failed_hash_excluded",
			heights: []HeightData{
				{Endpoint: "a", Height: 100, Success: true},
				{Endpoint: "b", Height: 100, Success: true},
			},
			hashes: []HashData{
				{Endpoint: "a", Height: 100, Hash: "0xabc", Success: true},
				{Endpoint: "b", Height: 100, Hash: "", Success: false},
			},
			wantRef:       100,
			wantConsensus: true,
			wantGroups:    1,
		},
		{
			name: "hash_at_wrong_height_ignored",
			heights: []HeightData{
				{Endpoint: "a", Height: 100, Success: true},
				{Endpoint: "b", Height: 99, Success: true},
			},
			hashes: []HashData{
				{Endpoint: "a", Height: 99, Hash: "0xabc", Success: true},
				{Endpoint: "b", Height: 100, Hash: "0xdef", Success: true},
			},
			wantRef:       99,
			wantConsensus: true,
			wantGroups:    1,
		},
		{
			name:          "no_endpoints",
			heights:       nil,
			hashes:        nil,
			wantRef:       0,
			wantConsensus: false,
			wantGroups:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := checker.CheckTwoPhase(tt.heights, tt.hashes)

			if report.ReferenceHeight != tt.wantRef {
				t.Errorf("ReferenceHeight = %d, want %d", report.ReferenceHeight, tt.wantRef)
			}
			if report.HashConsensus != tt.wantConsensus {
				t.Errorf("HashConsensus = %v, want %v", report.HashConsensus, tt.wantConsensus)
			}
			if len(report.HashGroups) != tt.wantGroups {
				t.Errorf("HashGroups count = %d, want %d", len(report.HashGroups), tt.wantGroups)
			}
		})
	}
}

func TestCheckTwoPhase_HeightVariance(t *testing.T) {
	checker := NewConsistencyChecker()

	heights := []HeightData{
		{Endpoint: "a", Height: 100, Success: true},
		{Endpoint: "b", Height: 95, Success: true},
	}

	report := checker.CheckTwoPhase(heights, nil)

	if report.HeightConsensus {
		t.Error("HeightConsensus should be false when variance exceeds threshold")
	}
	if report.HeightVariance != 5 {
		t.Errorf("HeightVariance = %d, want 5", report.HeightVariance)
	}
	if report.MaxHeight != 100 {
		t.Errorf("MaxHeight = %d, want 100", report.MaxHeight)
	}
	if report.AuthoritativeEndpoint != "a" {
		t.Errorf("AuthoritativeEndpoint = %s, want 'a'", report.AuthoritativeEndpoint)
	}
	if report.Consistent {
		t.Error("Consistent should be false on height variance")
	}
}

func TestCheckTwoPhase_IssuesReported(t *testing.T) {
	checker := NewConsistencyChecker()

	heights := []HeightData{
		{Endpoint: "a", Height: 100, Success: true},
		{Endpoint: "b", Height: 100, Success: true},
		{Endpoint: "c", Height: 100, Success: true},
	}
	hashes := []HashData{
		{Endpoint: "a", Height: 100, Hash: "0xabc", Success: true},
		{Endpoint: "b", Height: 100, Hash: "0xabc", Success: true},
		{Endpoint: "c", Height: 100, Hash: "0xdef", Success: true},
	}

	report := checker.CheckTwoPhase(heights, hashes)

	if report.Consistent {
		t.Error("Consistent should be false when there's a hash mismatch")
	}
	if len(report.Issues) == 0 {
		t.Error("Expected issues to be reported for hash mismatch")
	}
	if len(report.HashGroups) < 2 {
		t.Fatal("Expected at least 2 hash groups")
	}
	if len(report.HashGroups[0].Endpoints) < len(report.HashGroups[1].Endpoints) {
		t.Error("Hash groups should be sorted by endpoint count (descending)")
	}
}

func TestFormatHeightDrift(t *testing.T) {
	tests := []struct {
		drift    int
		expected string
	}{
		{0, "all endpoints in sync"},
		{1, "1 block(s) behind (~12s)"},
		{2, "2 block(s) behind (~24s)"},
		{5, "5 block(s) behind (~1m)"},
		{10, "10 block(s) behind (~2m)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatHeightDrift(tt.drift)
			if result != tt.expected {
				t.Errorf("FormatHeightDrift(%d) = %s, want %s", tt.drift, result, tt.expected)
			}
		})
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 9; i++ {
		c.Add(CallSample{Endpoint: "a", Method: "eth_blockNumber", Success: true, Height: uint64(100 + i)})
	}
	c.Add(CallSample{Endpoint: "a", Method: "eth_blockNumber", Success: false, Kind: ethval.EthExplicitOverloading})

	m := c.Calculate()["a"]
	if m == nil {
		t.Fatal("no metrics for endpoint a")
	}
	if m.TotalCalls != 10 || m.Failures != 1 {
		t.Errorf("TotalCalls/Failures = %d/%d, want 10/1", m.TotalCalls, m.Failures)
	}
	if m.SuccessRate != 90 {
		t.Errorf("SuccessRate = %.1f, want 90", m.SuccessRate)
	}
	if m.Overloads != 1 {
		t.Errorf("Overloads = %d, want 1", m.Overloads)
	}
	if m.LatestBlock != 108 {
		t.Errorf("LatestBlock = %d, want 108", m.LatestBlock)
	}
	if m.Status != StatusUp {
		t.Errorf("Status = %s, want UP", m.Status)
	}
}
