// Package report provides a unified JSON report model shared across the
// CLI commands and functionality for writing JSON report files.
//
// It standardizes common fields (timestamp, results, latency_ms, error)
// while allowing command-specific fields to be populated as needed, with
// unused fields omitted. Reports are saved to a "reports" directory with
// timestamped filenames to allow tracking results over time.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MillisDuration marshals a time.Duration as an integer millisecond count.
type MillisDuration time.Duration

func (d MillisDuration) MarshalJSON() ([]byte, error) {
	ms := time.Duration(d).Milliseconds()
	return json.Marshal(ms)
}

// Entry represents a single endpoint (or per-endpoint aggregate) row in
// a report. Fields are pointers so commands can precisely control
// omission vs. inclusion.
type Entry struct {
	Endpoint string `json:"endpoint,omitempty"`
	Tier     string `json:"tier,omitempty"`
	Status   string `json:"status,omitempty"`

	Hash        *string `json:"hash,omitempty"`
	Height      *uint64 `json:"height,omitempty"`
	SafeBlock   *uint64 `json:"safe_block,omitempty"`
	BlockDelta  *int    `json:"block_delta,omitempty"`
	ErrorKind   *string `json:"error_kind,omitempty"`
	Error       *string `json:"error,omitempty"`

	Success *int `json:"success,omitempty"`
	Total   *int `json:"total,omitempty"`

	LatencyMS    *MillisDuration `json:"latency_ms,omitempty"`
	P50LatencyMS *MillisDuration `json:"p50_latency_ms,omitempty"`
	P95LatencyMS *MillisDuration `json:"p95_latency_ms,omitempty"`
	P99LatencyMS *MillisDuration `json:"p99_latency_ms,omitempty"`
	MaxLatencyMS *MillisDuration `json:"max_latency_ms,omitempty"`
}

// Report is the unified JSON-serializable report structure. Commands
// populate only the fields they output.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Results   []Entry   `json:"results"`

	// compare
	ReferenceHeight   *uint64             `json:"reference_height,omitempty"`
	HeightGroups      map[uint64][]string `json:"height_groups,omitempty"`
	HashGroups        map[string][]string `json:"hash_groups,omitempty"`
	HasHeightMismatch *bool               `json:"has_height_mismatch,omitempty"`
	HasHashMismatch   *bool               `json:"has_hash_mismatch,omitempty"`
	Issues            []string            `json:"issues,omitempty"`

	// health
	Samples *int `json:"samples,omitempty"`

	// stream
	FromBlock    *uint64 `json:"from_block,omitempty"`
	CursorBlock  *uint64 `json:"cursor_block,omitempty"`
	SegmentCount *int    `json:"segment_count,omitempty"`
	LogCount     *int    `json:"log_count,omitempty"`
}

// WriteJSON writes data as indented JSON into the "reports" directory
// under a timestamped filename ({prefix}-{YYYYMMDD-HHMMSS}.json), so
// consecutive runs never overwrite each other. Returns the file path.
func WriteJSON(data interface{}, prefix string) (string, error) {
	reportsDir := "reports"
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("%s-%s.json", prefix, timestamp)
	path := filepath.Join(reportsDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}

	return path, nil
}
