package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/ethlog/internal/gateway"
)

// RenderHealth writes the ranked fleet health table to w.
func RenderHealth(w io.Writer, ranked gateway.RankedEndpoints, samples int) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s (%d samples per endpoint)\n", bold("Fleet Health"), samples)

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Endpoint", "Status", "Success", "p50", "p95", "p99", "Max", "Block", "Lag")
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(w)

	for _, h := range ranked {
		lag := "—"
		if h.BlockDelta > 0 {
			lag = fmt.Sprintf("-%d", h.BlockDelta)
		}
		tbl.AddRow(
			h.Endpoint,
			formatStatus(h.Status),
			formatSuccessRate(h.SuccessRate),
			formatDuration(h.Latency.P50),
			formatDuration(h.Latency.P95),
			formatDuration(h.Latency.P99),
			formatDuration(h.Latency.Max),
			h.BlockHeight,
			lag,
		)
	}
	tbl.Print()

	for _, h := range ranked {
		if h.Excluded {
			fmt.Fprintf(w, "%s %s excluded: %s\n", yellow("⚠"), h.Endpoint, h.ExcludeReason)
		}
	}
	fmt.Fprintln(w)
}
