package display

import (
	"fmt"
	"io"
	"time"

	"github.com/dmagro/ethlog/internal/ethval"
)

// RenderBlock writes a fetched block to w.
func RenderBlock(w io.Writer, resp ethval.NodeResponse[ethval.Block]) {
	b := resp.Data
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d\n", bold("Block"), b.Number.Value())
	fmt.Fprintf(w, "  time          %s\n", time.UnixMilli(int64(b.Timestamp.Value())).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  transactions  %d\n", len(b.Transactions))
	for i, tx := range b.Transactions {
		if i >= 5 {
			fmt.Fprintf(w, "    … %d more\n", len(b.Transactions)-i)
			break
		}
		fmt.Fprintf(w, "    %s\n", tx.ToHex())
	}
	renderInstrumentation(w, resp.Size, resp.Elapsed)
}

// RenderTransaction writes a fetched transaction to w.
func RenderTransaction(w io.Writer, resp ethval.NodeResponse[ethval.Transaction]) {
	tx := resp.Data
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", bold("Transaction"), tx.Hash.ToHex())
	fmt.Fprintf(w, "  from   %s\n", tx.From.ToHex())
	fmt.Fprintf(w, "  to     %s\n", tx.To.ToHex())
	fmt.Fprintf(w, "  block  %d (index %d)\n", tx.BlockNumber.Value(), tx.TransactionIndex.Value())
	renderInstrumentation(w, resp.Size, resp.Elapsed)
}

// RenderSegment writes a log segment summary plus its logs to w.
func RenderSegment(w io.Writer, resp ethval.NodeResponse[ethval.LogSegment]) {
	seg := resp.Data
	fmt.Fprintf(w, "%s [%d..%d]  %d log(s)  safe=%d latest=%d\n",
		bold("Segment"), seg.FromBlock.Value(), seg.ToBlock.Value(),
		len(seg.Logs), seg.SafeBlock.Value(), seg.LatestBlock.Value())
	for _, l := range seg.Logs {
		topic0 := "—"
		if topics := l.Topics.Topics(); len(topics) > 0 {
			topic0 = topics[0].ToHex()[:18] + "…"
		}
		fmt.Fprintf(w, "  block %-10d idx %-4d %s %s data=%dB\n",
			l.BlockNumber.Value(), l.LogIndex.Value(), l.Address.ToHex(), topic0, l.Data.Len())
	}
}

func renderInstrumentation(w io.Writer, size ethval.DataSize, elapsed ethval.Timespan) {
	fmt.Fprintf(w, "  %s %d bytes in %dms\n\n", cyan("↳"), size.Value(), elapsed.Value())
}
