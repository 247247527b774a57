package display

import (
	"fmt"
	"io"

	"github.com/dmagro/ethlog/internal/metrics"
)

// RenderConsistency writes the cross-endpoint consistency report to w.
func RenderConsistency(w io.Writer, report *metrics.ConsistencyReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Fleet Consistency"))

	for endpoint, height := range report.Heights {
		marker := ""
		if endpoint == report.AuthoritativeEndpoint {
			marker = cyan(" (highest)")
		}
		fmt.Fprintf(w, "  %-40s height %d%s\n", endpoint, height, marker)
	}

	if report.HeightConsensus {
		fmt.Fprintf(w, "  %s height consensus (%s)\n", green("✓"), metrics.FormatHeightDrift(report.HeightVariance))
	} else {
		fmt.Fprintf(w, "  %s height variance: %d blocks\n", red("✗"), report.HeightVariance)
	}

	if len(report.Hashes) > 0 {
		fmt.Fprintf(w, "\n  Block hash at reference height %d:\n", report.ReferenceHeight)
		for _, group := range report.HashGroups {
			hash := group.Hash
			if len(hash) > 18 {
				hash = hash[:18] + "…"
			}
			fmt.Fprintf(w, "    %s  %v\n", hash, group.Endpoints)
		}
		if report.HashConsensus {
			fmt.Fprintf(w, "  %s hash consensus\n", green("✓"))
		} else {
			fmt.Fprintf(w, "  %s hash mismatch\n", red("✗"))
		}
	}

	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), issue)
	}

	if report.Consistent {
		fmt.Fprintf(w, "\n%s fleet is consistent\n\n", green("OK"))
	} else {
		fmt.Fprintf(w, "\n%s fleet is inconsistent\n\n", red("FAIL"))
	}
}
