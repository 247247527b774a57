package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog/internal/display"
	"github.com/dmagro/ethlog/internal/metrics"
	"github.com/dmagro/ethlog/internal/report"
)

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Check the primary tier's endpoints for data agreement",
		Long: `Ask every primary-tier endpoint for its chain head, then for the
block hash at the lowest reported head, and flag any disagreement.
A hash split at the same height usually means a reorg in flight or a
stale cache on one endpoint. This is a read-only diagnostic — nothing
is reconciled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := buildClient(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			checker := metrics.NewConsistencyChecker()
			rep := checker.Sample(ctx, client.Gateway().Nodes())

			display.RenderConsistency(os.Stdout, rep)

			if jsonFlag(cmd) {
				out := report.Report{
					Timestamp:         time.Now(),
					ReferenceHeight:   &rep.ReferenceHeight,
					HasHeightMismatch: boolPtr(!rep.HeightConsensus),
					HasHashMismatch:   boolPtr(!rep.HashConsensus),
					Issues:            rep.Issues,
					HashGroups:        make(map[string][]string, len(rep.HashGroups)),
				}
				for _, g := range rep.HashGroups {
					out.HashGroups[g.Hash] = g.Endpoints
				}
				for endpoint, height := range rep.Heights {
					height := height
					out.Results = append(out.Results, report.Entry{Endpoint: endpoint, Height: &height})
				}
				path, err := report.WriteJSON(out, "compare")
				if err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", path)
			}
			return nil
		},
	}
	return cmd
}

func boolPtr(v bool) *bool { return &v }
