package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog/internal/config"
	"github.com/dmagro/ethlog/internal/display"
	"github.com/dmagro/ethlog/internal/gateway"
	"github.com/dmagro/ethlog/internal/report"
)

func healthCmd() *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Sample every configured endpoint and rank the fleet",
		Long: `Probe each endpoint's eth_blockNumber several times and rank the
fleet on success rate, p95 latency, and block-height freshness.

Probes bypass the request valves so a diagnostic run never consumes
the quota the real traffic depends on.

Examples:
  ethlogctl health
  ethlogctl health --samples 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFleet(cmd)
			if err != nil {
				return err
			}
			return runHealth(cfg, samples, jsonFlag(cmd))
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 5, "Probes per endpoint")
	return cmd
}

func runHealth(cfg *config.Config, samples int, jsonOut bool) error {
	endpoints, err := config.Endpoints(append(append([]config.EndpointSpec{}, cfg.Primary...), cfg.Backup...))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ranked, err := gateway.QuickHealthCheck(ctx, endpoints, samples)
	if err != nil {
		return err
	}

	display.RenderHealth(os.Stdout, ranked, samples)

	if best, err := ranked.Best(); err == nil {
		fmt.Printf("Best endpoint: %s (score %.2f)\n\n", best.Endpoint, best.Score)
	} else {
		fmt.Printf("%v\n\n", err)
	}

	if jsonOut {
		rep := report.Report{Timestamp: time.Now(), Samples: &samples}
		for _, h := range ranked {
			h := h
			entry := report.Entry{
				Endpoint:   h.Endpoint,
				Status:     h.Status,
				Height:     &h.BlockHeight,
				BlockDelta: &h.BlockDelta,
				Success:    intPtr(int(h.SuccessRate / 100 * float64(h.Samples))),
				Total:      &h.Samples,
			}
			p50 := report.MillisDuration(h.Latency.P50)
			p95 := report.MillisDuration(h.Latency.P95)
			p99 := report.MillisDuration(h.Latency.P99)
			max := report.MillisDuration(h.Latency.Max)
			entry.P50LatencyMS, entry.P95LatencyMS, entry.P99LatencyMS, entry.MaxLatencyMS = &p50, &p95, &p99, &max
			rep.Results = append(rep.Results, entry)
		}
		path, err := report.WriteJSON(rep, "health")
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
	}

	return nil
}

func intPtr(v int) *int { return &v }
