// ethlogctl is the operator CLI for an ethlog endpoint fleet: one-shot
// queries (block, tx, logs, call), fleet diagnostics (health, compare),
// and a long-running log stream.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog/internal/env"
)

func main() {
	env.Load()

	root := &cobra.Command{
		Use:   "ethlogctl",
		Short: "Query and diagnose a fleet of Ethereum JSON-RPC endpoints",
		Long: `ethlogctl drives an ethlog client: a primary endpoint tier with
cascading fallback to a backup tier, per-endpoint request quotas and
failure locks, and adaptive eth_getLogs range sizing.

Endpoints are configured in a YAML fleet file (see --config).`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "config/fleet.yaml", "Fleet config file path")
	root.PersistentFlags().Bool("json", false, "Also write a JSON report to reports/")
	root.PersistentFlags().Bool("verbose", false, "Log reliability-stack diagnostics to stderr")

	root.AddCommand(
		healthCmd(),
		blockCmd(),
		txCmd(),
		logsCmd(),
		streamCmd(),
		callCmd(),
		compareCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
