package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog"
	"github.com/dmagro/ethlog/internal/config"
	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/logx"
)

// loadFleet reads the fleet YAML named by the command's --config flag
// and returns the parsed tiers.
func loadFleet(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	return config.Load(cfgPath)
}

// buildClient composes an ethlog.Client from the fleet config.
func buildClient(cmd *cobra.Command) (*ethlog.Client, *config.Config, error) {
	cfg, err := loadFleet(cmd)
	if err != nil {
		return nil, nil, err
	}
	primary, err := config.Endpoints(cfg.Primary)
	if err != nil {
		return nil, nil, err
	}
	backup, err := config.Endpoints(cfg.Backup)
	if err != nil {
		return nil, nil, err
	}

	var opts []ethlog.ClientOption
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts = append(opts, ethlog.WithLogger(logx.NewConsole()))
	}

	client, err := ethlog.NewClient(primary, backup, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// resolveBlockArg converts a block identifier (decimal, 0x hex, or
// "latest") into a concrete height, asking the fleet for the head when
// the tag is "latest" or the argument is empty.
func resolveBlockArg(ctx context.Context, client *ethlog.Client, arg string) (ethval.UInt64, error) {
	arg = strings.TrimSpace(strings.ToLower(arg))

	if arg == "" || arg == "latest" {
		resp, errk := client.GetBlockNumber(ctx)
		if errk != nil {
			return ethval.UInt64{}, fmt.Errorf("resolving latest block: %s", errk.Error())
		}
		return resp.Data, nil
	}

	if strings.HasPrefix(arg, "0x") {
		n, err := ethval.ParseHexUint64(arg)
		if err != nil {
			return ethval.UInt64{}, fmt.Errorf("invalid block argument %q: %w", arg, err)
		}
		return n, nil
	}

	v, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return ethval.UInt64{}, fmt.Errorf("invalid block argument %q: expected decimal, 0x hex, or \"latest\"", arg)
	}
	n, _ := ethval.NewUInt64(v)
	return n, nil
}

func jsonFlag(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}
