package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog"
	"github.com/dmagro/ethlog/internal/display"
	"github.com/dmagro/ethlog/internal/ethval"
)

func logsCmd() *cobra.Command {
	var (
		fromArg   string
		toArg     string
		addresses []string
		topics    []string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Fetch one safe log segment",
		Long: `Request logs over [--from, --to]. The fleet returns a single safe
segment: the effective upper bound is capped at the serving endpoint's
adaptive log range and confirmed safe horizon, so the result usually
covers less than the requested window. The segment header shows how far
it got; re-run with --from <toBlock+1> to continue (or use "stream").

Examples:
  ethlogctl logs --from 18000000 --to 18001000
  ethlogctl logs --from 18000000 --address 0xa0b8... --topic 0xddf2...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := buildClient(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			filter, err := buildFilter(ctx, client, fromArg, toArg, addresses, topics)
			if err != nil {
				return err
			}

			resp, errk := client.GetLogs(ctx, filter)
			if errk != nil {
				return fmt.Errorf("%s", errk.Error())
			}
			display.RenderSegment(os.Stdout, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromArg, "from", "", "First block of the window (decimal, 0x hex)")
	cmd.Flags().StringVar(&toArg, "to", "latest", "Last block of the window (decimal, 0x hex, latest)")
	cmd.Flags().StringArrayVar(&addresses, "address", nil, "Contract address filter (repeatable)")
	cmd.Flags().StringArrayVar(&topics, "topic", nil, "Topic filter, position by repetition order (repeatable, max 4)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func buildFilter(ctx context.Context, client *ethlog.Client, fromArg, toArg string, addresses, topics []string) (ethval.LogFilter, error) {
	from, err := resolveBlockArg(ctx, client, fromArg)
	if err != nil {
		return ethval.LogFilter{}, err
	}
	to, err := resolveBlockArg(ctx, client, toArg)
	if err != nil {
		return ethval.LogFilter{}, err
	}

	addrs := make([]ethval.Address, len(addresses))
	for i, a := range addresses {
		addr, err := ethval.FromHexAddress(a)
		if err != nil {
			return ethval.LogFilter{}, fmt.Errorf("invalid address %q: %w", a, err)
		}
		addrs[i] = addr
	}

	positions := make([]ethval.TopicPosition, len(topics))
	for i, t := range topics {
		b32, err := ethval.FromHex32(t)
		if err != nil {
			return ethval.LogFilter{}, fmt.Errorf("invalid topic %q: %w", t, err)
		}
		positions[i] = ethval.TopicExact(b32)
	}
	topicFilter, err := ethval.NewLogTopicFilter(positions)
	if err != nil {
		return ethval.LogFilter{}, err
	}

	return ethval.NewLogFilter(from, to, addrs, topicFilter)
}
