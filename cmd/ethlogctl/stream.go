package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog"
	"github.com/dmagro/ethlog/internal/display"
	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/report"
)

func streamCmd() *cobra.Command {
	var (
		fromArg   string
		addresses []string
		topics    []string
		interval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream the log history forward, segment by segment",
		Long: `Walk the log history from --from toward the chain head, printing
each safe segment as it arrives. Runs until Ctrl+C; a failed fetch is
retried on the next cycle without losing the cursor.

Examples:
  ethlogctl stream --from 18000000
  ethlogctl stream --from 18000000 --interval 2s --address 0xa0b8...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := buildClient(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				fmt.Fprintf(os.Stderr, "\nReceived signal: %v\n", sig)
				cancel()
			}()

			from, err := resolveBlockArg(ctx, client, fromArg)
			if err != nil {
				return err
			}
			filter, err := buildFilter(ctx, client, fromArg, "latest", addresses, topics)
			if err != nil {
				return err
			}

			segments, logCount := 0, 0
			handler := func(ctx context.Context, seg ethlog.LogSegment, _ *ethlog.Client) error {
				segments++
				logCount += len(seg.Logs)
				display.RenderSegment(os.Stdout, ethval.NodeResponse[ethval.LogSegment]{Data: seg})
				return nil
			}

			stream := ethlog.NewLogStream(client, handler,
				ethlog.StreamFromBlock(from),
				ethlog.StreamAddresses(filter.Addresses...),
				ethlog.StreamTopics(filter.Topics),
				ethlog.StreamInterval(interval),
			)

			_ = stream.Run(ctx)

			if jsonFlag(cmd) {
				fromV, cursor := from.Value(), stream.CursorBlock()
				rep := report.Report{
					Timestamp:    time.Now(),
					FromBlock:    &fromV,
					CursorBlock:  &cursor,
					SegmentCount: &segments,
					LogCount:     &logCount,
				}
				path, err := report.WriteJSON(rep, "stream")
				if err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", path)
			}
			fmt.Printf("Streamed %d segment(s), %d log(s), cursor at block %d\n",
				segments, logCount, stream.CursorBlock())
			return nil
		},
	}

	cmd.Flags().StringVar(&fromArg, "from", "0", "Block to start streaming from")
	cmd.Flags().StringArrayVar(&addresses, "address", nil, "Contract address filter (repeatable)")
	cmd.Flags().StringArrayVar(&topics, "topic", nil, "Topic filter (repeatable, max 4)")
	cmd.Flags().DurationVar(&interval, "interval", 6*time.Second, "Pause between stream cycles")
	return cmd
}
