package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog/internal/display"
	"github.com/dmagro/ethlog/internal/ethval"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx <hash>",
		Short: "Fetch one transaction through the fleet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := ethval.FromHex32(args[0])
			if err != nil {
				return fmt.Errorf("invalid transaction hash: %w", err)
			}

			client, _, err := buildClient(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			resp, errk := client.GetTransactionByHash(ctx, hash)
			if errk != nil {
				return fmt.Errorf("%s", errk.Error())
			}
			display.RenderTransaction(os.Stdout, resp)
			return nil
		},
	}
	return cmd
}
