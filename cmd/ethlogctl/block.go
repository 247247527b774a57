package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog/internal/display"
)

func blockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block [number|0xhex|latest]",
		Short: "Fetch one block through the fleet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := buildClient(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			height, err := resolveBlockArg(ctx, client, arg)
			if err != nil {
				return err
			}

			resp, errk := client.GetBlockByNumber(ctx, height)
			if errk != nil {
				return fmt.Errorf("%s", errk.Error())
			}
			display.RenderBlock(os.Stdout, resp)
			return nil
		},
	}
	return cmd
}
