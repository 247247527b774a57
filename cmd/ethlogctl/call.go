package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/ethlog/internal/abiproto"
	"github.com/dmagro/ethlog/internal/ethval"
)

func callCmd() *cobra.Command {
	var (
		to       string
		sig      string
		arg      string
		blockArg string
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Perform a read-only contract call (eth_call)",
		Long: `Encode a function call, send it through the fleet, and decode the
uint256 result. The coder understands signatures taking zero or one
address argument — enough for the common balanceOf/totalSupply shapes.

Examples:
  ethlogctl call --to 0xa0b8... --sig "totalSupply()"
  ethlogctl call --to 0xa0b8... --sig "balanceOf(address)" --arg 0xd8da...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := ethval.FromHexAddress(to)
			if err != nil {
				return fmt.Errorf("invalid --to address: %w", err)
			}

			coder := abiproto.Keccak256Coder{}
			var callArgs []any
			if arg != "" {
				addr, err := ethval.FromHexAddress(arg)
				if err != nil {
					return fmt.Errorf("invalid --arg address: %w", err)
				}
				callArgs = append(callArgs, addr)
			}
			calldata, err := coder.EncodeCall(sig, callArgs...)
			if err != nil {
				return err
			}

			client, _, err := buildClient(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			height, err := resolveBlockArg(ctx, client, blockArg)
			if err != nil {
				return err
			}

			params := map[string]string{"to": contract.ToHex(), "data": calldata.ToHex()}
			resp, errk := client.Call(ctx, "eth_call", params, height.ToHex())
			if errk != nil {
				return fmt.Errorf("%s", errk.Error())
			}

			var resultHex string
			if err := json.Unmarshal(resp.Data, &resultHex); err != nil {
				return fmt.Errorf("unexpected eth_call result shape: %w", err)
			}
			raw, err := ethval.FromBadHex(resultHex)
			if err != nil {
				return err
			}
			value, err := coder.DecodeResult(sig, raw)
			if err != nil {
				return err
			}

			fmt.Printf("%s @ %s → %v\n", sig, contract.ToHex(), value)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Contract address")
	cmd.Flags().StringVar(&sig, "sig", "", `Function signature, e.g. "balanceOf(address)"`)
	cmd.Flags().StringVar(&arg, "arg", "", "Optional address argument")
	cmd.Flags().StringVar(&blockArg, "block", "latest", "Block height to execute against")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}
