package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackoreo/namwatch/types"
)

func newAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Inspect chain addresses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "decode <address>",
		Short: "Validate an address and print its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := types.DecodeAddress(args[0])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "address:   %s\n", addr)
			fmt.Fprintf(out, "prefix:    %s\n", addr.HRP())
			fmt.Fprintf(out, "payload:   %s\n", hex.EncodeToString(addr.Payload()))
			kind := "account"
			if addr.IsPublicKey() {
				kind = "public key"
			}
			fmt.Fprintf(out, "kind:      %s\n", kind)
			return nil
		},
	})
	return cmd
}
