package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackoreo/namwatch/keyvaluedb/boltdb"
	"github.com/blackoreo/namwatch/subscription"
	"github.com/blackoreo/namwatch/types"
)

func newSubscriptionCmd(baseConfig *baseConfiguration) *cobra.Command {
	var dbFile string
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Manage the watched address set",
	}
	cmd.PersistentFlags().StringVar(&dbFile, flagNameSubscriptionDB, defaultSubscriptionDBFile, "subscription database file, relative paths are resolved against $NW_HOME")

	openStore := func() (*subscription.Store, func(), error) {
		db, err := boltdb.New(baseConfig.pathInHome(dbFile))
		if err != nil {
			return nil, nil, fmt.Errorf("opening subscription database: %w", err)
		}
		return subscription.NewStore(db), func() { _ = db.Close() }, nil
	}

	var label string
	addCmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Add a validator address to the watched set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := types.DecodeAddress(args[0])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			store, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()
			return store.Subscribe(addr, label)
		},
	}
	addCmd.Flags().StringVar(&label, "label", "", "free-form label shown alongside the address")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <address>",
		Short: "Remove a validator address from the watched set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := types.DecodeAddress(args[0])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			store, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()
			return store.Unsubscribe(addr)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the watched addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer closeDB()
			subs, err := store.Subscriptions()
			if err != nil {
				return err
			}
			for _, sub := range subs {
				if sub.Label != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", sub.Address, sub.Label)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), sub.Address)
			}
			return nil
		},
	})

	return cmd
}
