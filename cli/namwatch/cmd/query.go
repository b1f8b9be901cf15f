package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackoreo/namwatch/client"
	"github.com/blackoreo/namwatch/client/rpchttp"
	"github.com/blackoreo/namwatch/types"
)

func newQueryCmd(baseConfig *baseConfiguration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "One-shot queries against the node",
	}
	cmd.AddCommand(newQueryEpochCmd(baseConfig))
	cmd.AddCommand(newQueryValidatorCmd(baseConfig))
	cmd.AddCommand(newQueryOperatorCmd(baseConfig))
	cmd.AddCommand(newQueryProposalCmd(baseConfig))
	cmd.AddCommand(newQueryVotesCmd(baseConfig))
	return cmd
}

func newQueryClient(cmd *cobra.Command, baseConfig *baseConfiguration) (*client.Client, error) {
	nodeURL, err := cmd.Flags().GetString(flagNameNodeURL)
	if err != nil {
		return nil, fmt.Errorf("reading flag %q: %w", flagNameNodeURL, err)
	}
	transport, err := rpchttp.New(nodeURL, baseConfig.observe)
	if err != nil {
		return nil, fmt.Errorf("creating node transport: %w", err)
	}
	return client.New(transport), nil
}

func newQueryEpochCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "epoch",
		Short: "Print the current epoch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newQueryClient(cmd, baseConfig)
			if err != nil {
				return err
			}
			epoch, err := c.Epoch(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), epoch)
			return nil
		},
	}
}

func newQueryValidatorCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "validator <address>",
		Short: "Print the state of a validator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := types.DecodeAddress(args[0])
			if err != nil {
				return fmt.Errorf("invalid validator address: %w", err)
			}
			c, err := newQueryClient(cmd, baseConfig)
			if err != nil {
				return err
			}
			rec, err := c.Validator(cmd.Context(), addr)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("%s is not a validator", addr)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "address:               %s\n", rec.Address)
			fmt.Fprintf(out, "state:                 %s\n", rec.State)
			fmt.Fprintf(out, "commission:            %s\n", rec.Commission)
			fmt.Fprintf(out, "max commission change: %s\n", rec.MaxCommissionChange)
			fmt.Fprintf(out, "voting power:          %d\n", rec.VotingPower)
			if !rec.ConsensusKey.IsZero() {
				fmt.Fprintf(out, "consensus key:         %s\n", rec.ConsensusKey)
			}

			meta, err := c.ValidatorMetadata(cmd.Context(), addr)
			if err != nil {
				// metadata is optional, only real failures matter
				if client.IsNotFound(err) {
					return nil
				}
				return fmt.Errorf("metadata of %s: %w", addr, err)
			}
			fmt.Fprintf(out, "email:                 %s\n", meta.Email)
			for _, field := range []struct{ name, value string }{
				{"description", meta.Description},
				{"website", meta.Website},
				{"discord", meta.DiscordHandle},
				{"avatar", meta.Avatar},
			} {
				if field.value != "" {
					fmt.Fprintf(out, "%-22s %s\n", field.name+":", field.value)
				}
			}
			return nil
		},
	}
}

func newQueryOperatorCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "operator <consensus-address>",
		Short: "Resolve a CometBFT consensus address to the operator address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tm, err := types.ParseTMAddress(args[0])
			if err != nil {
				return err
			}
			c, err := newQueryClient(cmd, baseConfig)
			if err != nil {
				return err
			}
			addr, err := c.OperatorAddressByTM(cmd.Context(), tm)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("no validator with consensus address %s", tm)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

func newQueryProposalCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "proposal <id>",
		Short: "Print a governance proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id %q: %w", args[0], err)
			}
			c, err := newQueryClient(cmd, baseConfig)
			if err != nil {
				return err
			}
			p, err := c.Proposal(cmd.Context(), id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("no proposal with id %d", id)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:         %d\n", p.ID)
			fmt.Fprintf(out, "author:     %s\n", p.Author)
			fmt.Fprintf(out, "type:       %s\n", p.Type)
			fmt.Fprintf(out, "status:     %s\n", p.Status)
			fmt.Fprintf(out, "voting:     epoch %d .. %d\n", p.VotingStartEpoch, p.VotingEndEpoch)
			fmt.Fprintf(out, "activation: epoch %d\n", p.ActivationEpoch)
			if p.Data != "" {
				fmt.Fprintf(out, "data:       %s\n", p.Data)
			}
			keys := make([]string, 0, len(p.Content))
			for k := range p.Content {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "content.%s: %s\n", k, p.Content[k])
			}
			return nil
		},
	}
}

func newQueryVotesCmd(baseConfig *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "votes <id>",
		Short: "Print the votes cast on a governance proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id %q: %w", args[0], err)
			}
			c, err := newQueryClient(cmd, baseConfig)
			if err != nil {
				return err
			}
			votes, err := c.ProposalVotes(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range votes {
				if v.Delegator.IsZero() || v.Delegator.Equal(v.Validator) {
					fmt.Fprintf(out, "%s %s\n", v.Validator, v.Value)
					continue
				}
				fmt.Fprintf(out, "%s (delegated to %s) %s\n", v.Delegator, v.Validator, v.Value)
			}
			return nil
		},
	}
}
