package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blockberries/dango/actions"
	"github.com/blockberries/dango/query"
	"github.com/blockberries/dango/types"
)

type sessionFn func() *session

func newAppConfigCmd(get sessionFn) *cobra.Command {
	return &cobra.Command{
		Use:   "app-config [key]",
		Short: "Print the app-config registry or one of its keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := get()
			if len(args) == 1 {
				return run(cmd, s, func(ctx context.Context, a *actions.Actions) (json.RawMessage, error) {
					return actions.GetAppConfigValue[json.RawMessage](ctx, a, args[0], s.height)
				})
			}
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (types.AppConfig, error) {
				return a.GetAppConfig(ctx, actions.GetAppConfigParams{Height: s.height})
			})
		},
	}
}

func newInfoCmd(get sessionFn) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print chain info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := get()
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (types.InfoResponse, error) {
				return a.GetChainInfo(ctx, actions.GetChainInfoParams{Height: s.height})
			})
		},
	}
}

func newBalanceCmd(get sessionFn) *cobra.Command {
	var limit uint32
	var startAfter string
	cmd := &cobra.Command{
		Use:   "balance <address> [denom]",
		Short: "Print one balance, or a page of all balances of an address",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := get()
			addr := types.Addr(args[0])
			if len(args) == 2 {
				return run(cmd, s, func(ctx context.Context, a *actions.Actions) (types.Coin, error) {
					return a.GetBalance(ctx, actions.GetBalanceParams{Address: addr, Denom: types.Denom(args[1]), Height: s.height})
				})
			}
			p := actions.GetBalancesParams{Address: addr, Height: s.height}
			if cmd.Flags().Changed("limit") {
				p.Limit = &limit
			}
			if startAfter != "" {
				d := types.Denom(startAfter)
				p.StartAfter = &d
			}
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (types.Coins, error) {
				return a.GetBalances(ctx, p)
			})
		},
	}
	cmd.Flags().Uint32Var(&limit, "limit", 0, "page size")
	cmd.Flags().StringVar(&startAfter, "start-after", "", "resume after this denom")
	return cmd
}

func newTokenAdminCmd(get sessionFn) *cobra.Command {
	return &cobra.Command{
		Use:   "token-admin <denom>",
		Short: "Print the admin of a token-factory denom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := get()
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (types.Addr, error) {
				return a.GetTokenAdmin(ctx, actions.GetTokenAdminParams{Denom: types.Denom(args[0]), Height: s.height})
			})
		},
	}
}

func newTokenAdminsCmd(get sessionFn) *cobra.Command {
	var limit uint32
	var startAfter string
	cmd := &cobra.Command{
		Use:   "token-admins",
		Short: "Print one page of token-factory denom admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := get()
			p := actions.GetAllTokenAdminsParams{Height: s.height}
			if cmd.Flags().Changed("limit") {
				p.Limit = &limit
			}
			if startAfter != "" {
				d := types.Denom(startAfter)
				p.StartAfter = &d
			}
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (map[types.Denom]types.Addr, error) {
				return a.GetAllTokenAdmins(ctx, p)
			})
		},
	}
	cmd.Flags().Uint32Var(&limit, "limit", 0, "page size")
	cmd.Flags().StringVar(&startAfter, "start-after", "", "resume after this denom")
	return cmd
}

func newNextAccountAddressCmd(get sessionFn) *cobra.Command {
	var accountType string
	cmd := &cobra.Command{
		Use:   "next-account-address <username>",
		Short: "Print the address of a user's next account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := get()
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (types.Addr, error) {
				return a.GetNextAccountAddress(ctx, actions.GetNextAccountAddressParams{
					Username:    types.Username(args[0]),
					AccountType: types.AccountType(accountType),
					Height:      s.height,
				})
			})
		},
	}
	cmd.Flags().StringVar(&accountType, "account-type", string(types.AccountTypeSpot), "spot, margin or safe")
	return cmd
}

func newVotesCmd(get sessionFn) *cobra.Command {
	return &cobra.Command{
		Use:   "votes <safe-address> <proposal-id>",
		Short: "Print the votes cast on a safe proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid proposal id %q: %w", args[1], err)
			}
			s := get()
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (map[types.Username]types.Vote, error) {
				return a.GetVotesForProposal(ctx, actions.GetVotesForProposalParams{
					Address:    types.Addr(args[0]),
					ProposalID: types.ProposalID(id),
					Height:     s.height,
				})
			})
		},
	}
}

func newSmartCmd(get sessionFn) *cobra.Command {
	return &cobra.Command{
		Use:   "smart <contract> <json-msg>",
		Short: "Send a raw smart query to a contract",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := json.RawMessage(args[1])
			if !json.Valid(msg) {
				return fmt.Errorf("message is not valid JSON")
			}
			s := get()
			return run(cmd, s, func(ctx context.Context, a *actions.Actions) (json.RawMessage, error) {
				return query.Smart[json.RawMessage](ctx, a.Querier(), types.Addr(args[0]), msg, s.height)
			})
		},
	}
}
