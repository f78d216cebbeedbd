package govctl

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

func (c *cli) proposalsCommand() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "proposals",
		Aliases: []string{"ls"},
		Short:   "List indexed proposals, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var want governance.State
			if status != "" {
				st, err := governance.ParseState(status)
				if err != nil {
					return err
				}
				want = st
			}

			env, err := c.env(cmd, false)
			if err != nil {
				return err
			}
			defer env.Close()

			rules, err := envRules(env)
			if err != nil {
				return err
			}

			proposals, err := env.Store.ListProposals(cmd.Context(), govstore.WithPage(limit, 0))
			if err != nil {
				return fmt.Errorf("failed to list proposals: %w", err)
			}

			now := time.Now()
			rows := lo.FilterMap(proposals, func(p *governance.Proposal, _ int) (proposalRow, bool) {
				st := governance.DeriveState(p, now, rules)
				return proposalRow{Proposal: p, State: st}, want == "" || st == want
			})
			renderProposals(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only show proposals in this state")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of proposals to read")
	return cmd
}

func (c *cli) tallyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tally <proposal-id>",
		Short: "Show the vote tally of a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := new(big.Int).SetString(args[0], 10)
			if !ok || id.Sign() < 0 {
				return fmt.Errorf("invalid proposal id %q", args[0])
			}

			env, err := c.env(cmd, false)
			if err != nil {
				return err
			}
			defer env.Close()

			rules, err := envRules(env)
			if err != nil {
				return err
			}

			p, err := env.Store.GetProposal(cmd.Context(), id)
			if errors.Is(err, govstore.ErrProposalNotFound) {
				return fmt.Errorf("proposal %s not found", id)
			}
			if err != nil {
				return fmt.Errorf("failed to load proposal: %w", err)
			}

			renderTally(cmd.OutOrStdout(), p, governance.DeriveState(p, time.Now(), rules), governance.NewTally(p, rules.Quorum))
			return nil
		},
	}
}

func envRules(env *Env) (governance.Rules, error) {
	g := env.Config.Governance
	rules, err := governance.NewRules(g.QuorumVotes, g.ExecutionDelay, g.GracePeriod)
	if err != nil {
		return governance.Rules{}, fmt.Errorf("invalid governance rules: %w", err)
	}
	return rules, nil
}
