package govctl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/indexer"
)

func (c *cli) backfillCommand() *cobra.Command {
	var from, to uint64

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Index a historical block range",
		Long: `Index contract events for a block range in chunks of at most 1000 blocks.

Without --from the range starts after the stored cursor (or at the configured
start block). Without --to it ends at the current chain head. A failing chunk
stops the run; the cursor stays at the last completed chunk.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := c.env(cmd, true)
			if err != nil {
				return err
			}
			defer env.Close()

			var fromPtr, toPtr *uint64
			if cmd.Flags().Changed("from") {
				fromPtr = &from
			}
			if cmd.Flags().Changed("to") {
				toPtr = &to
			}
			return runBackfill(cmd, env, fromPtr, toPtr)
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "First block to index")
	cmd.Flags().Uint64Var(&to, "to", 0, "Last block to index")
	return cmd
}

func runBackfill(cmd *cobra.Command, env *Env, from, to *uint64) error {
	if env.Chain == nil {
		return errors.New("backfill needs a chain client")
	}
	cfg := env.Config
	ctx := cmd.Context()

	rules, err := governance.NewRules(cfg.Governance.QuorumVotes, cfg.Governance.ExecutionDelay, cfg.Governance.GracePeriod)
	if err != nil {
		return fmt.Errorf("invalid governance rules: %w", err)
	}

	start, err := resolveFrom(ctx, env, from)
	if err != nil {
		return err
	}
	end := uint64(0)
	if to != nil {
		end = *to
	} else if end, err = env.Chain.LatestBlockNumber(ctx); err != nil {
		return fmt.Errorf("failed to get chain head: %w", err)
	}
	if end < start {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to index: from %d is after to %d\n", start, end)
		return nil
	}

	decoder := indexer.NewDecoder(env.Chain.DAO(), env.Chain.Treasury(), env.Chain.Token(), env.Chain, env.Logger.Named("decoder"))
	pipeline := indexer.NewPipeline(env.Store, nil, rules.Quorum, cfg.Indexer.PipelineBuffer, env.Logger.Named("pipeline"))
	idx := indexer.New(env.Chain, decoder, pipeline, env.Store, cfg.Indexer.CursorName, cfg.Indexer.ChunkSize, env.Logger.Named("indexer"))

	pctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pipeline.Run(pctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	res, err := idx.Backfill(ctx, start, end)
	if err != nil {
		env.Logger.Error("Backfill stopped", zap.Error(err))
		fmt.Fprintf(cmd.OutOrStdout(), "Backfill stopped after %d chunks (%d events)\n", res.Chunks, res.Events)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed blocks %d-%d: %d chunks, %d events\n", res.From, res.To, res.Chunks, res.Events)
	return nil
}

func resolveFrom(ctx context.Context, env *Env, from *uint64) (uint64, error) {
	if from != nil {
		return *from, nil
	}
	block, ok, err := env.Store.GetCursor(ctx, env.Config.Indexer.CursorName)
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}
	if !ok {
		return env.Config.Indexer.StartBlock, nil
	}
	return block + 1, nil
}
