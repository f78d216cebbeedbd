package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/internal/metrics"
	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/ethereum/contracts"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

// ProposalReader reads proposal totals from the DAO contract.
type ProposalReader interface {
	GetProposal(opts *bind.CallOpts, proposalID *big.Int) (*contracts.OnChainProposal, error)
}

// Engine runs the backfill, then the live listener, plus a periodic
// reconciliation of derived state against the contract.
type Engine struct {
	config   *config.Config
	chain    Chain
	dao      ProposalReader
	store    govstore.Store
	pipeline *Pipeline
	indexer  *Indexer
	listener *Listener
	logger   *zap.Logger

	ready atomic.Bool
	gap   atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new indexer engine
func NewEngine(
	cfg *config.Config,
	chain Chain,
	decoder *Decoder,
	dao ProposalReader,
	store govstore.Store,
	notifier Notifier,
	logger *zap.Logger,
) (*Engine, error) {
	quorum, ok := new(big.Int).SetString(cfg.Governance.QuorumVotes, 10)
	if !ok {
		return nil, fmt.Errorf("invalid quorum %q", cfg.Governance.QuorumVotes)
	}

	pipeline := NewPipeline(store, notifier, quorum, cfg.Indexer.PipelineBuffer, logger.Named("pipeline"))
	idx := New(chain, decoder, pipeline, store, cfg.Indexer.CursorName, cfg.Indexer.ChunkSize, logger.Named("indexer"))

	return &Engine{
		config:   cfg,
		chain:    chain,
		dao:      dao,
		store:    store,
		pipeline: pipeline,
		indexer:  idx,
		listener: NewListener(idx, cfg.Ethereum.PollingInterval, logger.Named("listener")),
		logger:   logger,
	}, nil
}

// Start starts the indexer engine
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Starting indexer engine")

	from, err := e.startBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cursor: %w", err)
	}
	head, err := e.chain.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain head: %w", err)
	}

	ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.pipeline.Run(ctx)
	}()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, from, head)
	}()

	e.wg.Add(1)
	go e.reconcile(ctx)

	e.logger.Info("Indexer engine started",
		zap.Uint64("from_block", from),
		zap.Uint64("head", head))
	return nil
}

// Stop stops the indexer engine
func (e *Engine) Stop() {
	e.logger.Info("Stopping indexer engine")
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.logger.Info("Indexer engine stopped")
}

// IsReady reports whether the startup backfill has returned.
func (e *Engine) IsReady() bool {
	return e.ready.Load()
}

// HasGap reports whether the startup backfill failed and left blocks unindexed.
func (e *Engine) HasGap() bool {
	return e.gap.Load()
}

func (e *Engine) startBlock(ctx context.Context) (uint64, error) {
	block, ok, err := e.store.GetCursor(ctx, e.config.Indexer.CursorName)
	if err != nil {
		return 0, err
	}
	if !ok {
		e.logger.Info("Starting from configured block", zap.Uint64("block", e.config.Indexer.StartBlock))
		return e.config.Indexer.StartBlock, nil
	}
	e.logger.Info("Loaded indexer cursor", zap.Uint64("block", block))
	return block + 1, nil
}

func (e *Engine) run(ctx context.Context, from, head uint64) {
	if from <= head {
		res, err := e.indexer.Backfill(ctx, from, head)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.gap.Store(true)
			resume := from
			if res.Chunks > 0 {
				resume = res.LastBlock + 1
			}
			e.logger.Error("Backfill stopped, blocks left unindexed; re-run the backfill from the cursor",
				zap.Uint64("gap_from", resume),
				zap.Uint64("gap_to", head),
				zap.Error(err))
		}
	}
	e.ready.Store(true)

	if err := e.listener.Subscribe(ctx, head+1, !e.gap.Load()); err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Error("Listener stopped", zap.Error(err))
	}
}

// reconcile periodically compares derived state with the contracts
func (e *Engine) reconcile(ctx context.Context) {
	defer e.wg.Done()

	interval := e.config.Indexer.ReconcileInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.runReconciliation(ctx); err != nil {
				e.logger.Error("Reconciliation failed", zap.Error(err))
			}
		}
	}
}

// runReconciliation checks tallies against the contract, refreshes today's
// analytics row and exports treasury balances.
func (e *Engine) runReconciliation(ctx context.Context) error {
	e.logger.Debug("Running reconciliation")

	proposals, err := e.store.ListProposals(ctx, govstore.WithPage(100, 0))
	if err != nil {
		return fmt.Errorf("failed to list proposals: %w", err)
	}

	drift := 0
	for _, p := range proposals {
		onChain, err := e.dao.GetProposal(&bind.CallOpts{Context: ctx}, p.ID)
		if err != nil {
			e.logger.Warn("Failed to read on-chain proposal",
				zap.String("proposal_id", p.ID.String()),
				zap.Error(err))
			metrics.ErrorsTotal.WithLabelValues("reconciler", "rpc").Inc()
			continue
		}
		if !sameTally(p.ForVotes, onChain.ForVotes) ||
			!sameTally(p.AgainstVotes, onChain.AgainstVotes) ||
			!sameTally(p.AbstainVotes, onChain.AbstainVotes) {
			drift++
			e.logger.Warn("Tally drift detected",
				zap.String("proposal_id", p.ID.String()),
				zap.String("for", p.ForVotes.String()),
				zap.String("onchain_for", onChain.ForVotes.String()),
				zap.String("against", p.AgainstVotes.String()),
				zap.String("onchain_against", onChain.AgainstVotes.String()))
		}
	}
	metrics.TallyDrift.Set(float64(drift))

	if err := e.store.RefreshDailyMetrics(ctx, time.Now()); err != nil {
		return fmt.Errorf("failed to refresh daily metrics: %w", err)
	}

	balances, err := e.store.TreasuryBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute treasury balances: %w", err)
	}
	for asset, balance := range balances {
		if balance.Sign() < 0 {
			e.logger.Warn("Negative treasury balance",
				zap.String("asset", asset),
				zap.String("balance", balance.String()))
			metrics.ErrorsTotal.WithLabelValues("reconciler", "negative_balance").Inc()
		}
		f, _ := new(big.Float).SetInt(balance).Float64()
		metrics.TreasuryBalance.WithLabelValues(asset).Set(f)
	}

	e.logger.Info("Reconciliation summary",
		zap.Int("proposals_checked", len(proposals)),
		zap.Int("tally_drift", drift),
		zap.Int("treasury_assets", len(balances)))
	return nil
}

func sameTally(a, b *big.Int) bool {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b) == 0
}
