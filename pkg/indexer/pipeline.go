package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/internal/metrics"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

// ErrPipelineStopped is returned by Submit once Run has returned.
var ErrPipelineStopped = errors.New("pipeline stopped")

type envelope struct {
	ctx    context.Context
	events []Event
	done   chan error
}

// Pipeline applies decoded events to the store. A single Run goroutine is the
// only writer of derived governance state; producers hand over batches with
// Submit and wait for them to be applied.
type Pipeline struct {
	store    govstore.Store
	notifier Notifier
	quorum   *big.Int
	logger   *zap.Logger

	in      chan envelope
	stopped chan struct{}
}

// NewPipeline creates a pipeline. notifier may be nil.
func NewPipeline(store govstore.Store, notifier Notifier, quorum *big.Int, buffer int, logger *zap.Logger) *Pipeline {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pipeline{
		store:    store,
		notifier: notifier,
		quorum:   quorum,
		logger:   logger,
		in:       make(chan envelope, buffer),
		stopped:  make(chan struct{}),
	}
}

// Run applies submitted batches in arrival order until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.in:
			env.done <- p.apply(env.ctx, env.events)
		}
	}
}

// Submit hands events to the pipeline and blocks until they are applied.
func (p *Pipeline) Submit(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	env := envelope{ctx: ctx, events: events, done: make(chan error, 1)}

	select {
	case p.in <- env:
	case <-p.stopped:
		return ErrPipelineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-env.done:
		return err
	case <-p.stopped:
		return ErrPipelineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply stops at the first failing event. Already applied events stay
// applied; replaying the batch is a no-op for them.
func (p *Pipeline) apply(ctx context.Context, events []Event) error {
	days := make(map[time.Time]struct{})
	for _, ev := range events {
		if err := p.applyEvent(ctx, ev); err != nil {
			metrics.ErrorsTotal.WithLabelValues("pipeline", ev.Type()).Inc()
			return fmt.Errorf("failed to apply %s at block %d: %w", ev.Type(), ev.Block(), err)
		}
		days[ev.Timestamp().UTC().Truncate(24*time.Hour)] = struct{}{}
	}

	for day := range days {
		if err := p.store.RefreshDailyMetrics(ctx, day); err != nil {
			p.logger.Warn("Failed to refresh daily metrics",
				zap.Time("day", day),
				zap.Error(err))
			metrics.ErrorsTotal.WithLabelValues("pipeline", "daily_metrics").Inc()
		}
	}
	return nil
}

func (p *Pipeline) applyEvent(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case *ProposalCreated:
		return p.applyProposalCreated(ctx, e)
	case *VoteCast:
		return p.applyVoteCast(ctx, e)
	case *ProposalExecuted:
		return p.applyProposalExecuted(ctx, e)
	case *ProposalCancelled:
		return p.applyProposalCancelled(ctx, e)
	case *TreasuryMovement:
		return p.applyTreasuryMovement(ctx, e)
	case *DelegationChanged:
		_, err := p.store.InsertDelegation(ctx, e.Delegation)
		return err
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

func (p *Pipeline) applyProposalCreated(ctx context.Context, e *ProposalCreated) error {
	proposal := e.Proposal
	if err := p.store.UpsertProposal(ctx, proposal); err != nil {
		return err
	}
	if err := p.store.RefreshUser(ctx, proposal.Proposer, proposal.CreatedBlock, proposal.CreatedAt); err != nil {
		return err
	}

	p.logger.Info("Proposal indexed",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("proposer", proposal.Proposer.Hex()),
		zap.Uint64("block", proposal.CreatedBlock))

	p.notifier.Notify(governance.Notification{
		Type: governance.NotifyProposalCreated,
		Payload: ProposalPayload{
			ProposalID:    proposal.ID.String(),
			Proposer:      proposal.Proposer.Hex(),
			Title:         proposal.Title,
			MetadataCID:   proposal.MetadataCID,
			SnapshotBlock: proposal.SnapshotBlock,
			StartTime:     proposal.StartTime,
			EndTime:       proposal.EndTime,
		},
	})
	return nil
}

func (p *Pipeline) applyVoteCast(ctx context.Context, e *VoteCast) error {
	vote := e.Vote
	proposal, applied, err := p.store.ApplyChainVote(ctx, vote)
	if errors.Is(err, govstore.ErrProposalNotFound) {
		p.logger.Warn("Vote on unknown proposal ignored",
			zap.String("proposal_id", vote.ProposalID.String()),
			zap.String("voter", vote.Voter.Hex()),
			zap.Uint64("block", *vote.BlockNumber))
		return nil
	}
	if err != nil {
		return err
	}
	if err := p.store.RefreshUser(ctx, vote.Voter, *vote.BlockNumber, *vote.BlockTimestamp); err != nil {
		return err
	}
	if !applied {
		p.logger.Debug("Vote already indexed",
			zap.String("proposal_id", vote.ProposalID.String()),
			zap.String("voter", vote.Voter.Hex()))
		return nil
	}

	p.notifier.Notify(governance.Notification{
		Type:       governance.NotifyVoteCast,
		ProposalID: vote.ProposalID,
		Payload: VotePayload{
			ProposalID:  vote.ProposalID.String(),
			Voter:       vote.Voter.Hex(),
			Support:     uint8(vote.Support),
			Weight:      vote.Weight.String(),
			TxHash:      vote.TxHash,
			BlockNumber: *vote.BlockNumber,
		},
	})
	p.notifier.Notify(governance.Notification{
		Type:       governance.NotifyTallyUpdated,
		ProposalID: vote.ProposalID,
		Payload: TallyPayload{
			ProposalID: vote.ProposalID.String(),
			Tally:      governance.NewTally(proposal, p.quorum),
		},
	})
	return nil
}

func (p *Pipeline) applyProposalExecuted(ctx context.Context, e *ProposalExecuted) error {
	err := p.store.MarkExecuted(ctx, e.ProposalID, e.TxHash, e.At)
	if errors.Is(err, govstore.ErrProposalNotFound) {
		p.logger.Warn("Execution of unknown proposal ignored",
			zap.String("proposal_id", e.ProposalID.String()),
			zap.Uint64("block", e.BlockNumber))
		return nil
	}
	if err != nil {
		return err
	}

	p.notifier.Notify(governance.Notification{
		Type:       governance.NotifyProposalExecuted,
		ProposalID: e.ProposalID,
		Payload: LifecyclePayload{
			ProposalID:  e.ProposalID.String(),
			By:          e.Executor.Hex(),
			TxHash:      e.TxHash,
			BlockNumber: e.BlockNumber,
			At:          e.At,
		},
	})
	return nil
}

func (p *Pipeline) applyProposalCancelled(ctx context.Context, e *ProposalCancelled) error {
	err := p.store.MarkCancelled(ctx, e.ProposalID, e.At)
	if errors.Is(err, govstore.ErrProposalNotFound) {
		p.logger.Warn("Cancellation of unknown proposal ignored",
			zap.String("proposal_id", e.ProposalID.String()),
			zap.Uint64("block", e.BlockNumber))
		return nil
	}
	if err != nil {
		return err
	}

	p.notifier.Notify(governance.Notification{
		Type:       governance.NotifyProposalCancelled,
		ProposalID: e.ProposalID,
		Payload: LifecyclePayload{
			ProposalID:  e.ProposalID.String(),
			By:          e.CancelledBy.Hex(),
			BlockNumber: e.BlockNumber,
			At:          e.At,
		},
	})
	return nil
}

func (p *Pipeline) applyTreasuryMovement(ctx context.Context, e *TreasuryMovement) error {
	inserted, err := p.store.InsertTreasuryTransaction(ctx, e.Tx)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	p.notifier.Notify(governance.Notification{
		Type: governance.NotifyTreasuryTransaction,
		Payload: TreasuryPayload{
			TxHash:       e.Tx.TxHash,
			Type:         string(e.Tx.Type),
			Asset:        e.Tx.Asset,
			Amount:       e.Tx.Amount.String(),
			Counterparty: e.Tx.Counterparty.Hex(),
			BlockNumber:  e.Tx.BlockNumber,
		},
	})
	return nil
}
