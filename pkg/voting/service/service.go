package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/internal/metrics"
	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/app/validate"
	"github.com/chainsafe/dao-governance/pkg/auth"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
	"github.com/chainsafe/dao-governance/pkg/voting"
)

var (
	ErrNotEligible   = errors.New("voter not eligible")
	ErrVoteConfirmed = errors.New("vote already confirmed with a different transaction")
	ErrNoStagedVote  = errors.New("no staged vote")
)

// Store is the narrow data-access interface for the voting service.
type Store interface {
	GetProposal(ctx context.Context, id *big.Int) (*governance.Proposal, error)
	HasVoted(ctx context.Context, id *big.Int, voter common.Address) (bool, error)
	GetVote(ctx context.Context, id *big.Int, voter common.Address) (*governance.Vote, error)
	StageVote(ctx context.Context, v *governance.Vote) error
	ConfirmVote(ctx context.Context, id *big.Int, voter common.Address, txHash string) error
}

// PowerSource computes voting power at a block.
type PowerSource interface {
	VotingPower(ctx context.Context, account common.Address, block uint64) (*big.Int, error)
}

// CallPacker prepares DAO vote call data. support uses the API encoding.
type CallPacker interface {
	Address() common.Address
	PackVote(proposalID *big.Int, support uint8, kycCommitment, proofHash [32]byte) ([]byte, error)
}

// Service defines the interface for the voting business logic
type Service interface {
	ValidateVotingEligibility(ctx context.Context, proposalID *big.Int, voter common.Address) (*voting.Eligibility, error)
	ProcessVote(ctx context.Context, req *voting.VoteRequest) (*voting.VoteResponse, error)
	ConfirmVote(ctx context.Context, proposalID *big.Int, voter common.Address, txHash string) (*voting.VoteView, error)
	GetTally(ctx context.Context, proposalID *big.Int) (*voting.TallyResponse, error)
}

type votingService struct {
	store  Store
	power  PowerSource
	dao    CallPacker
	rules  governance.Rules
	now    func() time.Time
	logger *zap.Logger
}

// Option configures the voting service
type Option func(*votingService)

// WithClock overrides the time source used for eligibility checks.
func WithClock(now func() time.Time) Option {
	return func(s *votingService) {
		s.now = now
	}
}

// NewService creates a new voting service
func NewService(store Store, power PowerSource, dao CallPacker, rules governance.Rules, logger *zap.Logger, opts ...Option) Service {
	s := &votingService{
		store:  store,
		power:  power,
		dao:    dao,
		rules:  rules,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateVotingEligibility checks, in order: voting not started, voting
// period ended, already voted, no voting power at the snapshot block. The
// first failing check decides the reason.
func (s *votingService) ValidateVotingEligibility(
	ctx context.Context,
	proposalID *big.Int,
	voter common.Address,
) (*voting.Eligibility, error) {
	p, err := s.proposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return s.eligibility(ctx, p, voter)
}

func (s *votingService) eligibility(ctx context.Context, p *governance.Proposal, voter common.Address) (*voting.Eligibility, error) {
	now := s.now()
	if now.Before(p.StartTime) {
		return voting.Ineligible(voting.ReasonNotStarted), nil
	}
	if !now.Before(p.EndTime) {
		return voting.Ineligible(voting.ReasonPeriodEnded), nil
	}

	voted, err := s.store.HasVoted(ctx, p.ID, voter)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}
	if voted {
		return voting.Ineligible(voting.ReasonAlreadyVoted), nil
	}

	power, err := s.power.VotingPower(ctx, voter, p.SnapshotBlock)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to compute voting power")
	}
	if power.Sign() == 0 {
		return voting.Ineligible(voting.ReasonNoVotingPower), nil
	}

	return &voting.Eligibility{
		Eligible:      true,
		VotingPower:   power,
		RemainingTime: p.EndTime.Sub(now),
		SnapshotBlock: p.SnapshotBlock,
	}, nil
}

// ProcessVote re-validates eligibility, stages a pending vote and returns the
// transaction the voter has to submit. Nothing is sent to the chain.
func (s *votingService) ProcessVote(ctx context.Context, req *voting.VoteRequest) (*voting.VoteResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	voter := common.HexToAddress(auth.NormalizeAddress(req.Voter))
	support := governance.Support(*req.Support)

	kycCommitment, err := parseBytes32(req.KycCommitment)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "kyc_commitment is malformed")
	}
	proofHash, err := parseBytes32(req.ProofHash)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "proof_hash is malformed")
	}

	p, err := s.proposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	verdict, err := s.eligibility(ctx, p, voter)
	if err != nil {
		return nil, err
	}
	if !verdict.Eligible {
		return nil, apperrors.BadRequestError(
			fmt.Errorf("%w: %s", ErrNotEligible, verdict.Reason),
			fmt.Sprintf("voter not eligible: %s", verdict.Reason),
		)
	}

	data, err := s.dao.PackVote(p.ID, uint8(support), kycCommitment, proofHash)
	if err != nil {
		return nil, fmt.Errorf("failed to pack vote call: %w", err)
	}

	vote := &governance.Vote{
		ProposalID: p.ID,
		Voter:      voter,
		Support:    support,
		Weight:     verdict.VotingPower,
		Reason:     req.Reason,
		Status:     governance.VoteStatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.store.StageVote(ctx, vote); err != nil {
		if errors.Is(err, govstore.ErrVoteLocked) {
			return nil, apperrors.ConflictError(err, "vote already confirmed")
		}
		return nil, fmt.Errorf("failed to stage vote: %w", err)
	}
	metrics.VotesStaged.WithLabelValues(string(governance.VoteStatusPending)).Inc()

	return &voting.VoteResponse{
		Vote: voting.NewVoteView(vote),
		Transaction: governance.TxRequest{
			To:    s.dao.Address(),
			Data:  hexutil.Encode(data),
			Value: "0",
		},
	}, nil
}

// ConfirmVote moves a staged vote to confirmed. Confirming again with the
// same transaction hash returns the vote unchanged.
func (s *votingService) ConfirmVote(
	ctx context.Context,
	proposalID *big.Int,
	voter common.Address,
	txHash string,
) (*voting.VoteView, error) {
	if err := validate.Struct(&voting.ConfirmRequest{TxHash: txHash}); err != nil {
		return nil, err
	}
	txHash = strings.ToLower(txHash)

	vote, err := s.store.GetVote(ctx, proposalID, voter)
	if err != nil {
		if errors.Is(err, govstore.ErrVoteNotFound) {
			return nil, apperrors.ResourceNotFoundError(ErrNoStagedVote, "no staged vote for this voter")
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	if vote.Status == governance.VoteStatusConfirmed {
		if strings.EqualFold(vote.TxHash, txHash) {
			return voting.NewVoteView(vote), nil
		}
		return nil, apperrors.ConflictError(ErrVoteConfirmed, "vote already confirmed with a different transaction")
	}

	if err := s.store.ConfirmVote(ctx, proposalID, voter, txHash); err != nil {
		if errors.Is(err, govstore.ErrVoteLocked) {
			// The indexer confirmed the vote in the meantime.
			return nil, apperrors.ConflictError(err, "vote already confirmed")
		}
		return nil, fmt.Errorf("failed to confirm vote: %w", err)
	}
	metrics.VotesStaged.WithLabelValues(string(governance.VoteStatusConfirmed)).Inc()

	vote.Status = governance.VoteStatusConfirmed
	vote.TxHash = txHash
	return voting.NewVoteView(vote), nil
}

// GetTally returns the chain-confirmed tally of a proposal.
func (s *votingService) GetTally(ctx context.Context, proposalID *big.Int) (*voting.TallyResponse, error) {
	p, err := s.proposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return &voting.TallyResponse{
		ProposalID: p.ID.String(),
		State:      governance.DeriveState(p, s.now(), s.rules),
		Tally:      governance.NewTally(p, s.rules.Quorum),
	}, nil
}

func (s *votingService) proposal(ctx context.Context, id *big.Int) (*governance.Proposal, error) {
	if id == nil || id.Sign() < 0 {
		return nil, apperrors.BadRequestError(nil, "invalid proposal id")
	}
	p, err := s.store.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, govstore.ErrProposalNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "proposal not found")
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return p, nil
}

func parseBytes32(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
