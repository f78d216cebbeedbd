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
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/app/validate"
	"github.com/chainsafe/dao-governance/pkg/ethereum/contracts"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
	"github.com/chainsafe/dao-governance/pkg/ipfs"
	"github.com/chainsafe/dao-governance/pkg/proposal"
)

var (
	ErrBelowThreshold  = errors.New("proposer voting power below proposal threshold")
	ErrTargetRequired  = errors.New("target is required for executable proposals")
	ErrInvalidStatus   = errors.New("invalid proposal status")
	ErrMetadataPinning = errors.New("failed to pin proposal metadata")
)

// Store is the narrow data-access interface for the proposal service.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	GetProposal(ctx context.Context, id *big.Int) (*governance.Proposal, error)
	ListProposals(ctx context.Context, opts ...govstore.QueryOption) ([]*governance.Proposal, error)
}

// HeadReader returns the current chain head.
type HeadReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// PowerSource computes voting power at a block.
type PowerSource interface {
	VotingPower(ctx context.Context, account common.Address, block uint64) (*big.Int, error)
}

// Pinner stores proposal metadata documents.
type Pinner interface {
	PinJSON(ctx context.Context, name string, content any) (*ipfs.PinResult, error)
	GatewayURL(cid string) string
}

// CallPacker prepares createProposal call data.
type CallPacker interface {
	Address() common.Address
	PackCreateProposal(args contracts.CreateProposalArgs) ([]byte, error)
}

// Service defines the interface for the proposal business logic
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	CreateProposal(ctx context.Context, req *proposal.CreateProposalRequest, proposer common.Address) (*proposal.CreateProposalResponse, error)
	ValidateProposal(ctx context.Context, req *proposal.CreateProposalRequest, proposer common.Address) (*proposal.ValidationResult, error)
	GetProposals(ctx context.Context, filter *proposal.ListFilter) (*proposal.Page, error)
	GetProposal(ctx context.Context, id *big.Int) (*proposal.View, error)
}

type proposalService struct {
	store     Store
	chain     HeadReader
	power     PowerSource
	pinner    Pinner
	dao       CallPacker
	rules     governance.Rules
	threshold *big.Int
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures the proposal service
type Option func(*proposalService)

// WithClock overrides the time source used for state derivation.
func WithClock(now func() time.Time) Option {
	return func(s *proposalService) {
		s.now = now
	}
}

// NewService creates a new proposal service. threshold is the minimum voting
// power a proposer needs at the current head.
func NewService(
	store Store,
	chain HeadReader,
	power PowerSource,
	pinner Pinner,
	dao CallPacker,
	rules governance.Rules,
	threshold *big.Int,
	logger *zap.Logger,
	opts ...Option,
) Service {
	if threshold == nil {
		threshold = new(big.Int)
	}
	s := &proposalService{
		store:     store,
		chain:     chain,
		power:     power,
		pinner:    pinner,
		dao:       dao,
		rules:     rules,
		threshold: threshold,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checked is a request that passed validation, with its fields parsed.
type checked struct {
	target        common.Address
	value         *big.Int
	callData      []byte
	kycCommitment [32]byte
	proofHash     [32]byte
	power         *big.Int
}

// ValidateProposal runs every check of CreateProposal without pinning.
func (s *proposalService) ValidateProposal(
	ctx context.Context,
	req *proposal.CreateProposalRequest,
	proposer common.Address,
) (*proposal.ValidationResult, error) {
	c, err := s.check(ctx, req, proposer)
	if err != nil {
		return nil, err
	}
	return &proposal.ValidationResult{
		Valid:       true,
		VotingPower: c.power.String(),
		Threshold:   s.threshold.String(),
	}, nil
}

// CreateProposal validates req, pins its metadata and returns the
// createProposal transaction with an ipfs:// reference appended to the
// description.
func (s *proposalService) CreateProposal(
	ctx context.Context,
	req *proposal.CreateProposalRequest,
	proposer common.Address,
) (*proposal.CreateProposalResponse, error) {
	c, err := s.check(ctx, req, proposer)
	if err != nil {
		return nil, err
	}

	doc := proposal.Metadata{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Proposer:    proposer.Hex(),
		CreatedAt:   s.now().UTC(),
	}
	if req.Target != "" {
		doc.Target = c.target.Hex()
		doc.Value = c.value.String()
		doc.CallData = hexutil.Encode(c.callData)
	}

	pinned, err := s.pinner.PinJSON(ctx, "proposal-"+doc.ID, doc)
	if err != nil {
		return nil, apperrors.DependencyError(fmt.Errorf("%w: %w", ErrMetadataPinning, err), "failed to upload proposal metadata")
	}

	data, err := s.dao.PackCreateProposal(contracts.CreateProposalArgs{
		Title:         req.Title,
		Description:   ipfs.AppendReference(req.Description, pinned.CID),
		Target:        c.target,
		Value:         c.value,
		Data:          c.callData,
		KycCommitment: c.kycCommitment,
		ProofHash:     c.proofHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack createProposal call: %w", err)
	}

	return &proposal.CreateProposalResponse{
		CID:         pinned.CID,
		MetadataURL: s.pinner.GatewayURL(pinned.CID),
		Transaction: governance.TxRequest{
			To:    s.dao.Address(),
			Data:  hexutil.Encode(data),
			Value: "0",
		},
	}, nil
}

func (s *proposalService) check(
	ctx context.Context,
	req *proposal.CreateProposalRequest,
	proposer common.Address,
) (*checked, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Executable() && req.Target == "" {
		return nil, apperrors.BadRequestError(ErrTargetRequired, ErrTargetRequired.Error())
	}

	c := &checked{value: new(big.Int)}
	if req.Target != "" {
		c.target = common.HexToAddress(req.Target)
	}
	if req.Value != "" {
		v, err := governance.ParseAmount(req.Value)
		if err != nil {
			return nil, apperrors.BadRequestError(err, "value must be a non-negative integer")
		}
		c.value = v
	}

	var err error
	if req.CallData != "" {
		if c.callData, err = hexutil.Decode(req.CallData); err != nil {
			return nil, apperrors.BadRequestError(err, "call_data is malformed")
		}
	}
	if c.kycCommitment, err = parseBytes32(req.KycCommitment); err != nil {
		return nil, apperrors.BadRequestError(err, "kyc_commitment is malformed")
	}
	if c.proofHash, err = parseBytes32(req.ProofHash); err != nil {
		return nil, apperrors.BadRequestError(err, "proof_hash is malformed")
	}

	head, err := s.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to read chain head")
	}
	if c.power, err = s.power.VotingPower(ctx, proposer, head); err != nil {
		return nil, apperrors.DependencyError(err, "failed to compute voting power")
	}
	if c.power.Cmp(s.threshold) < 0 {
		return nil, apperrors.BadRequestError(
			ErrBelowThreshold,
			fmt.Sprintf("voting power %s is below the proposal threshold %s", c.power, s.threshold),
		)
	}
	return c, nil
}

// GetProposals lists proposals newest first. The status filter is applied
// after state derivation, so paging happens in memory.
func (s *proposalService) GetProposals(ctx context.Context, filter *proposal.ListFilter) (*proposal.Page, error) {
	if filter == nil {
		filter = &proposal.ListFilter{}
	}
	if err := validate.Struct(filter); err != nil {
		return nil, err
	}

	var status governance.State
	if filter.Status != "" {
		st, err := governance.ParseState(filter.Status)
		if err != nil {
			return nil, apperrors.BadRequestError(fmt.Errorf("%w: %w", ErrInvalidStatus, err), "invalid status")
		}
		status = st
	}

	var opts []govstore.QueryOption
	if filter.Proposer != "" {
		opts = append(opts, govstore.WithProposer(common.HexToAddress(filter.Proposer)))
	}

	proposals, err := s.store.ListProposals(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	now := s.now()
	views := lo.FilterMap(proposals, func(p *governance.Proposal, _ int) (*proposal.View, bool) {
		st := governance.DeriveState(p, now, s.rules)
		if status != "" && st != status {
			return nil, false
		}
		return proposal.NewView(p, st, s.rules.Quorum), true
	})

	page := lo.Ternary(filter.Page > 0, filter.Page, proposal.DefaultPage)
	limit := lo.Ternary(filter.Limit > 0, filter.Limit, proposal.DefaultLimit)
	total := len(views)

	items := lo.Subset(views, (page-1)*limit, uint(limit))
	if items == nil {
		items = []*proposal.View{}
	}

	return &proposal.Page{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// GetProposal returns a single proposal with its derived state.
func (s *proposalService) GetProposal(ctx context.Context, id *big.Int) (*proposal.View, error) {
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
	return proposal.NewView(p, governance.DeriveState(p, s.now(), s.rules), s.rules.Quorum), nil
}

func parseBytes32(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, nil
	}
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
