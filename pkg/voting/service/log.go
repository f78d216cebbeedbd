package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/voting"
)

const serviceName = "VotingService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the voting Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// ValidateVotingEligibility wraps the service method with logging
func (ls *logService) ValidateVotingEligibility(
	ctx context.Context,
	proposalID *big.Int,
	voter common.Address,
) (resp *voting.Eligibility, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.failed("ValidateVotingEligibility", start, err, zap.Stringer("proposal_id", proposalID), zap.String("voter", voter.Hex()))
			return
		}
		ls.logger.Debug("ValidateVotingEligibility completed",
			zap.String("service", serviceName),
			zap.String("method", "ValidateVotingEligibility"),
			zap.Stringer("proposal_id", proposalID),
			zap.String("voter", voter.Hex()),
			zap.Bool("eligible", resp.Eligible),
			zap.String("reason", string(resp.Reason)),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.ValidateVotingEligibility(ctx, proposalID, voter)
}

// ProcessVote wraps the service method with logging
func (ls *logService) ProcessVote(ctx context.Context, req *voting.VoteRequest) (resp *voting.VoteResponse, err error) {
	start := time.Now()

	ls.logger.Info("ProcessVote started",
		zap.String("service", serviceName),
		zap.String("method", "ProcessVote"),
		zap.Stringer("proposal_id", req.ProposalID),
		zap.String("voter", req.Voter),
		zap.Int("reason_length", len(req.Reason)),
	)

	defer func() {
		if err != nil {
			ls.failed("ProcessVote", start, err, zap.Stringer("proposal_id", req.ProposalID), zap.String("voter", req.Voter))
			return
		}
		ls.logger.Info("ProcessVote completed",
			zap.String("service", serviceName),
			zap.String("method", "ProcessVote"),
			zap.String("proposal_id", resp.Vote.ProposalID),
			zap.String("voter", resp.Vote.Voter),
			zap.Uint8("support", resp.Vote.Support),
			zap.String("weight", resp.Vote.Weight),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.ProcessVote(ctx, req)
}

// ConfirmVote wraps the service method with logging
func (ls *logService) ConfirmVote(
	ctx context.Context,
	proposalID *big.Int,
	voter common.Address,
	txHash string,
) (resp *voting.VoteView, err error) {
	start := time.Now()

	ls.logger.Info("ConfirmVote started",
		zap.String("service", serviceName),
		zap.String("method", "ConfirmVote"),
		zap.Stringer("proposal_id", proposalID),
		zap.String("voter", voter.Hex()),
		zap.String("tx_hash", txHash),
	)

	defer func() {
		if err != nil {
			ls.failed("ConfirmVote", start, err, zap.Stringer("proposal_id", proposalID), zap.String("voter", voter.Hex()))
			return
		}
		ls.logger.Info("ConfirmVote completed",
			zap.String("service", serviceName),
			zap.String("method", "ConfirmVote"),
			zap.String("proposal_id", resp.ProposalID),
			zap.String("voter", resp.Voter),
			zap.String("status", resp.Status),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.ConfirmVote(ctx, proposalID, voter, txHash)
}

// GetTally wraps the service method with logging
func (ls *logService) GetTally(ctx context.Context, proposalID *big.Int) (resp *voting.TallyResponse, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.failed("GetTally", start, err, zap.Stringer("proposal_id", proposalID))
		}
	}()

	return ls.svc.GetTally(ctx, proposalID)
}

func (ls *logService) failed(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	}, fields...)
	ls.logger.Log(apperrors.LogLevel(err), method+" failed", fields...)
}
