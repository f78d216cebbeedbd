package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/proposal"
)

const serviceName = "ProposalService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the proposal Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// CreateProposal wraps the service method with logging
func (ls *logService) CreateProposal(
	ctx context.Context,
	req *proposal.CreateProposalRequest,
	proposer common.Address,
) (resp *proposal.CreateProposalResponse, err error) {
	start := time.Now()

	ls.logger.Info("CreateProposal started",
		zap.String("service", serviceName),
		zap.String("method", "CreateProposal"),
		zap.String("proposer", proposer.Hex()),
		zap.Int("title_length", len(req.Title)),
		zap.Bool("executable", req.Executable()),
	)

	defer func() {
		if err != nil {
			ls.logger.Log(apperrors.LogLevel(err), "CreateProposal failed",
				zap.String("service", serviceName),
				zap.String("method", "CreateProposal"),
				zap.String("proposer", proposer.Hex()),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		ls.logger.Info("CreateProposal completed",
			zap.String("service", serviceName),
			zap.String("method", "CreateProposal"),
			zap.String("proposer", proposer.Hex()),
			zap.String("cid", resp.CID),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.CreateProposal(ctx, req, proposer)
}

// ValidateProposal wraps the service method with logging
func (ls *logService) ValidateProposal(
	ctx context.Context,
	req *proposal.CreateProposalRequest,
	proposer common.Address,
) (resp *proposal.ValidationResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Debug("ValidateProposal rejected",
				zap.String("service", serviceName),
				zap.String("method", "ValidateProposal"),
				zap.String("proposer", proposer.Hex()),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()

	return ls.svc.ValidateProposal(ctx, req, proposer)
}

// GetProposals wraps the service method with logging
func (ls *logService) GetProposals(ctx context.Context, filter *proposal.ListFilter) (resp *proposal.Page, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Log(apperrors.LogLevel(err), "GetProposals failed",
				zap.String("service", serviceName),
				zap.String("method", "GetProposals"),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		ls.logger.Debug("GetProposals completed",
			zap.String("service", serviceName),
			zap.String("method", "GetProposals"),
			zap.Int("total", resp.Total),
			zap.Int("page", resp.Page),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return ls.svc.GetProposals(ctx, filter)
}

// GetProposal wraps the service method with logging
func (ls *logService) GetProposal(ctx context.Context, id *big.Int) (resp *proposal.View, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Log(apperrors.LogLevel(err), "GetProposal failed",
				zap.String("service", serviceName),
				zap.String("method", "GetProposal"),
				zap.Stringer("proposal_id", id),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()

	return ls.svc.GetProposal(ctx, id)
}
