package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/treasury"
)

const serviceName = "TreasuryService"

// logService wraps Service with logging of failed calls. Reads are frequent,
// so successes are only logged at debug level.
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the treasury Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger.With(zap.String("service", serviceName)),
	}
}

func (ls *logService) GetBalance(ctx context.Context) (resp *treasury.BalanceResponse, err error) {
	defer ls.log("GetBalance", time.Now(), &err)
	return ls.svc.GetBalance(ctx)
}

func (ls *logService) GetTransactions(
	ctx context.Context,
	filter *treasury.TransactionFilter,
) (resp *treasury.TransactionPage, err error) {
	defer ls.log("GetTransactions", time.Now(), &err)
	return ls.svc.GetTransactions(ctx, filter)
}

func (ls *logService) GetDailyMetrics(ctx context.Context, from, to time.Time) (resp *treasury.DailyResponse, err error) {
	defer ls.log("GetDailyMetrics", time.Now(), &err, zap.Time("from", from), zap.Time("to", to))
	return ls.svc.GetDailyMetrics(ctx, from, to)
}

func (ls *logService) GetUser(ctx context.Context, addr common.Address) (resp *treasury.UserView, err error) {
	defer ls.log("GetUser", time.Now(), &err, zap.String("address", addr.Hex()))
	return ls.svc.GetUser(ctx, addr)
}

func (ls *logService) log(method string, start time.Time, err *error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	)
	if *err != nil {
		ls.logger.Log(apperrors.LogLevel(*err), method+" failed", append(fields, zap.Error(*err))...)
		return
	}
	ls.logger.Debug(method+" completed", fields...)
}
