package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/app/validate"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
	"github.com/chainsafe/dao-governance/pkg/treasury"
)

var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrUnknownUser  = errors.New("no activity recorded for address")
)

// Store is the narrow data-access interface for the treasury service.
type Store interface {
	ListTreasuryTransactions(ctx context.Context, opts ...govstore.QueryOption) ([]*governance.TreasuryTransaction, int, error)
	TreasuryBalances(ctx context.Context) (map[string]*big.Int, error)
	ListDailyMetrics(ctx context.Context, from, to time.Time) ([]*governance.DailyMetrics, error)
	GetUser(ctx context.Context, addr common.Address) (*governance.User, error)
}

// Explorer reads the native balance of an address from a block explorer.
type Explorer interface {
	Enabled() bool
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
}

// Service defines the interface for treasury and analytics reads
type Service interface {
	GetBalance(ctx context.Context) (*treasury.BalanceResponse, error)
	GetTransactions(ctx context.Context, filter *treasury.TransactionFilter) (*treasury.TransactionPage, error)
	GetDailyMetrics(ctx context.Context, from, to time.Time) (*treasury.DailyResponse, error)
	GetUser(ctx context.Context, addr common.Address) (*treasury.UserView, error)
}

type treasuryService struct {
	store    Store
	explorer Explorer
	address  common.Address
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures the treasury service
type Option func(*treasuryService)

// WithClock overrides the time source used for default date ranges.
func WithClock(now func() time.Time) Option {
	return func(s *treasuryService) {
		s.now = now
	}
}

// NewService creates a new treasury service. explorer may be nil.
func NewService(store Store, explorer Explorer, address common.Address, logger *zap.Logger, opts ...Option) Service {
	s := &treasuryService{
		store:    store,
		explorer: explorer,
		address:  address,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetBalance returns the indexed running balance per asset. When the explorer
// integration is enabled the native balance is cross-checked against it; a
// failing explorer is reported in the response instead of failing the call.
func (s *treasuryService) GetBalance(ctx context.Context) (*treasury.BalanceResponse, error) {
	balances, err := s.store.TreasuryBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury balances: %w", err)
	}

	assets := lo.Keys(balances)
	sort.Strings(assets)
	resp := &treasury.BalanceResponse{
		Treasury: s.address.Hex(),
		Balances: lo.Map(assets, func(asset string, _ int) treasury.AssetBalance {
			return treasury.NewAssetBalance(asset, balances[asset])
		}),
	}

	if s.explorer == nil || !s.explorer.Enabled() {
		return resp, nil
	}

	indexed := balances[governance.AssetETH]
	if indexed == nil {
		indexed = new(big.Int)
	}
	check := &treasury.ExplorerCheck{}
	remote, err := s.explorer.Balance(ctx, s.address)
	if err != nil {
		s.logger.Warn("explorer balance check failed", zap.String("treasury", s.address.Hex()), zap.Error(err))
		check.Error = "explorer unavailable"
	} else {
		check.Balance = remote.String()
		check.Matches = remote.Cmp(indexed) == 0
		if !check.Matches {
			check.Difference = new(big.Int).Sub(remote, indexed).String()
		}
	}
	resp.Explorer = check
	return resp, nil
}

// GetTransactions lists treasury transactions newest first.
func (s *treasuryService) GetTransactions(ctx context.Context, filter *treasury.TransactionFilter) (*treasury.TransactionPage, error) {
	if filter == nil {
		filter = &treasury.TransactionFilter{}
	}
	if err := validate.Struct(filter); err != nil {
		return nil, err
	}

	page := lo.Ternary(filter.Page > 0, filter.Page, 1)
	limit := lo.Ternary(filter.Limit > 0, filter.Limit, treasury.DefaultLimit)

	opts := []govstore.QueryOption{govstore.WithPage(limit, (page-1)*limit)}
	if filter.Type != "" {
		opts = append(opts, govstore.WithTxType(governance.TreasuryTxType(filter.Type)))
	}
	if filter.Asset != "" {
		opts = append(opts, govstore.WithAsset(filter.Asset))
	}

	txs, total, err := s.store.ListTreasuryTransactions(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list treasury transactions: %w", err)
	}

	return &treasury.TransactionPage{
		Items: lo.Map(txs, func(tx *governance.TreasuryTransaction, _ int) *treasury.TransactionView {
			return treasury.NewTransactionView(tx)
		}),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// GetDailyMetrics returns daily metrics between from and to, both included.
// Zero values default to the last 30 days.
func (s *treasuryService) GetDailyMetrics(ctx context.Context, from, to time.Time) (*treasury.DailyResponse, error) {
	if to.IsZero() {
		to = s.now()
	}
	to = truncateDay(to)
	if from.IsZero() {
		from = to.Add(-treasury.DefaultDailySpan)
	}
	from = truncateDay(from)

	if from.After(to) {
		return nil, apperrors.BadRequestError(ErrInvalidRange, "from must not be after to")
	}
	if to.Sub(from) > treasury.MaxDailySpan {
		return nil, apperrors.BadRequestError(ErrInvalidRange, "date range must not exceed 366 days")
	}

	days, err := s.store.ListDailyMetrics(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily metrics: %w", err)
	}

	return &treasury.DailyResponse{
		From: from.Format(treasury.DateLayout),
		To:   to.Format(treasury.DateLayout),
		Days: lo.Map(days, func(m *governance.DailyMetrics, _ int) *treasury.DailyView {
			return treasury.NewDailyView(m)
		}),
	}, nil
}

// GetUser returns the participation record of addr.
func (s *treasuryService) GetUser(ctx context.Context, addr common.Address) (*treasury.UserView, error) {
	u, err := s.store.GetUser(ctx, addr)
	if err != nil {
		if errors.Is(err, govstore.ErrUserNotFound) {
			return nil, apperrors.ResourceNotFoundError(ErrUnknownUser, "user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return treasury.NewUserView(u), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
