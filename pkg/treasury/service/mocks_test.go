package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

type fakeStore struct {
	ListTreasuryTransactionsFunc func(opts govstore.QueryOptions) ([]*governance.TreasuryTransaction, int, error)
	TreasuryBalancesFunc         func() (map[string]*big.Int, error)
	ListDailyMetricsFunc         func(from, to time.Time) ([]*governance.DailyMetrics, error)
	GetUserFunc                  func(addr common.Address) (*governance.User, error)
}

func (f *fakeStore) ListTreasuryTransactions(_ context.Context, opts ...govstore.QueryOption) ([]*governance.TreasuryTransaction, int, error) {
	var o govstore.QueryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return f.ListTreasuryTransactionsFunc(o)
}

func (f *fakeStore) TreasuryBalances(context.Context) (map[string]*big.Int, error) {
	return f.TreasuryBalancesFunc()
}

func (f *fakeStore) ListDailyMetrics(_ context.Context, from, to time.Time) ([]*governance.DailyMetrics, error) {
	return f.ListDailyMetricsFunc(from, to)
}

func (f *fakeStore) GetUser(_ context.Context, addr common.Address) (*governance.User, error) {
	return f.GetUserFunc(addr)
}

type fakeExplorer struct {
	enabled bool
	balance *big.Int
	err     error
	calls   int
}

func (f *fakeExplorer) Enabled() bool { return f.enabled }

func (f *fakeExplorer) Balance(context.Context, common.Address) (*big.Int, error) {
	f.calls++
	return f.balance, f.err
}
