package service

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/dao-governance/pkg/app/errors"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
	"github.com/chainsafe/dao-governance/pkg/treasury"
)

var (
	treasuryAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	usdc         = "0x00000000000000000000000000000000000000D5"
	today        = time.Date(2026, 6, 15, 17, 30, 0, 0, time.UTC)
)

func eth(units string) *big.Int {
	v, _ := new(big.Int).SetString(units, 10)
	return v
}

func newTestService(store Store, explorer Explorer) Service {
	return NewService(store, explorer, treasuryAddr, zap.NewNop(), WithClock(func() time.Time { return today }))
}

func balancesStore(balances map[string]*big.Int) *fakeStore {
	return &fakeStore{TreasuryBalancesFunc: func() (map[string]*big.Int, error) { return balances, nil }}
}

func TestGetBalance_SortedAndFormatted(t *testing.T) {
	store := balancesStore(map[string]*big.Int{
		usdc:                big.NewInt(5_000_000),
		governance.AssetETH: eth("1500000000000000000"),
	})
	svc := newTestService(store, nil)

	resp, err := svc.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, treasuryAddr.Hex(), resp.Treasury)
	require.Len(t, resp.Balances, 2)
	assert.Equal(t, treasury.AssetBalance{Asset: usdc, Amount: "5000000"}, resp.Balances[0])
	assert.Equal(t, treasury.AssetBalance{Asset: "ETH", Amount: "1500000000000000000", Formatted: "1.5"}, resp.Balances[1])
	assert.Nil(t, resp.Explorer)
}

func TestGetBalance_ExplorerCrossCheck(t *testing.T) {
	tests := []struct {
		name     string
		explorer *fakeExplorer
		want     *treasury.ExplorerCheck
	}{
		{"disabled", &fakeExplorer{enabled: false}, nil},
		{"matches", &fakeExplorer{enabled: true, balance: big.NewInt(250)}, &treasury.ExplorerCheck{Balance: "250", Matches: true}},
		{"drift", &fakeExplorer{enabled: true, balance: big.NewInt(300)}, &treasury.ExplorerCheck{Balance: "300", Difference: "50"}},
		{"unavailable", &fakeExplorer{enabled: true, err: errors.New("timeout")}, &treasury.ExplorerCheck{Error: "explorer unavailable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(balancesStore(map[string]*big.Int{governance.AssetETH: big.NewInt(250)}), tt.explorer)

			resp, err := svc.GetBalance(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Explorer)
			if !tt.explorer.enabled {
				assert.Zero(t, tt.explorer.calls)
			}
		})
	}
}

func TestGetBalance_EmptyTreasuryAgainstExplorer(t *testing.T) {
	svc := newTestService(balancesStore(map[string]*big.Int{}), &fakeExplorer{enabled: true, balance: big.NewInt(0)})

	resp, err := svc.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Balances)
	assert.True(t, resp.Explorer.Matches)
}

func TestGetTransactions_FiltersAndPaging(t *testing.T) {
	var got govstore.QueryOptions
	store := &fakeStore{
		ListTreasuryTransactionsFunc: func(opts govstore.QueryOptions) ([]*governance.TreasuryTransaction, int, error) {
			got = opts
			return []*governance.TreasuryTransaction{{
				TxHash:       "0xabc",
				Type:         governance.TreasuryDeposit,
				Asset:        governance.AssetETH,
				Amount:       big.NewInt(7),
				Counterparty: treasuryAddr,
				BlockNumber:  12,
				Status:       "confirmed",
			}}, 41, nil
		},
	}
	svc := newTestService(store, nil)

	page, err := svc.GetTransactions(context.Background(), &treasury.TransactionFilter{Type: "deposit", Asset: "ETH", Page: 3, Limit: 10})
	require.NoError(t, err)

	require.NotNil(t, got.TxType)
	assert.Equal(t, governance.TreasuryDeposit, *got.TxType)
	require.NotNil(t, got.Asset)
	assert.Equal(t, "ETH", *got.Asset)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, 20, got.Offset)

	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 5, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "7", page.Items[0].Amount)
	assert.Equal(t, "deposit", page.Items[0].Type)
}

func TestGetTransactions_Defaults(t *testing.T) {
	var got govstore.QueryOptions
	store := &fakeStore{
		ListTreasuryTransactionsFunc: func(opts govstore.QueryOptions) ([]*governance.TreasuryTransaction, int, error) {
			got = opts
			return nil, 0, nil
		},
	}
	page, err := newTestService(store, nil).GetTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got.TxType)
	assert.Nil(t, got.Asset)
	assert.Equal(t, treasury.DefaultLimit, got.Limit)
	assert.Equal(t, 0, got.Offset)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
}

func TestGetTransactions_InvalidFilter(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	_, err := svc.GetTransactions(context.Background(), &treasury.TransactionFilter{Type: "mint"})
	var svcErr *apperrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "type must be one of: deposit, withdrawal", svcErr.Message)

	_, err = svc.GetTransactions(context.Background(), &treasury.TransactionFilter{Limit: 500})
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "limit must be at most 100", svcErr.Message)

	// (page-1)*limit would overflow into a negative offset.
	_, err = svc.GetTransactions(context.Background(), &treasury.TransactionFilter{Page: math.MaxInt, Limit: 100})
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "page must be at most 1000000", svcErr.Message)
}

func TestGetDailyMetrics_DefaultRange(t *testing.T) {
	var gotFrom, gotTo time.Time
	store := &fakeStore{
		ListDailyMetricsFunc: func(from, to time.Time) ([]*governance.DailyMetrics, error) {
			gotFrom, gotTo = from, to
			return []*governance.DailyMetrics{{
				Date:             time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC),
				ProposalsCreated: 2,
				VotesCast:        9,
				UniqueVoters:     4,
				TreasuryInflow:   big.NewInt(100),
				TreasuryOutflow:  big.NewInt(30),
			}}, nil
		},
	}

	resp, err := newTestService(store, nil).GetDailyMetrics(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), gotTo)
	assert.Equal(t, time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC), gotFrom)
	assert.Equal(t, "2026-05-16", resp.From)
	assert.Equal(t, "2026-06-15", resp.To)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2026-06-14", resp.Days[0].Date)
	assert.Equal(t, "70", resp.Days[0].NetFlow)
}

func TestGetDailyMetrics_InvalidRange(t *testing.T) {
	svc := newTestService(&fakeStore{}, nil)

	_, err := svc.GetDailyMetrics(context.Background(), today, today.Add(-48*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))

	_, err = svc.GetDailyMetrics(context.Background(), today.AddDate(-2, 0, 0), today)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestGetUser(t *testing.T) {
	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	store := &fakeStore{
		GetUserFunc: func(addr common.Address) (*governance.User, error) {
			if addr == alice {
				return &governance.User{Address: alice, FirstSeenBlock: 10, VotesCast: 3}, nil
			}
			return nil, govstore.ErrUserNotFound
		},
	}
	svc := newTestService(store, nil)

	view, err := svc.GetUser(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, alice.Hex(), view.Address)
	assert.Equal(t, 3, view.VotesCast)

	_, err = svc.GetUser(context.Background(), treasuryAddr)
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))
}
