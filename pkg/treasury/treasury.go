// Package treasury holds the request and response types of the treasury and
// analytics service.
package treasury

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

// DateLayout is the format of day parameters and daily metric dates.
const DateLayout = "2006-01-02"

// Query bounds.
const (
	DefaultLimit     = 20
	MaxLimit         = 100
	MaxPage          = 1_000_000
	DefaultDailySpan = 30 * 24 * time.Hour
	MaxDailySpan     = 366 * 24 * time.Hour
)

// nativeDecimals is the number of decimals of the chain's native currency.
const nativeDecimals = 18

// AssetBalance is the running balance of one asset. Amount is in base units;
// Formatted is only set for the native currency.
type AssetBalance struct {
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted,omitempty"`
}

// NewAssetBalance renders amount for asset.
func NewAssetBalance(asset string, amount *big.Int) AssetBalance {
	if amount == nil {
		amount = new(big.Int)
	}
	b := AssetBalance{Asset: asset, Amount: amount.String()}
	if asset == governance.AssetETH {
		b.Formatted = FormatUnits(amount, nativeDecimals)
	}
	return b
}

// FormatUnits renders a base unit amount with the given number of decimals.
func FormatUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ExplorerCheck compares the indexed native balance with the block explorer.
type ExplorerCheck struct {
	Balance    string `json:"balance,omitempty"`
	Matches    bool   `json:"matches"`
	Difference string `json:"difference,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BalanceResponse is the treasury balance sheet.
type BalanceResponse struct {
	Treasury string         `json:"treasury"`
	Balances []AssetBalance `json:"balances"`
	Explorer *ExplorerCheck `json:"explorer,omitempty"`
}

// TransactionFilter selects and pages treasury transactions.
type TransactionFilter struct {
	Type  string `json:"type,omitempty" validate:"omitempty,oneof=deposit withdrawal"`
	Asset string `json:"asset,omitempty" validate:"omitempty,max=42"`
	Page  int    `json:"page,omitempty" validate:"omitempty,min=1,max=1000000"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// TransactionView is the API representation of a treasury transaction.
type TransactionView struct {
	TxHash         string    `json:"tx_hash"`
	LogIndex       uint      `json:"log_index"`
	Type           string    `json:"type"`
	Asset          string    `json:"asset"`
	Amount         string    `json:"amount"`
	Counterparty   string    `json:"counterparty"`
	BlockNumber    uint64    `json:"block_number"`
	BlockTimestamp time.Time `json:"block_timestamp"`
	Status         string    `json:"status"`
}

// NewTransactionView converts tx for API responses.
func NewTransactionView(tx *governance.TreasuryTransaction) *TransactionView {
	amount := "0"
	if tx.Amount != nil {
		amount = tx.Amount.String()
	}
	return &TransactionView{
		TxHash:         tx.TxHash,
		LogIndex:       tx.LogIndex,
		Type:           string(tx.Type),
		Asset:          tx.Asset,
		Amount:         amount,
		Counterparty:   tx.Counterparty.Hex(),
		BlockNumber:    tx.BlockNumber,
		BlockTimestamp: tx.BlockTimestamp,
		Status:         tx.Status,
	}
}

// TransactionPage is one page of treasury transactions.
type TransactionPage struct {
	Items      []*TransactionView `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// DailyView is one day of DAO activity.
type DailyView struct {
	Date             string `json:"date"`
	ProposalsCreated int    `json:"proposals_created"`
	VotesCast        int    `json:"votes_cast"`
	UniqueVoters     int    `json:"unique_voters"`
	TreasuryInflow   string `json:"treasury_inflow"`
	TreasuryOutflow  string `json:"treasury_outflow"`
	NetFlow          string `json:"net_flow"`
}

// NewDailyView converts m for API responses.
func NewDailyView(m *governance.DailyMetrics) *DailyView {
	in, out := orZero(m.TreasuryInflow), orZero(m.TreasuryOutflow)
	return &DailyView{
		Date:             m.Date.UTC().Format(DateLayout),
		ProposalsCreated: m.ProposalsCreated,
		VotesCast:        m.VotesCast,
		UniqueVoters:     m.UniqueVoters,
		TreasuryInflow:   in.String(),
		TreasuryOutflow:  out.String(),
		NetFlow:          new(big.Int).Sub(in, out).String(),
	}
}

// DailyResponse lists daily metrics between two days, both included.
type DailyResponse struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Days []*DailyView `json:"days"`
}

// UserView is the participation record of an address.
type UserView struct {
	Address          string    `json:"address"`
	FirstSeenBlock   uint64    `json:"first_seen_block"`
	LastActiveAt     time.Time `json:"last_active_at"`
	ProposalsCreated int       `json:"proposals_created"`
	VotesCast        int       `json:"votes_cast"`
}

// NewUserView converts u for API responses.
func NewUserView(u *governance.User) *UserView {
	return &UserView{
		Address:          u.Address.Hex(),
		FirstSeenBlock:   u.FirstSeenBlock,
		LastActiveAt:     u.LastActiveAt,
		ProposalsCreated: u.ProposalsCreated,
		VotesCast:        u.VotesCast,
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
