// Package governance holds the domain model shared by the indexer, the store
// and the proposal, voting and treasury services.
package governance

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Support is the API encoding of a vote choice.
type Support uint8

const (
	SupportAgainst Support = 0
	SupportFor     Support = 1
	SupportAbstain Support = 2
)

// Valid reports whether s is one of against, for or abstain.
func (s Support) Valid() bool {
	return s <= SupportAbstain
}

func (s Support) String() string {
	switch s {
	case SupportAgainst:
		return "against"
	case SupportFor:
		return "for"
	case SupportAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// VoteStatus tracks how far a vote has progressed towards the chain.
type VoteStatus string

const (
	VoteStatusPending   VoteStatus = "pending"
	VoteStatusConfirmed VoteStatus = "confirmed"
)

// Proposal is the persisted view of an on-chain proposal.
type Proposal struct {
	ID            *big.Int
	Proposer      common.Address
	Title         string
	Description   string
	Target        *common.Address
	Value         *big.Int
	CallData      []byte
	MetadataCID   string
	SnapshotBlock uint64
	StartTime     time.Time
	EndTime       time.Time

	ForVotes     *big.Int
	AgainstVotes *big.Int
	AbstainVotes *big.Int

	Executed       bool
	ExecutedTxHash string
	ExecutedAt     *time.Time
	Cancelled      bool
	CancelledAt    *time.Time

	CreatedTxHash string
	CreatedBlock  uint64
	CreatedAt     time.Time
}

// TotalVotes returns for + against + abstain.
func (p *Proposal) TotalVotes() *big.Int {
	total := new(big.Int)
	for _, v := range []*big.Int{p.ForVotes, p.AgainstVotes, p.AbstainVotes} {
		if v != nil {
			total.Add(total, v)
		}
	}
	return total
}

// Vote is a single voter's ballot on a proposal. BlockNumber is nil until the
// indexer has observed the Voted event on chain.
type Vote struct {
	ProposalID     *big.Int
	Voter          common.Address
	Support        Support
	Weight         *big.Int
	Reason         string
	Status         VoteStatus
	TxHash         string
	LogIndex       *uint
	BlockNumber    *uint64
	BlockTimestamp *time.Time
	CreatedAt      time.Time
}

// OnChain reports whether the vote was observed in a chain event.
func (v *Vote) OnChain() bool {
	return v.BlockNumber != nil
}

// TreasuryTxType distinguishes inflows from outflows.
type TreasuryTxType string

const (
	TreasuryDeposit    TreasuryTxType = "deposit"
	TreasuryWithdrawal TreasuryTxType = "withdrawal"
)

// AssetETH is the asset name used for native currency movements.
const AssetETH = "ETH"

// TreasuryTransaction is one inflow or outflow observed on the treasury contract.
type TreasuryTransaction struct {
	TxHash         string
	LogIndex       uint
	Type           TreasuryTxType
	Asset          string
	Amount         *big.Int
	Counterparty   common.Address
	BlockNumber    uint64
	BlockTimestamp time.Time
	Status         string
}

// Delegation is a DelegateChanged event on the governance token.
type Delegation struct {
	TxHash       string
	LogIndex     uint
	Delegator    common.Address
	FromDelegate common.Address
	ToDelegate   common.Address
	BlockNumber  uint64
}

// User aggregates participation counters for an address.
type User struct {
	Address          common.Address
	FirstSeenBlock   uint64
	LastActiveAt     time.Time
	ProposalsCreated int
	VotesCast        int
}

// DailyMetrics is the per-day analytics row.
type DailyMetrics struct {
	Date             time.Time
	ProposalsCreated int
	VotesCast        int
	UniqueVoters     int
	TreasuryInflow   *big.Int
	TreasuryOutflow  *big.Int
}

// TxRequest is an unsigned transaction the caller submits with their wallet.
type TxRequest struct {
	To    common.Address `json:"to"`
	Data  string         `json:"data"`
	Value string         `json:"value"`
}
