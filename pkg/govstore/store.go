package govstore

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

var (
	// ErrProposalNotFound is returned when a proposal lookup finds no matching record.
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrVoteNotFound is returned when no vote exists for a (proposal, voter) pair.
	ErrVoteNotFound = errors.New("vote not found")
	// ErrVoteLocked is returned when a vote can no longer be restaged because it
	// was confirmed or observed on chain.
	ErrVoteLocked = errors.New("vote already confirmed")
	// ErrUserNotFound is returned when no participation record exists for an address.
	ErrUserNotFound = errors.New("user not found")
)

// ProposalStore persists proposals and their tallies.
type ProposalStore interface {
	UpsertProposal(ctx context.Context, p *governance.Proposal) error
	GetProposal(ctx context.Context, id *big.Int) (*governance.Proposal, error)
	ListProposals(ctx context.Context, opts ...QueryOption) ([]*governance.Proposal, error)
	MarkExecuted(ctx context.Context, id *big.Int, txHash string, at time.Time) error
	MarkCancelled(ctx context.Context, id *big.Int, at time.Time) error
}

// VoteStore persists staged and chain-observed votes.
type VoteStore interface {
	// ApplyChainVote upserts a vote observed on chain and recomputes the tally
	// of its proposal. applied is false when the vote had already been indexed.
	ApplyChainVote(ctx context.Context, v *governance.Vote) (p *governance.Proposal, applied bool, err error)
	StageVote(ctx context.Context, v *governance.Vote) error
	ConfirmVote(ctx context.Context, id *big.Int, voter common.Address, txHash string) error
	GetVote(ctx context.Context, id *big.Int, voter common.Address) (*governance.Vote, error)
	HasVoted(ctx context.Context, id *big.Int, voter common.Address) (bool, error)
	ListVotes(ctx context.Context, id *big.Int) ([]*governance.Vote, error)
}

// TreasuryStore persists treasury inflows and outflows.
type TreasuryStore interface {
	InsertTreasuryTransaction(ctx context.Context, tx *governance.TreasuryTransaction) (bool, error)
	ListTreasuryTransactions(ctx context.Context, opts ...QueryOption) ([]*governance.TreasuryTransaction, int, error)
	TreasuryBalances(ctx context.Context) (map[string]*big.Int, error)
}

// DelegationStore persists token delegation changes.
type DelegationStore interface {
	InsertDelegation(ctx context.Context, d *governance.Delegation) (bool, error)
	// EffectiveDelegations returns, for every delegator that is account or
	// delegates to account, its last delegation at or before block.
	EffectiveDelegations(ctx context.Context, account common.Address, block uint64) ([]*governance.Delegation, error)
}

// AnalyticsStore maintains per-user and per-day aggregates.
type AnalyticsStore interface {
	RefreshUser(ctx context.Context, addr common.Address, block uint64, at time.Time) error
	GetUser(ctx context.Context, addr common.Address) (*governance.User, error)
	RefreshDailyMetrics(ctx context.Context, day time.Time) error
	ListDailyMetrics(ctx context.Context, from, to time.Time) ([]*governance.DailyMetrics, error)
}

// CursorStore tracks indexing progress.
type CursorStore interface {
	// GetCursor returns the last fully processed block. ok is false when the
	// cursor has never been written.
	GetCursor(ctx context.Context, name string) (block uint64, ok bool, err error)
	// AdvanceCursor moves the cursor forward; lower values are ignored.
	AdvanceCursor(ctx context.Context, name string, block uint64) error
	// SetCursor overwrites the cursor, including moving it backwards.
	SetCursor(ctx context.Context, name string, block uint64) error
}

// Store defines the interface for governance data persistence
type Store interface {
	ProposalStore
	VoteStore
	TreasuryStore
	DelegationStore
	AnalyticsStore
	CursorStore
	Ping(ctx context.Context) error
}

// QueryOptions defines options for list queries
type QueryOptions struct {
	Proposer *common.Address
	TxType   *governance.TreasuryTxType
	Asset    *string
	Limit    int
	Offset   int
}

// QueryOption is a functional option for list queries
type QueryOption func(*QueryOptions)

// WithProposer filters proposals by proposer
func WithProposer(addr common.Address) QueryOption {
	return func(opts *QueryOptions) {
		opts.Proposer = &addr
	}
}

// WithTxType filters treasury transactions by type
func WithTxType(t governance.TreasuryTxType) QueryOption {
	return func(opts *QueryOptions) {
		opts.TxType = &t
	}
}

// WithAsset filters treasury transactions by asset
func WithAsset(asset string) QueryOption {
	return func(opts *QueryOptions) {
		opts.Asset = &asset
	}
}

// WithPage limits the result set
func WithPage(limit, offset int) QueryOption {
	return func(opts *QueryOptions) {
		opts.Limit = limit
		opts.Offset = offset
	}
}

func applyOptions(opts []QueryOption) *QueryOptions {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
