package govstore

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

// ProposalDao maps to the 'proposals' table.
type ProposalDao struct {
	bun.BaseModel  `bun:"table:proposals,alias:p"`
	ProposalID     string     `bun:"proposal_id,pk,type:numeric(78,0)"`
	Proposer       string     `bun:"proposer,notnull,type:varchar(42)"`
	Title          string     `bun:"title,notnull,type:text"`
	Description    string     `bun:"description,notnull,type:text"`
	Target         *string    `bun:"target,type:varchar(42)"`
	Value          string     `bun:"value,notnull,type:numeric(78,0),default:0"`
	CallData       []byte     `bun:"call_data,type:bytea"`
	MetadataCID    *string    `bun:"metadata_cid,type:varchar(128)"`
	SnapshotBlock  int64      `bun:"snapshot_block,notnull"`
	StartTime      time.Time  `bun:"start_time,notnull"`
	EndTime        time.Time  `bun:"end_time,notnull"`
	ForVotes       string     `bun:"for_votes,notnull,type:numeric(78,0),default:0"`
	AgainstVotes   string     `bun:"against_votes,notnull,type:numeric(78,0),default:0"`
	AbstainVotes   string     `bun:"abstain_votes,notnull,type:numeric(78,0),default:0"`
	Executed       bool       `bun:"executed,notnull,default:false"`
	ExecutedTxHash *string    `bun:"executed_tx_hash,type:varchar(66)"`
	ExecutedAt     *time.Time `bun:"executed_at"`
	Cancelled      bool       `bun:"cancelled,notnull,default:false"`
	CancelledAt    *time.Time `bun:"cancelled_at"`
	CreatedTxHash  string     `bun:"created_tx_hash,notnull,type:varchar(66)"`
	CreatedBlock   int64      `bun:"created_block,notnull"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// VoteDao maps to the 'votes' table. BlockNumber is set once the vote has
// been observed on chain, after which the row is never rewritten.
type VoteDao struct {
	bun.BaseModel  `bun:"table:votes,alias:v"`
	ID             int64      `bun:"id,pk,autoincrement"`
	ProposalID     string     `bun:"proposal_id,notnull,type:numeric(78,0),unique:uq_votes_proposal_voter"`
	Voter          string     `bun:"voter,notnull,type:varchar(42),unique:uq_votes_proposal_voter"`
	Support        int16      `bun:"support,notnull"`
	Weight         string     `bun:"weight,notnull,type:numeric(78,0),default:0"`
	Reason         *string    `bun:"reason,type:text"`
	Status         string     `bun:"status,notnull,type:varchar(16)"`
	TxHash         *string    `bun:"tx_hash,type:varchar(66)"`
	LogIndex       *int64     `bun:"log_index"`
	BlockNumber    *int64     `bun:"block_number"`
	BlockTimestamp *time.Time `bun:"block_timestamp"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// TreasuryTransactionDao maps to the 'treasury_transactions' table.
type TreasuryTransactionDao struct {
	bun.BaseModel  `bun:"table:treasury_transactions,alias:tt"`
	ID             int64     `bun:"id,pk,autoincrement"`
	TxHash         string    `bun:"tx_hash,notnull,type:varchar(66),unique:uq_treasury_tx_log"`
	LogIndex       int64     `bun:"log_index,notnull,unique:uq_treasury_tx_log"`
	Type           string    `bun:"type,notnull,type:varchar(16)"`
	Asset          string    `bun:"asset,notnull,type:varchar(42)"`
	Amount         string    `bun:"amount,notnull,type:numeric(78,0)"`
	Counterparty   string    `bun:"counterparty,notnull,type:varchar(42)"`
	BlockNumber    int64     `bun:"block_number,notnull"`
	BlockTimestamp time.Time `bun:"block_timestamp,notnull"`
	Status         string    `bun:"status,notnull,type:varchar(16),default:'confirmed'"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// DelegationDao maps to the 'delegations' table.
type DelegationDao struct {
	bun.BaseModel `bun:"table:delegations,alias:dg"`
	ID            int64     `bun:"id,pk,autoincrement"`
	TxHash        string    `bun:"tx_hash,notnull,type:varchar(66),unique:uq_delegations_tx_log"`
	LogIndex      int64     `bun:"log_index,notnull,unique:uq_delegations_tx_log"`
	Delegator     string    `bun:"delegator,notnull,type:varchar(42)"`
	FromDelegate  string    `bun:"from_delegate,notnull,type:varchar(42)"`
	ToDelegate    string    `bun:"to_delegate,notnull,type:varchar(42)"`
	BlockNumber   int64     `bun:"block_number,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// UserDao maps to the 'users' table.
type UserDao struct {
	bun.BaseModel    `bun:"table:users,alias:u"`
	Address          string    `bun:"address,pk,type:varchar(42)"`
	FirstSeenBlock   int64     `bun:"first_seen_block,notnull"`
	LastActiveAt     time.Time `bun:"last_active_at,notnull"`
	ProposalsCreated int       `bun:"proposals_created,notnull,default:0"`
	VotesCast        int       `bun:"votes_cast,notnull,default:0"`
}

// DailyMetricsDao maps to the 'dao_metrics' table.
type DailyMetricsDao struct {
	bun.BaseModel    `bun:"table:dao_metrics,alias:dm"`
	Date             time.Time `bun:"date,pk,type:date"`
	ProposalsCreated int       `bun:"proposals_created,notnull,default:0"`
	VotesCast        int       `bun:"votes_cast,notnull,default:0"`
	UniqueVoters     int       `bun:"unique_voters,notnull,default:0"`
	TreasuryInflow   string    `bun:"treasury_inflow,notnull,type:numeric(78,0),default:0"`
	TreasuryOutflow  string    `bun:"treasury_outflow,notnull,type:numeric(78,0),default:0"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// IndexerCursorDao maps to the 'indexer_cursor' table.
type IndexerCursorDao struct {
	bun.BaseModel `bun:"table:indexer_cursor,alias:ic"`
	Name          string    `bun:"name,pk,type:varchar(100)"`
	LastBlock     int64     `bun:"last_block,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toProposalDao(p *governance.Proposal) *ProposalDao {
	dao := &ProposalDao{
		ProposalID:     bigString(p.ID),
		Proposer:       p.Proposer.Hex(),
		Title:          p.Title,
		Description:    p.Description,
		Value:          bigString(p.Value),
		CallData:       p.CallData,
		MetadataCID:    strPtr(p.MetadataCID),
		SnapshotBlock:  int64(p.SnapshotBlock),
		StartTime:      p.StartTime.UTC(),
		EndTime:        p.EndTime.UTC(),
		ForVotes:       bigString(p.ForVotes),
		AgainstVotes:   bigString(p.AgainstVotes),
		AbstainVotes:   bigString(p.AbstainVotes),
		Executed:       p.Executed,
		ExecutedTxHash: strPtr(p.ExecutedTxHash),
		ExecutedAt:     p.ExecutedAt,
		Cancelled:      p.Cancelled,
		CancelledAt:    p.CancelledAt,
		CreatedTxHash:  p.CreatedTxHash,
		CreatedBlock:   int64(p.CreatedBlock),
		CreatedAt:      p.CreatedAt.UTC(),
	}
	if p.Target != nil {
		target := p.Target.Hex()
		dao.Target = &target
	}
	return dao
}

func toProposal(dao *ProposalDao) *governance.Proposal {
	p := &governance.Proposal{
		ID:             parseBig(dao.ProposalID),
		Proposer:       common.HexToAddress(dao.Proposer),
		Title:          dao.Title,
		Description:    dao.Description,
		Value:          parseBig(dao.Value),
		CallData:       dao.CallData,
		MetadataCID:    derefStr(dao.MetadataCID),
		SnapshotBlock:  uint64(dao.SnapshotBlock),
		StartTime:      dao.StartTime,
		EndTime:        dao.EndTime,
		ForVotes:       parseBig(dao.ForVotes),
		AgainstVotes:   parseBig(dao.AgainstVotes),
		AbstainVotes:   parseBig(dao.AbstainVotes),
		Executed:       dao.Executed,
		ExecutedTxHash: derefStr(dao.ExecutedTxHash),
		ExecutedAt:     dao.ExecutedAt,
		Cancelled:      dao.Cancelled,
		CancelledAt:    dao.CancelledAt,
		CreatedTxHash:  dao.CreatedTxHash,
		CreatedBlock:   uint64(dao.CreatedBlock),
		CreatedAt:      dao.CreatedAt,
	}
	if dao.Target != nil {
		target := common.HexToAddress(*dao.Target)
		p.Target = &target
	}
	return p
}

func toVoteDao(v *governance.Vote) *VoteDao {
	dao := &VoteDao{
		ProposalID:     bigString(v.ProposalID),
		Voter:          v.Voter.Hex(),
		Support:        int16(v.Support),
		Weight:         bigString(v.Weight),
		Reason:         strPtr(v.Reason),
		Status:         string(v.Status),
		TxHash:         strPtr(v.TxHash),
		BlockTimestamp: v.BlockTimestamp,
	}
	if v.LogIndex != nil {
		idx := int64(*v.LogIndex)
		dao.LogIndex = &idx
	}
	if v.BlockNumber != nil {
		bn := int64(*v.BlockNumber)
		dao.BlockNumber = &bn
	}
	return dao
}

func toVote(dao *VoteDao) *governance.Vote {
	v := &governance.Vote{
		ProposalID:     parseBig(dao.ProposalID),
		Voter:          common.HexToAddress(dao.Voter),
		Support:        governance.Support(dao.Support),
		Weight:         parseBig(dao.Weight),
		Reason:         derefStr(dao.Reason),
		Status:         governance.VoteStatus(dao.Status),
		TxHash:         derefStr(dao.TxHash),
		BlockTimestamp: dao.BlockTimestamp,
		CreatedAt:      dao.CreatedAt,
	}
	if dao.LogIndex != nil {
		idx := uint(*dao.LogIndex)
		v.LogIndex = &idx
	}
	if dao.BlockNumber != nil {
		bn := uint64(*dao.BlockNumber)
		v.BlockNumber = &bn
	}
	return v
}

func toTreasuryTransactionDao(tx *governance.TreasuryTransaction) *TreasuryTransactionDao {
	status := tx.Status
	if status == "" {
		status = "confirmed"
	}
	return &TreasuryTransactionDao{
		TxHash:         tx.TxHash,
		LogIndex:       int64(tx.LogIndex),
		Type:           string(tx.Type),
		Asset:          tx.Asset,
		Amount:         bigString(tx.Amount),
		Counterparty:   tx.Counterparty.Hex(),
		BlockNumber:    int64(tx.BlockNumber),
		BlockTimestamp: tx.BlockTimestamp.UTC(),
		Status:         status,
	}
}

func toTreasuryTransaction(dao *TreasuryTransactionDao) *governance.TreasuryTransaction {
	return &governance.TreasuryTransaction{
		TxHash:         dao.TxHash,
		LogIndex:       uint(dao.LogIndex),
		Type:           governance.TreasuryTxType(dao.Type),
		Asset:          dao.Asset,
		Amount:         parseBig(dao.Amount),
		Counterparty:   common.HexToAddress(dao.Counterparty),
		BlockNumber:    uint64(dao.BlockNumber),
		BlockTimestamp: dao.BlockTimestamp,
		Status:         dao.Status,
	}
}

func toDelegationDao(d *governance.Delegation) *DelegationDao {
	return &DelegationDao{
		TxHash:       d.TxHash,
		LogIndex:     int64(d.LogIndex),
		Delegator:    d.Delegator.Hex(),
		FromDelegate: d.FromDelegate.Hex(),
		ToDelegate:   d.ToDelegate.Hex(),
		BlockNumber:  int64(d.BlockNumber),
	}
}

func toDelegation(dao *DelegationDao) *governance.Delegation {
	return &governance.Delegation{
		TxHash:       dao.TxHash,
		LogIndex:     uint(dao.LogIndex),
		Delegator:    common.HexToAddress(dao.Delegator),
		FromDelegate: common.HexToAddress(dao.FromDelegate),
		ToDelegate:   common.HexToAddress(dao.ToDelegate),
		BlockNumber:  uint64(dao.BlockNumber),
	}
}

func toUser(dao *UserDao) *governance.User {
	return &governance.User{
		Address:          common.HexToAddress(dao.Address),
		FirstSeenBlock:   uint64(dao.FirstSeenBlock),
		LastActiveAt:     dao.LastActiveAt,
		ProposalsCreated: dao.ProposalsCreated,
		VotesCast:        dao.VotesCast,
	}
}

func toDailyMetrics(dao *DailyMetricsDao) *governance.DailyMetrics {
	return &governance.DailyMetrics{
		Date:             dao.Date,
		ProposalsCreated: dao.ProposalsCreated,
		VotesCast:        dao.VotesCast,
		UniqueVoters:     dao.UniqueVoters,
		TreasuryInflow:   parseBig(dao.TreasuryInflow),
		TreasuryOutflow:  parseBig(dao.TreasuryOutflow),
	}
}
