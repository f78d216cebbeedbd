package govstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the governance store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertProposal inserts a proposal on first observation. Replays refresh the
// creation fields but never touch tallies or the executed/cancelled flags.
// Enrichment fields are only overwritten when the replay carries them.
func (s *pgStore) UpsertProposal(ctx context.Context, p *governance.Proposal) error {
	dao := toProposalDao(p)

	const enriched = "EXCLUDED.description <> ''"
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (proposal_id) DO UPDATE").
		Set("proposer = EXCLUDED.proposer").
		Set("title = EXCLUDED.title").
		Set("snapshot_block = EXCLUDED.snapshot_block").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("created_tx_hash = EXCLUDED.created_tx_hash").
		Set("created_block = EXCLUDED.created_block").
		Set("created_at = EXCLUDED.created_at").
		Set("description = CASE WHEN " + enriched + " THEN EXCLUDED.description ELSE p.description END").
		Set("target = CASE WHEN " + enriched + " THEN EXCLUDED.target ELSE p.target END").
		Set("value = CASE WHEN " + enriched + " THEN EXCLUDED.value ELSE p.value END").
		Set("call_data = CASE WHEN " + enriched + " THEN EXCLUDED.call_data ELSE p.call_data END").
		Set("metadata_cid = COALESCE(EXCLUDED.metadata_cid, p.metadata_cid)").
		Set("updated_at = current_timestamp").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert proposal %s: %w", dao.ProposalID, err)
	}
	return nil
}

func (s *pgStore) GetProposal(ctx context.Context, id *big.Int) (*governance.Proposal, error) {
	return getProposal(ctx, s.db, id)
}

func getProposal(ctx context.Context, db bun.IDB, id *big.Int) (*governance.Proposal, error) {
	dao := new(ProposalDao)
	err := db.NewSelect().
		Model(dao).
		Where("proposal_id = ?", bigString(id)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	return toProposal(dao), nil
}

// ListProposals returns proposals newest first.
func (s *pgStore) ListProposals(ctx context.Context, opts ...QueryOption) ([]*governance.Proposal, error) {
	options := applyOptions(opts)

	var daos []ProposalDao
	query := s.db.NewSelect().
		Model(&daos).
		OrderExpr("created_block DESC, proposal_id DESC")

	if options.Proposer != nil {
		query = query.Where("proposer = ?", options.Proposer.Hex())
	}
	if options.Limit > 0 {
		query = query.Limit(options.Limit).Offset(options.Offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	proposals := make([]*governance.Proposal, len(daos))
	for i := range daos {
		proposals[i] = toProposal(&daos[i])
	}
	return proposals, nil
}

func (s *pgStore) MarkExecuted(ctx context.Context, id *big.Int, txHash string, at time.Time) error {
	at = at.UTC()
	res, err := s.db.NewUpdate().
		Model((*ProposalDao)(nil)).
		Set("executed = TRUE").
		Set("executed_tx_hash = COALESCE(executed_tx_hash, ?)", txHash).
		Set("executed_at = COALESCE(executed_at, ?)", at).
		Set("updated_at = current_timestamp").
		Where("proposal_id = ?", bigString(id)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark proposal executed: %w", err)
	}
	return requireRow(res, ErrProposalNotFound)
}

func (s *pgStore) MarkCancelled(ctx context.Context, id *big.Int, at time.Time) error {
	at = at.UTC()
	res, err := s.db.NewUpdate().
		Model((*ProposalDao)(nil)).
		Set("cancelled = TRUE").
		Set("cancelled_at = COALESCE(cancelled_at, ?)", at).
		Set("updated_at = current_timestamp").
		Where("proposal_id = ?", bigString(id)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark proposal cancelled: %w", err)
	}
	return requireRow(res, ErrProposalNotFound)
}

// ApplyChainVote records a Voted event. A row that already carries a block
// number is left untouched, which makes replays no-ops. Tallies are then
// recomputed from the full set of chain-observed votes. Votes on unknown
// proposals return ErrProposalNotFound.
func (s *pgStore) ApplyChainVote(ctx context.Context, v *governance.Vote) (*governance.Proposal, bool, error) {
	dao := toVoteDao(v)
	dao.Status = string(governance.VoteStatusConfirmed)
	if dao.BlockNumber == nil {
		return nil, false, fmt.Errorf("chain vote for proposal %s has no block number", dao.ProposalID)
	}

	var (
		proposal *governance.Proposal
		applied  bool
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := getProposal(ctx, tx, v.ProposalID); err != nil {
			return err
		}

		res, err := tx.NewInsert().
			Model(dao).
			On("CONFLICT (proposal_id, voter) DO UPDATE").
			Set("support = EXCLUDED.support").
			Set("weight = EXCLUDED.weight").
			Set("status = EXCLUDED.status").
			Set("tx_hash = EXCLUDED.tx_hash").
			Set("log_index = EXCLUDED.log_index").
			Set("block_number = EXCLUDED.block_number").
			Set("block_timestamp = EXCLUDED.block_timestamp").
			Set("updated_at = current_timestamp").
			Where("v.block_number IS NULL").
			Returning("NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert vote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		applied = n > 0

		if err := recomputeTally(ctx, tx, dao.ProposalID); err != nil {
			return err
		}

		proposal, err = getProposal(ctx, tx, v.ProposalID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return proposal, applied, nil
}

func recomputeTally(ctx context.Context, db bun.IDB, proposalID string) error {
	const sumBySupport = `COALESCE((SELECT SUM(weight) FROM votes
		WHERE votes.proposal_id = p.proposal_id AND votes.block_number IS NOT NULL AND votes.support = ?), 0)`

	_, err := db.NewUpdate().
		Model((*ProposalDao)(nil)).
		Set("for_votes = "+sumBySupport, int16(governance.SupportFor)).
		Set("against_votes = "+sumBySupport, int16(governance.SupportAgainst)).
		Set("abstain_votes = "+sumBySupport, int16(governance.SupportAbstain)).
		Set("updated_at = current_timestamp").
		Where("proposal_id = ?", proposalID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to recompute tally for proposal %s: %w", proposalID, err)
	}
	return nil
}

// StageVote inserts or replaces a pending vote. Confirmed or chain-observed
// votes cannot be restaged.
func (s *pgStore) StageVote(ctx context.Context, v *governance.Vote) error {
	dao := toVoteDao(v)
	dao.Status = string(governance.VoteStatusPending)
	dao.BlockNumber = nil
	dao.LogIndex = nil
	dao.TxHash = nil

	res, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (proposal_id, voter) DO UPDATE").
		Set("support = EXCLUDED.support").
		Set("weight = EXCLUDED.weight").
		Set("reason = EXCLUDED.reason").
		Set("updated_at = current_timestamp").
		Where("v.status = ? AND v.block_number IS NULL", string(governance.VoteStatusPending)).
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to stage vote: %w", err)
	}
	return requireRow(res, ErrVoteLocked)
}

func (s *pgStore) ConfirmVote(ctx context.Context, id *big.Int, voter common.Address, txHash string) error {
	res, err := s.db.NewUpdate().
		Model((*VoteDao)(nil)).
		Set("status = ?", string(governance.VoteStatusConfirmed)).
		Set("tx_hash = ?", txHash).
		Set("updated_at = current_timestamp").
		Where("proposal_id = ?", bigString(id)).
		Where("voter = ?", voter.Hex()).
		Where("status = ?", string(governance.VoteStatusPending)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm vote: %w", err)
	}
	return requireRow(res, ErrVoteLocked)
}

func (s *pgStore) GetVote(ctx context.Context, id *big.Int, voter common.Address) (*governance.Vote, error) {
	dao := new(VoteDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("proposal_id = ?", bigString(id)).
		Where("voter = ?", voter.Hex()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return toVote(dao), nil
}

// HasVoted reports whether a confirmed vote exists. Pending votes do not count.
func (s *pgStore) HasVoted(ctx context.Context, id *big.Int, voter common.Address) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*VoteDao)(nil)).
		Where("proposal_id = ?", bigString(id)).
		Where("voter = ?", voter.Hex()).
		Where("status = ?", string(governance.VoteStatusConfirmed)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check vote exists: %w", err)
	}
	return exists, nil
}

func (s *pgStore) ListVotes(ctx context.Context, id *big.Int) ([]*governance.Vote, error) {
	var daos []VoteDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("proposal_id = ?", bigString(id)).
		OrderExpr("block_number ASC NULLS LAST, log_index ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	votes := make([]*governance.Vote, len(daos))
	for i := range daos {
		votes[i] = toVote(&daos[i])
	}
	return votes, nil
}

func (s *pgStore) InsertTreasuryTransaction(ctx context.Context, tx *governance.TreasuryTransaction) (bool, error) {
	res, err := s.db.NewInsert().
		Model(toTreasuryTransactionDao(tx)).
		On("CONFLICT (tx_hash, log_index) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert treasury transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ListTreasuryTransactions returns a page of transactions, newest first, and the total count.
func (s *pgStore) ListTreasuryTransactions(ctx context.Context, opts ...QueryOption) ([]*governance.TreasuryTransaction, int, error) {
	options := applyOptions(opts)

	var daos []TreasuryTransactionDao
	query := s.db.NewSelect().
		Model(&daos).
		OrderExpr("block_number DESC, log_index DESC")

	if options.TxType != nil {
		query = query.Where("type = ?", string(*options.TxType))
	}
	if options.Asset != nil {
		query = query.Where("asset = ?", *options.Asset)
	}
	if options.Limit > 0 {
		query = query.Limit(options.Limit).Offset(options.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list treasury transactions: %w", err)
	}

	txs := make([]*governance.TreasuryTransaction, len(daos))
	for i := range daos {
		txs[i] = toTreasuryTransaction(&daos[i])
	}
	return txs, total, nil
}

// TreasuryBalances returns the running balance per asset: deposits minus withdrawals.
func (s *pgStore) TreasuryBalances(ctx context.Context) (map[string]*big.Int, error) {
	var rows []struct {
		Asset   string `bun:"asset"`
		Balance string `bun:"balance"`
	}
	err := s.db.NewSelect().
		Model((*TreasuryTransactionDao)(nil)).
		Column("asset").
		ColumnExpr("SUM(CASE WHEN type = ? THEN amount ELSE -amount END)::text AS balance", string(governance.TreasuryDeposit)).
		Where("status = ?", "confirmed").
		Group("asset").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to compute treasury balances: %w", err)
	}

	balances := make(map[string]*big.Int, len(rows))
	for _, row := range rows {
		balances[row.Asset] = parseBig(row.Balance)
	}
	return balances, nil
}

func (s *pgStore) InsertDelegation(ctx context.Context, d *governance.Delegation) (bool, error) {
	res, err := s.db.NewInsert().
		Model(toDelegationDao(d)).
		On("CONFLICT (tx_hash, log_index) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert delegation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *pgStore) EffectiveDelegations(ctx context.Context, account common.Address, block uint64) ([]*governance.Delegation, error) {
	latest := s.db.NewSelect().
		Model((*DelegationDao)(nil)).
		DistinctOn("delegator").
		Where("block_number <= ?", int64(block)).
		OrderExpr("delegator, block_number DESC, log_index DESC")

	var daos []DelegationDao
	err := s.db.NewSelect().
		TableExpr("(?) AS eff", latest).
		ColumnExpr("eff.*").
		Where("eff.delegator = ? OR eff.to_delegate = ?", account.Hex(), account.Hex()).
		Scan(ctx, &daos)
	if err != nil {
		return nil, fmt.Errorf("failed to load effective delegations: %w", err)
	}

	delegations := make([]*governance.Delegation, len(daos))
	for i := range daos {
		delegations[i] = toDelegation(&daos[i])
	}
	return delegations, nil
}

// RefreshUser recomputes the participation counters of addr from the
// proposals and votes tables, so repeated calls are idempotent.
func (s *pgStore) RefreshUser(ctx context.Context, addr common.Address, block uint64, at time.Time) error {
	hex := addr.Hex()
	_, err := s.db.NewRaw(`
		INSERT INTO users (address, first_seen_block, last_active_at, proposals_created, votes_cast)
		VALUES (?, ?, ?,
			(SELECT COUNT(*) FROM proposals WHERE proposer = ?),
			(SELECT COUNT(*) FROM votes WHERE voter = ? AND block_number IS NOT NULL))
		ON CONFLICT (address) DO UPDATE SET
			first_seen_block = LEAST(users.first_seen_block, EXCLUDED.first_seen_block),
			last_active_at = GREATEST(users.last_active_at, EXCLUDED.last_active_at),
			proposals_created = EXCLUDED.proposals_created,
			votes_cast = EXCLUDED.votes_cast`,
		hex, int64(block), at.UTC(), hex, hex,
	).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh user %s: %w", hex, err)
	}
	return nil
}

func (s *pgStore) GetUser(ctx context.Context, addr common.Address) (*governance.User, error) {
	dao := new(UserDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("address = ?", addr.Hex()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUser(dao), nil
}

// RefreshDailyMetrics recomputes the analytics row of the UTC day containing day.
// Treasury flows only count native ETH so amounts of different assets are never summed.
func (s *pgStore) RefreshDailyMetrics(ctx context.Context, day time.Time) error {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	_, err := s.db.NewRaw(`
		INSERT INTO dao_metrics (date, proposals_created, votes_cast, unique_voters, treasury_inflow, treasury_outflow, updated_at)
		SELECT ?::date,
			(SELECT COUNT(*) FROM proposals WHERE created_at >= ? AND created_at < ?),
			(SELECT COUNT(*) FROM votes WHERE block_number IS NOT NULL AND block_timestamp >= ? AND block_timestamp < ?),
			(SELECT COUNT(DISTINCT voter) FROM votes WHERE block_number IS NOT NULL AND block_timestamp >= ? AND block_timestamp < ?),
			COALESCE((SELECT SUM(amount) FROM treasury_transactions
				WHERE type = ? AND asset = ? AND block_timestamp >= ? AND block_timestamp < ?), 0),
			COALESCE((SELECT SUM(amount) FROM treasury_transactions
				WHERE type = ? AND asset = ? AND block_timestamp >= ? AND block_timestamp < ?), 0),
			current_timestamp
		ON CONFLICT (date) DO UPDATE SET
			proposals_created = EXCLUDED.proposals_created,
			votes_cast = EXCLUDED.votes_cast,
			unique_voters = EXCLUDED.unique_voters,
			treasury_inflow = EXCLUDED.treasury_inflow,
			treasury_outflow = EXCLUDED.treasury_outflow,
			updated_at = EXCLUDED.updated_at`,
		start.Format("2006-01-02"),
		start, end,
		start, end,
		start, end,
		string(governance.TreasuryDeposit), governance.AssetETH, start, end,
		string(governance.TreasuryWithdrawal), governance.AssetETH, start, end,
	).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh daily metrics for %s: %w", start.Format("2006-01-02"), err)
	}
	return nil
}

func (s *pgStore) ListDailyMetrics(ctx context.Context, from, to time.Time) ([]*governance.DailyMetrics, error) {
	var daos []DailyMetricsDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("date >= ?::date", from.UTC().Format("2006-01-02")).
		Where("date <= ?::date", to.UTC().Format("2006-01-02")).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily metrics: %w", err)
	}
	metrics := make([]*governance.DailyMetrics, len(daos))
	for i := range daos {
		metrics[i] = toDailyMetrics(&daos[i])
	}
	return metrics, nil
}

func (s *pgStore) GetCursor(ctx context.Context, name string) (uint64, bool, error) {
	dao := new(IndexerCursorDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cursor %s: %w", name, err)
	}
	return uint64(dao.LastBlock), true, nil
}

func (s *pgStore) AdvanceCursor(ctx context.Context, name string, block uint64) error {
	_, err := s.db.NewInsert().
		Model(&IndexerCursorDao{Name: name, LastBlock: int64(block)}).
		On("CONFLICT (name) DO UPDATE").
		Set("last_block = EXCLUDED.last_block").
		Set("updated_at = current_timestamp").
		Where("ic.last_block < EXCLUDED.last_block").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to advance cursor %s: %w", name, err)
	}
	return nil
}

func (s *pgStore) SetCursor(ctx context.Context, name string, block uint64) error {
	_, err := s.db.NewInsert().
		Model(&IndexerCursorDao{Name: name, LastBlock: int64(block)}).
		On("CONFLICT (name) DO UPDATE").
		Set("last_block = EXCLUDED.last_block").
		Set("updated_at = current_timestamp").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set cursor %s: %w", name, err)
	}
	return nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
