package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/ethereum/contracts"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/ipfs"
)

// ErrUndecodable marks a log that cannot be turned into an Event. Such logs
// are skipped without failing the range they belong to.
var ErrUndecodable = errors.New("undecodable log")

// BlockReader provides the chain lookups needed while decoding.
type BlockReader interface {
	BlockTimestamp(ctx context.Context, number uint64) (time.Time, error)
	TransactionInput(ctx context.Context, hash common.Hash) ([]byte, error)
}

type decodeFunc func(ctx context.Context, l types.Log) (Event, error)

type handler struct {
	name    string
	address common.Address
	decode  decodeFunc
}

// Decoder turns raw logs of the DAO, treasury and token contracts into events.
type Decoder struct {
	dao      *contracts.GovernanceDAO
	treasury *contracts.Treasury
	token    *contracts.GovernanceToken
	chain    BlockReader
	logger   *zap.Logger

	topics   []common.Hash
	handlers map[common.Hash]handler
}

// NewDecoder creates a decoder for the given contract handles
func NewDecoder(
	dao *contracts.GovernanceDAO,
	treasury *contracts.Treasury,
	token *contracts.GovernanceToken,
	chain BlockReader,
	logger *zap.Logger,
) *Decoder {
	d := &Decoder{
		dao:      dao,
		treasury: treasury,
		token:    token,
		chain:    chain,
		logger:   logger,
	}
	d.makeHandlers()
	return d
}

func (d *Decoder) makeHandlers() {
	entries := []handler{
		{contracts.EventProposalCreated, d.dao.Address(), d.decodeProposalCreated},
		{contracts.EventVoted, d.dao.Address(), d.decodeVoted},
		{contracts.EventProposalExecuted, d.dao.Address(), d.decodeProposalExecuted},
		{contracts.EventProposalCancelled, d.dao.Address(), d.decodeProposalCancelled},
		{contracts.EventDepositedETH, d.treasury.Address(), d.decodeDepositedETH},
		{contracts.EventDepositedERC20, d.treasury.Address(), d.decodeDepositedERC20},
		{contracts.EventWithdrawnETH, d.treasury.Address(), d.decodeWithdrawnETH},
		{contracts.EventWithdrawnERC20, d.treasury.Address(), d.decodeWithdrawnERC20},
		{contracts.EventDelegateChanged, d.token.Address(), d.decodeDelegateChanged},
	}

	d.handlers = make(map[common.Hash]handler, len(entries))
	d.topics = make([]common.Hash, 0, len(entries))
	for _, h := range entries {
		id := d.eventID(h.name)
		d.handlers[id] = h
		d.topics = append(d.topics, id)
	}
}

func (d *Decoder) eventID(name string) common.Hash {
	switch name {
	case contracts.EventDepositedETH, contracts.EventDepositedERC20,
		contracts.EventWithdrawnETH, contracts.EventWithdrawnERC20:
		return d.treasury.EventID(name)
	case contracts.EventDelegateChanged:
		return d.token.EventID(name)
	default:
		return d.dao.EventID(name)
	}
}

// Topics returns the topic-0 values of every supported event.
func (d *Decoder) Topics() []common.Hash {
	return d.topics
}

// EventName returns the event name registered for topic, or "unknown".
func (d *Decoder) EventName(topic common.Hash) string {
	if h, ok := d.handlers[topic]; ok {
		return h.name
	}
	return "unknown"
}

// Decode turns l into an Event. Errors wrapping ErrUndecodable concern the
// log itself; any other error is a chain lookup failure.
func (d *Decoder) Decode(ctx context.Context, l types.Log) (Event, error) {
	if len(l.Topics) == 0 {
		return nil, undecodable("anonymous", l, errors.New("log has no topics"))
	}
	h, ok := d.handlers[l.Topics[0]]
	if !ok {
		return nil, undecodable("unknown", l, fmt.Errorf("unregistered topic %s", l.Topics[0].Hex()))
	}
	if l.Address != h.address {
		return nil, undecodable(h.name, l, fmt.Errorf("emitted by unexpected contract %s", l.Address.Hex()))
	}
	return h.decode(ctx, l)
}

func undecodable(name string, l types.Log, err error) error {
	return fmt.Errorf("%w: %s in tx %s (block %d, index %d): %v", ErrUndecodable, name, l.TxHash.Hex(), l.BlockNumber, l.Index, err)
}

func (d *Decoder) timestamp(ctx context.Context, l types.Log) (time.Time, error) {
	ts, err := d.chain.BlockTimestamp(ctx, l.BlockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get timestamp of block %d: %w", l.BlockNumber, err)
	}
	return ts, nil
}

func (d *Decoder) decodeProposalCreated(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.dao.ParseProposalCreated(l)
	if err != nil {
		return nil, undecodable(contracts.EventProposalCreated, l, err)
	}
	ts, err := d.timestamp(ctx, l)
	if err != nil {
		return nil, err
	}

	p := &governance.Proposal{
		ID:            ev.Id,
		Proposer:      ev.Proposer,
		Title:         ev.Title,
		Value:         new(big.Int),
		SnapshotBlock: l.BlockNumber,
		StartTime:     unixTime(ev.StartTime),
		EndTime:       unixTime(ev.EndTime),
		CreatedTxHash: l.TxHash.Hex(),
		CreatedBlock:  l.BlockNumber,
		CreatedAt:     ts,
	}
	d.enrich(ctx, p, l.TxHash)
	return &ProposalCreated{Proposal: p}, nil
}

// enrich recovers the fields the event does not carry from the creating
// transaction input. Failures leave p with the event fields only.
func (d *Decoder) enrich(ctx context.Context, p *governance.Proposal, txHash common.Hash) {
	input, err := d.chain.TransactionInput(ctx, txHash)
	if err != nil {
		d.logger.Warn("Failed to fetch proposal transaction input",
			zap.String("proposal_id", p.ID.String()),
			zap.String("tx_hash", txHash.Hex()),
			zap.Error(err))
		return
	}
	args, err := d.dao.UnpackCreateProposal(input)
	if err != nil {
		d.logger.Warn("Failed to decode proposal transaction input",
			zap.String("proposal_id", p.ID.String()),
			zap.String("tx_hash", txHash.Hex()),
			zap.Error(err))
		return
	}

	p.Description = args.Description
	if args.Target != (common.Address{}) {
		target := args.Target
		p.Target = &target
	}
	if args.Value != nil {
		p.Value = args.Value
	}
	if len(args.Data) > 0 {
		p.CallData = args.Data
	}
	if c, ok := ipfs.ExtractCID(args.Description); ok {
		p.MetadataCID = c
	}
}

func (d *Decoder) decodeVoted(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.dao.ParseVoted(l)
	if err != nil {
		return nil, undecodable(contracts.EventVoted, l, err)
	}
	support, err := contracts.SupportFromChoice(ev.Choice)
	if err != nil {
		return nil, undecodable(contracts.EventVoted, l, err)
	}
	ts, err := d.timestamp(ctx, l)
	if err != nil {
		return nil, err
	}

	logIndex := l.Index
	block := l.BlockNumber
	return &VoteCast{Vote: &governance.Vote{
		ProposalID:     ev.Id,
		Voter:          ev.Voter,
		Support:        governance.Support(support),
		Weight:         ev.Weight,
		Status:         governance.VoteStatusConfirmed,
		TxHash:         l.TxHash.Hex(),
		LogIndex:       &logIndex,
		BlockNumber:    &block,
		BlockTimestamp: &ts,
	}}, nil
}

func (d *Decoder) decodeProposalExecuted(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.dao.ParseProposalExecuted(l)
	if err != nil {
		return nil, undecodable(contracts.EventProposalExecuted, l, err)
	}
	ts, err := d.timestamp(ctx, l)
	if err != nil {
		return nil, err
	}
	return &ProposalExecuted{
		ProposalID:  ev.Id,
		Executor:    ev.Executor,
		TxHash:      l.TxHash.Hex(),
		BlockNumber: l.BlockNumber,
		At:          ts,
	}, nil
}

func (d *Decoder) decodeProposalCancelled(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.dao.ParseProposalCancelled(l)
	if err != nil {
		return nil, undecodable(contracts.EventProposalCancelled, l, err)
	}
	ts, err := d.timestamp(ctx, l)
	if err != nil {
		return nil, err
	}
	return &ProposalCancelled{
		ProposalID:  ev.Id,
		CancelledBy: ev.CancelledBy,
		BlockNumber: l.BlockNumber,
		At:          ts,
	}, nil
}

func (d *Decoder) treasuryMovement(
	ctx context.Context,
	l types.Log,
	name string,
	txType governance.TreasuryTxType,
	asset string,
	amount *big.Int,
	counterparty common.Address,
) (Event, error) {
	ts, err := d.timestamp(ctx, l)
	if err != nil {
		return nil, err
	}
	return &TreasuryMovement{
		Event: name,
		Tx: &governance.TreasuryTransaction{
			TxHash:         l.TxHash.Hex(),
			LogIndex:       l.Index,
			Type:           txType,
			Asset:          asset,
			Amount:         amount,
			Counterparty:   counterparty,
			BlockNumber:    l.BlockNumber,
			BlockTimestamp: ts,
			Status:         "confirmed",
		},
	}, nil
}

func (d *Decoder) decodeDepositedETH(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.treasury.ParseDepositedETH(l)
	if err != nil {
		return nil, undecodable(contracts.EventDepositedETH, l, err)
	}
	return d.treasuryMovement(ctx, l, contracts.EventDepositedETH, governance.TreasuryDeposit, governance.AssetETH, ev.Amount, ev.From)
}

func (d *Decoder) decodeDepositedERC20(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.treasury.ParseDepositedERC20(l)
	if err != nil {
		return nil, undecodable(contracts.EventDepositedERC20, l, err)
	}
	return d.treasuryMovement(ctx, l, contracts.EventDepositedERC20, governance.TreasuryDeposit, ev.Token.Hex(), ev.Amount, ev.From)
}

func (d *Decoder) decodeWithdrawnETH(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.treasury.ParseWithdrawnETH(l)
	if err != nil {
		return nil, undecodable(contracts.EventWithdrawnETH, l, err)
	}
	return d.treasuryMovement(ctx, l, contracts.EventWithdrawnETH, governance.TreasuryWithdrawal, governance.AssetETH, ev.Amount, ev.To)
}

func (d *Decoder) decodeWithdrawnERC20(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.treasury.ParseWithdrawnERC20(l)
	if err != nil {
		return nil, undecodable(contracts.EventWithdrawnERC20, l, err)
	}
	return d.treasuryMovement(ctx, l, contracts.EventWithdrawnERC20, governance.TreasuryWithdrawal, ev.Token.Hex(), ev.Amount, ev.To)
}

func (d *Decoder) decodeDelegateChanged(ctx context.Context, l types.Log) (Event, error) {
	ev, err := d.token.ParseDelegateChanged(l)
	if err != nil {
		return nil, undecodable(contracts.EventDelegateChanged, l, err)
	}
	ts, err := d.timestamp(ctx, l)
	if err != nil {
		return nil, err
	}
	return &DelegationChanged{
		Delegation: &governance.Delegation{
			TxHash:       l.TxHash.Hex(),
			LogIndex:     l.Index,
			Delegator:    ev.Delegator,
			FromDelegate: ev.FromDelegate,
			ToDelegate:   ev.ToDelegate,
			BlockNumber:  l.BlockNumber,
		},
		At: ts,
	}, nil
}

func unixTime(v *big.Int) time.Time {
	if v == nil || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}
