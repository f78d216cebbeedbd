package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/ethereum/contracts"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

var (
	daoAddr      = common.HexToAddress("0x1111111111111111111111111111111111111111")
	treasuryAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenAddr    = common.HexToAddress("0x3333333333333333333333333333333333333333")
	alice        = common.HexToAddress("0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa")
	bob          = common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")
)

const baseTimestamp = 1_700_000_000

// fakeChain serves logs from memory and records every log query.
type fakeChain struct {
	mu       sync.Mutex
	logs     []types.Log
	head     uint64
	failFrom map[uint64]error
	inputs   map[common.Hash][]byte
	queries  [][2]uint64
	tsErr    error

	// ws enables SubscribeFilterLogs; logs sent on live are pushed to the
	// subscriber.
	ws   bool
	live chan types.Log
}

func newFakeChain(head uint64) *fakeChain {
	return &fakeChain{
		head:     head,
		failFrom: make(map[uint64]error),
		inputs:   make(map[common.Hash][]byte),
		live:     make(chan types.Log, 16),
	}
}

func (c *fakeChain) Addresses() []common.Address {
	return []common.Address{daoAddr, treasuryAddr, tokenAddr}
}

func (c *fakeChain) HasWebSocket() bool { return c.ws }

func (c *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *fakeChain) setHead(head uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = head
}

func (c *fakeChain) setFailure(from uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failFrom, from)
		return
	}
	c.failFrom[from] = err
}

func (c *fakeChain) addLog(l types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, l)
}

func (c *fakeChain) FilterLogs(_ context.Context, q geth.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	c.queries = append(c.queries, [2]uint64{from, to})
	if err, ok := c.failFrom[from]; ok {
		return nil, err
	}

	topics := make(map[common.Hash]bool)
	for _, t := range q.Topics[0] {
		topics[t] = true
	}
	var out []types.Log
	for _, l := range c.logs {
		if l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		if len(l.Topics) > 0 && !topics[l.Topics[0]] {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *fakeChain) SubscribeFilterLogs(_ context.Context, _ geth.FilterQuery, ch chan<- types.Log) (geth.Subscription, error) {
	if !c.ws {
		return nil, errors.New("websocket not available")
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		for {
			select {
			case l := <-c.live:
				select {
				case ch <- l:
				case <-quit:
					return nil
				}
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (c *fakeChain) BlockTimestamp(_ context.Context, n uint64) (time.Time, error) {
	if c.tsErr != nil {
		return time.Time{}, c.tsErr
	}
	return time.Unix(int64(baseTimestamp+n), 0).UTC(), nil
}

func (c *fakeChain) TransactionInput(_ context.Context, hash common.Hash) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	input, ok := c.inputs[hash]
	if !ok {
		return nil, fmt.Errorf("transaction %s not found", hash.Hex())
	}
	return input, nil
}

func (c *fakeChain) queryLog() [][2]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][2]uint64(nil), c.queries...)
}

// memStore is an in-memory govstore.Store with the same idempotency rules as
// the postgres implementation for the methods the pipeline uses.
type memStore struct {
	govstore.Store

	mu          sync.Mutex
	proposals   map[string]*governance.Proposal
	votes       map[string]*governance.Vote
	treasury    map[string]*governance.TreasuryTransaction
	delegations map[string]*governance.Delegation
	users       map[common.Address]int
	days        map[time.Time]int
	cursors     map[string]uint64
	failUpsert  error
}

func newMemStore() *memStore {
	return &memStore{
		proposals:   make(map[string]*governance.Proposal),
		votes:       make(map[string]*governance.Vote),
		treasury:    make(map[string]*governance.TreasuryTransaction),
		delegations: make(map[string]*governance.Delegation),
		users:       make(map[common.Address]int),
		days:        make(map[time.Time]int),
		cursors:     make(map[string]uint64),
	}
}

func (s *memStore) UpsertProposal(_ context.Context, p *governance.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert != nil {
		return s.failUpsert
	}
	cp := *p
	if existing, ok := s.proposals[p.ID.String()]; ok {
		cp.ForVotes, cp.AgainstVotes, cp.AbstainVotes = existing.ForVotes, existing.AgainstVotes, existing.AbstainVotes
		cp.Executed, cp.Cancelled = existing.Executed, existing.Cancelled
	} else {
		cp.ForVotes, cp.AgainstVotes, cp.AbstainVotes = new(big.Int), new(big.Int), new(big.Int)
	}
	s.proposals[p.ID.String()] = &cp
	return nil
}

func (s *memStore) GetProposal(_ context.Context, id *big.Int) (*governance.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id.String()]
	if !ok {
		return nil, govstore.ErrProposalNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ListProposals(context.Context, ...govstore.QueryOption) ([]*governance.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*governance.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) MarkExecuted(_ context.Context, id *big.Int, _ string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id.String()]
	if !ok {
		return govstore.ErrProposalNotFound
	}
	p.Executed = true
	return nil
}

func (s *memStore) MarkCancelled(_ context.Context, id *big.Int, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id.String()]
	if !ok {
		return govstore.ErrProposalNotFound
	}
	p.Cancelled = true
	return nil
}

func (s *memStore) ApplyChainVote(_ context.Context, v *governance.Vote) (*governance.Proposal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[v.ProposalID.String()]
	if !ok {
		return nil, false, govstore.ErrProposalNotFound
	}

	key := v.ProposalID.String() + "/" + v.Voter.Hex()
	applied := false
	if existing, ok := s.votes[key]; !ok || !existing.OnChain() {
		cp := *v
		s.votes[key] = &cp
		applied = true
	}

	p.ForVotes, p.AgainstVotes, p.AbstainVotes = new(big.Int), new(big.Int), new(big.Int)
	for _, vote := range s.votes {
		if vote.ProposalID.Cmp(p.ID) != 0 || !vote.OnChain() {
			continue
		}
		switch vote.Support {
		case governance.SupportFor:
			p.ForVotes.Add(p.ForVotes, vote.Weight)
		case governance.SupportAgainst:
			p.AgainstVotes.Add(p.AgainstVotes, vote.Weight)
		case governance.SupportAbstain:
			p.AbstainVotes.Add(p.AbstainVotes, vote.Weight)
		}
	}
	cp := *p
	return &cp, applied, nil
}

func (s *memStore) InsertTreasuryTransaction(_ context.Context, tx *governance.TreasuryTransaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d", tx.TxHash, tx.LogIndex)
	if _, ok := s.treasury[key]; ok {
		return false, nil
	}
	s.treasury[key] = tx
	return true, nil
}

func (s *memStore) TreasuryBalances(context.Context) (map[string]*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*big.Int)
	for _, tx := range s.treasury {
		b, ok := out[tx.Asset]
		if !ok {
			b = new(big.Int)
			out[tx.Asset] = b
		}
		if tx.Type == governance.TreasuryDeposit {
			b.Add(b, tx.Amount)
		} else {
			b.Sub(b, tx.Amount)
		}
	}
	return out, nil
}

func (s *memStore) InsertDelegation(_ context.Context, d *governance.Delegation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%d", d.TxHash, d.LogIndex)
	if _, ok := s.delegations[key]; ok {
		return false, nil
	}
	s.delegations[key] = d
	return true, nil
}

func (s *memStore) RefreshUser(_ context.Context, addr common.Address, _ uint64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[addr]++
	return nil
}

func (s *memStore) RefreshDailyMetrics(_ context.Context, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[day.UTC().Truncate(24*time.Hour)]++
	return nil
}

func (s *memStore) GetCursor(_ context.Context, name string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.cursors[name]
	return block, ok, nil
}

func (s *memStore) AdvanceCursor(_ context.Context, name string, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.cursors[name]; !ok || block > current {
		s.cursors[name] = block
	}
	return nil
}

func (s *memStore) cursor(name string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.cursors[name]
	return block, ok
}

func (s *memStore) proposal(id int64) *governance.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[big.NewInt(id).String()]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// recordingNotifier keeps every notification it receives.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []governance.Notification
}

func (r *recordingNotifier) Notify(n governance.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) types() []governance.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]governance.NotificationType, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Type
	}
	return out
}

type testContracts struct {
	dao      *contracts.GovernanceDAO
	treasury *contracts.Treasury
	token    *contracts.GovernanceToken
}

func newTestContracts(t *testing.T) testContracts {
	t.Helper()
	dao, err := contracts.NewGovernanceDAO(daoAddr, nil)
	require.NoError(t, err)
	treasury, err := contracts.NewTreasury(treasuryAddr, nil)
	require.NoError(t, err)
	token, err := contracts.NewGovernanceToken(tokenAddr, nil)
	require.NoError(t, err)
	return testContracts{dao: dao, treasury: treasury, token: token}
}

func newTestDecoder(t *testing.T, chain BlockReader) *Decoder {
	t.Helper()
	c := newTestContracts(t)
	return NewDecoder(c.dao, c.treasury, c.token, chain, zap.NewNop())
}

// newTestIndexer wires an indexer with a running pipeline.
func newTestIndexer(t *testing.T, chain *fakeChain, store *memStore, notifier Notifier, chunkSize uint64) *Indexer {
	t.Helper()
	pipeline := NewPipeline(store, notifier, big.NewInt(100), 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pipeline.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return New(chain, newTestDecoder(t, chain), pipeline, store, "dao", chunkSize, zap.NewNop())
}

func txHash(block uint64, index uint) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index)))
}

func placeLog(t *testing.T, l types.Log, err error, block uint64, index uint) types.Log {
	t.Helper()
	require.NoError(t, err)
	l.BlockNumber = block
	l.Index = index
	l.TxHash = txHash(block, index)
	return l
}

func proposalCreatedLog(t *testing.T, id int64, block uint64, index uint) types.Log {
	t.Helper()
	start := big.NewInt(int64(baseTimestamp + block))
	l, err := contracts.EncodeLog(contracts.GovernanceDAOMetaData, daoAddr, contracts.EventProposalCreated,
		[]interface{}{big.NewInt(id), alice},
		[]interface{}{fmt.Sprintf("Proposal %d", id), start, new(big.Int).Add(start, big.NewInt(3600)), [32]byte{}},
	)
	return placeLog(t, l, err, block, index)
}

func votedLog(t *testing.T, id int64, voter common.Address, choice uint8, weight int64, block uint64, index uint) types.Log {
	t.Helper()
	l, err := contracts.EncodeLog(contracts.GovernanceDAOMetaData, daoAddr, contracts.EventVoted,
		[]interface{}{big.NewInt(id), voter},
		[]interface{}{choice, big.NewInt(weight), [32]byte{}},
	)
	return placeLog(t, l, err, block, index)
}

func executedLog(t *testing.T, id int64, block uint64, index uint) types.Log {
	t.Helper()
	l, err := contracts.EncodeLog(contracts.GovernanceDAOMetaData, daoAddr, contracts.EventProposalExecuted,
		[]interface{}{big.NewInt(id), bob}, nil)
	return placeLog(t, l, err, block, index)
}

func depositLog(t *testing.T, from common.Address, amount int64, block uint64, index uint) types.Log {
	t.Helper()
	l, err := contracts.EncodeLog(contracts.TreasuryMetaData, treasuryAddr, contracts.EventDepositedETH,
		[]interface{}{from}, []interface{}{big.NewInt(amount)})
	return placeLog(t, l, err, block, index)
}

func delegateLog(t *testing.T, delegator, to common.Address, block uint64, index uint) types.Log {
	t.Helper()
	l, err := contracts.EncodeLog(contracts.GovernanceTokenMetaData, tokenAddr, contracts.EventDelegateChanged,
		[]interface{}{delegator, common.Address{}, to}, nil)
	return placeLog(t, l, err, block, index)
}
