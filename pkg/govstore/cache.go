package govstore

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

// CachedStore keeps recently read proposals in memory. Every write that can
// change a proposal evicts its entry once the write returns.
//
// Each proposal has a write generation. A read only fills the cache when no
// write to that proposal finished while it was reading, so a row loaded
// before a write can never be cached after the write evicted.
type CachedStore struct {
	Store
	proposals *lru.Cache[string, *governance.Proposal]

	mu   sync.Mutex
	gens map[string]uint64
}

// NewCachedStore wraps store with a proposal cache holding up to size entries.
func NewCachedStore(store Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, *governance.Proposal](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal cache: %w", err)
	}
	return &CachedStore{Store: store, proposals: cache, gens: make(map[string]uint64)}, nil
}

func (c *CachedStore) GetProposal(ctx context.Context, id *big.Int) (*governance.Proposal, error) {
	key := id.String()
	if p, ok := c.proposals.Get(key); ok {
		return copyProposal(p), nil
	}

	c.mu.Lock()
	gen := c.gens[key]
	c.mu.Unlock()

	p, err := c.Store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gens[key] == gen {
		c.proposals.Add(key, copyProposal(p))
	}
	c.mu.Unlock()
	return p, nil
}

// invalidate runs after a write to the proposal, whether or not it failed.
func (c *CachedStore) invalidate(id *big.Int) {
	key := id.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.proposals.Remove(key)
}

func (c *CachedStore) UpsertProposal(ctx context.Context, p *governance.Proposal) error {
	defer c.invalidate(p.ID)
	return c.Store.UpsertProposal(ctx, p)
}

func (c *CachedStore) MarkExecuted(ctx context.Context, id *big.Int, txHash string, at time.Time) error {
	defer c.invalidate(id)
	return c.Store.MarkExecuted(ctx, id, txHash, at)
}

func (c *CachedStore) MarkCancelled(ctx context.Context, id *big.Int, at time.Time) error {
	defer c.invalidate(id)
	return c.Store.MarkCancelled(ctx, id, at)
}

func (c *CachedStore) ApplyChainVote(ctx context.Context, v *governance.Vote) (*governance.Proposal, bool, error) {
	defer c.invalidate(v.ProposalID)
	return c.Store.ApplyChainVote(ctx, v)
}

// Purge drops every cached entry.
func (c *CachedStore) Purge() {
	c.proposals.Purge()
}

func copyProposal(p *governance.Proposal) *governance.Proposal {
	cp := *p
	cp.ID = new(big.Int).Set(p.ID)
	cp.ForVotes = cloneBig(p.ForVotes)
	cp.AgainstVotes = cloneBig(p.AgainstVotes)
	cp.AbstainVotes = cloneBig(p.AbstainVotes)
	cp.Value = cloneBig(p.Value)
	return &cp
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
