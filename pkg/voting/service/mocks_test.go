package service

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

type memStore struct {
	mu        sync.Mutex
	proposals map[string]*governance.Proposal
	votes     map[string]*governance.Vote

	hasVotedCalls int
	confirmCalls  int
	stageErr      error
}

func newMemStore(proposals ...*governance.Proposal) *memStore {
	s := &memStore{
		proposals: make(map[string]*governance.Proposal),
		votes:     make(map[string]*governance.Vote),
	}
	for _, p := range proposals {
		s.proposals[p.ID.String()] = p
	}
	return s
}

func voteKey(id *big.Int, voter common.Address) string {
	return id.String() + "/" + voter.Hex()
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

func (s *memStore) HasVoted(_ context.Context, id *big.Int, voter common.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasVotedCalls++
	v, ok := s.votes[voteKey(id, voter)]
	return ok && v.Status == governance.VoteStatusConfirmed, nil
}

func (s *memStore) GetVote(_ context.Context, id *big.Int, voter common.Address) (*governance.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[voteKey(id, voter)]
	if !ok {
		return nil, govstore.ErrVoteNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *memStore) StageVote(_ context.Context, v *governance.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageErr != nil {
		return s.stageErr
	}
	if existing, ok := s.votes[voteKey(v.ProposalID, v.Voter)]; ok && existing.Status != governance.VoteStatusPending {
		return govstore.ErrVoteLocked
	}
	cp := *v
	s.votes[voteKey(v.ProposalID, v.Voter)] = &cp
	return nil
}

func (s *memStore) ConfirmVote(_ context.Context, id *big.Int, voter common.Address, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmCalls++
	v, ok := s.votes[voteKey(id, voter)]
	if !ok || v.Status != governance.VoteStatusPending {
		return govstore.ErrVoteLocked
	}
	v.Status = governance.VoteStatusConfirmed
	v.TxHash = strings.ToLower(txHash)
	return nil
}

type powerFunc func(account common.Address, block uint64) (*big.Int, error)

func (f powerFunc) VotingPower(_ context.Context, account common.Address, block uint64) (*big.Int, error) {
	return f(account, block)
}

func fixedPower(v int64) powerFunc {
	return func(common.Address, uint64) (*big.Int, error) { return big.NewInt(v), nil }
}
