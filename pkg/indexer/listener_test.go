package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/ethereum/contracts"
)

func TestListener_PollOnceIndexesUpToHead(t *testing.T) {
	chain := newFakeChain(2600)
	chain.addLog(proposalCreatedLog(t, 1, 2100, 0))
	store := newMemStore()
	l := NewListener(newTestIndexer(t, chain, store, nil, 0), time.Second, zap.NewNop())

	next := l.pollOnce(context.Background(), 1000, true)

	assert.Equal(t, uint64(2601), next)
	assert.Equal(t, [][2]uint64{{1000, 1999}, {2000, 2600}}, chain.queryLog())
	cursor, ok := store.cursor("dao")
	require.True(t, ok)
	assert.Equal(t, uint64(2600), cursor)
	assert.NotNil(t, store.proposal(1))
}

func TestListener_PollOnceRetriesFailedRange(t *testing.T) {
	chain := newFakeChain(50)
	chain.failFrom[40] = errors.New("timeout")
	store := newMemStore()
	l := NewListener(newTestIndexer(t, chain, store, nil, 0), time.Second, zap.NewNop())

	next := l.pollOnce(context.Background(), 40, true)
	assert.Equal(t, uint64(40), next)
	_, ok := store.cursor("dao")
	assert.False(t, ok)

	delete(chain.failFrom, 40)
	chain.addLog(votedLog(t, 1, bob, contracts.ChoiceFor, 1, 45, 0))
	chain.setHead(60)
	next = l.pollOnce(context.Background(), next, true)
	assert.Equal(t, uint64(61), next)
	assert.Equal(t, [][2]uint64{{40, 50}, {40, 60}}, chain.queryLog())
}

func TestListener_FrozenCursor(t *testing.T) {
	chain := newFakeChain(30)
	store := newMemStore()
	l := NewListener(newTestIndexer(t, chain, store, nil, 0), time.Second, zap.NewNop())

	next := l.pollOnce(context.Background(), 20, false)
	assert.Equal(t, uint64(31), next)
	_, ok := store.cursor("dao")
	assert.False(t, ok)
}

func TestListener_NothingNewAtHead(t *testing.T) {
	chain := newFakeChain(30)
	l := NewListener(newTestIndexer(t, chain, newMemStore(), nil, 0), time.Second, zap.NewNop())

	assert.Equal(t, uint64(31), l.pollOnce(context.Background(), 31, true))
	assert.Empty(t, chain.queryLog())
}

func TestListener_SubscribeFallsBackToPolling(t *testing.T) {
	chain := newFakeChain(10)
	chain.addLog(proposalCreatedLog(t, 1, 5, 0))
	store := newMemStore()
	l := NewListener(newTestIndexer(t, chain, store, nil, 0), 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Subscribe(ctx, 0, true) }()

	require.Eventually(t, func() bool {
		cursor, ok := store.cursor("dao")
		return ok && cursor == 10
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NotNil(t, store.proposal(1))
}

func TestListener_SubscribeCatchesUpBeforeLiveLogs(t *testing.T) {
	// Head moved to 20 after the backfill stopped at 10; block 12 is only
	// reachable with a filter query.
	chain := newFakeChain(20)
	chain.ws = true
	chain.addLog(proposalCreatedLog(t, 1, 12, 0))
	chain.live <- proposalCreatedLog(t, 2, 21, 0)
	store := newMemStore()
	l := NewListener(newTestIndexer(t, chain, store, nil, 0), time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Subscribe(ctx, 11, true) }()

	require.Eventually(t, func() bool {
		cursor, ok := store.cursor("dao")
		return ok && cursor == 20 && store.proposal(2) != nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NotNil(t, store.proposal(1), "blocks between the backfill and the subscription are indexed")
	assert.Equal(t, [][2]uint64{{11, 20}}, chain.queryLog())
}

func TestListener_SubscribeCatchUpFailureKeepsCursor(t *testing.T) {
	chain := newFakeChain(20)
	chain.ws = true
	chain.setFailure(11, errors.New("timeout"))
	chain.addLog(proposalCreatedLog(t, 1, 12, 0))
	chain.live <- proposalCreatedLog(t, 2, 21, 0)
	store := newMemStore()
	l := NewListener(newTestIndexer(t, chain, store, nil, 0), 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Subscribe(ctx, 11, true) }()

	// The failed catch-up and at least one polling retry.
	require.Eventually(t, func() bool {
		return len(chain.queryLog()) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	_, ok := store.cursor("dao")
	assert.False(t, ok, "cursor must not skip the failed range")

	chain.setFailure(11, nil)
	require.Eventually(t, func() bool {
		cursor, ok := store.cursor("dao")
		return ok && cursor == 20
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NotNil(t, store.proposal(1))
}
