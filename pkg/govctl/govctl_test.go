package govctl

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

// fakeStore implements the parts of govstore.Store the read-only commands use.
type fakeStore struct {
	govstore.Store

	cursors   map[string]uint64
	proposals []*governance.Proposal
	listLimit int
}

func (f *fakeStore) GetCursor(_ context.Context, name string) (uint64, bool, error) {
	b, ok := f.cursors[name]
	return b, ok, nil
}

func (f *fakeStore) SetCursor(_ context.Context, name string, block uint64) error {
	f.cursors[name] = block
	return nil
}

func (f *fakeStore) ListProposals(_ context.Context, opts ...govstore.QueryOption) ([]*governance.Proposal, error) {
	o := &govstore.QueryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	f.listLimit = o.Limit
	return f.proposals, nil
}

func (f *fakeStore) GetProposal(_ context.Context, id *big.Int) (*governance.Proposal, error) {
	for _, p := range f.proposals {
		if p.ID.Cmp(id) == 0 {
			return p, nil
		}
	}
	return nil, govstore.ErrProposalNotFound
}

func testEnv(store *fakeStore) Opener {
	return func(_ context.Context, configPath string, withChain bool) (*Env, error) {
		if withChain {
			return nil, errors.New("no chain in tests")
		}
		return &Env{
			Config: &config.Config{
				Indexer:    config.IndexerConfig{CursorName: "dao", StartBlock: 100},
				Governance: config.GovernanceConfig{QuorumVotes: "100"},
			},
			Store:  store,
			Logger: zap.NewNop(),
		}, nil
	}
}

func run(t *testing.T, store *fakeStore, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(testEnv(store))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func proposals() []*governance.Proposal {
	now := time.Now()
	return []*governance.Proposal{
		{
			ID:           big.NewInt(2),
			Proposer:     common.HexToAddress("0x00000000000000000000000000000000000000b2"),
			Title:        "Fund the audit of the treasury module before mainnet launch",
			StartTime:    now.Add(-time.Hour),
			EndTime:      now.Add(24 * time.Hour),
			ForVotes:     big.NewInt(5),
			AgainstVotes: big.NewInt(0),
			AbstainVotes: big.NewInt(0),
		},
		{
			ID:           big.NewInt(1),
			Proposer:     common.HexToAddress("0x00000000000000000000000000000000000000b1"),
			Title:        "Raise quorum",
			StartTime:    now.Add(-96 * time.Hour),
			EndTime:      now.Add(-24 * time.Hour),
			ForVotes:     big.NewInt(60),
			AgainstVotes: big.NewInt(30),
			AbstainVotes: big.NewInt(10),
		},
	}
}

func TestCursorShow(t *testing.T) {
	store := &fakeStore{cursors: map[string]uint64{"dao": 4242}}

	out, err := run(t, store, "cursor", "show")
	require.NoError(t, err)
	assert.Equal(t, "dao: 4242\n", out)
}

func TestCursorShow_NotSet(t *testing.T) {
	store := &fakeStore{cursors: map[string]uint64{}}

	out, err := run(t, store, "cursor", "show", "--name", "replay")
	require.NoError(t, err)
	assert.Equal(t, "replay: not set (indexing starts at block 100)\n", out)
}

func TestCursorSet(t *testing.T) {
	store := &fakeStore{cursors: map[string]uint64{"dao": 5000}}

	out, err := run(t, store, "cursor", "set", "1200")
	require.NoError(t, err)
	assert.Equal(t, "dao: 1200\n", out)
	assert.Equal(t, uint64(1200), store.cursors["dao"])
}

func TestCursorSet_InvalidBlock(t *testing.T) {
	store := &fakeStore{cursors: map[string]uint64{"dao": 5000}}

	_, err := run(t, store, "cursor", "set", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid block "-1"`)
	assert.Equal(t, uint64(5000), store.cursors["dao"])
}

func TestProposals_List(t *testing.T) {
	store := &fakeStore{proposals: proposals()}

	out, err := run(t, store, "proposals", "--limit", "10")
	require.NoError(t, err)
	assert.Equal(t, 10, store.listLimit)

	assert.Contains(t, out, "ACTIVE")
	assert.Contains(t, out, "SUCCEEDED")
	assert.Contains(t, out, "Raise quorum")
	assert.Contains(t, out, "2 proposals")
	assert.NotContains(t, out, "before mainnet launch", "long titles are trimmed")
	assert.Less(t, strings.Index(out, "ACTIVE"), strings.Index(out, "SUCCEEDED"), "store order is kept")
}

func TestProposals_StatusFilter(t *testing.T) {
	store := &fakeStore{proposals: proposals()}

	out, err := run(t, store, "proposals", "--status", "succeeded")
	require.NoError(t, err)
	assert.Contains(t, out, "Raise quorum")
	assert.NotContains(t, out, "ACTIVE")
	assert.Contains(t, out, "1 proposals")

	out, err = run(t, store, "proposals", "--status", "executed")
	require.NoError(t, err)
	assert.Equal(t, "No proposals found\n", out)

	_, err = run(t, store, "proposals", "--status", "bogus")
	require.Error(t, err)
}

func TestTally(t *testing.T) {
	store := &fakeStore{proposals: proposals()}

	out, err := run(t, store, "tally", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Proposal 1: Raise quorum")
	assert.Contains(t, out, "State: SUCCEEDED")
	assert.Contains(t, out, "60.00%")
	assert.Contains(t, out, "30.00%")
	assert.Contains(t, out, "10.00%")
	assert.Contains(t, out, "Quorum: 100 (reached)")
}

func TestTally_Errors(t *testing.T) {
	store := &fakeStore{proposals: proposals()}

	_, err := run(t, store, "tally", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proposal 99 not found")

	_, err = run(t, store, "tally", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid proposal id "abc"`)
}

func TestBackfill_NeedsChain(t *testing.T) {
	_, err := run(t, &fakeStore{}, "backfill", "--from", "1", "--to", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chain in tests")
}
