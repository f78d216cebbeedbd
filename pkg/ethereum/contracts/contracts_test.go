package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	daoAddr   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	proposer  = common.HexToAddress("0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa")
	recipient = common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")
)

func TestEventIDs(t *testing.T) {
	dao, err := NewGovernanceDAO(daoAddr, nil)
	require.NoError(t, err)

	want := crypto.Keccak256Hash([]byte("ProposalCreated(uint256,address,string,uint256,uint256,bytes32)"))
	assert.Equal(t, want, dao.EventID(EventProposalCreated))

	token, err := NewGovernanceToken(common.Address{}, nil)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash([]byte("DelegateChanged(address,address,address)")), token.EventID(EventDelegateChanged))
}

func TestParseProposalCreated(t *testing.T) {
	dao, err := NewGovernanceDAO(daoAddr, nil)
	require.NoError(t, err)

	log, err := EncodeLog(GovernanceDAOMetaData, daoAddr, EventProposalCreated,
		[]interface{}{big.NewInt(7), proposer},
		[]interface{}{"Fund the grants round", big.NewInt(1000), big.NewInt(2000), [32]byte{1}},
	)
	require.NoError(t, err)
	log.BlockNumber = 42

	event, err := dao.ParseProposalCreated(log)
	require.NoError(t, err)
	assert.Equal(t, int64(7), event.Id.Int64())
	assert.Equal(t, proposer, event.Proposer)
	assert.Equal(t, "Fund the grants round", event.Title)
	assert.Equal(t, int64(2000), event.EndTime.Int64())
	assert.Equal(t, uint64(42), event.Raw.BlockNumber)
}

func TestParseVoted_WrongTopic(t *testing.T) {
	dao, err := NewGovernanceDAO(daoAddr, nil)
	require.NoError(t, err)

	log, err := EncodeLog(GovernanceDAOMetaData, daoAddr, EventProposalExecuted,
		[]interface{}{big.NewInt(1), proposer}, nil)
	require.NoError(t, err)

	_, err = dao.ParseVoted(log)
	assert.Error(t, err)
}

func TestParseVoted_TruncatedData(t *testing.T) {
	dao, err := NewGovernanceDAO(daoAddr, nil)
	require.NoError(t, err)

	log, err := EncodeLog(GovernanceDAOMetaData, daoAddr, EventVoted,
		[]interface{}{big.NewInt(1), proposer},
		[]interface{}{uint8(0), big.NewInt(5), [32]byte{}},
	)
	require.NoError(t, err)
	log.Data = log.Data[:40]

	_, err = dao.ParseVoted(log)
	assert.Error(t, err)
}

func TestCreateProposalRoundTrip(t *testing.T) {
	dao, err := NewGovernanceDAO(daoAddr, nil)
	require.NoError(t, err)

	args := CreateProposalArgs{
		Title:       "Upgrade",
		Description: "Move funds to the new vault",
		Target:      recipient,
		Value:       big.NewInt(5),
		Data:        []byte{0xde, 0xad},
	}
	input, err := dao.PackCreateProposal(args)
	require.NoError(t, err)

	decoded, err := dao.UnpackCreateProposal(input)
	require.NoError(t, err)
	assert.Equal(t, args.Description, decoded.Description)
	assert.Equal(t, args.Target, decoded.Target)
	assert.Equal(t, []byte{0xde, 0xad}, decoded.Data)

	vote, err := dao.PackVote(big.NewInt(1), 0, [32]byte{}, [32]byte{})
	require.NoError(t, err)
	_, err = dao.UnpackCreateProposal(vote)
	assert.Error(t, err)
}

func TestChoiceMapping(t *testing.T) {
	for support := uint8(0); support <= 2; support++ {
		choice, err := ChoiceFromSupport(support)
		require.NoError(t, err)
		back, err := SupportFromChoice(choice)
		require.NoError(t, err)
		assert.Equal(t, support, back)
	}

	choice, err := ChoiceFromSupport(1)
	require.NoError(t, err)
	assert.Equal(t, ChoiceFor, choice)

	_, err = ChoiceFromSupport(3)
	assert.Error(t, err)
}

func TestParseDepositedERC20(t *testing.T) {
	treasury, err := NewTreasury(daoAddr, nil)
	require.NoError(t, err)

	tokenAddr := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log, err := EncodeLog(TreasuryMetaData, daoAddr, EventDepositedERC20,
		[]interface{}{tokenAddr, proposer}, []interface{}{big.NewInt(900)})
	require.NoError(t, err)

	event, err := treasury.ParseDepositedERC20(log)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, event.Token)
	assert.Equal(t, proposer, event.From)
	assert.Equal(t, int64(900), event.Amount.Int64())
}
