package contracts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event names emitted by the governance DAO contract.
const (
	EventProposalCreated   = "ProposalCreated"
	EventVoted             = "Voted"
	EventProposalFinalized = "ProposalFinalized"
	EventProposalExecuted  = "ProposalExecuted"
	EventProposalCancelled = "ProposalCancelled"
)

// GovernanceDAOABI is the ABI of the governance DAO contract.
const GovernanceDAOABI = `[
{"type":"event","name":"ProposalCreated","anonymous":false,"inputs":[
 {"name":"id","type":"uint256","indexed":true},
 {"name":"proposer","type":"address","indexed":true},
 {"name":"title","type":"string","indexed":false},
 {"name":"startTime","type":"uint256","indexed":false},
 {"name":"endTime","type":"uint256","indexed":false},
 {"name":"kycCommitment","type":"bytes32","indexed":false}]},
{"type":"event","name":"Voted","anonymous":false,"inputs":[
 {"name":"id","type":"uint256","indexed":true},
 {"name":"voter","type":"address","indexed":true},
 {"name":"choice","type":"uint8","indexed":false},
 {"name":"weight","type":"uint256","indexed":false},
 {"name":"proofHash","type":"bytes32","indexed":false}]},
{"type":"event","name":"ProposalFinalized","anonymous":false,"inputs":[
 {"name":"id","type":"uint256","indexed":true},
 {"name":"state","type":"uint8","indexed":false}]},
{"type":"event","name":"ProposalExecuted","anonymous":false,"inputs":[
 {"name":"id","type":"uint256","indexed":true},
 {"name":"executor","type":"address","indexed":true}]},
{"type":"event","name":"ProposalCancelled","anonymous":false,"inputs":[
 {"name":"id","type":"uint256","indexed":true},
 {"name":"cancelledBy","type":"address","indexed":true}]},
{"type":"function","name":"createProposal","stateMutability":"nonpayable","inputs":[
 {"name":"title","type":"string"},
 {"name":"description","type":"string"},
 {"name":"target","type":"address"},
 {"name":"value","type":"uint256"},
 {"name":"data","type":"bytes"},
 {"name":"kycCommitment","type":"bytes32"},
 {"name":"proofHash","type":"bytes32"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[
 {"name":"proposalId","type":"uint256"},
 {"name":"choice","type":"uint8"},
 {"name":"kycCommitment","type":"bytes32"},
 {"name":"proofHash","type":"bytes32"}],
 "outputs":[]},
{"type":"function","name":"executeProposal","stateMutability":"nonpayable","inputs":[
 {"name":"proposalId","type":"uint256"},
 {"name":"kycCommitment","type":"bytes32"},
 {"name":"proofHash","type":"bytes32"}],
 "outputs":[]},
{"type":"function","name":"getProposal","stateMutability":"view","inputs":[
 {"name":"proposalId","type":"uint256"}],
 "outputs":[
 {"name":"id","type":"uint256"},
 {"name":"proposer","type":"address"},
 {"name":"title","type":"string"},
 {"name":"description","type":"string"},
 {"name":"startTime","type":"uint256"},
 {"name":"endTime","type":"uint256"},
 {"name":"forVotes","type":"uint256"},
 {"name":"againstVotes","type":"uint256"},
 {"name":"abstainVotes","type":"uint256"},
 {"name":"state","type":"uint8"},
 {"name":"cancelled","type":"bool"}]},
{"type":"function","name":"getParameters","stateMutability":"view","inputs":[],
 "outputs":[
 {"name":"votingPeriod","type":"uint256"},
 {"name":"quorumPercent","type":"uint256"},
 {"name":"executionDelay","type":"uint256"},
 {"name":"proposalThreshold","type":"uint256"}]},
{"type":"function","name":"proposalCount","stateMutability":"view","inputs":[],
 "outputs":[{"name":"","type":"uint256"}]}
]`

// GovernanceDAOMetaData contains all meta data concerning the GovernanceDAO contract.
var GovernanceDAOMetaData = &bind.MetaData{ABI: GovernanceDAOABI}

// Contract vote choice encoding. The API uses against=0, for=1, abstain=2,
// the contract swaps the first two.
const (
	ChoiceFor     uint8 = 0
	ChoiceAgainst uint8 = 1
	ChoiceAbstain uint8 = 2
)

var errUnknownChoice = errors.New("unknown vote choice")

// ChoiceFromSupport maps API support (0 against, 1 for, 2 abstain) to the
// contract choice.
func ChoiceFromSupport(support uint8) (uint8, error) {
	switch support {
	case 0:
		return ChoiceAgainst, nil
	case 1:
		return ChoiceFor, nil
	case 2:
		return ChoiceAbstain, nil
	default:
		return 0, fmt.Errorf("%w: support %d", errUnknownChoice, support)
	}
}

// SupportFromChoice maps a contract choice to API support.
func SupportFromChoice(choice uint8) (uint8, error) {
	switch choice {
	case ChoiceFor:
		return 1, nil
	case ChoiceAgainst:
		return 0, nil
	case ChoiceAbstain:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: choice %d", errUnknownChoice, choice)
	}
}

// GovernanceDAO is a typed handle to the governance DAO contract.
type GovernanceDAO struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewGovernanceDAO binds the DAO contract at address. backend may be nil when
// the handle is only used to decode logs and pack call data.
func NewGovernanceDAO(address common.Address, backend bind.ContractBackend) (*GovernanceDAO, error) {
	parsed, err := GovernanceDAOMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("GetABI returned nil")
	}
	return &GovernanceDAO{
		address:  address,
		abi:      *parsed,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}, nil
}

// Address returns the contract address.
func (d *GovernanceDAO) Address() common.Address { return d.address }

// EventID returns topic 0 of the named event.
func (d *GovernanceDAO) EventID(name string) common.Hash {
	return d.abi.Events[name].ID
}

// GovernanceDAOProposalCreated represents a ProposalCreated event raised by the GovernanceDAO contract.
type GovernanceDAOProposalCreated struct {
	Id            *big.Int
	Proposer      common.Address
	Title         string
	StartTime     *big.Int
	EndTime       *big.Int
	KycCommitment [32]byte
	Raw           types.Log
}

// GovernanceDAOVoted represents a Voted event raised by the GovernanceDAO contract.
type GovernanceDAOVoted struct {
	Id        *big.Int
	Voter     common.Address
	Choice    uint8
	Weight    *big.Int
	ProofHash [32]byte
	Raw       types.Log
}

// GovernanceDAOProposalFinalized represents a ProposalFinalized event raised by the GovernanceDAO contract.
type GovernanceDAOProposalFinalized struct {
	Id    *big.Int
	State uint8
	Raw   types.Log
}

// GovernanceDAOProposalExecuted represents a ProposalExecuted event raised by the GovernanceDAO contract.
type GovernanceDAOProposalExecuted struct {
	Id       *big.Int
	Executor common.Address
	Raw      types.Log
}

// GovernanceDAOProposalCancelled represents a ProposalCancelled event raised by the GovernanceDAO contract.
type GovernanceDAOProposalCancelled struct {
	Id          *big.Int
	CancelledBy common.Address
	Raw         types.Log
}

// ParseProposalCreated is a log parse operation binding the contract event ProposalCreated.
func (d *GovernanceDAO) ParseProposalCreated(log types.Log) (*GovernanceDAOProposalCreated, error) {
	event := new(GovernanceDAOProposalCreated)
	if err := d.contract.UnpackLog(event, EventProposalCreated, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseVoted is a log parse operation binding the contract event Voted.
func (d *GovernanceDAO) ParseVoted(log types.Log) (*GovernanceDAOVoted, error) {
	event := new(GovernanceDAOVoted)
	if err := d.contract.UnpackLog(event, EventVoted, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseProposalFinalized is a log parse operation binding the contract event ProposalFinalized.
func (d *GovernanceDAO) ParseProposalFinalized(log types.Log) (*GovernanceDAOProposalFinalized, error) {
	event := new(GovernanceDAOProposalFinalized)
	if err := d.contract.UnpackLog(event, EventProposalFinalized, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseProposalExecuted is a log parse operation binding the contract event ProposalExecuted.
func (d *GovernanceDAO) ParseProposalExecuted(log types.Log) (*GovernanceDAOProposalExecuted, error) {
	event := new(GovernanceDAOProposalExecuted)
	if err := d.contract.UnpackLog(event, EventProposalExecuted, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseProposalCancelled is a log parse operation binding the contract event ProposalCancelled.
func (d *GovernanceDAO) ParseProposalCancelled(log types.Log) (*GovernanceDAOProposalCancelled, error) {
	event := new(GovernanceDAOProposalCancelled)
	if err := d.contract.UnpackLog(event, EventProposalCancelled, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// OnChainProposal is the result of getProposal.
type OnChainProposal struct {
	Id           *big.Int
	Proposer     common.Address
	Title        string
	Description  string
	StartTime    *big.Int
	EndTime      *big.Int
	ForVotes     *big.Int
	AgainstVotes *big.Int
	AbstainVotes *big.Int
	State        uint8
	Cancelled    bool
}

// GetProposal is a free data retrieval call binding the contract method getProposal.
//
// Solidity: function getProposal(uint256 proposalId) view returns(uint256, address, string, string, uint256, uint256, uint256, uint256, uint256, uint8, bool)
func (d *GovernanceDAO) GetProposal(opts *bind.CallOpts, proposalID *big.Int) (*OnChainProposal, error) {
	var out []interface{}
	if err := d.contract.Call(opts, &out, "getProposal", proposalID); err != nil {
		return nil, err
	}
	if len(out) != 11 {
		return nil, fmt.Errorf("getProposal returned %d values", len(out))
	}

	return &OnChainProposal{
		Id:           *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Proposer:     *abi.ConvertType(out[1], new(common.Address)).(*common.Address),
		Title:        *abi.ConvertType(out[2], new(string)).(*string),
		Description:  *abi.ConvertType(out[3], new(string)).(*string),
		StartTime:    *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		EndTime:      *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		ForVotes:     *abi.ConvertType(out[6], new(*big.Int)).(**big.Int),
		AgainstVotes: *abi.ConvertType(out[7], new(*big.Int)).(**big.Int),
		AbstainVotes: *abi.ConvertType(out[8], new(*big.Int)).(**big.Int),
		State:        *abi.ConvertType(out[9], new(uint8)).(*uint8),
		Cancelled:    *abi.ConvertType(out[10], new(bool)).(*bool),
	}, nil
}

// Parameters is the result of getParameters.
type Parameters struct {
	VotingPeriod      *big.Int
	QuorumPercent     *big.Int
	ExecutionDelay    *big.Int
	ProposalThreshold *big.Int
}

// GetParameters is a free data retrieval call binding the contract method getParameters.
func (d *GovernanceDAO) GetParameters(opts *bind.CallOpts) (*Parameters, error) {
	var out []interface{}
	if err := d.contract.Call(opts, &out, "getParameters"); err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("getParameters returned %d values", len(out))
	}
	return &Parameters{
		VotingPeriod:      *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		QuorumPercent:     *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		ExecutionDelay:    *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		ProposalThreshold: *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
	}, nil
}

// ProposalCount is a free data retrieval call binding the contract method proposalCount.
func (d *GovernanceDAO) ProposalCount(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := d.contract.Call(opts, &out, "proposalCount"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// CreateProposalArgs are the inputs of createProposal.
type CreateProposalArgs struct {
	Title         string
	Description   string
	Target        common.Address
	Value         *big.Int
	Data          []byte
	KycCommitment [32]byte
	ProofHash     [32]byte
}

// PackCreateProposal returns the call data for createProposal.
func (d *GovernanceDAO) PackCreateProposal(args CreateProposalArgs) ([]byte, error) {
	value := args.Value
	if value == nil {
		value = new(big.Int)
	}
	data := args.Data
	if data == nil {
		data = []byte{}
	}
	return d.abi.Pack("createProposal", args.Title, args.Description, args.Target, value, data, args.KycCommitment, args.ProofHash)
}

// UnpackCreateProposal decodes createProposal transaction input.
func (d *GovernanceDAO) UnpackCreateProposal(input []byte) (*CreateProposalArgs, error) {
	if len(input) < 4 {
		return nil, errors.New("transaction input too short")
	}
	method, err := d.abi.MethodById(input[:4])
	if err != nil {
		return nil, err
	}
	if method.Name != "createProposal" {
		return nil, fmt.Errorf("unexpected method %s", method.Name)
	}
	values, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack createProposal input: %w", err)
	}

	return &CreateProposalArgs{
		Title:         *abi.ConvertType(values[0], new(string)).(*string),
		Description:   *abi.ConvertType(values[1], new(string)).(*string),
		Target:        *abi.ConvertType(values[2], new(common.Address)).(*common.Address),
		Value:         *abi.ConvertType(values[3], new(*big.Int)).(**big.Int),
		Data:          *abi.ConvertType(values[4], new([]byte)).(*[]byte),
		KycCommitment: *abi.ConvertType(values[5], new([32]byte)).(*[32]byte),
		ProofHash:     *abi.ConvertType(values[6], new([32]byte)).(*[32]byte),
	}, nil
}

// PackVote returns the call data for vote. support uses the API encoding.
func (d *GovernanceDAO) PackVote(proposalID *big.Int, support uint8, kycCommitment, proofHash [32]byte) ([]byte, error) {
	choice, err := ChoiceFromSupport(support)
	if err != nil {
		return nil, err
	}
	return d.abi.Pack("vote", proposalID, choice, kycCommitment, proofHash)
}
