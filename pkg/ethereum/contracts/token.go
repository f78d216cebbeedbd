package contracts

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event names emitted by the governance token contract.
const (
	EventTransfer             = "Transfer"
	EventDelegateChanged      = "DelegateChanged"
	EventDelegateVotesChanged = "DelegateVotesChanged"
)

// GovernanceTokenABI is the ABI of the ERC20Votes governance token.
const GovernanceTokenABI = `[
{"type":"event","name":"Transfer","anonymous":false,"inputs":[
 {"name":"from","type":"address","indexed":true},
 {"name":"to","type":"address","indexed":true},
 {"name":"value","type":"uint256","indexed":false}]},
{"type":"event","name":"DelegateChanged","anonymous":false,"inputs":[
 {"name":"delegator","type":"address","indexed":true},
 {"name":"fromDelegate","type":"address","indexed":true},
 {"name":"toDelegate","type":"address","indexed":true}]},
{"type":"event","name":"DelegateVotesChanged","anonymous":false,"inputs":[
 {"name":"delegate","type":"address","indexed":true},
 {"name":"previousBalance","type":"uint256","indexed":false},
 {"name":"newBalance","type":"uint256","indexed":false}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
 {"name":"owner","type":"address"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"delegates","stateMutability":"view","inputs":[
 {"name":"account","type":"address"}],
 "outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"getPastVotes","stateMutability":"view","inputs":[
 {"name":"account","type":"address"},
 {"name":"timepoint","type":"uint256"}],
 "outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],
 "outputs":[{"name":"","type":"uint256"}]}
]`

// GovernanceTokenMetaData contains all meta data concerning the GovernanceToken contract.
var GovernanceTokenMetaData = &bind.MetaData{ABI: GovernanceTokenABI}

// GovernanceToken is a typed handle to the governance token contract.
type GovernanceToken struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewGovernanceToken binds the token contract at address.
func NewGovernanceToken(address common.Address, backend bind.ContractBackend) (*GovernanceToken, error) {
	parsed, err := GovernanceTokenMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("GetABI returned nil")
	}
	return &GovernanceToken{
		address:  address,
		abi:      *parsed,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}, nil
}

// Address returns the contract address.
func (g *GovernanceToken) Address() common.Address { return g.address }

// EventID returns topic 0 of the named event.
func (g *GovernanceToken) EventID(name string) common.Hash {
	return g.abi.Events[name].ID
}

// GovernanceTokenDelegateChanged represents a DelegateChanged event raised by the GovernanceToken contract.
type GovernanceTokenDelegateChanged struct {
	Delegator    common.Address
	FromDelegate common.Address
	ToDelegate   common.Address
	Raw          types.Log
}

// ParseDelegateChanged is a log parse operation binding the contract event DelegateChanged.
func (g *GovernanceToken) ParseDelegateChanged(log types.Log) (*GovernanceTokenDelegateChanged, error) {
	event := new(GovernanceTokenDelegateChanged)
	if err := g.contract.UnpackLog(event, EventDelegateChanged, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// BalanceOf is a free data retrieval call binding the contract method balanceOf.
// Set opts.BlockNumber to read a historical balance.
func (g *GovernanceToken) BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, "balanceOf", owner); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Delegates is a free data retrieval call binding the contract method delegates.
func (g *GovernanceToken) Delegates(opts *bind.CallOpts, account common.Address) (common.Address, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, "delegates", account); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// TotalSupply is a free data retrieval call binding the contract method totalSupply.
func (g *GovernanceToken) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := g.contract.Call(opts, &out, "totalSupply"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
