package contracts

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event names emitted by the treasury contract.
const (
	EventDepositedETH        = "DepositedETH"
	EventWithdrawnETH        = "WithdrawnETH"
	EventDepositedERC20      = "DepositedERC20"
	EventWithdrawnERC20      = "WithdrawnERC20"
	EventWithdrawalQueued    = "WithdrawalQueued"
	EventWithdrawalExecuted  = "WithdrawalExecuted"
	EventWithdrawalCancelled = "WithdrawalCancelled"
)

// TreasuryABI is the ABI of the DAO treasury contract.
const TreasuryABI = `[
{"type":"event","name":"DepositedETH","anonymous":false,"inputs":[
 {"name":"from","type":"address","indexed":true},
 {"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"WithdrawnETH","anonymous":false,"inputs":[
 {"name":"to","type":"address","indexed":true},
 {"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"DepositedERC20","anonymous":false,"inputs":[
 {"name":"token","type":"address","indexed":true},
 {"name":"from","type":"address","indexed":true},
 {"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"WithdrawnERC20","anonymous":false,"inputs":[
 {"name":"token","type":"address","indexed":true},
 {"name":"to","type":"address","indexed":true},
 {"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"WithdrawalQueued","anonymous":false,"inputs":[
 {"name":"withdrawalId","type":"uint256","indexed":true},
 {"name":"recipient","type":"address","indexed":true},
 {"name":"amount","type":"uint256","indexed":false},
 {"name":"unlockTime","type":"uint256","indexed":false}]},
{"type":"event","name":"WithdrawalExecuted","anonymous":false,"inputs":[
 {"name":"withdrawalId","type":"uint256","indexed":true},
 {"name":"recipient","type":"address","indexed":true},
 {"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"WithdrawalCancelled","anonymous":false,"inputs":[
 {"name":"withdrawalId","type":"uint256","indexed":true}]},
{"type":"function","name":"balance","stateMutability":"view","inputs":[],
 "outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"tokenBalance","stateMutability":"view","inputs":[
 {"name":"token","type":"address"}],
 "outputs":[{"name":"","type":"uint256"}]}
]`

// TreasuryMetaData contains all meta data concerning the Treasury contract.
var TreasuryMetaData = &bind.MetaData{ABI: TreasuryABI}

// Treasury is a typed handle to the DAO treasury contract.
type Treasury struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewTreasury binds the treasury contract at address.
func NewTreasury(address common.Address, backend bind.ContractBackend) (*Treasury, error) {
	parsed, err := TreasuryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("GetABI returned nil")
	}
	return &Treasury{
		address:  address,
		abi:      *parsed,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}, nil
}

// Address returns the contract address.
func (t *Treasury) Address() common.Address { return t.address }

// EventID returns topic 0 of the named event.
func (t *Treasury) EventID(name string) common.Hash {
	return t.abi.Events[name].ID
}

// TreasuryDepositedETH represents a DepositedETH event raised by the Treasury contract.
type TreasuryDepositedETH struct {
	From   common.Address
	Amount *big.Int
	Raw    types.Log
}

// TreasuryWithdrawnETH represents a WithdrawnETH event raised by the Treasury contract.
type TreasuryWithdrawnETH struct {
	To     common.Address
	Amount *big.Int
	Raw    types.Log
}

// TreasuryDepositedERC20 represents a DepositedERC20 event raised by the Treasury contract.
type TreasuryDepositedERC20 struct {
	Token  common.Address
	From   common.Address
	Amount *big.Int
	Raw    types.Log
}

// TreasuryWithdrawnERC20 represents a WithdrawnERC20 event raised by the Treasury contract.
type TreasuryWithdrawnERC20 struct {
	Token  common.Address
	To     common.Address
	Amount *big.Int
	Raw    types.Log
}

// ParseDepositedETH is a log parse operation binding the contract event DepositedETH.
func (t *Treasury) ParseDepositedETH(log types.Log) (*TreasuryDepositedETH, error) {
	event := new(TreasuryDepositedETH)
	if err := t.contract.UnpackLog(event, EventDepositedETH, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseWithdrawnETH is a log parse operation binding the contract event WithdrawnETH.
func (t *Treasury) ParseWithdrawnETH(log types.Log) (*TreasuryWithdrawnETH, error) {
	event := new(TreasuryWithdrawnETH)
	if err := t.contract.UnpackLog(event, EventWithdrawnETH, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseDepositedERC20 is a log parse operation binding the contract event DepositedERC20.
func (t *Treasury) ParseDepositedERC20(log types.Log) (*TreasuryDepositedERC20, error) {
	event := new(TreasuryDepositedERC20)
	if err := t.contract.UnpackLog(event, EventDepositedERC20, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseWithdrawnERC20 is a log parse operation binding the contract event WithdrawnERC20.
func (t *Treasury) ParseWithdrawnERC20(log types.Log) (*TreasuryWithdrawnERC20, error) {
	event := new(TreasuryWithdrawnERC20)
	if err := t.contract.UnpackLog(event, EventWithdrawnERC20, log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// Balance is a free data retrieval call binding the contract method balance.
func (t *Treasury) Balance(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, "balance"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// TokenBalance is a free data retrieval call binding the contract method tokenBalance.
func (t *Treasury) TokenBalance(opts *bind.CallOpts, token common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, "tokenBalance", token); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
