package voting

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

// TokenReader reads governance token balances at a block.
type TokenReader interface {
	BalanceOf(opts *bind.CallOpts, owner common.Address) (*big.Int, error)
}

// DelegationReader returns the delegations in effect at a block that involve
// an account, either as delegator or as delegate.
type DelegationReader interface {
	EffectiveDelegations(ctx context.Context, account common.Address, block uint64) ([]*governance.Delegation, error)
}

// PowerCalculator computes owned + received - given voting power at a block.
type PowerCalculator struct {
	token       TokenReader
	delegations DelegationReader
}

// NewPowerCalculator creates a PowerCalculator
func NewPowerCalculator(token TokenReader, delegations DelegationReader) *PowerCalculator {
	return &PowerCalculator{token: token, delegations: delegations}
}

// VotingPower returns the voting power of account at block. Balances and
// delegations are both evaluated at block, never at the current head, and the
// result is never negative.
func (c *PowerCalculator) VotingPower(ctx context.Context, account common.Address, block uint64) (*big.Int, error) {
	owned, err := c.balanceAt(ctx, account, block)
	if err != nil {
		return nil, err
	}

	delegations, err := c.delegations.EffectiveDelegations(ctx, account, block)
	if err != nil {
		return nil, fmt.Errorf("failed to load delegations: %w", err)
	}

	// given: the account's own tokens count for its delegate instead.
	given := new(big.Int)
	own, delegated := lo.Find(delegations, func(d *governance.Delegation) bool {
		return d.Delegator == account
	})
	if delegated && own.ToDelegate != (common.Address{}) && own.ToDelegate != account {
		given.Set(owned)
	}

	delegators := lo.FilterMap(delegations, func(d *governance.Delegation, _ int) (common.Address, bool) {
		return d.Delegator, d.Delegator != account && d.ToDelegate == account
	})
	received := new(big.Int)
	for _, delegator := range lo.Uniq(delegators) {
		balance, err := c.balanceAt(ctx, delegator, block)
		if err != nil {
			return nil, err
		}
		received.Add(received, balance)
	}

	power := new(big.Int).Add(owned, received)
	power.Sub(power, given)
	if power.Sign() < 0 {
		power.SetInt64(0)
	}
	return power, nil
}

func (c *PowerCalculator) balanceAt(ctx context.Context, account common.Address, block uint64) (*big.Int, error) {
	balance, err := c.token.BalanceOf(&bind.CallOpts{
		Context:     ctx,
		BlockNumber: new(big.Int).SetUint64(block),
	}, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s at block %d: %w", account.Hex(), block, err)
	}
	if balance == nil {
		return new(big.Int), nil
	}
	return balance, nil
}
