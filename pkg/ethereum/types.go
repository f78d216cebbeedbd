package ethereum

import (
	"context"
	"math/big"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"
)

// rpcBackend is the subset of *ethclient.Client the client relies on
type rpcBackend interface {
	bind.ContractBackend
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	Close()
}

// limitedBackend applies the client side request budget to every outbound call
type limitedBackend struct {
	rpcBackend
	limiter *rate.Limiter
}

func (b *limitedBackend) CallContract(ctx context.Context, call geth.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.rpcBackend.CallContract(ctx, call, blockNumber)
}

func (b *limitedBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.rpcBackend.HeaderByNumber(ctx, number)
}

func (b *limitedBackend) FilterLogs(ctx context.Context, q geth.FilterQuery) ([]types.Log, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.rpcBackend.FilterLogs(ctx, q)
}

func (b *limitedBackend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	return b.rpcBackend.TransactionByHash(ctx, hash)
}
