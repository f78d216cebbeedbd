package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/dao-governance/pkg/ipfs"
)

type fakeHead struct {
	block uint64
	err   error
}

func (f fakeHead) LatestBlockNumber(context.Context) (uint64, error) {
	return f.block, f.err
}

type fakePower struct {
	VotingPowerFunc func(account common.Address, block uint64) (*big.Int, error)
}

func (f *fakePower) VotingPower(_ context.Context, account common.Address, block uint64) (*big.Int, error) {
	return f.VotingPowerFunc(account, block)
}

func powerOf(v int64) *fakePower {
	return &fakePower{VotingPowerFunc: func(common.Address, uint64) (*big.Int, error) {
		return big.NewInt(v), nil
	}}
}

type fakePinner struct {
	cid    string
	err    error
	pinned []any
	names  []string
}

func (f *fakePinner) PinJSON(_ context.Context, name string, content any) (*ipfs.PinResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.names = append(f.names, name)
	f.pinned = append(f.pinned, content)
	return &ipfs.PinResult{CID: f.cid}, nil
}

func (f *fakePinner) GatewayURL(cid string) string {
	return "https://gateway.test/ipfs/" + cid
}
