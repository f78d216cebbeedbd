package auth

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyEVMAddress is the context key for the authenticated EVM address
	ContextKeyEVMAddress contextKey = "evm_address"
)

// WithEVMAddress adds the checksummed EVM address to the context
func WithEVMAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, ContextKeyEVMAddress, NormalizeAddress(address))
}

// EVMAddressFromContext retrieves the EVM address from the context
func EVMAddressFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyEVMAddress).(string)
	return addr, ok
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (common.Address, bool) {
	addr, ok := EVMAddressFromContext(ctx)
	if !ok {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}
