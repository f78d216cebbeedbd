package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EncodeLog builds a log for event as the contract would emit it. indexed
// holds the topic values after topic 0 and data the non-indexed values, both
// in ABI order. It is used by tests to fabricate chain input.
func EncodeLog(meta *bind.MetaData, address common.Address, event string, indexed, data []interface{}) (types.Log, error) {
	parsed, err := meta.GetAbi()
	if err != nil {
		return types.Log{}, err
	}
	ev, ok := parsed.Events[event]
	if !ok {
		return types.Log{}, fmt.Errorf("unknown event %s", event)
	}

	topics := []common.Hash{ev.ID}
	if len(indexed) > 0 {
		query := make([][]interface{}, len(indexed))
		for i, v := range indexed {
			query[i] = []interface{}{v}
		}
		hashes, err := abi.MakeTopics(query...)
		if err != nil {
			return types.Log{}, fmt.Errorf("failed to encode topics: %w", err)
		}
		for _, h := range hashes {
			topics = append(topics, h[0])
		}
	}

	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return types.Log{}, fmt.Errorf("failed to pack event data: %w", err)
	}

	return types.Log{Address: address, Topics: topics, Data: packed}, nil
}
