// Package indexer mirrors DAO, treasury and token contract events into the
// governance store, both for historical ranges and for new blocks.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/internal/metrics"
	"github.com/chainsafe/dao-governance/pkg/govstore"
)

// MaxChunkSize is the largest block range requested in one log query.
const MaxChunkSize uint64 = 1000

// Chain is the subset of the chain client used by the indexer.
type Chain interface {
	BlockReader
	Addresses() []common.Address
	HasWebSocket() bool
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q geth.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q geth.FilterQuery, ch chan<- types.Log) (geth.Subscription, error)
}

// Indexer decodes contract logs and submits them to the pipeline.
type Indexer struct {
	chain      Chain
	decoder    *Decoder
	pipeline   *Pipeline
	cursors    govstore.CursorStore
	cursorName string
	chunkSize  uint64
	logger     *zap.Logger
}

// BackfillResult summarizes a Backfill call.
type BackfillResult struct {
	From   uint64
	To     uint64
	Chunks int
	Events int
	// LastBlock is the last block of the last completed chunk. It is only
	// meaningful when Chunks > 0.
	LastBlock uint64
}

// New creates an indexer. chunkSize is clamped to [1, MaxChunkSize].
func New(chain Chain, decoder *Decoder, pipeline *Pipeline, cursors govstore.CursorStore, cursorName string, chunkSize uint64, logger *zap.Logger) *Indexer {
	if chunkSize == 0 || chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	return &Indexer{
		chain:      chain,
		decoder:    decoder,
		pipeline:   pipeline,
		cursors:    cursors,
		cursorName: cursorName,
		chunkSize:  chunkSize,
		logger:     logger,
	}
}

// ChunkSize returns the configured block range per query.
func (i *Indexer) ChunkSize() uint64 {
	return i.chunkSize
}

func (i *Indexer) query(from uint64, to *uint64) geth.FilterQuery {
	q := geth.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		Addresses: i.chain.Addresses(),
		Topics:    [][]common.Hash{i.decoder.Topics()},
	}
	if to != nil {
		q.ToBlock = new(big.Int).SetUint64(*to)
	}
	return q
}

// IndexRange indexes [from, to] with a single log query and returns the
// number of events applied. Undecodable logs are skipped.
func (i *Indexer) IndexRange(ctx context.Context, from, to uint64) (int, error) {
	if to < from {
		return 0, fmt.Errorf("invalid block range %d-%d", from, to)
	}
	logs, err := i.chain.FilterLogs(ctx, i.query(from, &to))
	if err != nil {
		return 0, err
	}
	return i.handleLogs(ctx, logs)
}

func (i *Indexer) handleLogs(ctx context.Context, logs []types.Log) (int, error) {
	sort.SliceStable(logs, func(a, b int) bool {
		if logs[a].BlockNumber != logs[b].BlockNumber {
			return logs[a].BlockNumber < logs[b].BlockNumber
		}
		return logs[a].Index < logs[b].Index
	})

	events := make([]Event, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		ev, err := i.decoder.Decode(ctx, l)
		if err != nil {
			if errors.Is(err, ErrUndecodable) {
				name := "unknown"
				if len(l.Topics) > 0 {
					name = i.decoder.EventName(l.Topics[0])
				}
				i.logger.Warn("Skipping undecodable log", zap.Error(err))
				metrics.DecodeErrors.WithLabelValues(name).Inc()
				continue
			}
			return 0, err
		}
		events = append(events, ev)
	}

	if err := i.pipeline.Submit(ctx, events); err != nil {
		return 0, err
	}
	for _, ev := range events {
		metrics.EventsIndexed.WithLabelValues(ev.Type()).Inc()
	}
	return len(events), nil
}

// Backfill indexes [from, to] in sequential chunks of at most ChunkSize
// blocks and advances the cursor after each applied chunk. A failing chunk
// is not retried: the error names the range and the cursor stays at the
// last completed chunk.
func (i *Indexer) Backfill(ctx context.Context, from, to uint64) (BackfillResult, error) {
	res := BackfillResult{From: from, To: to}
	if to < from {
		return res, nil
	}

	i.logger.Info("Starting backfill",
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", to),
		zap.Uint64("chunk_size", i.chunkSize))

	for start := from; ; {
		end := to
		if to-start >= i.chunkSize {
			end = start + i.chunkSize - 1
		}

		if err := ctx.Err(); err != nil {
			return res, err
		}

		started := time.Now()
		timer := prometheus.NewTimer(metrics.ChunkDuration)
		n, err := i.IndexRange(ctx, start, end)
		timer.ObserveDuration()
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("indexer", "backfill").Inc()
			return res, fmt.Errorf("failed to index blocks %d-%d: %w", start, end, err)
		}

		if err := i.cursors.AdvanceCursor(ctx, i.cursorName, end); err != nil {
			return res, fmt.Errorf("failed to advance cursor to %d: %w", end, err)
		}
		metrics.LastProcessedBlock.WithLabelValues(i.cursorName).Set(float64(end))
		metrics.BlocksProcessed.WithLabelValues("backfill").Add(float64(end - start + 1))

		res.Chunks++
		res.Events += n
		res.LastBlock = end

		i.logger.Debug("Backfill chunk applied",
			zap.Uint64("from_block", start),
			zap.Uint64("to_block", end),
			zap.Int("events", n),
			zap.Duration("duration", time.Since(started)))

		if end == to {
			break
		}
		start = end + 1
	}

	i.logger.Info("Backfill completed",
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", to),
		zap.Int("chunks", res.Chunks),
		zap.Int("events", res.Events))
	return res, nil
}
