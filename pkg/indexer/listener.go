package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/internal/metrics"
)

// Listener follows the chain head once the backfill has caught up. Logs go
// through the same decode and apply path as the backfill.
type Listener struct {
	indexer  *Indexer
	interval time.Duration
	logger   *zap.Logger
}

// NewListener creates a listener polling every interval when no websocket
// endpoint is available.
func NewListener(indexer *Indexer, interval time.Duration, logger *zap.Logger) *Listener {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Listener{indexer: indexer, interval: interval, logger: logger}
}

// Subscribe processes blocks from `from` onwards until ctx is cancelled.
// advanceCursor controls whether processed blocks move the cursor; it must be
// false when an earlier range was left unindexed. Handler errors are logged
// and never stop the listener.
func (l *Listener) Subscribe(ctx context.Context, from uint64, advanceCursor bool) error {
	if l.indexer.chain.HasWebSocket() {
		next, err := l.subscribe(ctx, from, advanceCursor)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("Log subscription ended, falling back to polling",
			zap.Uint64("from_block", next),
			zap.Error(err))
		from = next
	}
	return l.poll(ctx, from, advanceCursor)
}

// subscribe returns the block polling should resume from when the
// subscription fails. Blocks of that height may be replayed, which applying
// idempotently makes harmless.
func (l *Listener) subscribe(ctx context.Context, from uint64, advanceCursor bool) (uint64, error) {
	logs := make(chan types.Log, 128)
	sub, err := l.indexer.chain.SubscribeFilterLogs(ctx, l.indexer.query(from, nil), logs)
	if err != nil {
		return from, err
	}
	defer sub.Unsubscribe()

	// The subscription only delivers logs mined after it started. Everything
	// up to the current head is read with filter queries first, so a live log
	// at block B means every block below B has been seen.
	head, err := l.indexer.chain.LatestBlockNumber(ctx)
	if err != nil {
		return from, fmt.Errorf("get head before live logs: %w", err)
	}
	next, err := l.catchUp(ctx, from, head, advanceCursor)
	if err != nil {
		return next, fmt.Errorf("catch up to block %d: %w", head, err)
	}

	l.logger.Info("Subscribed to contract logs",
		zap.Uint64("from_block", from),
		zap.Uint64("caught_up_to", head))

	for {
		select {
		case <-ctx.Done():
			return next, nil
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return next, err
		case lg := <-logs:
			if lg.BlockNumber < next {
				// Already applied by the catch-up.
				continue
			}
			if _, err := l.indexer.handleLogs(ctx, []types.Log{lg}); err != nil {
				l.logger.Error("Failed to handle live log",
					zap.Uint64("block", lg.BlockNumber),
					zap.String("tx_hash", lg.TxHash.Hex()),
					zap.Error(err))
				metrics.ErrorsTotal.WithLabelValues("listener", "handle").Inc()
				if advanceCursor {
					l.logger.Warn("Cursor frozen until the gap is backfilled", zap.Uint64("block", lg.BlockNumber))
					advanceCursor = false
				}
				continue
			}

			// Every block below the current log is complete.
			if lg.BlockNumber > next {
				metrics.BlocksProcessed.WithLabelValues("live").Add(float64(lg.BlockNumber - next))
				if advanceCursor {
					l.advance(ctx, lg.BlockNumber-1)
				}
				next = lg.BlockNumber
			}
		}
	}
}

func (l *Listener) poll(ctx context.Context, next uint64, advanceCursor bool) error {
	l.logger.Info("Polling for contract logs",
		zap.Uint64("from_block", next),
		zap.Duration("interval", l.interval))

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		next = l.pollOnce(ctx, next, advanceCursor)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// pollOnce indexes [next, head] and returns the next block to poll from.
// A failing range is logged and attempted again on the next tick.
func (l *Listener) pollOnce(ctx context.Context, next uint64, advanceCursor bool) uint64 {
	head, err := l.indexer.chain.LatestBlockNumber(ctx)
	if err != nil {
		l.logger.Error("Failed to get latest block", zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("listener", "head").Inc()
		return next
	}
	next, _ = l.catchUp(ctx, next, head, advanceCursor)
	return next
}

// catchUp indexes [next, head] in chunks. On error it returns the first block
// of the failed chunk; the cursor never moves past it.
func (l *Listener) catchUp(ctx context.Context, next, head uint64, advanceCursor bool) (uint64, error) {
	for next <= head {
		end := head
		if head-next >= l.indexer.chunkSize {
			end = next + l.indexer.chunkSize - 1
		}
		if _, err := l.indexer.IndexRange(ctx, next, end); err != nil {
			if ctx.Err() == nil {
				l.logger.Error("Failed to index live range",
					zap.Uint64("from_block", next),
					zap.Uint64("to_block", end),
					zap.Error(err))
				metrics.ErrorsTotal.WithLabelValues("listener", "poll").Inc()
			}
			return next, err
		}
		if advanceCursor {
			l.advance(ctx, end)
		}
		metrics.BlocksProcessed.WithLabelValues("live").Add(float64(end - next + 1))
		next = end + 1
	}
	return next, nil
}

func (l *Listener) advance(ctx context.Context, block uint64) {
	if err := l.indexer.cursors.AdvanceCursor(ctx, l.indexer.cursorName, block); err != nil {
		l.logger.Error("Failed to advance cursor", zap.Uint64("block", block), zap.Error(err))
		metrics.ErrorsTotal.WithLabelValues("listener", "cursor").Inc()
		return
	}
	metrics.LastProcessedBlock.WithLabelValues(l.indexer.cursorName).Set(float64(block))
}
