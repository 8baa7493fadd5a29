package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"rawrshakScope/internal/contracts"
	"rawrshakScope/internal/metrics"
	"rawrshakScope/internal/model"
	"rawrshakScope/internal/storage"
)

// Chain is the subset of the RPC client the runner needs.
type Chain interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	TransactionSender(ctx context.Context, txHash common.Hash) (common.Address, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// Applier reduces decoded events into the entity store.
type Applier interface {
	Apply(ctx context.Context, ev model.Event) error
}

// RawSink receives raw log records as they are fetched.
type RawSink interface {
	Append(record storage.LogRecord) error
}

// RunConfig holds runtime settings for the indexing loop.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner streams logs for the subscribed contracts and feeds decoded
// events to the reducer in chain order.
type Runner struct {
	cfg        RunConfig
	chain      Chain
	subs       *SubscriptionSet
	decoder    *contracts.Decoder
	reducer    Applier
	raw        RawSink
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies. raw may be nil.
func NewRunner(cfg RunConfig, chainClient Chain, subs *SubscriptionSet, decoder *contracts.Decoder, red Applier, raw RawSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		subs:       subs,
		decoder:    decoder,
		reducer:    red,
		raw:        raw,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the indexing loop over the configured block range.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.subs == nil || r.subs.Len() == 0 {
		return fmt.Errorf("at least one subscribed address is required")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastReducedBlock >= from {
			from = cp.LastReducedBlock + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_reduced", cp.LastReducedBlock), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	// Drop additions made while seeding so the first range queries
	// the full set directly.
	r.subs.TakeAdded()

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.processRange(ctx, blockRange); err != nil {
			return err
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(blockRange.To); err != nil {
				return err
			}
		}
		metrics.LastReducedBlock.Set(float64(blockRange.To))
	}

	return nil
}

// processRange reduces one block span. When reduction subscribes new
// contracts mid-range, the same span is re-filtered for just those
// addresses until the set stops growing, so a factory and the content
// it deploys can land in the same batch.
func (r *Runner) processRange(ctx context.Context, blockRange BlockRange) error {
	addresses := r.subs.Addresses()
	r.logger.Info("fetch logs",
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To),
		zap.Int("addresses", len(addresses)))

	for pass := 0; ; pass++ {
		logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To, addresses)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		if err := r.reduceLogs(ctx, logs); err != nil {
			return err
		}

		added := r.subs.TakeAdded()
		if len(added) == 0 {
			return nil
		}
		r.logger.Info("subscriptions grew mid-range",
			zap.Int("added", len(added)), zap.Int("pass", pass+1))
		addresses = added
	}
}

func (r *Runner) reduceLogs(ctx context.Context, logs []types.Log) error {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	ingestedAt := time.Now().UTC()
	for _, log := range logs {
		if log.Removed {
			metrics.SkippedLogs.WithLabelValues("removed").Inc()
			continue
		}
		if len(log.Topics) == 0 || !r.decoder.Known(log.Topics[0]) {
			metrics.SkippedLogs.WithLabelValues("unknown_topic").Inc()
			continue
		}
		if r.isDuplicate(log) {
			metrics.SkippedLogs.WithLabelValues("duplicate").Inc()
			continue
		}

		ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
		if err != nil {
			return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		sender, err := r.transactionSenderWithRetry(ctx, log.TxHash)
		if err != nil {
			return fmt.Errorf("transaction sender %s: %w", log.TxHash.Hex(), err)
		}

		if r.raw != nil {
			if err := r.raw.Append(storage.FromLog(log, ts, sender, ingestedAt)); err != nil {
				return fmt.Errorf("capture raw log: %w", err)
			}
		}

		ev, err := r.decoder.Decode(log, ts, sender)
		if err != nil {
			return fmt.Errorf("decode %s log at %d:%d: %w",
				r.decoder.EventName(log.Topics[0]), log.BlockNumber, log.Index, err)
		}

		if err := r.reducer.Apply(ctx, ev); err != nil {
			metrics.ReduceErrors.Inc()
			return fmt.Errorf("reduce %s at %d:%d: %w",
				r.decoder.EventName(log.Topics[0]), log.BlockNumber, log.Index, err)
		}
		metrics.EventsProcessed.WithLabelValues(r.decoder.EventName(log.Topics[0])).Inc()
	}

	return nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, fromBlock, toBlock, addresses, r.decoder.Topics())
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Runner) transactionSenderWithRetry(ctx context.Context, txHash common.Hash) (common.Address, error) {
	var sender common.Address
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		sender, err = r.chain.TransactionSender(ctx, txHash)
		if err != nil {
			r.logger.Warn("transaction sender fetch failed", zap.Error(err), zap.String("tx_hash", txHash.Hex()))
		}
		return err
	})
	return sender, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
