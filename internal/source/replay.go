package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"rawrshakScope/internal/contracts"
	"rawrshakScope/internal/metrics"
	"rawrshakScope/internal/storage"
)

// Replay reduces a JSONL capture file through the reducer without
// touching the chain. Records carry their own timestamps and senders,
// so no RPC access is needed.
func Replay(ctx context.Context, reader *storage.JsonlReader, decoder *contracts.Decoder, red Applier, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[string]struct{})
	var reduced, skipped int
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		log, err := record.Log()
		if err != nil {
			return fmt.Errorf("record at block %d index %d: %w", record.BlockNumber, record.LogIndex, err)
		}
		if log.Removed || len(log.Topics) == 0 || !decoder.Known(log.Topics[0]) {
			metrics.SkippedLogs.WithLabelValues("unknown_topic").Inc()
			skipped++
			continue
		}

		id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
		if _, ok := seen[id]; ok {
			metrics.SkippedLogs.WithLabelValues("duplicate").Inc()
			skipped++
			continue
		}
		seen[id] = struct{}{}

		sender, err := record.Sender()
		if err != nil {
			return fmt.Errorf("record at block %d index %d: %w", record.BlockNumber, record.LogIndex, err)
		}

		ev, err := decoder.Decode(log, record.Timestamp, sender)
		if err != nil {
			return fmt.Errorf("decode %s log at %d:%d: %w",
				decoder.EventName(log.Topics[0]), log.BlockNumber, log.Index, err)
		}
		if err := red.Apply(ctx, ev); err != nil {
			metrics.ReduceErrors.Inc()
			return fmt.Errorf("reduce %s at %d:%d: %w",
				decoder.EventName(log.Topics[0]), log.BlockNumber, log.Index, err)
		}

		metrics.EventsProcessed.WithLabelValues(decoder.EventName(log.Topics[0])).Inc()
		metrics.LastReducedBlock.Set(float64(log.BlockNumber))
		reduced++
	}

	logger.Info("replay complete", zap.Int("reduced", reduced), zap.Int("skipped", skipped))
	return nil
}
