package storage

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogRecord is one raw log as captured to JSONL. It carries the block
// timestamp and transaction sender so a replay needs no RPC.
type LogRecord struct {
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxFrom      string   `json:"tx_from"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp"`
	IngestedAt  string   `json:"ingested_at"`
}

// FromLog builds a LogRecord from a fetched log and its lookups.
func FromLog(log types.Log, timestamp uint64, sender common.Address, ingestedAt time.Time) LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}
	return LogRecord{
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxFrom:      sender.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
		Timestamp:   timestamp,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Log converts the record back into a go-ethereum log.
func (r LogRecord) Log() (types.Log, error) {
	if !common.IsHexAddress(r.Address) {
		return types.Log{}, fmt.Errorf("invalid address: %s", r.Address)
	}

	topics := make([]common.Hash, 0, len(r.Topics))
	for _, topic := range r.Topics {
		raw, err := hexutil.Decode(topic)
		if err != nil {
			return types.Log{}, fmt.Errorf("invalid topic: %w", err)
		}
		topics = append(topics, common.BytesToHash(raw))
	}

	data, err := hexutil.Decode(r.Data)
	if err != nil {
		return types.Log{}, fmt.Errorf("invalid data: %w", err)
	}

	return types.Log{
		Address:     common.HexToAddress(r.Address),
		Topics:      topics,
		Data:        data,
		BlockNumber: r.BlockNumber,
		TxHash:      common.HexToHash(r.TxHash),
		TxIndex:     uint(r.TxIndex),
		BlockHash:   common.HexToHash(r.BlockHash),
		Index:       uint(r.LogIndex),
		Removed:     r.Removed,
	}, nil
}

// Sender parses the captured transaction sender.
func (r LogRecord) Sender() (common.Address, error) {
	if !common.IsHexAddress(r.TxFrom) {
		return common.Address{}, fmt.Errorf("invalid tx sender: %s", r.TxFrom)
	}
	return common.HexToAddress(r.TxFrom), nil
}
