package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"rawrshakScope/internal/model"
)

// Decoder turns raw logs from the watched contracts into typed events.
type Decoder struct {
	events map[common.Hash]abi.Event
}

// NewDecoder builds a decoder over all known contract ABIs, dispatching on
// topic0.
func NewDecoder() (*Decoder, error) {
	abis, err := RawrshakABIs()
	if err != nil {
		return nil, err
	}

	events := make(map[common.Hash]abi.Event)
	for _, contractABI := range abis {
		for _, event := range contractABI.Events {
			events[event.ID] = event
		}
	}

	return &Decoder{events: events}, nil
}

// Known reports whether the topic0 belongs to a decodable event.
func (d *Decoder) Known(topic0 common.Hash) bool {
	_, ok := d.events[topic0]
	return ok
}

// EventName returns the event name for a topic0, or "".
func (d *Decoder) EventName(topic0 common.Hash) string {
	return d.events[topic0].Name
}

// Topics returns every decodable topic0 for log filtering.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.events))
	for topic := range d.events {
		topics = append(topics, topic)
	}
	return topics
}

// Decode converts one log into a typed event carrying the block timestamp
// and transaction sender.
func (d *Decoder) Decode(log types.Log, timestamp uint64, sender common.Address) (model.Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	event, ok := d.events[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	meta := model.EventMeta{
		Contract:    log.Address,
		TxSender:    sender,
		Timestamp:   timestamp,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
	}

	switch event.Name {
	case "AddressRegistered":
		return decodeAddressRegistered(event, log, meta)
	case "ContractsDeployed":
		return decodeContractsDeployed(event, log, meta)
	case "AssetsAdded":
		return decodeAssetsAdded(event, log, meta)
	case "TransferSingle":
		return decodeTransferSingle(event, log, meta)
	case "TransferBatch":
		return decodeTransferBatch(event, log, meta)
	case "OrderPlaced":
		return decodeOrderPlaced(event, log, meta)
	case "OrdersFilled":
		return decodeOrdersFilled(event, log, meta)
	case "OrdersDeleted":
		return decodeOrdersDeleted(event, log, meta)
	case "OrdersClaimed":
		return decodeOrdersClaimed(event, log, meta)
	default:
		return nil, fmt.Errorf("unsupported event name: %s", event.Name)
	}
}

func decodeAddressRegistered(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected AddressRegistered values: %d", len(values))
	}

	target, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	capability, err := asBytes4(values[1])
	if err != nil {
		return nil, err
	}

	return model.AddressRegistered{
		EventMeta:    meta,
		CapabilityID: capability,
		Target:       target,
	}, nil
}

func decodeContractsDeployed(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected ContractsDeployed values: %d", len(values))
	}

	content, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	manager, err := asAddress(values[1])
	if err != nil {
		return nil, err
	}

	return model.ContractsDeployed{
		EventMeta:      meta,
		Content:        content,
		ContentManager: manager,
	}, nil
}

func decodeAssetsAdded(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected AssetsAdded values: %d", len(values))
	}

	parent, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	tokenIDs, err := asBigIntSlice(values[1])
	if err != nil {
		return nil, err
	}

	return model.AssetsAdded{
		EventMeta: meta,
		Parent:    parent,
		TokenIDs:  tokenIDs,
	}, nil
}

func decodeTransferSingle(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	operator, from, to, err := transferTopics(log)
	if err != nil {
		return nil, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected TransferSingle values: %d", len(values))
	}

	tokenID, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	amount, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}

	return model.TransferSingle{
		EventMeta: meta,
		Operator:  operator,
		From:      from,
		To:        to,
		TokenID:   tokenID,
		Amount:    amount,
	}, nil
}

func decodeTransferBatch(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	operator, from, to, err := transferTopics(log)
	if err != nil {
		return nil, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected TransferBatch values: %d", len(values))
	}

	tokenIDs, err := asBigIntSlice(values[0])
	if err != nil {
		return nil, err
	}
	amounts, err := asBigIntSlice(values[1])
	if err != nil {
		return nil, err
	}

	return model.TransferBatch{
		EventMeta: meta,
		Operator:  operator,
		From:      from,
		To:        to,
		TokenIDs:  tokenIDs,
		Amounts:   amounts,
	}, nil
}

// orderInputABI mirrors the OrderPlaced tuple layout for abi.ConvertType.
type orderInputABI struct {
	Asset struct {
		ContentAddress common.Address
		TokenId        *big.Int
	}
	Owner      common.Address
	Token      common.Address
	Price      *big.Int
	Amount     *big.Int
	IsBuyOrder bool
}

type assetDataABI struct {
	ContentAddress common.Address
	TokenId        *big.Int
}

func decodeOrderPlaced(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected OrderPlaced values: %d", len(values))
	}

	maker, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	orderID, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	input := *abi.ConvertType(values[2], new(orderInputABI)).(*orderInputABI)

	return model.OrderPlaced{
		EventMeta: meta,
		Maker:     maker,
		OrderID:   orderID,
		Order: model.OrderInput{
			Asset: model.AssetRef{
				ContentAddress: input.Asset.ContentAddress,
				TokenID:        input.Asset.TokenId,
			},
			Owner:      input.Owner,
			Token:      input.Token,
			Price:      input.Price,
			Amount:     input.Amount,
			IsBuyOrder: input.IsBuyOrder,
		},
	}, nil
}

func decodeOrdersFilled(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != 6 {
		return nil, fmt.Errorf("unexpected OrdersFilled values: %d", len(values))
	}

	taker, err := asAddress(values[0])
	if err != nil {
		return nil, err
	}
	orderIDs, err := asBigIntSlice(values[1])
	if err != nil {
		return nil, err
	}
	amounts, err := asBigIntSlice(values[2])
	if err != nil {
		return nil, err
	}
	asset := *abi.ConvertType(values[3], new(assetDataABI)).(*assetDataABI)
	token, err := asAddress(values[4])
	if err != nil {
		return nil, err
	}
	totalAmount, err := asBigInt(values[5])
	if err != nil {
		return nil, err
	}

	return model.OrdersFilled{
		EventMeta: meta,
		Taker:     taker,
		OrderIDs:  orderIDs,
		Amounts:   amounts,
		Asset: model.AssetRef{
			ContentAddress: asset.ContentAddress,
			TokenID:        asset.TokenId,
		},
		Token:       token,
		TotalAmount: totalAmount,
	}, nil
}

func decodeOrdersDeleted(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	owner, orderIDs, err := ownerAndOrderIDs(event, log)
	if err != nil {
		return nil, err
	}
	return model.OrdersDeleted{EventMeta: meta, Owner: owner, OrderIDs: orderIDs}, nil
}

func decodeOrdersClaimed(event abi.Event, log types.Log, meta model.EventMeta) (model.Event, error) {
	owner, orderIDs, err := ownerAndOrderIDs(event, log)
	if err != nil {
		return nil, err
	}
	return model.OrdersClaimed{EventMeta: meta, Owner: owner, OrderIDs: orderIDs}, nil
}

func ownerAndOrderIDs(event abi.Event, log types.Log) (common.Address, []*big.Int, error) {
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return common.Address{}, nil, err
	}
	if len(values) != 2 {
		return common.Address{}, nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}

	owner, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, nil, err
	}
	orderIDs, err := asBigIntSlice(values[1])
	if err != nil {
		return common.Address{}, nil, err
	}
	return owner, orderIDs, nil
}

func transferTopics(log types.Log) (operator, from, to common.Address, err error) {
	if len(log.Topics) != 4 {
		return common.Address{}, common.Address{}, common.Address{},
			fmt.Errorf("expected 4 topics, got %d", len(log.Topics))
	}
	operator = common.BytesToAddress(log.Topics[1].Bytes())
	from = common.BytesToAddress(log.Topics[2].Bytes())
	to = common.BytesToAddress(log.Topics[3].Bytes())
	return operator, from, to, nil
}

func unpackNonIndexed(event abi.Event, data []byte) ([]interface{}, error) {
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("expected address, got %T", value)
	}
	return addr, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	n, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected big int, got %T", value)
	}
	return n, nil
}

func asBigIntSlice(value interface{}) ([]*big.Int, error) {
	slice, ok := value.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected big int slice, got %T", value)
	}
	return slice, nil
}

func asBytes4(value interface{}) (string, error) {
	b, ok := value.([4]byte)
	if !ok {
		return "", fmt.Errorf("expected bytes4, got %T", value)
	}
	return hexutil.Encode(b[:]), nil
}
