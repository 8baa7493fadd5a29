package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventMeta is the envelope every decoded contract event carries.
type EventMeta struct {
	Contract    common.Address
	TxSender    common.Address
	Timestamp   uint64
	BlockNumber uint64
	LogIndex    uint
}

func (m EventMeta) Meta() EventMeta { return m }

// Event is any decoded contract event.
type Event interface {
	Meta() EventMeta
}

// AssetRef points at an asset by content contract and token id.
type AssetRef struct {
	ContentAddress common.Address
	TokenID        *big.Int
}

// OrderInput is the order terms carried by an OrderPlaced event.
type OrderInput struct {
	Asset      AssetRef
	Owner      common.Address
	Token      common.Address
	Price      *big.Int
	Amount     *big.Int
	IsBuyOrder bool
}

// AddressRegistered announces a contract registered under a capability id.
type AddressRegistered struct {
	EventMeta
	CapabilityID string
	Target       common.Address
}

// ContractsDeployed announces a content contract and its manager deployed
// by a factory.
type ContractsDeployed struct {
	EventMeta
	Content        common.Address
	ContentManager common.Address
}

// AssetsAdded announces new token ids minted under a content contract.
type AssetsAdded struct {
	EventMeta
	Parent   common.Address
	TokenIDs []*big.Int
}

// TransferSingle is the ERC-1155 single transfer.
type TransferSingle struct {
	EventMeta
	Operator common.Address
	From     common.Address
	To       common.Address
	TokenID  *big.Int
	Amount   *big.Int
}

// TransferBatch is the ERC-1155 batch transfer.
type TransferBatch struct {
	EventMeta
	Operator common.Address
	From     common.Address
	To       common.Address
	TokenIDs []*big.Int
	Amounts  []*big.Int
}

// OrderPlaced announces a new order on an exchange.
type OrderPlaced struct {
	EventMeta
	Maker   common.Address
	OrderID *big.Int
	Order   OrderInput
}

// OrdersFilled announces fills against a batch of orders by one taker.
type OrdersFilled struct {
	EventMeta
	Taker       common.Address
	OrderIDs    []*big.Int
	Amounts     []*big.Int
	Asset       AssetRef
	Token       common.Address
	TotalAmount *big.Int
}

// OrdersDeleted announces cancelled orders.
type OrdersDeleted struct {
	EventMeta
	Owner    common.Address
	OrderIDs []*big.Int
}

// OrdersClaimed announces claimed order proceeds.
type OrdersClaimed struct {
	EventMeta
	Owner    common.Address
	OrderIDs []*big.Int
}
