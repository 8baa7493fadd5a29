package model

import "math/big"

// AddressResolver records a registry contract seen on chain, with an
// optional link to the exchange it registered.
type AddressResolver struct {
	ID       string `json:"id"`
	Exchange string `json:"exchange,omitempty"`
}

// Exchange aggregates order book activity for one exchange contract.
type Exchange struct {
	ID                   string   `json:"id"`
	OrdersCount          uint64   `json:"orders_count"`
	OrderFillsCount      uint64   `json:"order_fills_count"`
	OrdersClaimedCount   uint64   `json:"orders_claimed_count"`
	OrdersCancelledCount uint64   `json:"orders_cancelled_count"`
	MakerVolume          *big.Int `json:"maker_volume"`
	TakerVolume          *big.Int `json:"taker_volume"`
	TotalUserActiveDays  uint64   `json:"total_user_active_days"`
}

func NewExchange(id string) *Exchange {
	return &Exchange{
		ID:          id,
		MakerVolume: new(big.Int),
		TakerVolume: new(big.Int),
	}
}

// ContentFactory marks a registered factory contract.
type ContentFactory struct {
	ID string `json:"id"`
}

// ContentStatisticsManager keeps factory-wide rollup counters. It shares
// its key with the ContentFactory it belongs to.
type ContentStatisticsManager struct {
	ID                string   `json:"id"`
	ContentsCount     uint64   `json:"contents_count"`
	AssetsCount       uint64   `json:"assets_count"`
	AccountsCount     uint64   `json:"accounts_count"`
	UniqueAssetsCount uint64   `json:"unique_assets_count"`
	Week1TotalPoints  *big.Int `json:"week1_total_points"`
	Week2TotalPoints  *big.Int `json:"week2_total_points"`
	Week3TotalPoints  *big.Int `json:"week3_total_points"`
}

func NewContentStatisticsManager(id string) *ContentStatisticsManager {
	return &ContentStatisticsManager{
		ID:               id,
		Week1TotalPoints: new(big.Int),
		Week2TotalPoints: new(big.Int),
		Week3TotalPoints: new(big.Int),
	}
}

// AddWeekPoints adds amount to the given week's point total.
func (m *ContentStatisticsManager) AddWeekPoints(week int, amount *big.Int) {
	switch week {
	case 1:
		m.Week1TotalPoints = new(big.Int).Add(m.Week1TotalPoints, amount)
	case 2:
		m.Week2TotalPoints = new(big.Int).Add(m.Week2TotalPoints, amount)
	case 3:
		m.Week3TotalPoints = new(big.Int).Add(m.Week3TotalPoints, amount)
	}
}

// SubWeekPoints subtracts amount from the given week's point total.
func (m *ContentStatisticsManager) SubWeekPoints(week int, amount *big.Int) {
	switch week {
	case 1:
		m.Week1TotalPoints = new(big.Int).Sub(m.Week1TotalPoints, amount)
	case 2:
		m.Week2TotalPoints = new(big.Int).Sub(m.Week2TotalPoints, amount)
	case 3:
		m.Week3TotalPoints = new(big.Int).Sub(m.Week3TotalPoints, amount)
	}
}

// Content is a deployed content contract with its asset count.
type Content struct {
	ID          string `json:"id"`
	Factory     string `json:"factory"`
	AssetsCount uint64 `json:"assets_count"`
}

// Asset is a single token id minted under a content contract.
type Asset struct {
	ID      string   `json:"id"`
	TokenID *big.Int `json:"token_id"`
	Parent  string   `json:"parent"`
}

// Account aggregates everything one address has done across contents and
// exchanges.
type Account struct {
	ID                     string   `json:"id"`
	OrdersCount            uint64   `json:"orders_count"`
	OrderFillsCount        uint64   `json:"order_fills_count"`
	CancelledOrdersCount   uint64   `json:"cancelled_orders_count"`
	ClaimedOrdersCount     uint64   `json:"claimed_orders_count"`
	MakerVolume            *big.Int `json:"maker_volume"`
	TakerVolume            *big.Int `json:"taker_volume"`
	UniqueAssetsCount      uint64   `json:"unique_assets_count"`
	DaysActive             uint64   `json:"days_active"`
	LastActiveDate         uint64   `json:"last_active_date"`
	ContractsDeployedCount uint64   `json:"contracts_deployed_count"`
	AssetsDeployedCount    uint64   `json:"assets_deployed_count"`
	Week1                  string   `json:"week1,omitempty"`
	Week2                  string   `json:"week2,omitempty"`
	Week3                  string   `json:"week3,omitempty"`
}

func NewAccount(id string, timestamp uint64) *Account {
	return &Account{
		ID:             id,
		MakerVolume:    new(big.Int),
		TakerVolume:    new(big.Int),
		DaysActive:     1,
		LastActiveDate: timestamp,
	}
}

// AssetBalance is one account's holding of one asset. Amount is signed so
// that out-of-order corrections stay representable, but it is semantically
// non-negative.
type AssetBalance struct {
	ID     string   `json:"id"`
	Asset  string   `json:"asset"`
	Owner  string   `json:"owner"`
	Amount *big.Int `json:"amount"`
}

func NewAssetBalance(id, asset, owner string) *AssetBalance {
	return &AssetBalance{ID: id, Asset: asset, Owner: owner, Amount: new(big.Int)}
}

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderReady           OrderStatus = "Ready"
	OrderPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderFilled          OrderStatus = "Filled"
	OrderClaimed         OrderStatus = "Claimed"
	OrderCancelled       OrderStatus = "Cancelled"
)

// OrderType distinguishes buy from sell orders.
type OrderType string

const (
	OrderTypeBuy  OrderType = "Buy"
	OrderTypeSell OrderType = "Sell"
)

// Order is one exchange order with its fill and claim progress.
type Order struct {
	ID            string      `json:"id"`
	Asset         string      `json:"asset"`
	Exchange      string      `json:"exchange"`
	Owner         string      `json:"owner"`
	Type          OrderType   `json:"type"`
	Price         *big.Int    `json:"price"`
	AmountOrdered *big.Int    `json:"amount_ordered"`
	AmountFilled  *big.Int    `json:"amount_filled"`
	AmountClaimed *big.Int    `json:"amount_claimed"`
	Status        OrderStatus `json:"status"`
	CreatedAt     uint64      `json:"created_at"`
}

// WeeklyEventParticipation is one account's score for one campaign week.
type WeeklyEventParticipation struct {
	ID           string   `json:"id"`
	Account      string   `json:"account"`
	Week         int      `json:"week"`
	Points       *big.Int `json:"points"`
	Bonus        bool     `json:"bonus"`
	Disqualified bool     `json:"disqualified"`
}
