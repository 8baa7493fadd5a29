package model

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressID is the canonical entity id for a chain address.
func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// AssetKey identifies an asset within a content contract.
type AssetKey struct {
	Content string
	TokenID string
}

func NewAssetKey(content string, tokenID *big.Int) AssetKey {
	return AssetKey{Content: content, TokenID: tokenID.String()}
}

func (k AssetKey) String() string {
	return k.Content + "-" + k.TokenID
}

// BalanceKey identifies an account's holding of one asset.
type BalanceKey struct {
	Content string
	Account string
	TokenID string
}

func NewBalanceKey(content, account string, tokenID *big.Int) BalanceKey {
	return BalanceKey{Content: content, Account: account, TokenID: tokenID.String()}
}

func (k BalanceKey) String() string {
	return k.Content + "-" + k.Account + "-" + k.TokenID
}

// WeeklyKey identifies an account's participation in one campaign week.
type WeeklyKey struct {
	Account string
	Week    int
}

func NewWeeklyKey(account string, week int) WeeklyKey {
	return WeeklyKey{Account: account, Week: week}
}

func (k WeeklyKey) String() string {
	return k.Account + "-" + strconv.Itoa(k.Week)
}
