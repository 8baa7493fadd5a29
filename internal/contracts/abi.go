package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const resolverABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "contractAddress", "type": "address"},
      {"indexed": false, "internalType": "bytes4", "name": "id", "type": "bytes4"}
    ],
    "name": "AddressRegistered",
    "type": "event"
  }
]`

const factoryABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "content", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "contentManager", "type": "address"}
    ],
    "name": "ContractsDeployed",
    "type": "event"
  }
]`

const managerABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "parent", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "tokenIds", "type": "uint256[]"}
    ],
    "name": "AssetsAdded",
    "type": "event"
  }
]`

const erc1155ABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "operator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "id", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "value", "type": "uint256"}
    ],
    "name": "TransferSingle",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "operator", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "ids", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "values", "type": "uint256[]"}
    ],
    "name": "TransferBatch",
    "type": "event"
  }
]`

const exchangeABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "orderId", "type": "uint256"},
      {
        "components": [
          {
            "components": [
              {"internalType": "address", "name": "contentAddress", "type": "address"},
              {"internalType": "uint256", "name": "tokenId", "type": "uint256"}
            ],
            "internalType": "struct LibOrder.AssetData",
            "name": "asset",
            "type": "tuple"
          },
          {"internalType": "address", "name": "owner", "type": "address"},
          {"internalType": "address", "name": "token", "type": "address"},
          {"internalType": "uint256", "name": "price", "type": "uint256"},
          {"internalType": "uint256", "name": "amount", "type": "uint256"},
          {"internalType": "bool", "name": "isBuyOrder", "type": "bool"}
        ],
        "indexed": false,
        "internalType": "struct LibOrder.OrderInput",
        "name": "order",
        "type": "tuple"
      }
    ],
    "name": "OrderPlaced",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "from", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "orderIds", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "amounts", "type": "uint256[]"},
      {
        "components": [
          {"internalType": "address", "name": "contentAddress", "type": "address"},
          {"internalType": "uint256", "name": "tokenId", "type": "uint256"}
        ],
        "indexed": false,
        "internalType": "struct LibOrder.AssetData",
        "name": "asset",
        "type": "tuple"
      },
      {"indexed": false, "internalType": "address", "name": "token", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "totalAssetsAmount", "type": "uint256"}
    ],
    "name": "OrdersFilled",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "orderIds", "type": "uint256[]"}
    ],
    "name": "OrdersDeleted",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "orderIds", "type": "uint256[]"}
    ],
    "name": "OrdersClaimed",
    "type": "event"
  }
]`

var (
	parsedABIs   map[string]abi.ABI
	parseABIOnce sync.Once
	parseABIErr  error
)

// RawrshakABIs returns the parsed contract ABIs keyed by role.
func RawrshakABIs() (map[string]abi.ABI, error) {
	parseABIOnce.Do(func() {
		sources := map[string]string{
			"resolver": resolverABIJSON,
			"factory":  factoryABIJSON,
			"manager":  managerABIJSON,
			"erc1155":  erc1155ABIJSON,
			"exchange": exchangeABIJSON,
		}
		parsed := make(map[string]abi.ABI, len(sources))
		for role, source := range sources {
			contractABI, err := abi.JSON(strings.NewReader(source))
			if err != nil {
				parseABIErr = err
				return
			}
			parsed[role] = contractABI
		}
		parsedABIs = parsed
	})
	return parsedABIs, parseABIErr
}
