package marketplace

import (
	"io"
	"strings"
)

// Minimal marketplace ABI — only the entry points this service calls.
// buyListing verifies the attached Pyth update on-chain before settling,
// so the contract, not this client, is the source of truth for the rate.

func marketplaceABI() io.Reader {
	return strings.NewReader(`[
		{
			"name": "listings",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "", "type": "uint256"}],
			"outputs": [
				{"name": "amountTokens", "type": "uint256"},
				{"name": "price",        "type": "uint256"},
				{"name": "seller",       "type": "address"},
				{"name": "sold",         "type": "bool"}
			]
		},
		{
			"name": "getLatestEthPrice",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "priceUpdate", "type": "bytes[]"}],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "buyListing",
			"type": "function",
			"stateMutability": "payable",
			"inputs": [
				{"name": "listingId",   "type": "uint256"},
				{"name": "priceUpdate", "type": "bytes[]"}
			],
			"outputs": []
		}
	]`)
}
