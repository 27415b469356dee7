// Package resolver builds currency and contract lookup tables from page state.
package resolver

import (
	"nft-scraper/fields"
	"nft-scraper/models"
	"nft-scraper/stateblob"
)

// CurrencyTypenames lists the discriminators of state nodes that describe payment assets
var CurrencyTypenames = []string{"AssetType", "PaymentAssetType"}

// ContractTypename marks state nodes that describe asset contracts
const ContractTypename = "AssetContractType"

// Build produces the lookup tables for one page load.
// Missing tables are a normal outcome and yield empty maps.
func Build(blob *stateblob.Blob) *models.Lookup {
	lookup := models.NewLookup()
	if blob == nil {
		return lookup
	}

	for _, id := range blob.ByTypename(CurrencyTypenames...) {
		node := blob.Records[id]
		spot, ok := fields.Decimal(node, "usdSpotPrice")
		if !ok {
			continue
		}
		symbol, _ := fields.String(node, "symbol")
		imageURL, _ := fields.String(node, "imageUrl")
		lookup.Currencies[id] = models.CurrencyRef{
			ID:           id,
			Symbol:       symbol,
			USDSpotPrice: spot,
			ImageURL:     imageURL,
		}
	}

	for _, id := range blob.ByTypename(ContractTypename) {
		address, ok := fields.String(blob.Records[id], "address")
		if !ok {
			continue
		}
		lookup.Contracts[id] = models.ContractRef{ID: id, Address: address}
	}

	return lookup
}
