package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnknownTokenID is the key suffix used for offers without a token id
const UnknownTokenID = "unknown"

// Price represents an amount denominated in a currency symbol
type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"` // Currency symbol (ETH, WETH, ...), empty if unresolved
}

// String formats the price for display
func (p Price) String() string {
	if p.Currency == "" {
		return p.Amount.String()
	}
	return fmt.Sprintf("%s %s", p.Amount.String(), p.Currency)
}

// Offer represents a single item listed for sale in a collection
type Offer struct {
	Name                 string `json:"name"`
	TokenID              string `json:"tokenId,omitempty"` // Decimal digits, empty if absent
	AssetContractAddress string `json:"assetContractAddress,omitempty"`
	OfferURL             string `json:"offerUrl,omitempty"`
	DisplayImageURL      string `json:"displayImageUrl,omitempty"`
	Price                *Price `json:"floorPrice,omitempty"`
}

// Key returns the uniqueness key of the offer
func (o Offer) Key() string {
	tokenID := o.TokenID
	if tokenID == "" {
		tokenID = UnknownTokenID
	}
	return o.Name + "_" + tokenID
}

// OffersResult is the outcome of an offers extraction
type OffersResult struct {
	Offers         []Offer         `json:"offers"`
	TotalAvailable *int            `json:"totalOffers,omitempty"`
	Failures       []DecodeFailure `json:"-"`
}
