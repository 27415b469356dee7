package parser

import (
	"net/url"
	"strconv"
	"strings"

	"nft-scraper/fields"
	"nft-scraper/models"
	"nft-scraper/stateblob"

	"github.com/shopspring/decimal"
)

// BaseURL is the marketplace origin used to build offer links
const BaseURL = "https://opensea.io"

// BaseUnitDecimals is the number of decimals of the chain's native unit.
// Minor-unit quantities are divided by 10^BaseUnitDecimals.
const BaseUnitDecimals = 18

// State node discriminators of the record types
const (
	OfferTypename   = "ItemType"
	RankingTypename = "CollectionType"
)

// Parser normalizes raw records from every source into canonical records
type Parser struct {
	lookup *models.Lookup
}

// NewParser creates a new Parser resolving references through lookup
func NewParser(lookup *models.Lookup) *Parser {
	if lookup == nil {
		lookup = models.NewLookup()
	}
	return &Parser{lookup: lookup}
}

// Lookup returns the reference tables used by the parser
func (p *Parser) Lookup() *models.Lookup {
	return p.lookup
}

// OfferFromNode converts a state or response node into an offer.
// It returns false when the node has no display name.
func (p *Parser) OfferFromNode(node map[string]any) (*models.Offer, bool) {
	name, ok := fields.String(node, "name")
	if !ok {
		return nil, false
	}

	offer := &models.Offer{Name: name}
	offer.TokenID, _ = fields.Digits(node, "tokenId")
	offer.AssetContractAddress = p.contractAddress(node)
	if img, ok := fields.String(node, "displayImageUrl"); ok {
		offer.DisplayImageURL = img
	} else {
		offer.DisplayImageURL, _ = fields.String(node, "imageUrl")
	}
	offer.OfferURL = offerURL(offer.AssetContractAddress, offer.TokenID)
	if priceNode, ok := fields.Map(node, "price"); ok {
		offer.Price = p.price(priceNode)
	}

	return offer, true
}

// RankingFromNode converts a state or response node into a ranking entry.
// It returns false when the node has no slug.
func (p *Parser) RankingFromNode(node map[string]any) (*models.RankingEntry, bool) {
	slug, ok := fields.String(node, "slug")
	if !ok {
		return nil, false
	}

	entry := &models.RankingEntry{Slug: slug}
	entry.Rank, _ = fields.Int(node, "rank")
	entry.Name, _ = fields.String(node, "name")
	entry.ThumbnailURL, _ = fields.String(node, "imageUrl")
	if floor, ok := fields.Map(node, "floorPrice"); ok {
		entry.FloorPrice = p.price(floor)
	}

	return entry, true
}

// Offers normalizes a batch of nodes, silently dropping nodes without identity
func (p *Parser) Offers(nodes []map[string]any) []models.Offer {
	offers := make([]models.Offer, 0, len(nodes))
	for _, node := range nodes {
		if offer, ok := p.OfferFromNode(node); ok {
			offers = append(offers, *offer)
		}
	}
	return offers
}

// Rankings normalizes a batch of nodes, silently dropping nodes without identity
func (p *Parser) Rankings(nodes []map[string]any) []models.RankingEntry {
	entries := make([]models.RankingEntry, 0, len(nodes))
	for _, node := range nodes {
		if entry, ok := p.RankingFromNode(node); ok {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// OffersFromBlob normalizes the offer nodes embedded in the page state
func (p *Parser) OffersFromBlob(blob *stateblob.Blob) []models.Offer {
	return p.Offers(nodesOf(blob, OfferTypename))
}

// RankingsFromBlob normalizes the collection nodes embedded in the page state
func (p *Parser) RankingsFromBlob(blob *stateblob.Blob) []models.RankingEntry {
	return p.Rankings(nodesOf(blob, RankingTypename))
}

func nodesOf(blob *stateblob.Blob, typename string) []map[string]any {
	if blob == nil {
		return nil
	}
	ids := blob.ByTypename(typename)
	nodes := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, blob.Records[id])
	}
	return nodes
}

// price decodes either a minor-unit quantity or a display unit amount.
// The currency symbol stays empty when it cannot be resolved.
func (p *Parser) price(node map[string]any) *models.Price {
	var amount decimal.Decimal
	if qty, ok := fields.Digits(node, "quantity"); ok {
		d, err := decimal.NewFromString(qty)
		if err != nil {
			return nil
		}
		amount = d.Shift(-BaseUnitDecimals)
	} else if unit, ok := fields.Decimal(node, "unit"); ok {
		amount = unit
	} else {
		return nil
	}

	return &models.Price{Amount: amount, Currency: p.currencySymbol(node)}
}

func (p *Parser) currencySymbol(node map[string]any) string {
	if symbol, ok := fields.String(node, "symbol"); ok {
		return symbol
	}
	if ref, ok := stateblob.Node(node).Ref("asset"); ok {
		return p.lookup.Currencies[ref].Symbol
	}
	if asset, ok := fields.Map(node, "asset"); ok {
		symbol, _ := fields.String(asset, "symbol")
		return symbol
	}
	return ""
}

func (p *Parser) contractAddress(node map[string]any) string {
	if addr, ok := fields.String(node, "assetContractAddress"); ok {
		return addr
	}
	if ref, ok := stateblob.Node(node).Ref("assetContract"); ok {
		return p.lookup.Contracts[ref].Address
	}
	if contract, ok := fields.Map(node, "assetContract"); ok {
		addr, _ := fields.String(contract, "address")
		return addr
	}
	return ""
}

// offerURL builds the item link; both parts are required
func offerURL(contract, tokenID string) string {
	if contract == "" || tokenID == "" {
		return ""
	}
	return BaseURL + "/assets/" + url.PathEscape(contract) + "/" + tokenID
}

// ParseResultsCount reads the total from a results counter such as "9.512 items".
// Dots are thousands separators.
func ParseResultsCount(text string) (int, bool) {
	tokens := strings.Fields(strings.ReplaceAll(text, ".", ""))
	if len(tokens) == 0 {
		return 0, false
	}
	digits, ok := fields.ParseDigits(strings.ReplaceAll(tokens[0], ",", ""))
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}
