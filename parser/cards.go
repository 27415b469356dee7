package parser

import (
	"net/url"
	"strings"

	"nft-scraper/fields"
	"nft-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// Selectors of the rendered cards
const (
	OfferCardSelector    = ".Asset--anchor"
	RankingRowSelector   = "[role=list] > div > a"
	ResultsCountSelector = ".AssetSearchView--results-count"
)

// OfferFromCard extracts an offer from the outer HTML of one rendered card.
// It returns false when the card carries no name.
func (p *Parser) OfferFromCard(cardHTML string) (*models.Offer, bool) {
	card, ok := firstMatch(cardHTML, OfferCardSelector, "a")
	if !ok {
		return nil, false
	}

	name := strings.TrimSpace(card.Find(".AssetCardFooter--name").First().Text())
	if name == "" {
		return nil, false
	}

	offer := &models.Offer{Name: name}
	offer.AssetContractAddress, offer.TokenID = assetPathParts(card.AttrOr("href", ""))
	offer.OfferURL = offerURL(offer.AssetContractAddress, offer.TokenID)
	offer.DisplayImageURL = strings.TrimSpace(card.Find("img").First().AttrOr("src", ""))
	offer.Price = cardPrice(card.Find(".AssetCardFooter--price-amount").First())

	return offer, true
}

// RankingFromRow extracts a ranking entry from the outer HTML of one rankings row.
// It returns false when no slug can be read from the row link.
func (p *Parser) RankingFromRow(rowHTML string) (*models.RankingEntry, bool) {
	row, ok := firstMatch(rowHTML, "a")
	if !ok {
		return nil, false
	}

	slug := lastPathSegment(row.AttrOr("href", ""))
	if slug == "" {
		return nil, false
	}

	entry := &models.RankingEntry{Slug: slug}
	entry.Rank = leadingNumber(strings.TrimSpace(row.Text()))
	entry.Name = strings.TrimSpace(row.Find(".Ranking--collection-name-overflow").First().Text())
	entry.ThumbnailURL = strings.TrimSpace(row.Find(".Image--image").First().AttrOr("src", ""))
	entry.FloorPrice = cardPrice(row.Find(".Ranking--floor-price").First())

	return entry, true
}

// OffersFromCards normalizes a batch of rendered cards
func (p *Parser) OffersFromCards(cards []string) []models.Offer {
	offers := make([]models.Offer, 0, len(cards))
	for _, card := range cards {
		if offer, ok := p.OfferFromCard(card); ok {
			offers = append(offers, *offer)
		}
	}
	return offers
}

// RankingsFromRows normalizes a batch of rendered rows
func (p *Parser) RankingsFromRows(rows []string) []models.RankingEntry {
	entries := make([]models.RankingEntry, 0, len(rows))
	for _, row := range rows {
		if entry, ok := p.RankingFromRow(row); ok {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// firstMatch parses a fragment and returns the first element matching one of the selectors
func firstMatch(fragment string, selectors ...string) (*goquery.Selection, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, false
	}
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel, true
		}
	}
	return nil, false
}

// cardPrice reads the amount of a price section. The currency is ETH only
// when the ETH icon is rendered next to the amount.
func cardPrice(section *goquery.Selection) *models.Price {
	if section.Length() == 0 {
		return nil
	}

	text := section.Find(".Price--amount").First().Text()
	if strings.TrimSpace(text) == "" {
		text = section.ChildrenFiltered("div").Eq(1).Text()
	}
	amount, ok := fields.ParseDecimal(text)
	if !ok {
		return nil
	}

	currency := ""
	if section.Find(".Price--eth-icon").Length() > 0 {
		currency = "ETH"
	}
	return &models.Price{Amount: amount, Currency: currency}
}

// assetPathParts splits /assets/<contract>/<tokenId> links
func assetPathParts(href string) (contract, tokenID string) {
	segments := pathSegments(href)
	if len(segments) == 0 {
		return "", ""
	}
	tokenID, _ = fields.ParseDigits(segments[len(segments)-1])
	if len(segments) >= 2 {
		candidate := segments[len(segments)-2]
		if strings.HasPrefix(strings.ToLower(candidate), "0x") {
			contract = candidate
		}
	}
	return contract, tokenID
}

func lastPathSegment(href string) string {
	segments := pathSegments(href)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

func pathSegments(href string) []string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// leadingNumber returns the digits the text starts with, or 0
func leadingNumber(text string) int {
	n := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
