package parser

import (
	"fmt"
	"testing"

	"nft-scraper/models"
	"nft-scraper/stateblob"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLookup() *models.Lookup {
	lookup := models.NewLookup()
	lookup.Currencies["eth"] = models.CurrencyRef{ID: "eth", Symbol: "ETH", USDSpotPrice: decimal.NewFromInt(3000)}
	lookup.Contracts["c1"] = models.ContractRef{ID: "c1", Address: "0xabc"}
	return lookup
}

func TestOfferFromNode(t *testing.T) {
	p := NewParser(testLookup())

	tests := []struct {
		name   string
		node   map[string]any
		want   *models.Offer
		wantOK bool
	}{
		{
			name: "state node with references",
			node: map[string]any{
				"__typename":    "ItemType",
				"name":          "Cool Cat #231",
				"tokenId":       "231",
				"imageUrl":      "https://img/231.png",
				"assetContract": map[string]any{"__ref": "c1"},
				"price":         map[string]any{"quantity": "1500000000000000000", "asset": map[string]any{"__ref": "eth"}},
			},
			want: &models.Offer{
				Name:                 "Cool Cat #231",
				TokenID:              "231",
				AssetContractAddress: "0xabc",
				OfferURL:             "https://opensea.io/assets/0xabc/231",
				DisplayImageURL:      "https://img/231.png",
				Price:                &models.Price{Amount: decimal.RequireFromString("1.5"), Currency: "ETH"},
			},
			wantOK: true,
		},
		{
			name: "response node with inline values",
			node: map[string]any{
				"name":            "Cool Cat #7",
				"tokenId":         float64(7),
				"displayImageUrl": "https://img/7.png",
				"assetContract":   map[string]any{"address": "0xdef"},
				"price":           map[string]any{"unit": "0.25", "asset": map[string]any{"symbol": "WETH"}},
			},
			want: &models.Offer{
				Name:                 "Cool Cat #7",
				TokenID:              "7",
				AssetContractAddress: "0xdef",
				OfferURL:             "https://opensea.io/assets/0xdef/7",
				DisplayImageURL:      "https://img/7.png",
				Price:                &models.Price{Amount: decimal.RequireFromString("0.25"), Currency: "WETH"},
			},
			wantOK: true,
		},
		{
			name: "malformed optional fields degrade",
			node: map[string]any{
				"name":          "Broken",
				"tokenId":       "not-a-number",
				"assetContract": "oops",
				"price":         map[string]any{"quantity": "12x"},
			},
			want:   &models.Offer{Name: "Broken"},
			wantOK: true,
		},
		{
			name: "dangling reference resolves to absence",
			node: map[string]any{
				"name":          "Dangling",
				"tokenId":       "5",
				"assetContract": map[string]any{"__ref": "missing"},
				"price":         map[string]any{"quantity": "1000000000000000000", "asset": map[string]any{"__ref": "missing"}},
			},
			want: &models.Offer{
				Name:    "Dangling",
				TokenID: "5",
				Price:   &models.Price{Amount: decimal.NewFromInt(1)},
			},
			wantOK: true,
		},
		{
			name:   "missing name drops the record",
			node:   map[string]any{"tokenId": "1"},
			wantOK: false,
		},
		{
			name:   "blank name drops the record",
			node:   map[string]any{"name": "   "},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.OfferFromNode(tt.node)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, got)
				return
			}
			assertOffer(t, tt.want, got)
		})
	}
}

func TestMinorUnitConversionIsExact(t *testing.T) {
	p := NewParser(nil)

	offer, ok := p.OfferFromNode(map[string]any{
		"name":  "dust",
		"price": map[string]any{"quantity": "1"},
	})
	require.True(t, ok)
	require.NotNil(t, offer.Price)
	assert.Equal(t, "0.000000000000000001", offer.Price.Amount.String())
}

func TestOffersDropsRecordsWithoutName(t *testing.T) {
	p := NewParser(nil)

	for _, tc := range []struct{ total, unnamed int }{{0, 0}, {5, 0}, {5, 5}, {10, 3}} {
		t.Run(fmt.Sprintf("%d of %d unnamed", tc.unnamed, tc.total), func(t *testing.T) {
			var nodes []map[string]any
			for i := 0; i < tc.total; i++ {
				node := map[string]any{"tokenId": fmt.Sprint(i)}
				if i >= tc.unnamed {
					node["name"] = fmt.Sprintf("item %d", i)
				}
				nodes = append(nodes, node)
			}
			assert.Len(t, p.Offers(nodes), tc.total-tc.unnamed)
		})
	}
}

func TestRankingFromNode(t *testing.T) {
	p := NewParser(testLookup())

	entry, ok := p.RankingFromNode(map[string]any{
		"__typename": "CollectionType",
		"slug":       "boredapeyachtclub",
		"rank":       float64(1),
		"name":       "Bored Ape Yacht Club",
		"imageUrl":   "https://img/bayc.png",
		"floorPrice": map[string]any{"unit": "31.5", "symbol": "ETH"},
	})
	require.True(t, ok)
	assert.Equal(t, "boredapeyachtclub", entry.Slug)
	assert.Equal(t, 1, entry.Rank)
	assert.Equal(t, "Bored Ape Yacht Club", entry.Name)
	assert.Equal(t, "https://img/bayc.png", entry.ThumbnailURL)
	require.NotNil(t, entry.FloorPrice)
	assert.Equal(t, "31.5 ETH", entry.FloorPrice.String())

	entry, ok = p.RankingFromNode(map[string]any{"slug": "placeholder", "rank": "n/a"})
	require.True(t, ok)
	assert.Equal(t, 0, entry.Rank)
	assert.False(t, entry.Valid())

	_, ok = p.RankingFromNode(map[string]any{"name": "no slug"})
	assert.False(t, ok)
}

func TestOffersFromBlob(t *testing.T) {
	blob := &stateblob.Blob{Records: map[string]stateblob.Node{
		"i2": {"__typename": "ItemType", "name": "B"},
		"i1": {"__typename": "ItemType", "name": "A"},
		"i3": {"__typename": "ItemType"},
		"x":  {"__typename": "CollectionType", "slug": "s", "name": "S", "rank": float64(3)},
	}}
	p := NewParser(nil)

	offers := p.OffersFromBlob(blob)
	require.Len(t, offers, 2)
	assert.Equal(t, "A", offers[0].Name)
	assert.Equal(t, "B", offers[1].Name)

	rankings := p.RankingsFromBlob(blob)
	require.Len(t, rankings, 1)
	assert.Equal(t, 3, rankings[0].Rank)

	assert.Empty(t, p.OffersFromBlob(nil))
}

func TestParseResultsCount(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"9.512 items", 9512, true},
		{"1,204 results", 1204, true},
		{"  37 items", 37, true},
		{"items", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseResultsCount(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func assertOffer(t *testing.T, want, got *models.Offer) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.TokenID, got.TokenID)
	assert.Equal(t, want.AssetContractAddress, got.AssetContractAddress)
	assert.Equal(t, want.OfferURL, got.OfferURL)
	assert.Equal(t, want.DisplayImageURL, got.DisplayImageURL)
	if want.Price == nil {
		assert.Nil(t, got.Price)
		return
	}
	require.NotNil(t, got.Price)
	assert.True(t, want.Price.Amount.Equal(got.Price.Amount), "amount: want %s, got %s", want.Price.Amount, got.Price.Amount)
	assert.Equal(t, want.Price.Currency, got.Price.Currency)
}
