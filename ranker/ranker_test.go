package ranker

import (
	"math/rand"
	"testing"

	"nft-scraper/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupETH() *models.Lookup {
	lookup := models.NewLookup()
	lookup.Currencies["c1"] = models.CurrencyRef{ID: "c1", Symbol: "ETH", USDSpotPrice: decimal.NewFromInt(3000)}
	lookup.Currencies["c2"] = models.CurrencyRef{ID: "c2", Symbol: "WETH", USDSpotPrice: decimal.NewFromInt(3000)}
	return lookup
}

func offer(name, amount, currency string) models.Offer {
	return models.Offer{Name: name, Price: &models.Price{Amount: decimal.RequireFromString(amount), Currency: currency}}
}

func names(offers []models.Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.Name
	}
	return out
}

func TestOffersByUSDValue(t *testing.T) {
	offers := []models.Offer{
		offer("one eth", "1.0", "ETH"),
		offer("half weth", "0.5", "WETH"),
		offer("two eth", "2.0", "ETH"),
	}

	sorted := Offers(offers, lookupETH(), 10)

	assert.Equal(t, []string{"half weth", "one eth", "two eth"}, names(sorted))
	v, ok := USDValue(sorted[0].Price, lookupETH())
	require.True(t, ok)
	assert.Equal(t, "1500", v.String())
}

func TestOffersIsStable(t *testing.T) {
	offers := []models.Offer{
		offer("first", "1", "ETH"),
		offer("cheap", "0.1", "ETH"),
		offer("second", "1", "WETH"),
		offer("third", "1", "ETH"),
	}

	sorted := Offers(offers, lookupETH(), 0)

	assert.Equal(t, []string{"cheap", "first", "second", "third"}, names(sorted))
}

func TestOffersUnpricedGoLast(t *testing.T) {
	lookup := lookupETH()
	base := []models.Offer{
		offer("a", "3", "ETH"),
		{Name: "no price"},
		offer("b", "1", "ETH"),
		offer("unknown currency", "0.01", "DOGE"),
		offer("unresolved", "0.01", ""),
		offer("c", "2", "WETH"),
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := append([]models.Offer(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		sorted := Offers(shuffled, lookup, 0)
		require.Len(t, sorted, len(base))
		assert.Equal(t, []string{"b", "c", "a"}, names(sorted[:3]))
		for _, o := range sorted[3:] {
			_, ok := USDValue(o.Price, lookup)
			assert.False(t, ok, "%s should not be priced", o.Name)
		}
	}
}

func TestOffersTruncates(t *testing.T) {
	offers := []models.Offer{offer("a", "3", "ETH"), offer("b", "1", "ETH"), offer("c", "2", "ETH")}

	assert.Equal(t, []string{"b", "c"}, names(Offers(offers, lookupETH(), 2)))
	assert.Len(t, Offers(offers, lookupETH(), 5), 3)
}

func TestOffersWithoutLookup(t *testing.T) {
	offers := []models.Offer{offer("a", "3", "ETH"), offer("b", "1", "ETH")}

	assert.Equal(t, []string{"a", "b"}, names(Offers(offers, nil, 0)))
}

func TestRankings(t *testing.T) {
	entries := []models.RankingEntry{
		{Slug: "c", Rank: 3, Name: "C"},
		{Slug: "placeholder", Rank: 0, Name: ""},
		{Slug: "a", Rank: 1, Name: "A"},
		{Slug: "nameless", Rank: 2},
		{Slug: "b", Rank: 2, Name: "B"},
	}

	got := Rankings(entries)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Slug)
	assert.Equal(t, "b", got[1].Slug)
	assert.Equal(t, "c", got[2].Slug)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, []int{1, 2}, Truncate([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1, 2, 3}, Truncate([]int{1, 2, 3}, 0))
	assert.Empty(t, Truncate([]int(nil), 3))
}
