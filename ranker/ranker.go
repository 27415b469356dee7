// Package ranker orders merged records and bounds the result size.
package ranker

import (
	"sort"

	"nft-scraper/models"

	"github.com/shopspring/decimal"
)

// USDValue converts a price to its USD-equivalent through the currency lookup.
// It returns false when the price or its currency cannot be resolved.
func USDValue(price *models.Price, lookup *models.Lookup) (decimal.Decimal, bool) {
	if price == nil {
		return decimal.Zero, false
	}
	currency, ok := lookup.CurrencyBySymbol(price.Currency)
	if !ok {
		return decimal.Zero, false
	}
	return price.Amount.Mul(currency.USDSpotPrice), true
}

// Offers sorts offers ascending by USD-equivalent price and truncates to limit.
// Offers without a resolvable price go last. Equal values keep their input order.
func Offers(offers []models.Offer, lookup *models.Lookup, limit int) []models.Offer {
	type keyed struct {
		offer models.Offer
		value decimal.Decimal
		ok    bool
	}

	items := make([]keyed, len(offers))
	for i, o := range offers {
		v, ok := USDValue(o.Price, lookup)
		items[i] = keyed{offer: o, value: v, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.value.LessThan(b.value)
	})

	sorted := make([]models.Offer, len(items))
	for i, item := range items {
		sorted[i] = item.offer
	}
	return Truncate(sorted, limit)
}

// Rankings drops placeholder rows and sorts the rest ascending by rank
func Rankings(entries []models.RankingEntry) []models.RankingEntry {
	valid := make([]models.RankingEntry, 0, len(entries))
	for _, e := range entries {
		if e.Valid() {
			valid = append(valid, e)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Rank < valid[j].Rank
	})
	return valid
}

// Truncate returns at most limit records. A non-positive limit keeps everything.
func Truncate[T any](records []T, limit int) []T {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}
