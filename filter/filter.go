package filter

import (
	"fmt"
	"strings"

	"nft-scraper/config"
	"nft-scraper/fields"
	"nft-scraper/models"

	"github.com/shopspring/decimal"
)

// Filter applies price criteria to offers
type Filter struct {
	min      *decimal.Decimal
	max      *decimal.Decimal
	currency string
}

// NewFilter creates a new Filter instance. Empty bounds are not applied.
func NewFilter(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{currency: strings.ToUpper(strings.TrimSpace(cfg.Currency))}

	var err error
	if f.min, err = bound("min_price", cfg.MinPrice); err != nil {
		return nil, err
	}
	if f.max, err = bound("max_price", cfg.MaxPrice); err != nil {
		return nil, err
	}
	if f.min != nil && f.max != nil && f.min.GreaterThan(*f.max) {
		return nil, fmt.Errorf("min_price %s is above max_price %s", f.min, f.max)
	}
	return f, nil
}

func bound(name, value string) (*decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, ok := fields.ParseDecimal(value)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", name, value)
	}
	return &d, nil
}

// Active reports whether any criterion is set
func (f *Filter) Active() bool {
	return f.min != nil || f.max != nil || f.currency != ""
}

// ApplyFilters filters offers based on the configuration, keeping their order
func (f *Filter) ApplyFilters(offers []models.Offer) []models.Offer {
	if !f.Active() {
		return offers
	}
	filtered := make([]models.Offer, 0, len(offers))
	for _, offer := range offers {
		if f.matchesFilters(offer) {
			filtered = append(filtered, offer)
		}
	}
	return filtered
}

// matchesFilters checks if an offer matches all filter criteria.
// Unpriced offers only pass when no criterion is set.
func (f *Filter) matchesFilters(offer models.Offer) bool {
	if offer.Price == nil {
		return false
	}
	if f.currency != "" && !strings.EqualFold(offer.Price.Currency, f.currency) {
		return false
	}
	if f.min != nil && offer.Price.Amount.LessThan(*f.min) {
		return false
	}
	if f.max != nil && offer.Price.Amount.GreaterThan(*f.max) {
		return false
	}
	return true
}

// String describes the active criteria
func (f *Filter) String() string {
	if !f.Active() {
		return "no filter"
	}
	var parts []string
	if f.min != nil {
		parts = append(parts, "min "+f.min.String())
	}
	if f.max != nil {
		parts = append(parts, "max "+f.max.String())
	}
	if f.currency != "" {
		parts = append(parts, "currency "+f.currency)
	}
	return strings.Join(parts, ", ")
}
