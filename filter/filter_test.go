package filter

import (
	"testing"

	"nft-scraper/config"
	"nft-scraper/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(name, amount, currency string) models.Offer {
	return models.Offer{Name: name, Price: &models.Price{Amount: decimal.RequireFromString(amount), Currency: currency}}
}

func TestApplyFilters(t *testing.T) {
	offers := []models.Offer{
		priced("cheap", "0.05", "ETH"),
		priced("mid", "0.5", "ETH"),
		priced("weth", "0.5", "WETH"),
		priced("pricey", "3", "ETH"),
		{Name: "unpriced"},
	}

	tests := []struct {
		name string
		cfg  config.FilterConfig
		want []string
	}{
		{"no criteria keeps everything", config.FilterConfig{}, []string{"cheap", "mid", "weth", "pricey", "unpriced"}},
		{"min", config.FilterConfig{MinPrice: "0.1"}, []string{"mid", "weth", "pricey"}},
		{"max with comma separator", config.FilterConfig{MaxPrice: "0,5"}, []string{"cheap", "mid", "weth"}},
		{"range and currency", config.FilterConfig{MinPrice: "0.1", MaxPrice: "1", Currency: "eth"}, []string{"mid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.cfg)
			require.NoError(t, err)

			var names []string
			for _, o := range f.ApplyFilters(offers) {
				names = append(names, o.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestNewFilterErrors(t *testing.T) {
	_, err := NewFilter(config.FilterConfig{MinPrice: "cheap"})
	assert.Error(t, err)

	_, err = NewFilter(config.FilterConfig{MinPrice: "2", MaxPrice: "1"})
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{MinPrice: "0.1", Currency: "ETH"})
	require.NoError(t, err)
	assert.Equal(t, "min 0.1, currency ETH", f.String())

	f, err = NewFilter(config.FilterConfig{})
	require.NoError(t, err)
	assert.Equal(t, "no filter", f.String())
}
