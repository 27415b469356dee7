package collectionurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{
			name:   "slug",
			target: "cool-cats-nft",
			want:   "https://opensea.io/collection/cool-cats-nft?search[sortAscending]=true&search[sortBy]=PRICE&search[toggles][0]=BUY_NOW",
		},
		{
			name:   "slug is lowercased",
			target: " BoredApeYachtClub ",
			want:   "https://opensea.io/collection/boredapeyachtclub?search[sortAscending]=true&search[sortBy]=PRICE&search[toggles][0]=BUY_NOW",
		},
		{
			name:   "url without query",
			target: "https://opensea.io/collection/sandbox",
			want:   "https://opensea.io/collection/sandbox?search[toggles][0]=BUY_NOW",
		},
		{
			name:   "url with query",
			target: "https://opensea.io/collection/sandbox?search[stringTraits][0][name]=Type",
			want:   "https://opensea.io/collection/sandbox?search[stringTraits][0][name]=Type&search[toggles][0]=BUY_NOW",
		},
		{
			name:   "url already carrying the toggle",
			target: "https://opensea.io/collection/sandbox?search[toggles][0]=BUY_NOW",
			want:   "https://opensea.io/collection/sandbox?search[toggles][0]=BUY_NOW",
		},
		{name: "empty", target: "  ", wantErr: true},
		{name: "slug with spaces", target: "cool cats", wantErr: true},
		{name: "url without host", target: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlugAndLabel(t *testing.T) {
	tests := []struct {
		target    string
		wantSlug  string
		wantLabel string
	}{
		{"azuki", "azuki", "azuki"},
		{ForSlug("azuki"), "azuki", "azuki"},
		{"https://opensea.io/collection/sandbox?search[stringTraits][0][name]=Type", "sandbox", "sandbox (filtered)"},
		{"https://opensea.io/assets/0xabc", "0xabc", "0xabc"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.wantSlug, Slug(tt.target))
			assert.Equal(t, tt.wantLabel, Label(tt.target))
		})
	}
}
