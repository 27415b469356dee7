package bot

import (
	"testing"

	"nft-scraper/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    string
		want    *Request
		wantErr string
	}{
		{"offers with count", "offers", "azuki 25", &Request{Kind: db.KindOffers, Target: "azuki", Size: 25}, ""},
		{"offers default count", "offers", " azuki ", &Request{Kind: db.KindOffers, Target: "azuki"}, ""},
		{"offers url", "offers", "https://opensea.io/collection/azuki?search[stringTraits][0][name]=Type",
			&Request{Kind: db.KindOffers, Target: "https://opensea.io/collection/azuki?search[stringTraits][0][name]=Type"}, ""},
		{"offers missing target", "offers", "", nil, "usage: /offers"},
		{"offers bad count", "offers", "azuki ten", nil, "count must be a positive number"},
		{"offers zero count", "offers", "azuki 0", nil, "count must be a positive number"},
		{"offers too many", "offers", "azuki 500", nil, "count must be at most 200"},
		{"offers bad slug", "offers", "Azuki!!", nil, "invalid collection slug"},
		{"rankings default", "rankings", "", &Request{Kind: db.KindRankings}, ""},
		{"rankings pages", "rankings", "3", &Request{Kind: db.KindRankings, Size: 3}, ""},
		{"rankings too many pages", "rankings", "11", nil, "pages must be at most 10"},
		{"rankings extra args", "rankings", "1 2", nil, "usage: /rankings"},
		{"floor", "floor", "doodles-official", &Request{Kind: db.KindFloor, Target: "doodles-official"}, ""},
		{"floor missing target", "floor", "", nil, "usage: /floor"},
		{"info", "info", "azuki", &Request{Kind: db.KindInfo, Target: "azuki"}, ""},
		{"unknown", "clear", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.command, tt.args)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseText(t *testing.T) {
	req, err := ParseText("  https://opensea.io/collection/azuki  ")
	require.NoError(t, err)
	assert.Equal(t, &Request{Kind: db.KindOffers, Target: "https://opensea.io/collection/azuki"}, req)

	_, err = ParseText("hello")
	assert.ErrorContains(t, err, "collection URL")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "5 cheapest offers of azuki", Request{Kind: db.KindOffers, Target: "azuki", Size: 5}.Describe())
	assert.Equal(t, "cheapest offers of azuki", Request{Kind: db.KindOffers, Target: "https://opensea.io/collection/azuki"}.Describe())
	assert.Equal(t, "rankings", Request{Kind: db.KindRankings}.Describe())
	assert.Equal(t, "2 rankings pages", Request{Kind: db.KindRankings, Size: 2}.Describe())
	assert.Equal(t, "floor price of azuki", Request{Kind: db.KindFloor, Target: "azuki"}.Describe())
	assert.Equal(t, "info for azuki", Request{Kind: db.KindInfo, Target: "azuki"}.Describe())
}
