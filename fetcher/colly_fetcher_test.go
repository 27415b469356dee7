package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nft-scraper/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectionJSON = `{"collection":{
  "name":"Cool Cats",
  "description":"Blue cats",
  "safelist_request_status":"verified",
  "image_url":"https://img/cat.png",
  "twitter_username":"coolcats",
  "external_url":"https://coolcats.com",
  "primary_asset_contracts":[{"address":"0x1a92","symbol":"COOL"}],
  "stats":{"floor_price":4.2,"total_volume":1000.5,"num_owners":5000}
}}`

func newInfoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/cool-cats-nft":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(collectionJSON))
		case "/collection/empty":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"collection":{}}`))
		case "/collection/blank":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":false}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchInfo(t *testing.T) {
	srv := newInfoServer(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	f := NewCollyFetcher(srv.URL)
	f.Now = func() time.Time { return now }

	info, err := f.FetchInfo(context.Background(), "cool-cats-nft")
	require.NoError(t, err)

	assert.Equal(t, "cool-cats-nft", info.Slug)
	require.NotNil(t, info.Name)
	assert.Equal(t, "Cool Cats", *info.Name)
	require.NotNil(t, info.Symbol)
	assert.Equal(t, "COOL", *info.Symbol)
	require.NotNil(t, info.ContractAddress)
	assert.Equal(t, "0x1a92", *info.ContractAddress)
	assert.True(t, info.IsVerified)
	require.NotNil(t, info.FloorPrice)
	assert.Equal(t, 4.2, *info.FloorPrice)
	assert.Equal(t, 1000.5, info.Stats["totalVolume"])
	assert.Equal(t, float64(5000), info.Stats["numOwners"])
	require.NotNil(t, info.Social.Twitter)
	assert.Equal(t, "coolcats", *info.Social.Twitter)
	assert.Nil(t, info.Social.Discord)
	assert.Equal(t, now, info.CreatedAt)
}

func TestFetchInfoMissingFields(t *testing.T) {
	srv := newInfoServer(t)

	info, err := NewCollyFetcher(srv.URL).FetchInfo(context.Background(), "empty")
	require.NoError(t, err)

	assert.Nil(t, info.Name)
	assert.Nil(t, info.Symbol)
	assert.Nil(t, info.FloorPrice)
	assert.Nil(t, info.Stats)
	assert.False(t, info.IsVerified)
}

func TestFetchInfoErrors(t *testing.T) {
	srv := newInfoServer(t)
	f := NewCollyFetcher(srv.URL)

	_, err := f.FetchInfo(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = f.FetchInfo(context.Background(), "blank")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = f.FetchInfo(context.Background(), " ")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchInfo(ctx, "cool-cats-nft")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCamelCaseKeys(t *testing.T) {
	got := CamelCaseKeys(map[string]any{"one_day_volume": 1, "count": 2, "seven_day_avg_price": 3})

	assert.Equal(t, map[string]any{"oneDayVolume": 1, "count": 2, "sevenDayAvgPrice": 3}, got)
}
