package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"nft-scraper/models"

	"github.com/gocolly/colly/v2"
)

// DefaultAPIBaseURL is the origin of the collection metadata endpoint
const DefaultAPIBaseURL = "https://api.opensea.io"

const defaultRequestTimeout = 15 * time.Second

// ErrCollectionNotFound is returned when the response carries no collection object
var ErrCollectionNotFound = errors.New("collection not found")

// CollyFetcher implements the InfoFetcher interface using colly
type CollyFetcher struct {
	collector *colly.Collector
	baseURL   string

	// Now stamps CreatedAt. Replaced in tests.
	Now func() time.Time
}

// NewCollyFetcher creates a new CollyFetcher. An empty baseURL uses DefaultAPIBaseURL.
func NewCollyFetcher(baseURL string) *CollyFetcher {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(defaultRequestTimeout)

	// one request per second against the public API
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       time.Second,
	}); err != nil {
		slog.Warn("failed to set rate limit", "error", err)
	}

	return &CollyFetcher{
		collector: c,
		baseURL:   strings.TrimRight(baseURL, "/"),
		Now:       time.Now,
	}
}

type collectionResponse struct {
	Collection *struct {
		Name                  *string        `json:"name"`
		Description           *string        `json:"description"`
		Stats                 map[string]any `json:"stats"`
		SafelistRequestStatus *string        `json:"safelist_request_status"`
		BannerImageURL        *string        `json:"banner_image_url"`
		ImageURL              *string        `json:"image_url"`
		DiscordURL            *string        `json:"discord_url"`
		MediumUsername        *string        `json:"medium_username"`
		TwitterUsername       *string        `json:"twitter_username"`
		ExternalURL           *string        `json:"external_url"`
		TelegramURL           *string        `json:"telegram_url"`
		InstagramUsername     *string        `json:"instagram_username"`
		WikiURL               *string        `json:"wiki_url"`
		PrimaryAssetContracts []struct {
			Address *string `json:"address"`
			Symbol  *string `json:"symbol"`
		} `json:"primary_asset_contracts"`
	} `json:"collection"`
}

// FetchInfo implements the InfoFetcher interface
func (cf *CollyFetcher) FetchInfo(ctx context.Context, slug string) (*models.CollectionInfo, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, &models.InvalidArgumentError{Name: "slug", Value: slug}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := cf.collector.Clone()
	c.SetRequestTimeout(requestTimeout(ctx))

	var (
		body     []byte
		fetchErr error
	)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/json")
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode == http.StatusNotFound {
			fetchErr = ErrCollectionNotFound
			return
		}
		fetchErr = err
	})

	endpoint := cf.baseURL + "/collection/" + url.PathEscape(slug)
	if err := c.Visit(endpoint); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", slug, fetchErr)
	}

	var resp collectionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode collection %s: %w", slug, err)
	}
	if resp.Collection == nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", slug, ErrCollectionNotFound)
	}

	col := resp.Collection
	info := &models.CollectionInfo{
		Slug:                  slug,
		Name:                  col.Name,
		Description:           col.Description,
		SafelistRequestStatus: col.SafelistRequestStatus,
		IsVerified:            col.SafelistRequestStatus != nil && *col.SafelistRequestStatus == "verified",
		BannerImageURL:        col.BannerImageURL,
		ImageURL:              col.ImageURL,
		Social: models.Social{
			Discord:   col.DiscordURL,
			Medium:    col.MediumUsername,
			Twitter:   col.TwitterUsername,
			Website:   col.ExternalURL,
			Telegram:  col.TelegramURL,
			Instagram: col.InstagramUsername,
			Wiki:      col.WikiURL,
		},
		CreatedAt: cf.Now(),
	}
	if len(col.PrimaryAssetContracts) > 0 {
		info.ContractAddress = col.PrimaryAssetContracts[0].Address
		info.Symbol = col.PrimaryAssetContracts[0].Symbol
	}
	if col.Stats != nil {
		info.Stats = CamelCaseKeys(col.Stats)
		if floor, ok := info.Stats["floorPrice"].(float64); ok {
			info.FloorPrice = &floor
		}
	}

	return info, nil
}

func requestTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultRequestTimeout
	}
	if d := time.Until(deadline); d > 0 && d < defaultRequestTimeout {
		return d
	}
	return defaultRequestTimeout
}

var snakeSegment = regexp.MustCompile(`_\w`)

// CamelCaseKeys converts snake_case keys of m to camelCase
func CamelCaseKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := snakeSegment.ReplaceAllStringFunc(k, func(s string) string {
			return strings.ToUpper(s[1:])
		})
		out[key] = v
	}
	return out
}
