package fetcher

import (
	"context"

	"nft-scraper/models"
)

// InfoFetcher retrieves collection metadata by slug
type InfoFetcher interface {
	FetchInfo(ctx context.Context, slug string) (*models.CollectionInfo, error)
}
