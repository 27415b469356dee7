package scheduler

import (
	"context"
	"io"

	"nft-scraper/config"
	"nft-scraper/extract"
	"nft-scraper/models"
	"nft-scraper/scraper"
)

// Extractor is the subset of extract.Extractor a run needs
type Extractor interface {
	OffersByURL(ctx context.Context, url string, req extract.OffersRequest) (*models.OffersResult, error)
	RankingsByURL(ctx context.Context, url string, pageCount int) (*models.RankingsResult, error)
	FloorPriceByURL(ctx context.Context, url string) (*models.Price, error)
}

// Launcher starts a browser for one run. The closer shuts it down.
type Launcher func(ctx context.Context) (Extractor, io.Closer, error)

// BrowserConfig maps the browser section of the configuration
func BrowserConfig(cfg config.BrowserConfig) scraper.Config {
	return scraper.Config{
		Headless:      !cfg.Headed,
		Bin:           cfg.Bin,
		UserDataDir:   cfg.UserDataDir,
		Stealth:       cfg.Stealth,
		LoadTimeout:   cfg.LoadTimeout,
		SettleTimeout: cfg.SettleTimeout,
	}
}

// ExtractOptions maps the collector and stream sections of the configuration
func ExtractOptions(cfg config.Config) extract.Options {
	return extract.Options{
		Interval:         cfg.Collector.Interval,
		Delta:            cfg.Collector.ScrollDelta,
		EndpointPattern:  cfg.Stream.EndpointPattern,
		OfferEdgesPath:   cfg.Stream.OfferEdgesPath,
		RankingEdgesPath: cfg.Stream.RankingEdgesPath,
	}
}

// NewRodLauncher launches a fresh rod browser per run
func NewRodLauncher(cfg config.Config) Launcher {
	return func(ctx context.Context) (Extractor, io.Closer, error) {
		rs, err := scraper.NewRodScraper(BrowserConfig(cfg.Browser))
		if err != nil {
			return nil, nil, err
		}
		return extract.NewExtractor(rs, ExtractOptions(cfg)), rs, nil
	}
}
