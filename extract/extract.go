// Package extract orchestrates one listing extraction over a loaded page:
// embedded state first, then concurrent scroll-driven DOM passes and
// streamed response decoding into one deduplicating store.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"nft-scraper/collector"
	"nft-scraper/models"
	"nft-scraper/parser"
	"nft-scraper/ranker"
	"nft-scraper/resolver"
	"nft-scraper/stateblob"
	"nft-scraper/store"
	"nft-scraper/stream"

	"golang.org/x/sync/errgroup"
)

// Options tune the collector and stream merger
type Options struct {
	Interval         time.Duration
	Delta            int
	EndpointPattern  string
	OfferEdgesPath   string
	RankingEdgesPath string

	// Sleep replaces the collector delay, used by tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// Extractor runs extractions, opening sessions through its Opener when the
// caller does not supply one
type Extractor struct {
	opener Opener
	opts   Options
}

// NewExtractor creates a new Extractor. opener may be nil when every call supplies a session.
func NewExtractor(opener Opener, opts Options) *Extractor {
	if opts.EndpointPattern == "" {
		opts.EndpointPattern = stream.DefaultEndpointPattern
	}
	if opts.OfferEdgesPath == "" {
		opts.OfferEdgesPath = stream.OfferEdgesPath
	}
	if opts.RankingEdgesPath == "" {
		opts.RankingEdgesPath = stream.RankingEdgesPath
	}
	return &Extractor{opener: opener, opts: opts}
}

// OffersRequest describes one offers extraction
type OffersRequest struct {
	Size   int  // Requested result size, must be positive
	NoSort bool // Keep discovery order instead of ranking by USD value
}

// Offers extracts up to req.Size offers from an already loaded session.
// The session is not closed.
func (e *Extractor) Offers(ctx context.Context, s Session, req OffersRequest) (*models.OffersResult, error) {
	if req.Size <= 0 {
		return nil, &models.InvalidArgumentError{Name: "result size", Value: req.Size}
	}

	blob, err := loadState(ctx, s)
	if err != nil {
		return nil, err
	}
	lookup := resolver.Build(blob)
	p := parser.NewParser(lookup)

	acc := store.New[models.Offer]()
	acc.Upsert(p.OffersFromBlob(blob)...)
	slog.Debug("offers from embedded state", "count", acc.Len(), "currencies", len(lookup.Currencies))

	var failures []models.DecodeFailure
	if acc.Len() < req.Size {
		dom := func(ctx context.Context) error {
			cards, err := s.VisibleCards(ctx, parser.OfferCardSelector)
			if err != nil {
				return err
			}
			acc.Upsert(p.OffersFromCards(cards)...)
			return nil
		}
		sink := func(nodes []map[string]any) int {
			return acc.Upsert(p.Offers(nodes)...)
		}
		failures, err = e.collect(ctx, s, req.Size, e.opts.OfferEdgesPath, dom, sink, acc.Len)
		if err != nil {
			return nil, err
		}
	}

	result := &models.OffersResult{
		TotalAvailable: blob.TotalCount,
		Failures:       failures,
	}
	if result.TotalAvailable == nil {
		result.TotalAvailable = resultsCount(ctx, s)
	}

	if req.NoSort {
		result.Offers = ranker.Truncate(acc.Values(), req.Size)
	} else {
		result.Offers = ranker.Offers(acc.Values(), lookup, req.Size)
	}
	return result, nil
}

// Rankings extracts the collection rankings of pageCount consecutive pages.
// The session is not closed.
func (e *Extractor) Rankings(ctx context.Context, s Session, pageCount int) (*models.RankingsResult, error) {
	if pageCount <= 0 {
		return nil, &models.InvalidArgumentError{Name: "page count", Value: pageCount}
	}

	blob, err := loadState(ctx, s)
	if err != nil {
		return nil, err
	}
	p := parser.NewParser(resolver.Build(blob))

	acc := store.New[models.RankingEntry]()
	acc.Upsert(p.RankingsFromBlob(blob)...)

	dom := func(ctx context.Context) error {
		rows, err := s.VisibleCards(ctx, parser.RankingRowSelector)
		if err != nil {
			return err
		}
		acc.Upsert(p.RankingsFromRows(rows)...)
		return nil
	}
	sink := func(nodes []map[string]any) int {
		return acc.Upsert(p.Rankings(nodes)...)
	}

	var failures []models.DecodeFailure
	for page := 1; page <= pageCount; page++ {
		if page > 1 {
			ok, err := s.NextPage(ctx)
			if err != nil {
				return nil, navigationError("next page", err)
			}
			if !ok {
				slog.Info("no further rankings page", "pages", page-1, "requested", pageCount)
				break
			}
		}

		// a rankings page is always scrolled to its bottom
		pageFailures, err := e.collect(ctx, s, math.MaxInt, e.opts.RankingEdgesPath, dom, sink, acc.Len)
		if err != nil {
			return nil, err
		}
		failures = append(failures, pageFailures...)
		slog.Debug("rankings page collected", "page", page, "count", acc.Len())
	}

	return &models.RankingsResult{
		Rankings: ranker.Rankings(acc.Values()),
		Failures: failures,
	}, nil
}

// FloorPrice returns the lowest ETH price among the currently rendered offer
// cards, or nil when none is priced in ETH. The session is not closed.
func (e *Extractor) FloorPrice(ctx context.Context, s Session) (*models.Price, error) {
	cards, err := s.VisibleCards(ctx, parser.OfferCardSelector)
	if err != nil {
		return nil, navigationError("extract", err)
	}

	var floor *models.Price
	for _, offer := range parser.NewParser(nil).OffersFromCards(cards) {
		if offer.Price == nil || offer.Price.Currency != "ETH" {
			continue
		}
		if floor == nil || offer.Price.Amount.LessThan(floor.Amount) {
			price := *offer.Price
			floor = &price
		}
	}
	return floor, nil
}

// OffersByURL opens url, extracts offers and closes the page on every path
func (e *Extractor) OffersByURL(ctx context.Context, url string, req OffersRequest) (*models.OffersResult, error) {
	if req.Size <= 0 {
		return nil, &models.InvalidArgumentError{Name: "result size", Value: req.Size}
	}
	var result *models.OffersResult
	err := e.withSession(ctx, url, func(s Session) error {
		var err error
		result, err = e.Offers(ctx, s, req)
		return err
	})
	return result, err
}

// RankingsByURL opens url, extracts rankings and closes the page on every path
func (e *Extractor) RankingsByURL(ctx context.Context, url string, pageCount int) (*models.RankingsResult, error) {
	if pageCount <= 0 {
		return nil, &models.InvalidArgumentError{Name: "page count", Value: pageCount}
	}
	var result *models.RankingsResult
	err := e.withSession(ctx, url, func(s Session) error {
		var err error
		result, err = e.Rankings(ctx, s, pageCount)
		return err
	})
	return result, err
}

// FloorPriceByURL opens url, reads the floor price and closes the page on every path
func (e *Extractor) FloorPriceByURL(ctx context.Context, url string) (*models.Price, error) {
	var floor *models.Price
	err := e.withSession(ctx, url, func(s Session) error {
		var err error
		floor, err = e.FloorPrice(ctx, s)
		return err
	})
	return floor, err
}

func (e *Extractor) withSession(ctx context.Context, url string, fn func(Session) error) (err error) {
	if e.opener == nil {
		return errors.New("no session opener configured")
	}
	s, err := e.opener.Open(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return navigationError("open", err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			slog.Warn("failed to close page", "url", url, "error", cerr)
		}
	}()
	return fn(s)
}

// collect runs the scroll loop and the stream merger concurrently until the
// loop reaches Done, then tears the subscription down
func (e *Extractor) collect(ctx context.Context, s Session, target int, edgePath string,
	dom func(context.Context) error, sink stream.Sink, size func() int) ([]models.DecodeFailure, error) {
	merger, err := stream.NewMerger(e.opts.EndpointPattern, edgePath, sink)
	if err != nil {
		return nil, err
	}

	responses, unsubscribe, err := s.Responses(ctx, merger.Endpoint())
	if err != nil {
		return nil, navigationError("subscribe", err)
	}
	defer unsubscribe()

	col := collector.New(s, collector.Config{
		Target:   target,
		Interval: e.opts.Interval,
		Delta:    e.opts.Delta,
	}, dom, size)
	if e.opts.Sleep != nil {
		col.Sleep = e.opts.Sleep
	}

	g, gctx := errgroup.WithContext(ctx)
	streamCtx, stopStream := context.WithCancel(gctx)
	defer stopStream()

	g.Go(func() error {
		defer stopStream()
		return col.Run(gctx)
	})
	g.Go(func() error {
		merger.Run(streamCtx, responses)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched, merged := merger.Stats()
	slog.Debug("collection finished", "iterations", col.Iterations(), "responses", matched, "streamed", merged, "size", size())
	return merger.Failures(), nil
}

func loadState(ctx context.Context, s Session) (*stateblob.Blob, error) {
	markup, err := s.Markup(ctx)
	if err != nil {
		return nil, navigationError("markup", err)
	}
	return stateblob.Parse(markup)
}

// resultsCount reads the results counter; absence is not an error
func resultsCount(ctx context.Context, s Session) *int {
	text, ok, err := s.Text(ctx, parser.ResultsCountSelector)
	if err != nil || !ok {
		return nil
	}
	n, ok := parser.ParseResultsCount(text)
	if !ok {
		return nil
	}
	return &n
}

func navigationError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var navErr *models.NavigationError
	if errors.As(err, &navErr) {
		return err
	}
	return &models.NavigationError{Op: op, Err: err}
}
