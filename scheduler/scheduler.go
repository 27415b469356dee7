package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nft-scraper/collectionurl"
	"nft-scraper/config"
	"nft-scraper/db"
	"nft-scraper/extract"
	"nft-scraper/fetcher"
	"nft-scraper/filter"
	"nft-scraper/models"
	"nft-scraper/sheets"
)

// Store is the run queue and result storage
type Store interface {
	ClaimNextRun(ctx context.Context) (*db.Run, error)
	GetUserConfig(ctx context.Context, userID int64) (*db.UserConfig, error)
	SaveOffers(ctx context.Context, runID int, offers []models.Offer) error
	SaveRankings(ctx context.Context, runID int, entries []models.RankingEntry) error
	FinishRun(ctx context.Context, runID int, outcome db.RunOutcome) error
}

// SheetWriter exports results to a spreadsheet
type SheetWriter interface {
	CreateSheetAndWriteOffers(ctx context.Context, sheetName string, offers []models.Offer, url, filterInfo string) (string, int64, error)
	CreateSheetAndWriteRankings(ctx context.Context, sheetName string, entries []models.RankingEntry, url string) (string, int64, error)
	SheetURL(sheetID int64) string
}

// Scheduler processes queued runs from the database
type Scheduler struct {
	store    Store
	notifier Notifier
	writer   SheetWriter // nil disables the spreadsheet export
	info     fetcher.InfoFetcher
	launch   Launcher

	pollInterval time.Duration
	runTimeout   time.Duration
	resultSize   int
	rankingPages int

	// Now stamps sheet names
	Now func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a new scheduler. The browser is launched on demand for each run.
func NewScheduler(store Store, notifier Notifier, writer SheetWriter, info fetcher.InfoFetcher, launch Launcher, cfg config.Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:        store,
		notifier:     notifier,
		writer:       writer,
		info:         info,
		launch:       launch,
		pollInterval: cfg.Scheduler.PollInterval,
		runTimeout:   cfg.Scheduler.RunTimeout,
		resultSize:   cfg.Collector.ResultSize,
		rankingPages: cfg.Collector.RankingPages,
		Now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Start starts the scheduler in a goroutine
func (s *Scheduler) Start() {
	go s.run()
}

// Stop stops the scheduler and waits for the current run to end
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
	slog.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	defer close(s.done)

	interval := s.pollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			// drain the queue before waiting for the next tick
			for s.ctx.Err() == nil {
				processed, err := s.ProcessNext(s.ctx)
				if err != nil {
					slog.Error("failed to process run", "error", err)
				}
				if !processed {
					break
				}
			}
		}
	}
}

// ProcessNext claims and executes the oldest queued run. It reports whether a run was found.
func (s *Scheduler) ProcessNext(ctx context.Context) (bool, error) {
	run, err := s.store.ClaimNextRun(ctx)
	if err != nil {
		return false, err
	}
	if run == nil {
		return false, nil
	}

	slog.Info("processing run", "run", run.ID, "user", run.UserID, "kind", run.Kind, "target", run.Target)
	s.notifier.Notify(run.ChatID, run.TelegramMessageID, "🔄 Processing request...")

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	outcome, reply := s.execute(runCtx, run)
	if outcome.Err != nil {
		slog.Warn("run failed", "run", run.ID, "error", outcome.Err)
		reply = formatError(outcome.Err)
	}

	// the run context may have expired, the outcome must still be recorded
	finishCtx := context.WithoutCancel(ctx)
	if err := s.store.FinishRun(finishCtx, run.ID, outcome); err != nil {
		return true, fmt.Errorf("failed to record run %d: %w", run.ID, err)
	}
	s.notifier.Notify(run.ChatID, run.TelegramMessageID, reply)
	return true, nil
}

func (s *Scheduler) execute(ctx context.Context, run *db.Run) (db.RunOutcome, string) {
	userConfig, err := s.store.GetUserConfig(ctx, run.UserID)
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}

	switch run.Kind {
	case db.KindOffers:
		return s.offers(ctx, run, userConfig)
	case db.KindRankings:
		return s.rankings(ctx, run, userConfig)
	case db.KindFloor:
		return s.floor(ctx, run)
	case db.KindInfo:
		return s.collectionInfo(ctx, run)
	default:
		return db.RunOutcome{Err: fmt.Errorf("unknown run kind: %s", run.Kind)}, ""
	}
}

func (s *Scheduler) offers(ctx context.Context, run *db.Run, userConfig *db.UserConfig) (db.RunOutcome, string) {
	url, err := collectionurl.Resolve(run.Target)
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}
	f, err := filter.NewFilter(userConfig.FilterConfig())
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}
	size := firstPositive(run.Size, userConfig.ResultSize, s.resultSize)

	var result *models.OffersResult
	err = s.withBrowser(ctx, run, func(ex Extractor) error {
		var err error
		result, err = ex.OffersByURL(ctx, url, extract.OffersRequest{Size: size})
		return err
	})
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}

	offers := f.ApplyFilters(result.Offers)
	if err := s.store.SaveOffers(ctx, run.ID, offers); err != nil {
		return db.RunOutcome{Err: fmt.Errorf("failed to save offers: %w", err)}, ""
	}

	label := collectionurl.Label(run.Target)
	outcome := db.RunOutcome{
		RecordsCount:   len(offers),
		TotalAvailable: result.TotalAvailable,
		FailuresCount:  len(result.Failures),
	}
	var sheetURL string
	if s.writer != nil {
		name, gid, err := s.writer.CreateSheetAndWriteOffers(ctx, sheets.SheetTitle(label, s.Now()), offers, url, f.String())
		if err != nil {
			slog.Warn("failed to write offers to sheet", "run", run.ID, "error", err)
		} else {
			outcome.SheetName = name
			sheetURL = s.writer.SheetURL(gid)
		}
	}

	reply := formatOffers(label, offers, len(result.Offers), result.TotalAvailable, len(result.Failures), f.String(), sheetURL)
	return outcome, reply
}

func (s *Scheduler) rankings(ctx context.Context, run *db.Run, userConfig *db.UserConfig) (db.RunOutcome, string) {
	pages := firstPositive(run.Size, userConfig.RankingPages, s.rankingPages)

	var result *models.RankingsResult
	err := s.withBrowser(ctx, run, func(ex Extractor) error {
		var err error
		result, err = ex.RankingsByURL(ctx, collectionurl.RankingsURL, pages)
		return err
	})
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}

	if err := s.store.SaveRankings(ctx, run.ID, result.Rankings); err != nil {
		return db.RunOutcome{Err: fmt.Errorf("failed to save rankings: %w", err)}, ""
	}

	outcome := db.RunOutcome{
		RecordsCount:  len(result.Rankings),
		FailuresCount: len(result.Failures),
	}
	var sheetURL string
	if s.writer != nil {
		name, gid, err := s.writer.CreateSheetAndWriteRankings(ctx, sheets.SheetTitle("rankings", s.Now()), result.Rankings, collectionurl.RankingsURL)
		if err != nil {
			slog.Warn("failed to write rankings to sheet", "run", run.ID, "error", err)
		} else {
			outcome.SheetName = name
			sheetURL = s.writer.SheetURL(gid)
		}
	}
	return outcome, formatRankings(result.Rankings, len(result.Failures), sheetURL)
}

func (s *Scheduler) floor(ctx context.Context, run *db.Run) (db.RunOutcome, string) {
	url, err := collectionurl.Resolve(run.Target)
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}

	var price *models.Price
	err = s.withBrowser(ctx, run, func(ex Extractor) error {
		var err error
		price, err = ex.FloorPriceByURL(ctx, url)
		return err
	})
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}

	outcome := db.RunOutcome{}
	if price != nil {
		outcome.RecordsCount = 1
	}
	return outcome, formatFloor(collectionurl.Label(run.Target), price)
}

func (s *Scheduler) collectionInfo(ctx context.Context, run *db.Run) (db.RunOutcome, string) {
	if s.info == nil {
		return db.RunOutcome{Err: errors.New("collection info lookup is not configured")}, ""
	}
	info, err := s.info.FetchInfo(ctx, collectionurl.Slug(run.Target))
	if err != nil {
		return db.RunOutcome{Err: err}, ""
	}
	return db.RunOutcome{RecordsCount: 1}, formatInfo(info)
}

// withBrowser launches a browser for the run and closes it afterwards
func (s *Scheduler) withBrowser(ctx context.Context, run *db.Run, fn func(Extractor) error) error {
	slog.Info("initializing browser", "run", run.ID)
	ex, closer, err := s.launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close browser", "run", run.ID, "error", err)
		}
	}()
	return fn(ex)
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
