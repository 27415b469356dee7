package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nft-scraper/collectionurl"
	"nft-scraper/db"
	"nft-scraper/extract"
	"nft-scraper/fetcher"
	"nft-scraper/filter"
	"nft-scraper/models"
	"nft-scraper/scheduler"
	"nft-scraper/scraper"
	"nft-scraper/sheets"

	"github.com/spf13/cobra"
)

var (
	resultSize   int
	rankingPages int
	noSort       bool
	writeSheet   bool
	saveResults  bool
)

func init() {
	offersCmd.Flags().IntVarP(&resultSize, "size", "n", 0, "Number of offers to return (default from config)")
	offersCmd.Flags().BoolVar(&noSort, "no-sort", false, "Keep discovery order instead of sorting by USD value")
	rankingsCmd.Flags().IntVarP(&rankingPages, "pages", "p", 0, "Number of rankings pages to read (default from config)")

	for _, cmd := range []*cobra.Command{offersCmd, rankingsCmd} {
		cmd.Flags().BoolVar(&writeSheet, "sheet", false, "Write the results to a new Google Sheets tab")
		cmd.Flags().BoolVar(&saveResults, "save", false, "Store the results in Postgres")
	}

	rootCmd.AddCommand(offersCmd, rankingsCmd, floorCmd, infoCmd, botCmd)
}

// withExtractor launches a browser for one command and closes it afterwards
func withExtractor(fn func(*extract.Extractor) error) error {
	rs, err := scraper.NewRodScraper(scheduler.BrowserConfig(cfg.Browser))
	if err != nil {
		return fmt.Errorf("failed to create scraper: %w", err)
	}
	defer func() {
		if err := rs.Close(); err != nil {
			slog.Warn("failed to close browser", "error", err)
		}
	}()
	return fn(extract.NewExtractor(rs, scheduler.ExtractOptions(cfg)))
}

var offersCmd = &cobra.Command{
	Use:   "offers <slug|url>",
	Short: "Lists the cheapest buy-now offers of a collection.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		url, err := collectionurl.Resolve(args[0])
		if err != nil {
			return err
		}
		f, err := filter.NewFilter(cfg.Filters)
		if err != nil {
			return err
		}
		size := resultSize
		if size == 0 {
			size = cfg.Collector.ResultSize
		}

		var result *models.OffersResult
		err = withExtractor(func(ex *extract.Extractor) error {
			var err error
			result, err = ex.OffersByURL(ctx, url, extract.OffersRequest{Size: size, NoSort: noSort})
			return err
		})
		if err != nil {
			return err
		}

		offers := f.ApplyFilters(result.Offers)
		if f.Active() {
			slog.Info("applied filter", "filter", f.String(), "before", len(result.Offers), "after", len(offers))
		}
		renderOffers(os.Stdout, offers, result.TotalAvailable)
		logFailures(result.Failures)

		label := collectionurl.Label(args[0])
		outcome := db.RunOutcome{
			RecordsCount:   len(offers),
			TotalAvailable: result.TotalAvailable,
			FailuresCount:  len(result.Failures),
		}
		if writeSheet {
			outcome.SheetName = exportSheet(ctx, func(w *sheets.Writer) (string, int64, error) {
				return w.CreateSheetAndWriteOffers(ctx, sheets.SheetTitle(label, time.Now()), offers, url, f.String())
			})
		}
		if saveResults {
			return saveRun(ctx, db.KindOffers, args[0], size, outcome, func(store *db.DB, runID int) error {
				return store.SaveOffers(ctx, runID, offers)
			})
		}
		return nil
	},
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Lists collections ranked by total volume.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pages := rankingPages
		if pages == 0 {
			pages = cfg.Collector.RankingPages
		}

		var result *models.RankingsResult
		err := withExtractor(func(ex *extract.Extractor) error {
			var err error
			result, err = ex.RankingsByURL(ctx, collectionurl.RankingsURL, pages)
			return err
		})
		if err != nil {
			return err
		}

		renderRankings(os.Stdout, result.Rankings)
		logFailures(result.Failures)

		outcome := db.RunOutcome{
			RecordsCount:  len(result.Rankings),
			FailuresCount: len(result.Failures),
		}
		if writeSheet {
			outcome.SheetName = exportSheet(ctx, func(w *sheets.Writer) (string, int64, error) {
				return w.CreateSheetAndWriteRankings(ctx, sheets.SheetTitle("rankings", time.Now()), result.Rankings, collectionurl.RankingsURL)
			})
		}
		if saveResults {
			return saveRun(ctx, db.KindRankings, "", pages, outcome, func(store *db.DB, runID int) error {
				return store.SaveRankings(ctx, runID, result.Rankings)
			})
		}
		return nil
	},
}

var floorCmd = &cobra.Command{
	Use:   "floor <slug|url>",
	Short: "Prints the cheapest ETH listing of a collection.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := collectionurl.Resolve(args[0])
		if err != nil {
			return err
		}

		var price *models.Price
		err = withExtractor(func(ex *extract.Extractor) error {
			var err error
			price, err = ex.FloorPriceByURL(cmd.Context(), url)
			return err
		})
		if err != nil {
			return err
		}

		if price == nil {
			fmt.Printf("%s: no ETH listing found\n", collectionurl.Label(args[0]))
			return nil
		}
		fmt.Printf("%s floor price: %s\n", collectionurl.Label(args[0]), price)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <slug>",
	Short: "Prints collection metadata from the REST endpoint.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := fetcher.NewCollyFetcher(fetcher.DefaultAPIBaseURL).FetchInfo(cmd.Context(), collectionurl.Slug(args[0]))
		if err != nil {
			return err
		}
		renderInfo(os.Stdout, info)
		return nil
	},
}

func logFailures(failures []models.DecodeFailure) {
	for _, f := range failures {
		slog.Warn("skipped response", "source", f.Source, "error", f.Err)
	}
}

// exportSheet writes through a new sheets writer. Failures are logged, never fatal.
func exportSheet(ctx context.Context, write func(*sheets.Writer) (string, int64, error)) string {
	spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL)
	if spreadsheetID == "" {
		slog.Warn("could not extract spreadsheet ID from URL", "url", cfg.Sheets.SpreadsheetURL)
		return ""
	}
	writer, err := sheets.NewWriter(ctx, spreadsheetID, cfg.Sheets.CredentialsPath)
	if err != nil {
		slog.Warn("failed to initialize Google Sheets writer", "error", err)
		return ""
	}
	name, gid, err := write(writer)
	if err != nil {
		slog.Warn("failed to write to Google Sheets", "error", err)
		return ""
	}
	fmt.Printf("\nWrote results to %s\n", writer.SheetURL(gid))
	return name
}

// saveRun records a finished command run and its records
func saveRun(ctx context.Context, kind db.RunKind, target string, size int, outcome db.RunOutcome, save func(*db.DB, int) error) error {
	store, err := db.NewDB(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	run, err := store.StartRun(ctx, kind, target, size)
	if err != nil {
		return err
	}
	if err := save(store, run.ID); err != nil {
		outcome.Err = err
	}
	if err := store.FinishRun(ctx, run.ID, outcome); err != nil {
		return err
	}
	if outcome.Err != nil {
		return outcome.Err
	}
	slog.Info("saved run", "run", run.ID, "records", outcome.RecordsCount)
	return nil
}
