package main

import (
	"fmt"
	"log/slog"

	"nft-scraper/bot"
	"nft-scraper/db"
	"nft-scraper/fetcher"
	"nft-scraper/scheduler"
	"nft-scraper/sheets"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Runs the Telegram bot and the run queue scheduler.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Telegram.Token == "" {
			return fmt.Errorf("telegram token is not set (TELEGRAM_BOT_TOKEN or telegram.token)")
		}

		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize bot: %w", err)
		}
		slog.Info("authorized on account", "username", api.Self.UserName)

		if cfg.Telegram.AdminID != 0 {
			if _, err := api.Send(tgbotapi.NewMessage(cfg.Telegram.AdminID, "🚀 Service started successfully!")); err != nil {
				slog.Warn("failed to send startup notification to admin", "admin", cfg.Telegram.AdminID, "error", err)
			}
		}

		database, err := db.NewDB(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close()
		slog.Info("database initialized")

		if n, err := database.RequeueStaleRuns(ctx); err != nil {
			slog.Warn("failed to requeue stale runs", "error", err)
		} else if n > 0 {
			slog.Info("requeued stale runs", "count", n)
		}

		// a nil writer disables the export
		var writer scheduler.SheetWriter
		if spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL); spreadsheetID != "" {
			w, err := sheets.NewWriter(ctx, spreadsheetID, cfg.Sheets.CredentialsPath)
			if err != nil {
				return fmt.Errorf("failed to initialize Google Sheets writer: %w", err)
			}
			writer = w
			slog.Info("google sheets writer initialized", "spreadsheet", spreadsheetID)
		} else {
			slog.Warn("no spreadsheet configured, results are only stored and sent to chat")
		}

		sched := scheduler.NewScheduler(
			database,
			scheduler.NewTelegramNotifier(api),
			writer,
			fetcher.NewCollyFetcher(fetcher.DefaultAPIBaseURL),
			scheduler.NewRodLauncher(cfg),
			cfg,
		)
		sched.Start()
		slog.Info("scheduler started, browser is created on demand for each run")
		defer sched.Stop()

		// start from the latest update to skip old ones
		updateConfig := tgbotapi.NewUpdate(-1)
		updateConfig.Timeout = 60
		updates := api.GetUpdatesChan(updateConfig)
		defer api.StopReceivingUpdates()

		bot.New(api, database, cfg.Telegram.AllowedUserIDs, cfg.Sheets.SpreadsheetURL).Run(ctx, updates)
		return nil
	},
}
