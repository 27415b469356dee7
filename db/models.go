package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"nft-scraper/config"
	"nft-scraper/models"

	"github.com/shopspring/decimal"
)

// RunKind names the extraction a run performs
type RunKind string

const (
	KindOffers   RunKind = "offers"
	KindRankings RunKind = "rankings"
	KindFloor    RunKind = "floor"
	KindInfo     RunKind = "info"
)

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	StatusCreated    RunStatus = "created"
	StatusInProgress RunStatus = "in_progress"
	StatusDone       RunStatus = "done"
	StatusFailed     RunStatus = "failed"
)

// UserConfig represents user-specific configuration
type UserConfig struct {
	UserID       int64
	ResultSize   int
	RankingPages int
	MinPrice     decimal.NullDecimal
	MaxPrice     decimal.NullDecimal
	Currency     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FilterConfig converts the stored criteria to filter settings
func (c UserConfig) FilterConfig() config.FilterConfig {
	var fc config.FilterConfig
	if c.MinPrice.Valid {
		fc.MinPrice = c.MinPrice.Decimal.String()
	}
	if c.MaxPrice.Valid {
		fc.MaxPrice = c.MaxPrice.Decimal.String()
	}
	fc.Currency = c.Currency
	return fc
}

// UserConfigUpdate holds the fields to change; nil fields are left as they are
type UserConfigUpdate struct {
	ResultSize   *int
	RankingPages *int
	MinPrice     *decimal.NullDecimal
	MaxPrice     *decimal.NullDecimal
	Currency     *string
}

// Run represents one queued extraction
type Run struct {
	ID                int
	UserID            int64
	ChatID            int64
	TelegramMessageID int
	Kind              RunKind
	Target            string // Collection slug or URL, empty for rankings
	Size              int    // Result size for offers, page count for rankings
	Status            RunStatus
	RecordsCount      int
	TotalAvailable    sql.NullInt64
	FailuresCount     int
	SheetName         sql.NullString
	LastError         sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RunOutcome is written when a run finishes
type RunOutcome struct {
	RecordsCount   int
	TotalAvailable *int
	FailuresCount  int
	SheetName      string
	Err            error // Non-nil marks the run failed
}

const runColumns = `id, user_id, chat_id, telegram_message_id, kind, target, size, status,
	records_count, total_available, failures_count, sheet_name, last_error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	err := row.Scan(
		&r.ID, &r.UserID, &r.ChatID, &r.TelegramMessageID, &r.Kind, &r.Target, &r.Size, &r.Status,
		&r.RecordsCount, &r.TotalAvailable, &r.FailuresCount, &r.SheetName, &r.LastError, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetUserConfig retrieves user configuration, creating default if not exists
func (db *DB) GetUserConfig(ctx context.Context, userID int64) (*UserConfig, error) {
	var cfg UserConfig
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO user_configs (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, result_size, ranking_pages, min_price, max_price, currency, created_at, updated_at
	`, userID).Scan(
		&cfg.UserID, &cfg.ResultSize, &cfg.RankingPages, &cfg.MinPrice,
		&cfg.MaxPrice, &cfg.Currency, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	return &cfg, nil
}

// UpdateUserConfig updates user configuration
func (db *DB) UpdateUserConfig(ctx context.Context, userID int64, update UserConfigUpdate) error {
	var updates []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		updates = append(updates, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.ResultSize != nil {
		set("result_size", *update.ResultSize)
	}
	if update.RankingPages != nil {
		set("ranking_pages", *update.RankingPages)
	}
	if update.MinPrice != nil {
		set("min_price", *update.MinPrice)
	}
	if update.MaxPrice != nil {
		set("max_price", *update.MaxPrice)
	}
	if update.Currency != nil {
		set("currency", *update.Currency)
	}
	if len(updates) == 0 {
		return nil
	}

	// make sure the row exists before updating it
	if _, err := db.GetUserConfig(ctx, userID); err != nil {
		return err
	}

	args = append(args, userID)
	query := fmt.Sprintf(`
		UPDATE user_configs
		SET %s, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $%d
	`, strings.Join(updates, ", "), len(args))

	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update user config: %w", err)
	}
	return nil
}

// CreateRun queues a new run
func (db *DB) CreateRun(ctx context.Context, userID, chatID int64, messageID int, kind RunKind, target string, size int) (*Run, error) {
	return db.insertRun(ctx, StatusCreated, userID, chatID, messageID, kind, target, size)
}

// StartRun records a run executed by the caller, outside the queue
func (db *DB) StartRun(ctx context.Context, kind RunKind, target string, size int) (*Run, error) {
	return db.insertRun(ctx, StatusInProgress, 0, 0, 0, kind, target, size)
}

func (db *DB) insertRun(ctx context.Context, status RunStatus, userID, chatID int64, messageID int, kind RunKind, target string, size int) (*Run, error) {
	run, err := scanRun(db.conn.QueryRowContext(ctx, `
		INSERT INTO runs (user_id, chat_id, telegram_message_id, kind, target, size, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+runColumns,
		userID, chatID, messageID, kind, target, size, status))
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// ClaimNextRun marks the oldest created run in progress and returns it.
// It returns nil when the queue is empty. Concurrent workers never claim the same run.
func (db *DB) ClaimNextRun(ctx context.Context) (*Run, error) {
	run, err := scanRun(db.conn.QueryRowContext(ctx, `
		UPDATE runs
		SET status = 'in_progress', updated_at = CURRENT_TIMESTAMP
		WHERE id = (
			SELECT id FROM runs
			WHERE status = 'created'
			ORDER BY created_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+runColumns))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim run: %w", err)
	}
	return run, nil
}

// RequeueStaleRuns puts queued runs left in progress by a previous process back into the queue
func (db *DB) RequeueStaleRuns(ctx context.Context) (int, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs SET status = 'created', updated_at = CURRENT_TIMESTAMP
		WHERE status = 'in_progress' AND chat_id <> 0
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue runs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// FinishRun records the outcome of a run
func (db *DB) FinishRun(ctx context.Context, runID int, outcome RunOutcome) error {
	status := StatusDone
	var lastError sql.NullString
	if outcome.Err != nil {
		status = StatusFailed
		lastError = sql.NullString{String: outcome.Err.Error(), Valid: true}
	}
	var total sql.NullInt64
	if outcome.TotalAvailable != nil {
		total = sql.NullInt64{Int64: int64(*outcome.TotalAvailable), Valid: true}
	}
	sheetName := sql.NullString{String: outcome.SheetName, Valid: outcome.SheetName != ""}

	_, err := db.conn.ExecContext(ctx, `
		UPDATE runs
		SET status = $1, records_count = $2, total_available = $3, failures_count = $4,
			sheet_name = $5, last_error = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
	`, status, outcome.RecordsCount, total, outcome.FailuresCount, sheetName, lastError, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// GetRun retrieves a run by id
func (db *DB) GetRun(ctx context.Context, runID int) (*Run, error) {
	run, err := scanRun(db.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID))
	if err != nil {
		return nil, fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns the latest runs of a user, newest first
func (db *DB) ListRuns(ctx context.Context, userID int64, limit int) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// SaveOffers stores the ordered offers of a run
func (db *DB) SaveOffers(ctx context.Context, runID int, offers []models.Offer) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO offers (run_id, position, name, token_id, contract_address, offer_url, image_url, price_amount, price_currency)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, o := range offers {
			amount, currency := priceColumns(o.Price)
			_, err := stmt.ExecContext(ctx, runID, i+1, o.Name,
				nullString(o.TokenID), nullString(o.AssetContractAddress), nullString(o.OfferURL), nullString(o.DisplayImageURL),
				amount, currency)
			if err != nil {
				return fmt.Errorf("failed to save offer %s: %w", o.Key(), err)
			}
		}
		return nil
	})
}

// ListOffers returns the stored offers of a run in their saved order
func (db *DB) ListOffers(ctx context.Context, runID int) ([]models.Offer, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, token_id, contract_address, offer_url, image_url, price_amount, price_currency
		FROM offers WHERE run_id = $1 ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var o models.Offer
		var tokenID, contract, offerURL, image, curr sql.NullString
		var amount decimal.NullDecimal
		if err := rows.Scan(&o.Name, &tokenID, &contract, &offerURL, &image, &amount, &curr); err != nil {
			return nil, err
		}
		o.TokenID, o.AssetContractAddress, o.OfferURL, o.DisplayImageURL = tokenID.String, contract.String, offerURL.String, image.String
		o.Price = priceFromColumns(amount, curr)
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// SaveRankings stores the ordered ranking entries of a run
func (db *DB) SaveRankings(ctx context.Context, runID int, entries []models.RankingEntry) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO rankings (run_id, rank, slug, name, thumbnail_url, floor_amount, floor_currency)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			amount, currency := priceColumns(e.FloorPrice)
			if _, err := stmt.ExecContext(ctx, runID, e.Rank, e.Slug, e.Name, nullString(e.ThumbnailURL), amount, currency); err != nil {
				return fmt.Errorf("failed to save ranking %s: %w", e.Slug, err)
			}
		}
		return nil
	})
}

// ListRankings returns the stored ranking entries of a run ordered by rank
func (db *DB) ListRankings(ctx context.Context, runID int) ([]models.RankingEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT rank, slug, name, thumbnail_url, floor_amount, floor_currency
		FROM rankings WHERE run_id = $1 ORDER BY rank, id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	var entries []models.RankingEntry
	for rows.Next() {
		var (
			e           models.RankingEntry
			thumb, curr sql.NullString
			amount      decimal.NullDecimal
		)
		if err := rows.Scan(&e.Rank, &e.Slug, &e.Name, &thumb, &amount, &curr); err != nil {
			return nil, err
		}
		e.ThumbnailURL = thumb.String
		e.FloorPrice = priceFromColumns(amount, curr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func priceColumns(p *models.Price) (decimal.NullDecimal, sql.NullString) {
	if p == nil {
		return decimal.NullDecimal{}, sql.NullString{}
	}
	return decimal.NullDecimal{Decimal: p.Amount, Valid: true}, nullString(p.Currency)
}

func priceFromColumns(amount decimal.NullDecimal, currency sql.NullString) *models.Price {
	if !amount.Valid {
		return nil
	}
	return &models.Price{Amount: amount.Decimal, Currency: currency.String}
}
