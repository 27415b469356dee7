package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// NewDB connects to connStr, or to a DSN assembled from DB_* variables when
// connStr is empty, and creates the schema
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	if connStr == "" {
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnvOrDefault("DB_HOST", "localhost"),
			getEnvOrDefault("DB_PORT", "5432"),
			getEnvOrDefault("DB_USER", "nft_scraper"),
			getEnvOrDefault("DB_PASSWORD", ""),
			getEnvOrDefault("DB_NAME", "nft_scraper"),
			getEnvOrDefault("DB_SSLMODE", "disable"),
		)
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

var schema = []struct {
	name string
	ddl  string
}{
	{"user_configs", `
		CREATE TABLE IF NOT EXISTS user_configs (
			user_id BIGINT PRIMARY KEY,
			result_size INTEGER NOT NULL DEFAULT 10,
			ranking_pages INTEGER NOT NULL DEFAULT 1,
			min_price NUMERIC,
			max_price NUMERIC,
			currency VARCHAR(16) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{"runs", `
		CREATE TABLE IF NOT EXISTS runs (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			chat_id BIGINT NOT NULL,
			telegram_message_id INTEGER NOT NULL DEFAULT 0,
			kind VARCHAR(20) NOT NULL,
			target TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'created',
			records_count INTEGER NOT NULL DEFAULT 0,
			total_available INTEGER,
			failures_count INTEGER NOT NULL DEFAULT 0,
			sheet_name VARCHAR(255),
			last_error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_kind CHECK (kind IN ('offers', 'rankings', 'floor', 'info')),
			CONSTRAINT valid_status CHECK (status IN ('created', 'in_progress', 'done', 'failed'))
		)`},
	{"offers", `
		CREATE TABLE IF NOT EXISTS offers (
			id SERIAL PRIMARY KEY,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			token_id TEXT,
			contract_address TEXT,
			offer_url TEXT,
			image_url TEXT,
			price_amount NUMERIC,
			price_currency VARCHAR(16),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{"rankings", `
		CREATE TABLE IF NOT EXISTS rankings (
			id SERIAL PRIMARY KEY,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			thumbnail_url TEXT,
			floor_amount NUMERIC,
			floor_currency VARCHAR(16),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_user_id ON runs(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_run_id ON offers(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rankings_run_id ON rankings(run_id)`,
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	for _, table := range schema {
		if _, err := db.conn.ExecContext(ctx, table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			slog.Warn("failed to create index", "statement", idx, "error", err)
		}
	}

	slog.Debug("database schema initialized")
	return nil
}

// GetConn returns the underlying database connection
func (db *DB) GetConn() *sql.DB {
	return db.conn
}
