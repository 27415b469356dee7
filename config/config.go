package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Collector CollectorConfig `yaml:"collector"`
	Stream    StreamConfig    `yaml:"stream"`
	Filters   FilterConfig    `yaml:"filters"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// BrowserConfig controls the browser launch
type BrowserConfig struct {
	Headed        bool          `yaml:"headed"` // Show the browser window
	Bin           string        `yaml:"bin"`
	UserDataDir   string        `yaml:"user_data_dir"`
	Stealth       bool          `yaml:"stealth"`
	LoadTimeout   time.Duration `yaml:"load_timeout"`
	SettleTimeout time.Duration `yaml:"settle_timeout"`
}

// CollectorConfig controls the scroll loop
type CollectorConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ScrollDelta  int           `yaml:"scroll_delta"`
	ResultSize   int           `yaml:"result_size"`
	RankingPages int           `yaml:"ranking_pages"`
}

// StreamConfig selects the intercepted responses and their edge lists
type StreamConfig struct {
	EndpointPattern  string `yaml:"endpoint_pattern"`
	OfferEdgesPath   string `yaml:"offer_edges_path"`
	RankingEdgesPath string `yaml:"ranking_edges_path"`
}

// FilterConfig represents the offer filter criteria. Empty bounds are not applied.
type FilterConfig struct {
	MinPrice string `yaml:"min_price"`
	MaxPrice string `yaml:"max_price"`
	Currency string `yaml:"currency"`
}

// SheetsConfig points at the export spreadsheet
type SheetsConfig struct {
	SpreadsheetURL  string `yaml:"spreadsheet_url"`
	CredentialsPath string `yaml:"credentials_path"`
}

// DatabaseConfig holds the Postgres connection string
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// TelegramConfig configures the chat front-end
type TelegramConfig struct {
	Token          string  `yaml:"token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
	AdminID        int64   `yaml:"admin_id"`
}

// SchedulerConfig controls the run queue worker
type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Browser: BrowserConfig{
			LoadTimeout:   30 * time.Second,
			SettleTimeout: 10 * time.Second,
		},
		Collector: CollectorConfig{
			Interval:     120 * time.Millisecond,
			ScrollDelta:  700,
			ResultSize:   10,
			RankingPages: 1,
		},
		Stream: StreamConfig{
			EndpointPattern:  `graphql`,
			OfferEdgesPath:   `.data.query.search.edges`,
			RankingEdgesPath: `.data.rankings.edges`,
		},
		Scheduler: SchedulerConfig{
			PollInterval: 5 * time.Second,
			RunTimeout:   5 * time.Minute,
		},
	}
}

// Load reads path and its <name>.local.<ext> sibling over the defaults, then
// applies environment overrides. Missing files are not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, file := range []string{path, localPath(path)} {
		if file == "" {
			continue
		}
		override, found, err := readFile(file)
		if err != nil {
			return cfg, err
		}
		if !found {
			continue
		}
		if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
			return cfg, fmt.Errorf("failed to merge config file %s: %w", file, err)
		}
		slog.Debug("loaded config file", "path", file)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readFile(path string) (Config, bool, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, false, nil
	}
	if err != nil {
		return cfg, false, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, true, nil
}

// localPath maps config.yaml to config.local.yaml
func localPath(path string) string {
	if path == "" {
		return ""
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"); v != "" {
		cfg.Sheets.CredentialsPath = v
	}
	if v := os.Getenv("SPREADSHEET_URL"); v != "" {
		cfg.Sheets.SpreadsheetURL = v
	}
	if v := os.Getenv("BOT_DATA_DIR"); v != "" {
		cfg.Browser.UserDataDir = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_ALLOWED_USERS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_ALLOWED_USERS: %w", err)
		}
		cfg.Telegram.AllowedUserIDs = ids
	}
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
