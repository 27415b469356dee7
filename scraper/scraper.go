package scraper

import (
	"os"
	"time"

	"github.com/go-rod/rod/lib/launcher"
)

// Config controls how the browser is launched and how pages are loaded
type Config struct {
	Headless    bool
	Bin         string // Browser executable, discovered when empty
	UserDataDir string // Profile directory, BOT_DATA_DIR or /tmp/nft-scraper-data when empty
	Stealth     bool   // Apply anti-detection patches to every new page

	LoadTimeout   time.Duration // Navigation and load wait
	SettleTimeout time.Duration // Wait for the DOM to stop changing after load
}

const (
	defaultLoadTimeout   = 30 * time.Second
	defaultSettleTimeout = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.UserDataDir == "" {
		c.UserDataDir = os.Getenv("BOT_DATA_DIR")
	}
	if c.UserDataDir == "" {
		c.UserDataDir = "/tmp/nft-scraper-data"
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = defaultLoadTimeout
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = defaultSettleTimeout
	}
	return c
}

// browserPaths are checked in order when no executable is configured
var browserPaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// findBrowser returns the first installed browser, or "" to let rod download one
func findBrowser(configured string) string {
	if configured != "" {
		return configured
	}
	paths := browserPaths
	if username := os.Getenv("USERNAME"); username != "" {
		paths = append(paths, `C:\Users\`+username+`\AppData\Local\Google\Chrome\Application\chrome.exe`)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if path, ok := launcher.LookPath(); ok {
		return path
	}
	return ""
}
