package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"nft-scraper/extract"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// challengeSelector is rendered while the anti-bot interstitial is verifying the browser
const challengeSelector = ".cf-browser-verification"

// RodScraper opens marketplace pages in a rod-controlled browser
type RodScraper struct {
	browser *rod.Browser
	cfg     Config
	owned   bool
}

// NewRodScraper launches a browser and connects to it
func NewRodScraper(cfg Config) (*RodScraper, error) {
	cfg = cfg.withDefaults()

	userDataDir := cfg.UserDataDir
	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		slog.Warn("failed to create browser data directory", "dir", userDataDir, "error", err)
		userDataDir = ""
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-breakpad").
		Set("disable-default-apps").
		Set("disable-hang-monitor").
		Set("disable-popup-blocking").
		Set("disable-sync").
		Set("disable-translate").
		Set("mute-audio").
		Set("no-zygote").
		Set("use-mock-keychain").
		Set("memory-pressure-off").
		Set("disable-ipc-flooding-protection").
		Set("disable-features", "TranslateUI,BlinkGenPropertyTrees").
		Set("start-maximized")
	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}
	if bin := findBrowser(cfg.Bin); bin != "" {
		l = l.Bin(bin)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w\n\nNote: On Linux, you may need to install Chromium dependencies:\n  apt-get update && apt-get install -y chromium chromium-sandbox", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodScraper{browser: browser, cfg: cfg, owned: true}, nil
}

// NewWithBrowser reuses a browser managed by the caller. Close leaves it running.
func NewWithBrowser(browser *rod.Browser, cfg Config) *RodScraper {
	return &RodScraper{browser: browser, cfg: cfg.withDefaults()}
}

// Browser returns the underlying browser
func (rs *RodScraper) Browser() *rod.Browser {
	return rs.browser
}

// Close closes the browser if this scraper launched it
func (rs *RodScraper) Close() error {
	if rs.browser != nil && rs.owned {
		return rs.browser.Close()
	}
	return nil
}

// Open creates a page, loads url and waits until the listing has rendered.
// The returned session owns the page.
func (rs *RodScraper) Open(ctx context.Context, url string) (extract.Session, error) {
	page, err := rs.newPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := rs.load(ctx, page, url); err != nil {
		if cerr := page.Close(); cerr != nil {
			slog.Warn("failed to close page", "url", url, "error", cerr)
		}
		return nil, err
	}

	slog.Debug("page loaded", "url", url)
	return NewSession(page), nil
}

func (rs *RodScraper) newPage() (*rod.Page, error) {
	if rs.cfg.Stealth {
		return stealth.Page(rs.browser)
	}
	return rs.browser.Page(proto.TargetCreateTarget{})
}

func (rs *RodScraper) load(ctx context.Context, page *rod.Page, url string) error {
	p := page.Context(ctx).Timeout(rs.cfg.LoadTimeout)

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}

	// the interstitial replaces itself with the real page once verification passes
	err := p.Wait(rod.Eval(`(sel) => !document.querySelector(sel)`, challengeSelector))
	if err != nil {
		return fmt.Errorf("failed waiting for browser verification: %w", err)
	}

	settle := page.Context(ctx).Timeout(rs.cfg.SettleTimeout)
	if err := settle.WaitStable(stableWindow); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("failed to wait for page to settle: %w", err)
		}
		slog.Warn("page did not stabilize within timeout, continuing anyway", "url", url)
	}
	return nil
}
