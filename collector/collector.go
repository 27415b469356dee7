// Package collector drives the scroll-and-wait loop that reveals lazily
// rendered cards and stops once enough records were gathered or the page
// stopped growing.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nft-scraper/models"
)

// DefaultInterval is the settle delay between a scroll and the next DOM pass
const DefaultInterval = 120 * time.Millisecond

// DefaultDelta is the scroll advance in pixels
const DefaultDelta = 700

// State of the collector loop
type State int

const (
	Idle State = iota
	Scrolling
	Settling
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scrolling:
		return "scrolling"
	case Settling:
		return "settling"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Page is the scroll surface the collector drives
type Page interface {
	ScrollBy(ctx context.Context, delta int) error
	ScrollOffset(ctx context.Context) (float64, error)
}

// Config controls one collector run
type Config struct {
	Target   int           // Stop once Size reports at least this many records
	Interval time.Duration // Settle delay after every scroll
	Delta    int           // Scroll advance per iteration
}

// Collector is a single-use scroll loop
type Collector struct {
	page    Page
	extract func(ctx context.Context) error
	size    func() int
	cfg     Config

	// Sleep waits for d or until ctx is done. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnTransition is called on every state change when set
	OnTransition func(from, to State)

	state      State
	iterations int
}

// New creates a collector. extract runs one DOM pass and upserts what it
// finds; size reports the current number of accumulated records.
func New(page Page, cfg Config, extract func(ctx context.Context) error, size func() int) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Delta <= 0 {
		cfg.Delta = DefaultDelta
	}
	return &Collector{
		page:    page,
		extract: extract,
		size:    size,
		cfg:     cfg,
		Sleep:   sleep,
	}
}

// State returns the current state
func (c *Collector) State() State {
	return c.state
}

// Iterations returns the number of completed scroll iterations
func (c *Collector) Iterations() int {
	return c.iterations
}

// Run scrolls until the target is reached or the scroll offset stops changing.
// Page failures abort the loop with a NavigationError; context errors are
// returned unwrapped.
func (c *Collector) Run(ctx context.Context) error {
	if c.state != Idle {
		return fmt.Errorf("collector already ran (state %s)", c.state)
	}

	prev := -1.0
	for {
		c.transition(Scrolling)
		if err := c.page.ScrollBy(ctx, c.cfg.Delta); err != nil {
			return navigationError("scroll", err)
		}

		c.transition(Settling)
		if err := c.Sleep(ctx, c.cfg.Interval); err != nil {
			return err
		}
		if err := c.extract(ctx); err != nil {
			return navigationError("extract", err)
		}
		offset, err := c.page.ScrollOffset(ctx)
		if err != nil {
			return navigationError("scroll offset", err)
		}
		c.iterations++

		size := c.size()
		slog.Debug("collector iteration", "iteration", c.iterations, "size", size, "target", c.cfg.Target, "offset", offset)

		if size >= c.cfg.Target || offset == prev {
			c.transition(Done)
			return nil
		}
		prev = offset
	}
}

func (c *Collector) transition(to State) {
	from := c.state
	c.state = to
	if c.OnTransition != nil && from != to {
		c.OnTransition(from, to)
	}
}

func navigationError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &models.NavigationError{Op: op, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
