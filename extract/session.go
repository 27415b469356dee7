package extract

import (
	"context"
	"regexp"

	"nft-scraper/stream"
)

// Session is one loaded marketplace page
type Session interface {
	// Markup returns the current rendered page markup
	Markup(ctx context.Context) (string, error)
	// ScrollBy advances the viewport vertically by delta pixels
	ScrollBy(ctx context.Context, delta int) error
	// ScrollOffset returns the current vertical scroll position
	ScrollOffset(ctx context.Context) (float64, error)
	// VisibleCards returns the outer HTML of every element matching selector
	VisibleCards(ctx context.Context, selector string) ([]string, error)
	// Text returns the text of the first element matching selector, or false if none renders
	Text(ctx context.Context, selector string) (string, bool, error)
	// Responses subscribes to network responses whose URL matches pattern.
	// The returned function tears the subscription down and closes the channel.
	Responses(ctx context.Context, pattern *regexp.Regexp) (<-chan stream.Response, func(), error)
	// NextPage activates the next-page control. It returns false when there is none.
	NextPage(ctx context.Context) (bool, error)
	// Close releases the page
	Close() error
}

// Opener loads a URL into a new session owned by the caller of Open
type Opener interface {
	Open(ctx context.Context, url string) (Session, error)
}
