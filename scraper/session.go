package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"nft-scraper/extract"
	"nft-scraper/stream"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// nextPageSelector matches the pagination controls of the listing pages
const nextPageSelector = `[value=arrow_forward_ios], button[aria-label='Next'], a[aria-label='Next']`

// renderedSelector appears once a freshly paginated page has rendered its rows
const renderedSelector = ".Image--image"

const (
	stableWindow    = 500 * time.Millisecond
	paginateTimeout = 10 * time.Second
	responseBuffer  = 64
)

// Session adapts a rod page to the extraction primitives
type Session struct {
	page *rod.Page
}

var _ extract.Session = (*Session)(nil)

// NewSession wraps an already loaded page. Closing the session closes the page.
func NewSession(page *rod.Page) *Session {
	return &Session{page: page}
}

// Markup implements extract.Session
func (s *Session) Markup(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// ScrollBy implements extract.Session
func (s *Session) ScrollBy(ctx context.Context, delta int) error {
	_, err := s.page.Context(ctx).Eval(`(d) => window.scrollBy(0, d)`, delta)
	return err
}

// ScrollOffset implements extract.Session
func (s *Session) ScrollOffset(ctx context.Context) (float64, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.documentElement.scrollTop`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

// VisibleCards implements extract.Session. All matches are serialized in a single round trip.
func (s *Session) VisibleCards(ctx context.Context, selector string) ([]string, error) {
	res, err := s.page.Context(ctx).Eval(`(sel) => Array.from(document.querySelectorAll(sel), el => el.outerHTML)`, selector)
	if err != nil {
		return nil, err
	}
	items := res.Value.Arr()
	cards := make([]string, 0, len(items))
	for _, item := range items {
		cards = append(cards, item.Str())
	}
	return cards, nil
}

// Text implements extract.Session
func (s *Session) Text(ctx context.Context, selector string) (string, bool, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil || !has {
		return "", false, err
	}
	text, err := el.Text()
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Responses implements extract.Session. Bodies are fetched once the response
// has finished loading; responses that cannot be read are skipped.
func (s *Session) Responses(ctx context.Context, pattern *regexp.Regexp) (<-chan stream.Response, func(), error) {
	if err := (proto.NetworkEnable{}).Call(s.page.Context(ctx)); err != nil {
		return nil, nil, fmt.Errorf("failed to enable network events: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	page := s.page.Context(subCtx)
	ch := make(chan stream.Response, responseBuffer)
	pending := make(map[proto.NetworkRequestID]string)

	wait := page.EachEvent(
		func(e *proto.NetworkResponseReceived) {
			if e.Response != nil && pattern.MatchString(e.Response.URL) {
				pending[e.RequestID] = e.Response.URL
			}
		},
		func(e *proto.NetworkLoadingFinished) {
			url, ok := pending[e.RequestID]
			if !ok {
				return
			}
			delete(pending, e.RequestID)

			body, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(page)
			if err != nil {
				slog.Debug("failed to read response body", "url", url, "error", err)
				return
			}
			data := []byte(body.Body)
			if body.Base64Encoded {
				if data, err = base64.StdEncoding.DecodeString(body.Body); err != nil {
					slog.Debug("failed to decode response body", "url", url, "error", err)
					return
				}
			}

			select {
			case ch <- stream.Response{URL: url, Body: data}:
			case <-subCtx.Done():
			}
		},
		func(e *proto.NetworkLoadingFailed) {
			delete(pending, e.RequestID)
		},
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		wait()
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			<-done
			close(ch)
		})
	}
	return ch, unsubscribe, nil
}

// NextPage implements extract.Session
func (s *Session) NextPage(ctx context.Context) (bool, error) {
	page := s.page.Context(ctx)

	has, button, err := page.Has(nextPageSelector)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	visible, err := button.Visible()
	if err != nil {
		return false, err
	}
	if !visible {
		return false, nil
	}

	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("failed to click next page: %w", err)
	}
	if _, err := page.Timeout(paginateTimeout).Element(renderedSelector); err != nil {
		return false, fmt.Errorf("failed to wait for next page: %w", err)
	}
	if _, err := page.Eval(`() => window.scrollTo(0, 0)`); err != nil {
		return false, err
	}
	return true, nil
}

// Close implements extract.Session
func (s *Session) Close() error {
	return s.page.Close()
}
