package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"nft-scraper/stream"
)

// fakeSession reveals perScroll more cards on every scroll until its cards
// run out and emits the responses scheduled for a given scroll number
type fakeSession struct {
	mu sync.Mutex

	markup      string
	pages       [][]string
	page        int
	perScroll   int
	visible     int
	offset      float64
	maxOffset   float64
	resultsText string

	scheduled map[int][]stream.Response
	scrolls   int
	ch        chan stream.Response

	scrollErr    error
	cardsErr     error
	onCards      func()
	markupCalls  int
	closed       bool
	unsubscribed bool
}

func newFakeSession(markup string, cards ...string) *fakeSession {
	return &fakeSession{
		markup:    markup,
		pages:     [][]string{cards},
		perScroll: 1,
		maxOffset: float64(len(cards)) * 100,
		scheduled: map[int][]stream.Response{},
	}
}

func (f *fakeSession) Markup(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markupCalls++
	return f.markup, nil
}

func (f *fakeSession) ScrollBy(ctx context.Context, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls++
	f.offset += 100
	if f.offset > f.maxOffset {
		f.offset = f.maxOffset
	}
	f.visible += f.perScroll
	for _, resp := range f.scheduled[f.scrolls] {
		if f.ch != nil && !f.unsubscribed {
			f.ch <- resp
		}
	}
	return nil
}

func (f *fakeSession) ScrollOffset(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset, nil
}

func (f *fakeSession) VisibleCards(ctx context.Context, selector string) ([]string, error) {
	if f.onCards != nil {
		f.onCards()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cardsErr != nil {
		return nil, f.cardsErr
	}
	cards := f.pages[f.page]
	if f.visible < len(cards) {
		cards = cards[:f.visible]
	}
	return append([]string(nil), cards...), nil
}

func (f *fakeSession) Text(ctx context.Context, selector string) (string, bool, error) {
	return f.resultsText, f.resultsText != "", nil
}

func (f *fakeSession) Responses(ctx context.Context, pattern *regexp.Regexp) (<-chan stream.Response, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = make(chan stream.Response, 64)
	f.unsubscribed = false
	ch := f.ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.unsubscribed {
			f.unsubscribed = true
			close(ch)
		}
	}, nil
}

func (f *fakeSession) NextPage(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page+1 >= len(f.pages) {
		return false, nil
	}
	f.page++
	f.visible = 0
	f.offset = 0
	f.maxOffset = float64(len(f.pages[f.page])) * 100
	return true, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeOpener struct {
	session *fakeSession
	err     error
	urls    []string
}

func (o *fakeOpener) Open(ctx context.Context, url string) (Session, error) {
	o.urls = append(o.urls, url)
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

func stateMarkup(records ...string) string {
	return `<html><head><script>window.__wired__={records:{` + strings.Join(records, ",") + `}};</script></head><body></body></html>`
}

func currencyRecord(id, symbol string, usd int) string {
	return fmt.Sprintf(`"%s":{"__typename":"PaymentAssetType","symbol":"%s","usdSpotPrice":%d}`, id, symbol, usd)
}

func offerRecord(id, name, tokenID, wei, currencyID string) string {
	return fmt.Sprintf(`"%s":{"__typename":"ItemType","name":"%s","tokenId":"%s","assetContract":{"__ref":"contract"},"price":{"quantity":"%s","asset":{"__ref":"%s"}}}`,
		id, name, tokenID, wei, currencyID)
}

const contractRecord = `"contract":{"__typename":"AssetContractType","address":"0xabc"}`

func offerCard(name, tokenID, amount string) string {
	return fmt.Sprintf(`<a class="Asset--anchor" href="/assets/0xabc/%s"><div class="AssetCardFooter--name">%s</div>`+
		`<div class="AssetCardFooter--price-amount"><div class="Price--eth-icon"></div><div class="Price--amount">%s</div></div></a>`,
		tokenID, name, amount)
}

func rankingRow(slug string, rank int, name string) string {
	return fmt.Sprintf(`<a href="/collection/%s">%d<span class="Ranking--collection-name-overflow">%s</span></a>`, slug, rank, name)
}

func offersResponse(names ...string) stream.Response {
	var edges []string
	for i, name := range names {
		edges = append(edges, fmt.Sprintf(`{"node":{"name":"%s","tokenId":"%d","price":{"unit":"0.1","asset":{"symbol":"ETH"}}}}`, name, 900+i))
	}
	return stream.Response{
		URL:  "https://opensea.io/__api/graphql/",
		Body: []byte(`{"data":{"query":{"search":{"edges":[` + strings.Join(edges, ",") + `]}}}}`),
	}
}
