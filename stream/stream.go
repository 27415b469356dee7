// Package stream decodes intercepted paginated responses and folds the
// records they carry into the shared accumulator.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"nft-scraper/models"

	"github.com/itchyny/gojq"
)

// Default endpoint pattern and edge paths of the paginated data responses
const (
	DefaultEndpointPattern = `graphql`
	OfferEdgesPath         = `.data.query.search.edges`
	RankingEdgesPath       = `.data.rankings.edges`
)

// ErrNoEdges is recorded when a response carries no edge list at the configured path
var ErrNoEdges = errors.New("edge list not found")

// Response is one intercepted network response
type Response struct {
	URL  string
	Body []byte
}

// Sink receives the raw nodes of one response and returns how many records it stored
type Sink func(nodes []map[string]any) int

// Merger filters responses by endpoint and decodes their edge lists
type Merger struct {
	endpoint *regexp.Regexp
	edges    *gojq.Code
	sink     Sink

	mu       sync.Mutex
	failures []models.DecodeFailure
	matched  int
	merged   int
}

// NewMerger compiles the endpoint pattern and the edge path expression
func NewMerger(endpointPattern, edgePath string, sink Sink) (*Merger, error) {
	if endpointPattern == "" {
		endpointPattern = DefaultEndpointPattern
	}
	endpoint, err := regexp.Compile(endpointPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile endpoint pattern: %w", err)
	}

	query, err := gojq.Parse(edgePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse edge path %q: %w", edgePath, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile edge path %q: %w", edgePath, err)
	}

	return &Merger{endpoint: endpoint, edges: code, sink: sink}, nil
}

// Endpoint returns the compiled endpoint pattern
func (m *Merger) Endpoint() *regexp.Regexp {
	return m.endpoint
}

// Run consumes responses until the channel is closed or ctx is done.
// Responses already buffered when ctx ends are still merged.
// Decode failures are recorded and never stop the loop.
func (m *Merger) Run(ctx context.Context, responses <-chan Response) {
	for {
		select {
		case resp, ok := <-responses:
			if !ok {
				return
			}
			m.Handle(resp)
		case <-ctx.Done():
			m.drain(responses)
			return
		}
	}
}

func (m *Merger) drain(responses <-chan Response) {
	for {
		select {
		case resp, ok := <-responses:
			if !ok {
				return
			}
			m.Handle(resp)
		default:
			return
		}
	}
}

// Handle merges a single response. It reports whether the response matched the endpoint.
func (m *Merger) Handle(resp Response) bool {
	if !m.endpoint.MatchString(resp.URL) {
		return false
	}

	nodes, err := m.decode(resp.Body)
	m.mu.Lock()
	m.matched++
	m.mu.Unlock()
	if err != nil {
		m.fail(resp.URL, err)
		return true
	}

	stored := 0
	if len(nodes) > 0 {
		stored = m.sink(nodes)
	}

	m.mu.Lock()
	m.merged += stored
	m.mu.Unlock()
	return true
}

func (m *Merger) decode(body []byte) ([]map[string]any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed body: %w", err)
	}

	iter := m.edges.Run(doc)
	v, ok := iter.Next()
	if !ok {
		return nil, ErrNoEdges
	}
	if err, ok := v.(error); ok {
		return nil, fmt.Errorf("%w: %v", ErrNoEdges, err)
	}
	edges, ok := v.([]any)
	if !ok {
		return nil, ErrNoEdges
	}

	nodes := make([]map[string]any, 0, len(edges))
	for i, e := range edges {
		edge, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("edge %d is not an object", i)
		}
		node, ok := edge["node"].(map[string]any)
		if !ok {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (m *Merger) fail(source string, err error) {
	slog.Warn("failed to decode streamed response", "url", source, "error", err)
	m.mu.Lock()
	m.failures = append(m.failures, models.DecodeFailure{Source: source, Err: err})
	m.mu.Unlock()
}

// Failures returns the decode failures recorded so far
func (m *Merger) Failures() []models.DecodeFailure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.DecodeFailure(nil), m.failures...)
}

// Stats returns how many responses matched the endpoint and how many records they stored
func (m *Merger) Stats() (matched, merged int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matched, m.merged
}
