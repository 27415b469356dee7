// Package stateblob extracts the serialized state object that the marketplace
// writes into rendered page markup.
package stateblob

import (
	"sort"
	"strings"

	"nft-scraper/models"

	"github.com/titanous/json5"
)

const (
	// PrefixMarker precedes the serialized state object in the page markup
	PrefixMarker = "window.__wired__="
	// SuffixMarker closes the script element carrying the state object
	SuffixMarker = "</script>"
)

// Node is one typed record of the state blob
type Node map[string]any

// Typename returns the discriminator of the node
func (n Node) Typename() string {
	s, _ := n["__typename"].(string)
	return s
}

// Ref returns the id referenced by field key, if the field is a {"__ref": id} link
func (n Node) Ref(key string) (string, bool) {
	m, ok := n[key].(map[string]any)
	if !ok {
		return "", false
	}
	ref, ok := m["__ref"].(string)
	return ref, ok && ref != ""
}

// Blob is the decoded state of one page load
type Blob struct {
	Records    map[string]Node
	TotalCount *int
}

// Parse locates the state segment in markup and decodes it
func Parse(markup string) (*Blob, error) {
	start := strings.Index(markup, PrefixMarker)
	if start == -1 {
		return nil, &models.ParseError{Reason: "state marker not found"}
	}
	rest := markup[start+len(PrefixMarker):]
	if end := strings.Index(rest, SuffixMarker); end != -1 {
		rest = rest[:end]
	}

	segment := strings.TrimSpace(rest)
	segment = strings.TrimSpace(strings.TrimSuffix(segment, ";"))
	if segment == "" {
		return nil, &models.ParseError{Reason: "state segment is empty"}
	}

	var raw map[string]any
	if err := json5.Unmarshal([]byte(segment), &raw); err != nil {
		return nil, &models.ParseError{Reason: "malformed state segment", Err: err}
	}

	records := raw
	if r, ok := raw["records"].(map[string]any); ok {
		records = r
	}

	blob := &Blob{Records: make(map[string]Node, len(records))}
	for id, v := range records {
		if m, ok := v.(map[string]any); ok {
			blob.Records[id] = Node(m)
		}
	}
	blob.TotalCount = totalCount(raw, blob.Records)

	return blob, nil
}

// ByTypename returns the ids of all nodes with one of the given discriminators,
// sorted so that repeated parses of the same markup yield the same order
func (b *Blob) ByTypename(typenames ...string) []string {
	var ids []string
	for id, node := range b.Records {
		t := node.Typename()
		for _, want := range typenames {
			if t == want {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func totalCount(raw map[string]any, records map[string]Node) *int {
	if n, ok := raw["totalCount"].(float64); ok {
		count := int(n)
		return &count
	}
	for _, node := range records {
		if node.Typename() != "SearchConnection" {
			continue
		}
		if n, ok := node["totalCount"].(float64); ok {
			count := int(n)
			return &count
		}
	}
	return nil
}
