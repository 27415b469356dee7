package collectionurl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// BaseURL is the marketplace origin
const BaseURL = "https://opensea.io"

// BuyNowParam restricts a collection page to items that can be bought directly.
// Without it the page renders auctions that carry no floor price.
const BuyNowParam = "search[toggles][0]=BUY_NOW"

// RankingsURL lists collections by all-time volume
const RankingsURL = BaseURL + "/rankings?sortBy=total_volume"

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ForSlug returns the collection page sorted by ascending price, buy-now items only
func ForSlug(slug string) string {
	return BaseURL + "/collection/" + url.PathEscape(slug) +
		"?search[sortAscending]=true&search[sortBy]=PRICE&" + BuyNowParam
}

// WithBuyNow appends the buy-now toggle to urlStr when it is missing
func WithBuyNow(urlStr string) string {
	if strings.Contains(urlStr, BuyNowParam) {
		return urlStr
	}
	join := "?"
	if strings.Contains(urlStr, "?") {
		join = "&"
	}
	return urlStr + join + BuyNowParam
}

// Resolve accepts a collection slug or a custom collection URL and returns the
// page to load
func Resolve(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("empty collection")
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		parsed, err := url.Parse(target)
		if err != nil {
			return "", fmt.Errorf("failed to parse URL: %w", err)
		}
		if parsed.Host == "" {
			return "", fmt.Errorf("invalid collection URL: %s", target)
		}
		return WithBuyNow(target), nil
	}

	slug := strings.ToLower(target)
	if !slugPattern.MatchString(slug) {
		return "", fmt.Errorf("invalid collection slug: %s", target)
	}
	return ForSlug(slug), nil
}

// Slug extracts the collection slug from a collection URL, or returns target
// unchanged when it is not a URL
func Slug(target string) string {
	parsed, err := url.Parse(strings.TrimSpace(target))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(target)
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, segment := range segments {
		if segment == "collection" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return segments[len(segments)-1]
}

// Label describes the target of a run for sheet names and chat replies,
// e.g. "boredapeyachtclub" or "sandbox (filtered)" for custom URLs with extra filters
func Label(target string) string {
	slug := Slug(target)
	parsed, err := url.Parse(strings.TrimSpace(target))
	if err != nil || parsed.Host == "" {
		return slug
	}

	query := parsed.Query()
	for key := range query {
		switch key {
		case "search[sortAscending]", "search[sortBy]", "search[toggles][0]":
			continue
		default:
			return slug + " (filtered)"
		}
	}
	return slug
}
