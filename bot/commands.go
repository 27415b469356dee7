package bot

import (
	"fmt"
	"strconv"
	"strings"

	"nft-scraper/collectionurl"
	"nft-scraper/db"
)

const (
	maxResultSize   = 200
	maxRankingPages = 10
)

// Request is a parsed extraction command
type Request struct {
	Kind   db.RunKind
	Target string
	Size   int // 0 uses the user's configured default
}

// ParseCommand turns an extraction command and its arguments into a Request.
// It returns nil without error for commands that do not queue a run.
func ParseCommand(command, args string) (*Request, error) {
	fields := strings.Fields(args)

	switch command {
	case "offers":
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("usage: /offers <slug|url> [count]")
		}
		req := &Request{Kind: db.KindOffers, Target: fields[0]}
		if len(fields) == 2 {
			n, err := parseBounded(fields[1], "count", maxResultSize)
			if err != nil {
				return nil, err
			}
			req.Size = n
		}
		return validateTarget(req)
	case "rankings":
		if len(fields) > 1 {
			return nil, fmt.Errorf("usage: /rankings [pages]")
		}
		req := &Request{Kind: db.KindRankings}
		if len(fields) == 1 {
			n, err := parseBounded(fields[0], "pages", maxRankingPages)
			if err != nil {
				return nil, err
			}
			req.Size = n
		}
		return req, nil
	case "floor", "info":
		if len(fields) != 1 {
			return nil, fmt.Errorf("usage: /%s <slug|url>", command)
		}
		kind := db.KindFloor
		if command == "info" {
			kind = db.KindInfo
		}
		return validateTarget(&Request{Kind: kind, Target: fields[0]})
	default:
		return nil, nil
	}
}

// ParseText treats a plain message holding a collection URL as an offers request
func ParseText(text string) (*Request, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return nil, fmt.Errorf("please send a collection URL or use /help")
	}
	return validateTarget(&Request{Kind: db.KindOffers, Target: text})
}

func validateTarget(req *Request) (*Request, error) {
	if _, err := collectionurl.Resolve(req.Target); err != nil {
		return nil, err
	}
	return req, nil
}

func parseBounded(s, name string, max int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, s)
	}
	if n > max {
		return 0, fmt.Errorf("%s must be at most %d", name, max)
	}
	return n, nil
}

// Describe summarizes a queued request for the acknowledgement message
func (r Request) Describe() string {
	switch r.Kind {
	case db.KindOffers:
		if r.Size > 0 {
			return fmt.Sprintf("%d cheapest offers of %s", r.Size, collectionurl.Label(r.Target))
		}
		return fmt.Sprintf("cheapest offers of %s", collectionurl.Label(r.Target))
	case db.KindRankings:
		if r.Size > 0 {
			return fmt.Sprintf("%d rankings pages", r.Size)
		}
		return "rankings"
	case db.KindFloor:
		return fmt.Sprintf("floor price of %s", collectionurl.Label(r.Target))
	default:
		return fmt.Sprintf("info for %s", collectionurl.Slug(r.Target))
	}
}
