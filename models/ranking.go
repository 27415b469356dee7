package models

// RankingEntry represents one collection row of the rankings page
type RankingEntry struct {
	Slug         string `json:"slug"`
	Rank         int    `json:"rank"` // 0 marks a placeholder row
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail,omitempty"`
	FloorPrice   *Price `json:"floorPrice,omitempty"`
}

// Key returns the uniqueness key of the entry
func (r RankingEntry) Key() string {
	return r.Slug
}

// Valid reports whether the entry is a fully rendered row
func (r RankingEntry) Valid() bool {
	return r.Rank != 0 && r.Name != ""
}

// RankingsResult is the outcome of a rankings extraction
type RankingsResult struct {
	Rankings []RankingEntry  `json:"rankings"`
	Failures []DecodeFailure `json:"-"`
}
