package models

import "time"

// CollectionInfo holds the metadata returned by the collection REST endpoint
type CollectionInfo struct {
	Slug                  string         `json:"slug"`
	Name                  *string        `json:"name"`
	Symbol                *string        `json:"symbol"`
	Stats                 map[string]any `json:"stats"`
	FloorPrice            *float64       `json:"floorPrice"`
	Description           *string        `json:"description"`
	ContractAddress       *string        `json:"contractAddress"`
	SafelistRequestStatus *string        `json:"safelistRequestStatus"`
	IsVerified            bool           `json:"isVerified"`
	BannerImageURL        *string        `json:"bannerImageUrl"`
	ImageURL              *string        `json:"imageUrl"`
	Social                Social         `json:"social"`
	CreatedAt             time.Time      `json:"createdAt"`
}

// Social holds the social links of a collection
type Social struct {
	Discord   *string `json:"discord"`
	Medium    *string `json:"medium"`
	Twitter   *string `json:"twitter"`
	Website   *string `json:"website"`
	Telegram  *string `json:"telegram"`
	Instagram *string `json:"instagram"`
	Wiki      *string `json:"wiki"`
}
