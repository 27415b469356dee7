package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"nft-scraper/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderOffers(w io.Writer, offers []models.Offer, total *int) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Name", "Token ID", "Price", "Link"})
	for i, o := range offers {
		t.AppendRow(table.Row{i + 1, o.Name, o.TokenID, priceCell(o.Price), o.OfferURL})
	}
	footer := fmt.Sprintf("%d offers", len(offers))
	if total != nil {
		footer = fmt.Sprintf("%d of %d listed", len(offers), *total)
	}
	t.AppendFooter(table.Row{"", footer})
	t.Render()
}

func renderRankings(w io.Writer, entries []models.RankingEntry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Rank", "Collection", "Slug", "Floor"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Rank, e.Name, e.Slug, priceCell(e.FloorPrice)})
	}
	t.Render()
}

func renderInfo(w io.Writer, info *models.CollectionInfo) {
	t := newTable(w)
	add := func(key string, value *string) {
		if value != nil && *value != "" {
			t.AppendRow(table.Row{key, *value})
		}
	}

	t.AppendRow(table.Row{"Slug", info.Slug})
	add("Name", info.Name)
	add("Symbol", info.Symbol)
	add("Contract", info.ContractAddress)
	if info.FloorPrice != nil {
		t.AppendRow(table.Row{"Floor price", fmt.Sprintf("%g ETH", *info.FloorPrice)})
	}
	t.AppendRow(table.Row{"Verified", info.IsVerified})
	add("Safelist status", info.SafelistRequestStatus)
	if !info.CreatedAt.IsZero() {
		t.AppendRow(table.Row{"Created", info.CreatedAt.Format("2006-01-02")})
	}
	add("Website", info.Social.Website)
	add("Twitter", info.Social.Twitter)
	add("Discord", info.Social.Discord)
	add("Telegram", info.Social.Telegram)
	add("Instagram", info.Social.Instagram)
	add("Medium", info.Social.Medium)
	add("Wiki", info.Social.Wiki)
	add("Image", info.ImageURL)
	add("Banner", info.BannerImageURL)
	add("Description", info.Description)
	t.Render()

	if len(info.Stats) == 0 {
		return
	}
	stats := newTable(w)
	stats.AppendHeader(table.Row{"Stat", "Value"})
	for _, key := range slices.Sorted(maps.Keys(info.Stats)) {
		stats.AppendRow(table.Row{key, info.Stats[key]})
	}
	stats.Render()
}

func priceCell(p *models.Price) string {
	if p == nil {
		return "-"
	}
	return p.String()
}
