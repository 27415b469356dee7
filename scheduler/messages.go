package scheduler

import (
	"fmt"
	"html"
	"strings"

	"nft-scraper/models"
)

// previewRows is how many records a chat summary lists
const previewRows = 10

func formatOffers(label string, offers []models.Offer, found int, total *int, failures int, filterInfo, sheetURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>%s</b>: %d offers", html.EscapeString(label), len(offers))
	if found != len(offers) {
		fmt.Fprintf(&b, " (%d before filtering, %s)", found, html.EscapeString(filterInfo))
	}
	if total != nil {
		fmt.Fprintf(&b, "\nListed on the page: %d", *total)
	}
	if failures > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d responses could not be decoded", failures)
	}
	b.WriteString("\n")
	for i, o := range offers {
		if i == previewRows {
			fmt.Fprintf(&b, "\n…and %d more", len(offers)-previewRows)
			break
		}
		fmt.Fprintf(&b, "\n%d. %s - %s", i+1, offerLink(o), formatPrice(o.Price))
	}
	if sheetURL != "" {
		fmt.Fprintf(&b, "\n\nView spreadsheet: %s", sheetURL)
	}
	return b.String()
}

func formatRankings(entries []models.RankingEntry, failures int, sheetURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>Rankings</b>: %d collections", len(entries))
	if failures > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d responses could not be decoded", failures)
	}
	b.WriteString("\n")
	for i, e := range entries {
		if i == previewRows {
			fmt.Fprintf(&b, "\n…and %d more", len(entries)-previewRows)
			break
		}
		fmt.Fprintf(&b, "\n%d. %s (<code>%s</code>) - floor %s",
			e.Rank, html.EscapeString(e.Name), html.EscapeString(e.Slug), formatPrice(e.FloorPrice))
	}
	if sheetURL != "" {
		fmt.Fprintf(&b, "\n\nView spreadsheet: %s", sheetURL)
	}
	return b.String()
}

func formatFloor(label string, price *models.Price) string {
	if price == nil {
		return fmt.Sprintf("ℹ️ <b>%s</b>: no ETH listing found", html.EscapeString(label))
	}
	return fmt.Sprintf("✅ <b>%s</b> floor price: %s", html.EscapeString(label), formatPrice(price))
}

func formatInfo(info *models.CollectionInfo) string {
	var b strings.Builder
	name := info.Slug
	if info.Name != nil {
		name = *info.Name
	}
	fmt.Fprintf(&b, "ℹ️ <b>%s</b>", html.EscapeString(name))
	if info.IsVerified {
		b.WriteString(" ✔️")
	}
	line := func(label string, value *string) {
		if value != nil && *value != "" {
			fmt.Fprintf(&b, "\n%s: %s", label, html.EscapeString(*value))
		}
	}
	line("Symbol", info.Symbol)
	line("Contract", info.ContractAddress)
	if info.FloorPrice != nil {
		fmt.Fprintf(&b, "\nFloor price: %g ETH", *info.FloorPrice)
	}
	if v, ok := info.Stats["totalVolume"]; ok {
		fmt.Fprintf(&b, "\nTotal volume: %v", v)
	}
	if v, ok := info.Stats["numOwners"]; ok {
		fmt.Fprintf(&b, "\nOwners: %v", v)
	}
	line("Website", info.Social.Website)
	line("Twitter", info.Social.Twitter)
	line("Discord", info.Social.Discord)
	return b.String()
}

func formatError(err error) string {
	return fmt.Sprintf("❌ Error processing request: %s", html.EscapeString(err.Error()))
}

func offerLink(o models.Offer) string {
	name := html.EscapeString(o.Name)
	if o.OfferURL == "" {
		return name
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(o.OfferURL), name)
}

func formatPrice(p *models.Price) string {
	if p == nil {
		return "unpriced"
	}
	return html.EscapeString(p.String())
}
