package sheets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nft-scraper/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"edit link", "https://docs.google.com/spreadsheets/d/abc123/edit", "abc123"},
		{"sharing link", "https://docs.google.com/spreadsheets/d/abc123/edit?usp=sharing", "abc123"},
		{"fragment", "https://docs.google.com/spreadsheets/d/abc123#gid=0", "abc123"},
		{"bare id", "abc123", "abc123"},
		{"unrelated url", "https://example.com/sheet", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSpreadsheetID(tt.url))
		})
	}
}

func TestSanitizeSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c_d", sanitizeSheetName("a/b[c]d"))
	assert.Equal(t, "azuki 2026-01-02 10_30", sanitizeSheetName(" azuki 2026-01-02 10:30 "))
	assert.Equal(t, "Sheet1", sanitizeSheetName("  "))

	long := sanitizeSheetName(strings.Repeat("é", 150))
	assert.Equal(t, maxSheetNameLength, len([]rune(long)))
}

func TestA1Start(t *testing.T) {
	assert.Equal(t, "'azuki sheet'!A1", a1Start("azuki sheet"))
	assert.Equal(t, "'bob''s'!A1", a1Start("bob's"))
}

func TestSheetTitle(t *testing.T) {
	ts := time.Date(2026, 3, 4, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "azuki 2026-03-04 09:05", SheetTitle("azuki", ts))
}

func TestOfferRows(t *testing.T) {
	offers := []models.Offer{
		{
			Name:                 "Azuki #1",
			TokenID:              "1",
			AssetContractAddress: "0xabc",
			OfferURL:             "https://opensea.io/assets/0xabc/1",
			Price:                &models.Price{Amount: decimal.RequireFromString("1.5"), Currency: "ETH"},
		},
		{Name: "Azuki #2"},
	}

	rows := OfferRows(offers, "https://opensea.io/collection/azuki", "min 1 ETH")
	require.Len(t, rows, 4)
	assert.Equal(t, []any{"URL", "https://opensea.io/collection/azuki", "Filters", "min 1 ETH"}, rows[0])
	assert.Equal(t, offerHeader, rows[1])
	assert.Equal(t, []any{1, "Azuki #1", "1", 1.5, "ETH", "0xabc", "https://opensea.io/assets/0xabc/1", ""}, rows[2])
	assert.Equal(t, []any{2, "Azuki #2", "", "", "", "", "", ""}, rows[3])
}

func TestOfferRowsWithoutMetadata(t *testing.T) {
	rows := OfferRows(nil, "", "")
	require.Len(t, rows, 1)
	assert.Equal(t, offerHeader, rows[0])
}

func TestRankingRows(t *testing.T) {
	entries := []models.RankingEntry{
		{Rank: 1, Name: "Azuki", Slug: "azuki", FloorPrice: &models.Price{Amount: decimal.NewFromInt(7), Currency: "ETH"}},
		{Rank: 2, Name: "Doodles", Slug: "doodles-official", ThumbnailURL: "https://img/d.png"},
	}
	rows := RankingRows(entries, "https://opensea.io/rankings")
	require.Len(t, rows, 4)
	assert.Equal(t, []any{"URL", "https://opensea.io/rankings"}, rows[0])
	assert.Equal(t, []any{1, "Azuki", "azuki", 7.0, "ETH", ""}, rows[2])
	assert.Equal(t, []any{2, "Doodles", "doodles-official", "", "", "https://img/d.png"}, rows[3])
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"type":"service_account","project_id":"p"}`), 0o600))
	data, err := loadCredentials(valid)
	require.NoError(t, err)
	assert.Contains(t, string(data), "service_account")

	user := filepath.Join(dir, "user.json")
	require.NoError(t, os.WriteFile(user, []byte(`{"type":"authorized_user"}`), 0o600))
	_, err = loadCredentials(user)
	assert.ErrorContains(t, err, "service account")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0o600))
	_, err = loadCredentials(broken)
	assert.ErrorContains(t, err, "invalid credentials JSON")

	_, err = loadCredentials(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read credentials file")

	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", "  {\"type\":\"service_account\"}\n")
	data, err = loadCredentials("")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(data))

	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", "")
	_, err = loadCredentials("")
	assert.ErrorContains(t, err, "credentials not found")
}
