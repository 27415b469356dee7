package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"nft-scraper/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const maxSheetNameLength = 100

var (
	offerHeader   = []any{"Position", "Name", "Token ID", "Price", "Currency", "Contract", "Link", "Image"}
	rankingHeader = []any{"Rank", "Collection", "Slug", "Floor Price", "Currency", "Thumbnail"}
)

// Writer handles writing extraction results to Google Sheets
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewWriter creates a new Google Sheets writer
func NewWriter(ctx context.Context, spreadsheetID string, credentialsPath string) (*Writer, error) {
	credsJSON, err := loadCredentials(credentialsPath)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// loadCredentials reads service account credentials from the file or the
// GOOGLE_SHEETS_CREDENTIALS environment variable
func loadCredentials(credentialsPath string) ([]byte, error) {
	var credsJSON []byte
	if credentialsPath != "" {
		data, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		slog.Debug("reading sheets credentials from environment", "bytes", len(credsEnv))
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]any
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}
	return credsJSON, nil
}

// CreateSheetAndWriteOffers creates a new sheet at the front of the spreadsheet
// and writes the offers to it. url and filterInfo are optional metadata for the first row.
// Returns the sheet name and sheet ID (gid) that was created.
func (w *Writer) CreateSheetAndWriteOffers(ctx context.Context, sheetName string, offers []models.Offer, url, filterInfo string) (string, int64, error) {
	return w.createSheetAndWrite(ctx, sheetName, OfferRows(offers, url, filterInfo))
}

// CreateSheetAndWriteRankings creates a new sheet and writes the ranking entries to it
func (w *Writer) CreateSheetAndWriteRankings(ctx context.Context, sheetName string, entries []models.RankingEntry, url string) (string, int64, error) {
	return w.createSheetAndWrite(ctx, sheetName, RankingRows(entries, url))
}

func (w *Writer) createSheetAndWrite(ctx context.Context, sheetName string, values [][]any) (string, int64, error) {
	sheetName = sanitizeSheetName(sheetName)

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
					},
				},
			},
		},
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	slog.Info("created sheet", "sheet", sheetName, "gid", sheetID)

	valueRange := &sheets.ValueRange{Values: values}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, a1Start(sheetName), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	slog.Info("wrote rows to sheet", "sheet", sheetName, "rows", len(values))
	return sheetName, sheetID, nil
}

// SheetURL returns the browser link of a sheet
func (w *Writer) SheetURL(sheetID int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", w.spreadsheetID, sheetID)
}

// OfferRows builds the sheet rows for offers, with an optional metadata row
func OfferRows(offers []models.Offer, url, filterInfo string) [][]any {
	values := metadataRows(url, filterInfo)
	values = append(values, offerHeader)
	for i, o := range offers {
		amount, currency := priceCells(o.Price)
		values = append(values, []any{
			i + 1,
			o.Name,
			o.TokenID,
			amount,
			currency,
			o.AssetContractAddress,
			o.OfferURL,
			o.DisplayImageURL,
		})
	}
	return values
}

// RankingRows builds the sheet rows for ranking entries
func RankingRows(entries []models.RankingEntry, url string) [][]any {
	values := metadataRows(url, "")
	values = append(values, rankingHeader)
	for _, e := range entries {
		amount, currency := priceCells(e.FloorPrice)
		values = append(values, []any{
			e.Rank,
			e.Name,
			e.Slug,
			amount,
			currency,
			e.ThumbnailURL,
		})
	}
	return values
}

func metadataRows(url, filterInfo string) [][]any {
	if url == "" && filterInfo == "" {
		return nil
	}
	row := []any{"URL", url}
	if filterInfo != "" {
		row = append(row, "Filters", filterInfo)
	}
	return [][]any{row}
}

// priceCells returns an amount cell and a currency cell, both blank when unpriced
func priceCells(p *models.Price) (any, string) {
	if p == nil {
		return "", ""
	}
	return p.Amount.InexactFloat64(), p.Currency
}

// SheetTitle names a result sheet after its target and the run time
func SheetTitle(label string, t time.Time) string {
	return fmt.Sprintf("%s %s", label, t.Format("2006-01-02 15:04"))
}

// a1Start returns the A1 range of the first cell of a sheet
func a1Start(sheetName string) string {
	return fmt.Sprintf("'%s'!A1", strings.ReplaceAll(sheetName, "'", "''"))
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ] :
	replacer := strings.NewReplacer("/", "_", "\\", "_", "?", "_", "*", "_", "[", "_", "]", "_", ":", "_")
	result := strings.TrimSpace(replacer.Replace(name))
	if runes := []rune(result); len(runes) > maxSheetNameLength {
		result = strings.TrimSpace(string(runes[:maxSheetNameLength]))
	}
	if result == "" {
		result = "Sheet1"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
// A bare ID is returned unchanged.
func ExtractSpreadsheetID(url string) string {
	url = strings.TrimSpace(url)
	if !strings.Contains(url, "/") {
		return url
	}

	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	_, idPart, found := strings.Cut(url, "/d/")
	if !found {
		return ""
	}
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}
	return strings.TrimSpace(idPart)
}
