package bot

import (
	"fmt"
	"strconv"
	"strings"

	"nft-scraper/db"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// noValue clears an optional setting
const noValue = "none"

// setting is one user-configurable value with its preset choices
type setting struct {
	key     string
	label   string
	choices []string
}

var settings = []setting{
	{"result_size", "📄 Result Size", []string{"5", "10", "20", "50", "100"}},
	{"ranking_pages", "📑 Ranking Pages", []string{"1", "2", "3", "5", "10"}},
	{"min_price", "💰 Min Price", []string{noValue, "0.01", "0.1", "0.5", "1"}},
	{"max_price", "💰 Max Price", []string{noValue, "0.5", "1", "5", "10"}},
	{"currency", "🪙 Currency", []string{noValue, "ETH", "WETH"}},
}

func findSetting(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

// callback data is "config:<key>", "config:back" or "set:<key>:<value>"
func parseCallback(data string) (action, key, value string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	switch {
	case len(parts) == 2 && parts[0] == "config":
		return parts[0], parts[1], "", true
	case len(parts) == 3 && parts[0] == "set":
		return parts[0], parts[1], parts[2], true
	default:
		return "", "", "", false
	}
}

// applySetting converts a chosen value into a config update
func applySetting(key, value string) (db.UserConfigUpdate, string, error) {
	var update db.UserConfigUpdate
	s, ok := findSetting(key)
	if !ok {
		return update, "", fmt.Errorf("unknown config type: %s", key)
	}

	switch key {
	case "result_size", "ranking_pages":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return update, "", fmt.Errorf("invalid value: %s", value)
		}
		if key == "result_size" {
			update.ResultSize = &n
		} else {
			update.RankingPages = &n
		}
	case "min_price", "max_price":
		var price decimal.NullDecimal
		if value != noValue {
			d, err := decimal.NewFromString(value)
			if err != nil || d.IsNegative() {
				return update, "", fmt.Errorf("invalid value: %s", value)
			}
			price = decimal.NullDecimal{Decimal: d, Valid: true}
		}
		if key == "min_price" {
			update.MinPrice = &price
		} else {
			update.MaxPrice = &price
		}
	case "currency":
		currency := ""
		if value != noValue {
			currency = strings.ToUpper(value)
		}
		update.Currency = &currency
	}
	return update, fmt.Sprintf("✅ %s updated to %s", s.label, value), nil
}

func formatConfig(cfg *db.UserConfig) string {
	return fmt.Sprintf(
		"⚙️ Current Configuration:\n\n"+
			"📄 Result Size: %d\n"+
			"📑 Ranking Pages: %d\n"+
			"💰 Min Price: %s\n"+
			"💰 Max Price: %s\n"+
			"🪙 Currency: %s\n\n"+
			"Click buttons below to change values:",
		cfg.ResultSize, cfg.RankingPages, formatBound(cfg.MinPrice), formatBound(cfg.MaxPrice), orNone(cfg.Currency))
}

func formatBound(d decimal.NullDecimal) string {
	if !d.Valid {
		return noValue
	}
	return d.Decimal.String()
}

func orNone(s string) string {
	if s == "" {
		return noValue
	}
	return s
}

func configKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range settings {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.label, "config:"+s.key),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func choicesKeyboard(s setting) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, choice := range s.choices {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(choice, "set:"+s.key+":"+choice))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(buttons...),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "config:back")),
	)
}
