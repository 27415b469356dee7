package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"nft-scraper/db"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "Commands:\n" +
	"/offers <slug|url> [count] - Cheapest buy-now offers of a collection\n" +
	"/rankings [pages] - Collections ranked by total volume\n" +
	"/floor <slug|url> - Cheapest ETH listing of a collection\n" +
	"/info <slug> - Collection details\n" +
	"/status - Your latest requests\n" +
	"/config - Configure result size and price filter\n" +
	"/help - Show this help\n\n" +
	"You can also send a collection URL to get its offers. Results are added to Google Sheets."

// Sender is the part of the bot API the handlers use
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Store persists user settings and queues runs
type Store interface {
	GetUserConfig(ctx context.Context, userID int64) (*db.UserConfig, error)
	UpdateUserConfig(ctx context.Context, userID int64, update db.UserConfigUpdate) error
	CreateRun(ctx context.Context, userID, chatID int64, messageID int, kind db.RunKind, target string, size int) (*db.Run, error)
	ListRuns(ctx context.Context, userID int64, limit int) ([]db.Run, error)
}

// Bot handles Telegram updates
type Bot struct {
	api            Sender
	store          Store
	allowed        map[int64]bool // empty allows everyone
	spreadsheetURL string
}

// New creates a new Bot
func New(api Sender, store Store, allowedUserIDs []int64, spreadsheetURL string) *Bot {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	if len(allowed) == 0 {
		slog.Warn("no allowed user ids configured, the bot accepts everyone")
	}
	return &Bot{
		api:            api,
		store:          store,
		allowed:        allowed,
		spreadsheetURL: spreadsheetURL,
	}
}

// Run handles updates until ctx is done or the channel closes
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.Handle(ctx, update)
		}
	}
}

func (b *Bot) authorized(userID int64) bool {
	return len(b.allowed) == 0 || b.allowed[userID]
}

// Handle processes a single update
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if !b.authorized(cb.From.ID) {
			slog.Warn("unauthorized user attempted to use callback", "user", cb.From.ID)
			b.request(tgbotapi.NewCallback(cb.ID, "Sorry, you are not authorized."))
			return
		}
		if cb.Message != nil {
			b.handleCallback(ctx, cb)
		}
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	if !b.authorized(msg.From.ID) {
		slog.Warn("unauthorized user attempted to use bot", "user", msg.From.ID)
		b.reply(chatID, "Sorry, you are not authorized to use this bot.")
		return
	}

	if !msg.IsCommand() {
		req, err := ParseText(msg.Text)
		if err != nil {
			b.reply(chatID, err.Error())
			return
		}
		b.enqueue(ctx, msg, req)
		return
	}

	switch command := msg.Command(); command {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.reply(chatID, helpText)
	case "config":
		b.handleConfig(ctx, msg)
	case "status":
		b.handleStatus(ctx, msg)
	default:
		req, err := ParseCommand(command, msg.CommandArguments())
		if err != nil {
			b.reply(chatID, err.Error())
			return
		}
		if req == nil {
			b.reply(chatID, "Unknown command. Use /help for available commands.")
			return
		}
		b.enqueue(ctx, msg, req)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.store.GetUserConfig(ctx, msg.From.ID); err != nil {
		slog.Warn("failed to initialize user config", "user", msg.From.ID, "error", err)
	}
	b.reply(msg.Chat.ID, "Welcome! Send /offers <collection> to get the cheapest listings, or /help for all commands.")

	if b.spreadsheetURL == "" {
		return
	}
	sent, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "📊 Spreadsheet: "+b.spreadsheetURL))
	if err != nil {
		slog.Warn("failed to send spreadsheet link", "error", err)
		return
	}
	b.request(tgbotapi.PinChatMessageConfig{
		ChatID:    msg.Chat.ID,
		MessageID: sent.MessageID,
	})
}

func (b *Bot) handleConfig(ctx context.Context, msg *tgbotapi.Message) {
	cfg, err := b.store.GetUserConfig(ctx, msg.From.ID)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Error loading config: %v", err))
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, formatConfig(cfg))
	out.ReplyMarkup = configKeyboard()
	b.send(out)
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	runs, err := b.store.ListRuns(ctx, msg.From.ID, 5)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Error loading requests: %v", err))
		return
	}
	b.reply(msg.Chat.ID, formatStatus(runs))
}

func (b *Bot) enqueue(ctx context.Context, msg *tgbotapi.Message, req *Request) {
	ack := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("📝 Request received: %s. It has been queued and will be processed shortly.", req.Describe()))
	ack.ReplyToMessageID = msg.MessageID
	sent, err := b.api.Send(ack)
	if err != nil {
		slog.Error("failed to send processing message", "error", err)
		return
	}

	run, err := b.store.CreateRun(ctx, msg.From.ID, msg.Chat.ID, sent.MessageID, req.Kind, req.Target, req.Size)
	if err != nil {
		slog.Error("failed to create run", "user", msg.From.ID, "error", err)
		b.send(tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, fmt.Sprintf("❌ Error: Failed to create request: %v", err)))
		return
	}
	slog.Info("queued run", "run", run.ID, "user", msg.From.ID, "kind", run.Kind)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.request(tgbotapi.NewCallback(cb.ID, ""))

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	action, key, value, ok := parseCallback(cb.Data)
	if !ok {
		return
	}

	var status string
	if action == "set" {
		update, text, err := applySetting(key, value)
		if err != nil {
			b.reply(chatID, err.Error())
			return
		}
		if err := b.store.UpdateUserConfig(ctx, cb.From.ID, update); err != nil {
			b.reply(chatID, fmt.Sprintf("❌ Error updating config: %v", err))
			return
		}
		status = text
		key = "back"
	}

	if key != "back" {
		s, found := findSetting(key)
		if !found {
			return
		}
		cfg, err := b.store.GetUserConfig(ctx, cb.From.ID)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Error loading config: %v", err))
			return
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			fmt.Sprintf("%s\n\nCurrent: %s\n\nSelect new value:", s.label, currentValue(cfg, key)),
			choicesKeyboard(s))
		b.send(edit)
		return
	}

	cfg, err := b.store.GetUserConfig(ctx, cb.From.ID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error loading config: %v", err))
		return
	}
	text := formatConfig(cfg)
	if status != "" {
		text = status + "\n\n" + text
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, configKeyboard()))
}

func currentValue(cfg *db.UserConfig, key string) string {
	switch key {
	case "result_size":
		return fmt.Sprint(cfg.ResultSize)
	case "ranking_pages":
		return fmt.Sprint(cfg.RankingPages)
	case "min_price":
		return formatBound(cfg.MinPrice)
	case "max_price":
		return formatBound(cfg.MaxPrice)
	default:
		return orNone(cfg.Currency)
	}
}

func formatStatus(runs []db.Run) string {
	if len(runs) == 0 {
		return "No requests yet."
	}
	var b strings.Builder
	b.WriteString("Your latest requests:\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "\n#%d %s", r.ID, r.Kind)
		if r.Target != "" {
			fmt.Fprintf(&b, " %s", r.Target)
		}
		fmt.Fprintf(&b, ": %s", r.Status)
		if r.Status == db.StatusDone {
			fmt.Fprintf(&b, " (%d records)", r.RecordsCount)
		}
		if r.LastError.Valid {
			fmt.Fprintf(&b, " (%s)", r.LastError.String)
		}
	}
	return b.String()
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		slog.Warn("failed to send message", "error", err)
	}
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		slog.Warn("failed to send request", "error", err)
	}
}
