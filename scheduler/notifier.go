package scheduler

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLength is the Telegram limit for one text message
const maxMessageLength = 4096

// Notifier delivers run progress to the chat that queued the run
type Notifier interface {
	Notify(chatID int64, replyTo int, text string)
}

// TelegramNotifier sends HTML replies through the bot API
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier creates a new TelegramNotifier
func NewTelegramNotifier(bot *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

// Notify sends text as a reply to replyTo, or as a plain message when replyTo is 0
func (n *TelegramNotifier) Notify(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, truncateMessage(text))
	msg.ReplyToMessageID = replyTo
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		slog.Warn("failed to send status update", "chat", chatID, "error", err)
	}
}

func truncateMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLength {
		return text
	}
	return string(runes[:maxMessageLength-1]) + "…"
}
