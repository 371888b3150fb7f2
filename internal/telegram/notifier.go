package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/set-night/earnhub/internal/config"
	"github.com/set-night/earnhub/internal/domain"
)

const maxMessageLen = 4096

// Notifier mirrors operational events into a Telegram chat with per-event
// forum topics. Disabled entirely when no log chat is configured.
type Notifier struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewNotifier(b *bot.Bot, cfg *config.Config) *Notifier {
	return &Notifier{bot: b, cfg: cfg}
}

type EventType string

const (
	EventError        EventType = "error"
	EventRegistration EventType = "registration"
	EventTaskReward   EventType = "taskReward"
	EventWithdrawal   EventType = "withdrawal"
	EventPromo        EventType = "promo"
)

func (n *Notifier) Notify(event EventType, message string) {
	if n == nil || n.bot == nil || n.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := n.topicID(event)
	if topicID == 0 {
		return
	}

	if len([]rune(message)) > maxMessageLen {
		message = string([]rune(message)[:maxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          n.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       "Markdown",
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram notification", "event", event, "error", err)
	}
}

func (n *Notifier) NotifyError(err error, context string) {
	n.Notify(EventError, fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`", context, err.Error()))
}

func (n *Notifier) NotifyRegistration(telegramID int64, name, username string, referred bool) {
	msg := fmt.Sprintf("👤 *New Account*\n\n*ID:* `%d`\n*Name:* %s\n*Username:* @%s", telegramID, name, username)
	if referred {
		msg += "\n*Referred:* yes"
	}
	n.Notify(EventRegistration, msg)
}

func (n *Notifier) NotifyTaskApproved(telegramID, taskID, reward int64) {
	n.Notify(EventTaskReward, fmt.Sprintf("💰 *Task Approved*\n\n*User:* `%d`\n*Task:* `%d`\n*Reward:* %d pts",
		telegramID, taskID, reward))
}

func (n *Notifier) NotifyWithdrawalRequested(telegramID int64, w *domain.WithdrawalRequest) {
	n.Notify(EventWithdrawal, fmt.Sprintf("🏦 *Withdrawal Requested*\n\n*User:* `%d`\n*Ref:* `%s`\n*Amount:* %d pts\n*Payout:* %s %s",
		telegramID, w.Reference, w.AmountRequested, w.FinalAmount.StringFixed(2), w.Currency))
}

func (n *Notifier) NotifyWithdrawalResolved(w *domain.WithdrawalRequest) {
	n.Notify(EventWithdrawal, fmt.Sprintf("🏦 *Withdrawal %s*\n\n*Ref:* `%s`\n*Amount:* %d pts",
		w.Status, w.Reference, w.AmountRequested))
}

func (n *Notifier) NotifyPromoActivated(telegramID int64, code string, amount int64) {
	n.Notify(EventPromo, fmt.Sprintf("🎟 *Promo Activated*\n\n*User:* `%d`\n*Code:* `%s`\n*Amount:* %d pts",
		telegramID, code, amount))
}

func (n *Notifier) NotifyPostbackDropped(partnerName, trackingID string) {
	n.Notify(EventError, fmt.Sprintf("⚠️ *Postback Dropped*\n\n*Partner:* %s\n*Tracking:* `%s`\n\nNo completion matches this tracking id.",
		partnerName, trackingID))
}

func (n *Notifier) topicID(event EventType) int {
	switch event {
	case EventError:
		return n.cfg.LogTopicError
	case EventRegistration:
		return n.cfg.LogTopicRegistration
	case EventTaskReward:
		return n.cfg.LogTopicTaskReward
	case EventWithdrawal:
		return n.cfg.LogTopicWithdrawal
	case EventPromo:
		return n.cfg.LogTopicPromo
	default:
		return 0
	}
}
