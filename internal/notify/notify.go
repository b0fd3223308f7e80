package notify

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smmpanel/internal/pkg/telegram"
)

// EventKind tags what happened.
type EventKind string

const (
	EventDepositCredited EventKind = "deposit_credited"
	EventDepositFailed   EventKind = "deposit_failed"
	EventOrderPlaced     EventKind = "order_placed"
)

// Event is a post-commit notification. Delivery is best-effort: publishers
// never fail the financial transaction that produced the event.
type Event struct {
	Kind    EventKind
	UserID  uint
	Amount  decimal.Decimal
	Message string
}

// Publisher delivers events to an external channel.
type Publisher interface {
	Publish(event Event)
}

// TelegramPublisher pushes events to an admin chat via the Bot API.
type TelegramPublisher struct {
	bot    *telegram.BotAPI
	chatID string
	logger *zap.Logger
}

func NewTelegramPublisher(bot *telegram.BotAPI, chatID string, logger *zap.Logger) *TelegramPublisher {
	return &TelegramPublisher{bot: bot, chatID: chatID, logger: logger}
}

func (p *TelegramPublisher) Publish(event Event) {
	text := fmt.Sprintf("<b>%s</b>\nuser #%d, amount %s\n%s",
		event.Kind, event.UserID, event.Amount.StringFixed(2), event.Message)
	if _, err := p.bot.SendMessage(p.chatID, text); err != nil {
		p.logger.Warn("telegram notify failed",
			zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

// LogPublisher writes events to the service log. Used when no Telegram
// credentials are configured, and as the test double.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(event Event) {
	p.logger.Info("event",
		zap.String("kind", string(event.Kind)),
		zap.Uint("user_id", event.UserID),
		zap.String("amount", event.Amount.StringFixed(2)),
		zap.String("message", event.Message))
}
