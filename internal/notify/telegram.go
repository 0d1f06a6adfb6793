package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier delivers alerts to Telegram chats. Recipients are chat
// ids in decimal form.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewTelegramNotifier(token string, logger *zap.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logger.Info("telegram notifier authorized", zap.String("username", bot.Self.UserName))
	return &TelegramNotifier{bot: bot, logger: logger}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, subject, message string, recipients []string) error {
	text := subject + "\n\n" + message
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return &DeliveryError{Transport: "telegram", Err: err}
		}
		chatID, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			return &DeliveryError{Transport: "telegram", Err: fmt.Errorf("bad chat id %q: %w", r, err)}
		}
		if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			return &DeliveryError{Transport: "telegram", Err: err}
		}
	}
	n.logger.Info("alert sent to telegram", zap.Int("recipients", len(recipients)))
	return nil
}
