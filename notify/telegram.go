package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"food-marketplace-api/models"
)

// TelegramAlerter pushes new-order alerts to the vendor's Telegram chat
type TelegramAlerter struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramAlerter(token string) (*TelegramAlerter, error) {
	return NewTelegramAlerterWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewTelegramAlerterWithEndpoint lets tests point the bot at a fake API
func NewTelegramAlerterWithEndpoint(token, endpoint string) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram bot: %w", err)
	}
	return &TelegramAlerter{bot: bot}, nil
}

func (a *TelegramAlerter) NewOrder(_ context.Context, vendor *models.Vendor, order *models.Order) error {
	// vendor has not linked a chat
	if vendor.TelegramChatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(vendor.TelegramChatID, newOrderText(vendor, order))
	if _, err := a.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	return nil
}
