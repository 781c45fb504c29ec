package smsverify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatResolver maps a phone number to the Telegram chat that registered it.
// Returning an error fails the dispatch; the stored code stays valid.
type ChatResolver func(phone string) (int64, error)

// TelegramGateway delivers verification messages over a Telegram bot instead
// of an SMS carrier. Useful for development and for channels where SMS
// delivery is unavailable; the engine treats it like any other [SmsGateway].
type TelegramGateway struct {
	bot     *tgbotapi.BotAPI
	resolve ChatResolver
}

// NewTelegramGateway describes the newtelegramgateway operation and its observable behavior.
//
// NewTelegramGateway may return an error when input validation, dependency calls, or security checks fail.
// NewTelegramGateway does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewTelegramGateway(botToken string, resolve ChatResolver) (*TelegramGateway, error) {
	if resolve == nil {
		return nil, fmt.Errorf("%w: chat resolver required", ErrGatewayNotConfigured)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayNotConfigured, err)
	}

	return &TelegramGateway{
		bot:     bot,
		resolve: resolve,
	}, nil
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *TelegramGateway) Send(ctx context.Context, phone, message string) (SmsReceipt, error) {
	if err := ctx.Err(); err != nil {
		return SmsReceipt{}, err
	}

	chatID, err := g.resolve(phone)
	if err != nil {
		return SmsReceipt{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	sent, err := g.bot.Send(tgbotapi.NewMessage(chatID, message))
	if err != nil {
		return SmsReceipt{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	return SmsReceipt{MessageID: strconv.Itoa(sent.MessageID)}, nil
}
