package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/infobot/infobot/internal/domain/payment"
)

// Notifier delivers payment outcome messages. It is a separate thin type so
// the payment coordinator can be constructed before the full bot.
type Notifier struct {
	api *tgbotapi.BotAPI
}

// NewNotifier creates a notifier over the bot API.
func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// PaymentConfirmed tells a self-paying user their access is open.
func (n *Notifier) PaymentConfirmed(_ context.Context, userID string) error {
	return n.send(userID, "Payment received — you now have full access. Send /start to open the guide.")
}

// GiftConfirmed thanks the payer and welcomes the recipient separately.
func (n *Notifier) GiftConfirmed(ctx context.Context, responsibleID, targetID string) error {
	if err := n.send(responsibleID, "Thank you! Your gift payment went through and the recipient now has access."); err != nil {
		return err
	}
	return n.send(targetID, "You have been gifted full access. Send /start to open the guide.")
}

// PaymentFailed tells the payer the payment did not complete.
func (n *Notifier) PaymentFailed(_ context.Context, userID string, kind payment.EventKind) error {
	return n.send(userID, fmt.Sprintf("The payment was not completed (%s). You can try again with /start.", kind))
}

func (n *Notifier) send(userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("notify %q: not a chat id", userID)
	}
	_, err = n.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
