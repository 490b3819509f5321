// Package telegram is the chat surface: commands, keyboard taps and the
// admin tree-upload flow, driven by a long-poll update loop.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	appdialog "github.com/infobot/infobot/internal/application/dialog"
	apppayment "github.com/infobot/infobot/internal/application/payment"
	"github.com/infobot/infobot/internal/domain/dialog"
	domainpayment "github.com/infobot/infobot/internal/domain/payment"
)

const (
	msgGenericFailure  = "Something went wrong, please try again later."
	msgPaymentRequired = "Access to the guide requires a one-time payment. Use the link below to pay; access opens automatically once the payment goes through."
	msgGiftPrompt      = "Send the id of the user who should receive access. They can find it with /myid."
	msgGiftDisabled    = "Payments are currently disabled, gifting is unavailable."
	msgGrantUsage      = "Usage: /grant <id> [<id>...]"
	msgNotAuthorized   = "This command is for administrators only."
	msgReloadStarted   = "Loading the new dialog tree file."
	msgReloadDone      = "Dialog tree file loaded."
)

// Bot wires the Telegram transport to the dialog registry and the payment
// coordinator.
type Bot struct {
	api      *tgbotapi.BotAPI
	registry *dialog.Registry
	payments *apppayment.Service
	reload   *appdialog.Service
	http     *resty.Client
	admins   map[int64]struct{}
	greeting string
	logger   zerolog.Logger
}

// NewBot creates the chat surface.
func NewBot(api *tgbotapi.BotAPI, registry *dialog.Registry, payments *apppayment.Service, reload *appdialog.Service, admins []int64, greeting string, logger zerolog.Logger) *Bot {
	adminSet := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		adminSet[id] = struct{}{}
	}
	return &Bot{
		api:      api,
		registry: registry,
		payments: payments,
		reload:   reload,
		http:     resty.New(),
		admins:   adminSet,
		greeting: greeting,
		logger:   logger.With().Str("component", "telegram").Logger(),
	}
}

// Run consumes updates until the context is cancelled. Each update is
// handled on its own goroutine so a slow provider call for one user never
// blocks the loop for others.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("update handler panicked")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Document != nil:
		b.handleDocument(ctx, update.Message)
	case update.Message != nil:
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "myid":
		b.send(msg.Chat.ID, fmt.Sprintf("Your id: %d", msg.Chat.ID))
	case "gift":
		b.handleGift(ctx, msg)
	case "grant":
		b.handleGrant(ctx, msg)
	}
}

// handleStart renders the tree root for paid users and the payment link for
// everyone else.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.Chat.ID, 10)
	paid, err := b.payments.IsPaid(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("access check failed")
		b.send(msg.Chat.ID, msgGenericFailure)
		return
	}
	if paid {
		if b.greeting != "" {
			b.send(msg.Chat.ID, b.greeting)
		}
		tree := b.registry.Current()
		b.sendNode(msg.Chat.ID, tree, tree.Root())
		return
	}

	url, err := b.confirmationURL(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("payment creation failed")
		b.send(msg.Chat.ID, msgGenericFailure)
		return
	}
	b.send(msg.Chat.ID, msgPaymentRequired+"\n\n"+url)
}

// confirmationURL reuses the pending payment's link when one exists so a
// re-tapped /start never creates a duplicate payment.
func (b *Bot) confirmationURL(ctx context.Context, userID string) (string, error) {
	rec, found, err := b.payments.AccessState(ctx, userID)
	if err != nil {
		return "", err
	}
	if found && rec.ConfirmationURL != "" {
		return rec.ConfirmationURL, nil
	}
	return b.payments.Begin(ctx, userID, userID)
}

func (b *Bot) handleGift(ctx context.Context, msg *tgbotapi.Message) {
	if !b.payments.Enabled() {
		b.send(msg.Chat.ID, msgGiftDisabled)
		return
	}
	userID := strconv.FormatInt(msg.Chat.ID, 10)
	if err := b.payments.SetMode(ctx, userID, domainpayment.ModeAwaitingTargetID); err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("gift mode not set")
		b.send(msg.Chat.ID, msgGenericFailure)
		return
	}
	b.send(msg.Chat.ID, msgGiftPrompt)
}

func (b *Bot) handleGrant(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.Chat.ID) {
		b.send(msg.Chat.ID, msgNotAuthorized)
		return
	}
	ids := strings.Fields(msg.CommandArguments())
	if len(ids) == 0 {
		b.send(msg.Chat.ID, msgGrantUsage)
		return
	}
	if err := b.payments.Grant(ctx, ids); err != nil {
		b.logger.Error().Err(err).Msg("grant failed")
		b.send(msg.Chat.ID, msgGenericFailure)
		return
	}
	b.send(msg.Chat.ID, fmt.Sprintf("Granted access to %d user(s).", len(ids)))
}

// handleText finishes the gifting flow: while a user is awaiting a target
// id, their next plain message names the gift recipient.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.Chat.ID, 10)
	mode, err := b.payments.ModeOf(ctx, userID)
	if err != nil || mode != domainpayment.ModeAwaitingTargetID {
		return
	}
	if err := b.payments.SetMode(ctx, userID, domainpayment.ModeNone); err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("gift mode not cleared")
	}

	target := strings.TrimSpace(msg.Text)
	if _, err := strconv.ParseInt(target, 10, 64); err != nil {
		b.send(msg.Chat.ID, "That does not look like a user id. Start over with /gift.")
		return
	}

	url, err := b.payments.Begin(ctx, userID, target)
	switch {
	case errors.Is(err, apppayment.ErrAlreadyPaid):
		b.send(msg.Chat.ID, "That user already has full access.")
	case err != nil:
		b.logger.Error().Err(err).Str("responsible", userID).Str("target", target).Msg("gift payment failed")
		b.send(msg.Chat.ID, msgGenericFailure)
	default:
		b.send(msg.Chat.ID, "Pay with the link below; the recipient gets access automatically.\n\n"+url)
	}
}

// handleCallback resolves a keyboard tap against the live tree generation.
// Stale or unknown tokens show nothing; they are not errors.
func (b *Bot) handleCallback(ctx context.Context, call *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(call.ID, "")); err != nil {
		b.logger.Warn().Err(err).Msg("callback ack failed")
	}

	userID := strconv.FormatInt(call.Message.Chat.ID, 10)
	paid, err := b.payments.IsPaid(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Str("user", userID).Msg("access check failed")
		b.send(call.Message.Chat.ID, msgGenericFailure)
		return
	}
	if !paid {
		url, err := b.confirmationURL(ctx, userID)
		if err != nil {
			b.send(call.Message.Chat.ID, msgGenericFailure)
			return
		}
		b.send(call.Message.Chat.ID, msgPaymentRequired+"\n\n"+url)
		return
	}

	tree := b.registry.Current()
	node, ok := tree.NodeByToken(call.Data)
	if !ok {
		b.logger.Info().Str("token", call.Data).Msg("token not found, likely superseded generation")
		return
	}
	b.sendNode(call.Message.Chat.ID, tree, node)
}

// handleDocument runs the admin tree-reload flow for uploaded .txt sources.
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.Chat.ID) {
		return
	}
	doc := msg.Document
	if err := b.reload.ValidateFilename(doc.FileName); err != nil {
		b.send(msg.Chat.ID, err.Error())
		return
	}

	b.send(msg.Chat.ID, msgReloadStarted)
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		b.logger.Error().Err(err).Msg("tree file url lookup failed")
		b.send(msg.Chat.ID, msgGenericFailure)
		return
	}
	resp, err := b.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		b.logger.Error().Err(err).Msg("tree file download failed")
		b.send(msg.Chat.ID, msgGenericFailure)
		return
	}
	defer resp.RawBody().Close()

	if err := b.reload.Reload(resp.RawBody()); err != nil {
		b.send(msg.Chat.ID, fmt.Sprintf("Dialog tree file rejected: %v", err))
		return
	}
	b.send(msg.Chat.ID, msgReloadDone)
}

func (b *Bot) isAdmin(chatID int64) bool {
	_, ok := b.admins[chatID]
	return ok
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error().Err(err).Int64("chat", chatID).Msg("message send failed")
	}
}
