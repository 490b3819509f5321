package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/infobot/infobot/internal/domain/dialog"
)

// keyboardForNode builds the inline keyboard for a node's choices, one
// button per row, labelled with the child's short text and carrying the
// child's token. Tokens come from the same tree generation as the node so a
// concurrent reload can never mix generations within one keyboard.
func keyboardForNode(tree *dialog.Tree, node *dialog.Node) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(node.Choices))
	for _, choice := range node.Choices {
		token, ok := tree.Token(choice.Path)
		if !ok {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(choice.Node.ShortText, token),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// sendNode renders a node: summary first, then the optional photo, then the
// body with the child keyboard attached to whichever message comes last.
func (b *Bot) sendNode(chatID int64, tree *dialog.Tree, node *dialog.Node) {
	if node.ShortText != "" {
		b.send(chatID, node.ShortText)
	}
	markup := keyboardForNode(tree, node)

	if node.Image != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(node.Image))
		if node.Text == "" {
			photo.ReplyMarkup = markup
		}
		if _, err := b.api.Send(photo); err != nil {
			b.logger.Error().Err(err).Int64("chat", chatID).Msg("photo send failed")
		}
		if node.Text == "" {
			return
		}
	}
	if node.Text == "" {
		return
	}

	text := tgbotapi.NewMessage(chatID, node.Text)
	text.ParseMode = tgbotapi.ModeMarkdownV2
	text.ReplyMarkup = markup
	if _, err := b.api.Send(text); err != nil {
		b.logger.Error().Err(err).Int64("chat", chatID).Msg("node send failed")
	}
}
