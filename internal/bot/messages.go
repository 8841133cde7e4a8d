package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// The chat medium has no "replace current screen" primitive, so the bot
// tracks what it has sent per session and edits or deletes those messages to
// approximate one. Messages fall into three roles: the main interactive
// message, the navigation message, and wizard prompts.

// send delivers a message and logs failures.
func (b *Bot) send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	sent, err := b.client.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
	return sent, err
}

// sendMain sends a message and records it as the session's main message.
func (b *Bot) sendMain(sess *Session, msg tgbotapi.MessageConfig) {
	sent, err := b.send(msg)
	if err != nil {
		return
	}
	sess.Messages.MainID = sent.MessageID
}

// sendWizard sends a message and records it as a wizard prompt for cleanup.
func (b *Bot) sendWizard(sess *Session, msg tgbotapi.MessageConfig) {
	sent, err := b.send(msg)
	if err != nil {
		return
	}
	sess.Messages.WizardIDs = append(sess.Messages.WizardIDs, sent.MessageID)
}

// replaceNav edits the session's navigation message in place. An edit that
// Telegram rejects because nothing changed counts as success; any other
// failure falls back to sending a fresh message and re-recording it.
func (b *Bot) replaceNav(sess *Session, chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	if sess.Messages.NavID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, sess.Messages.NavID, text, markup)
		_, err := b.client.Request(edit)
		if err == nil {
			return
		}
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		b.logger.Warn("Failed to edit navigation message, sending a new one",
			zap.Int("message_id", sess.Messages.NavID),
			zap.Error(err),
		)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	sent, err := b.send(msg)
	if err != nil {
		return
	}
	sess.Messages.NavID = sent.MessageID
}

// deleteMessage removes a message best-effort; failures (e.g. the message is
// already gone) are logged and swallowed.
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.client.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Debug("Failed to delete message",
			zap.Int("message_id", messageID),
			zap.Error(err),
		)
	}
}

// cleanSlate deletes every tracked message for the session and clears the
// registry. Used when a fresh top-level interaction starts.
func (b *Bot) cleanSlate(sess *Session, chatID int64) {
	b.deleteMessage(chatID, sess.Messages.MainID)
	b.deleteMessage(chatID, sess.Messages.NavID)
	for _, id := range sess.Messages.WizardIDs {
		b.deleteMessage(chatID, id)
	}
	sess.Messages = messageRegistry{}
}

// answerCallback dismisses a button's loading spinner, optionally showing a
// toast. Failures never abort the surrounding flow.
func (b *Bot) answerCallback(queryID, text string) {
	if _, err := b.client.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		b.logger.Debug("Failed to answer callback query", zap.Error(err))
	}
}
