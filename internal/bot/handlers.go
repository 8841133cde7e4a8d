package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.send(tgbotapi.NewMessage(message.Chat.ID, "An error occurred while processing your request. Please try again."))
		}
	}()

	if message.From == nil || message.Chat == nil || !message.Chat.IsPrivate() {
		return
	}

	ctx := context.Background()
	sess := b.session(message.From.ID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if message.IsCommand() {
		cmd := message.Command()

		if sess.Wizard != nil {
			if cmd == "done" {
				b.completeWizard(ctx, message.Chat.ID, message.From, sess)
				return
			}
			// Any other command abandons the draft.
			sess.Wizard = nil
		}
		sess.Edit = nil

		switch cmd {
		case "start":
			b.handleStart(message, sess)
		case "menu":
			b.cleanSlate(sess, message.Chat.ID)
			b.showMainMenu(message.Chat.ID, sess)
		case "help":
			b.handleHelp(message.Chat.ID, sess)
		case "add":
			b.startAddListing(message.Chat.ID, sess)
		case "browse":
			b.handleBrowse(ctx, message.Chat.ID, sess, 0, true)
		case "listings":
			b.handleListingsIndex(ctx, message.Chat.ID, sess)
		case "mylistings":
			b.handleMyListings(ctx, message.Chat.ID, message.From.ID, sess)
		default:
			b.send(tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /start to see available commands."))
		}
		return
	}

	if sess.Wizard != nil {
		b.handleWizardMessage(ctx, message, sess)
		return
	}
	if sess.Edit != nil && sess.Edit.Field != fieldNone {
		b.handleEditMessage(message, sess)
		return
	}

	// Free text outside any flow shows the menu.
	b.showMainMenu(message.Chat.ID, sess)
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	if query.Message == nil || query.Message.Chat == nil {
		b.answerCallback(query.ID, "")
		return
	}

	ctx := context.Background()
	sess := b.session(query.From.ID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	chatID := query.Message.Chat.ID
	data := query.Data

	switch {
	case data == "menu:main":
		b.answerCallback(query.ID, "")
		b.showMainMenu(chatID, sess)
	case data == "menu:clean":
		b.answerCallback(query.ID, "")
		b.cleanSlate(sess, chatID)
		b.showMainMenu(chatID, sess)
	case data == "menu:browse":
		b.answerCallback(query.ID, "")
		b.handleBrowse(ctx, chatID, sess, 0, true)
	case data == "menu:add":
		b.answerCallback(query.ID, "")
		b.startAddListing(chatID, sess)
	case data == "menu:my":
		b.answerCallback(query.ID, "")
		b.handleMyListings(ctx, chatID, query.From.ID, sess)
	case data == "menu:help":
		b.answerCallback(query.ID, "")
		b.handleHelp(chatID, sess)

	case data == "wizard:cancel":
		b.answerCallback(query.ID, "Cancelled")
		b.cancelWizard(chatID, sess)
	case data == "wizard:skip":
		b.answerCallback(query.ID, "")
		if sess.Wizard != nil {
			b.skipWizardStep(sess, chatID)
		}
	case data == "wizard:done":
		b.answerCallback(query.ID, "")
		b.completeWizard(ctx, chatID, query.From, sess)

	case strings.HasPrefix(data, "browse:"):
		b.answerCallback(query.ID, "")
		page, err := strconv.Atoi(strings.TrimPrefix(data, "browse:"))
		if err != nil {
			return
		}
		b.handleBrowse(ctx, chatID, sess, page, false)
	case strings.HasPrefix(data, "show:"):
		if id, ok := parseID(data, "show:"); ok {
			b.handleShowListing(ctx, query, id, sess)
		}
	case strings.HasPrefix(data, "edit:"):
		if id, ok := parseID(data, "edit:"); ok {
			b.handleEditStart(ctx, query, id, sess)
		}
	case strings.HasPrefix(data, "editfield:"):
		b.handleEditFieldCallback(ctx, query, strings.TrimPrefix(data, "editfield:"), sess)
	case strings.HasPrefix(data, "delete:"):
		if id, ok := parseID(data, "delete:"); ok {
			b.handleDeleteCallback(ctx, query, id, sess)
		}

	default:
		b.answerCallback(query.ID, "")
	}
}

func parseID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
