package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"geartrader/internal/models"
	"geartrader/internal/storage"
)

// listingsIndexLimit caps the /listings button index; inline keyboards get
// unwieldy well before this.
const listingsIndexLimit = 50

// clampPage bounds a requested page index to [0, count-1]. Out-of-range
// requests land on the nearest valid page instead of erroring.
func clampPage(page int, count int64) int {
	if count <= 0 || page < 0 {
		return 0
	}
	if int64(page) >= count {
		return int(count - 1)
	}
	return page
}

// handleBrowse renders one listing per page, newest first. fresh indicates a
// top-level entry (command or menu button) and triggers a clean slate;
// page navigation instead replaces the previous body and edits the
// navigation message in place.
func (b *Bot) handleBrowse(ctx context.Context, chatID int64, sess *Session, page int, fresh bool) {
	if fresh {
		b.cleanSlate(sess, chatID)
	}

	count, err := b.db.CountListings(ctx)
	if err != nil {
		b.logger.Error("Failed to count listings", zap.Error(err))
		b.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}
	if count == 0 {
		msg := tgbotapi.NewMessage(chatID, "📭 *No Listings Found*\n\nNo listings available to browse.")
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = backToMenuKeyboard()
		b.sendMain(sess, msg)
		return
	}

	page = clampPage(page, count)
	listings, err := b.db.ListListings(ctx, page, 1)
	if err != nil || len(listings) == 0 {
		b.logger.Error("Failed to fetch listing page", zap.Int("page", page), zap.Error(err))
		b.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}
	listing := listings[0]

	// Replace the previous listing body; media groups cannot be edited.
	b.deleteMessage(chatID, sess.Messages.MainID)
	sess.Messages.MainID = 0
	for _, id := range sess.Messages.WizardIDs {
		b.deleteMessage(chatID, id)
	}
	sess.Messages.WizardIDs = nil

	text := renderListing(&listing) + fmt.Sprintf("\n\n📄 Page %d of %d", page+1, count)
	b.emitListingBody(sess, chatID, &listing, text, true)
	b.replaceNav(sess, chatID, "Navigation:", browseNavKeyboard(page, count))
}

// emitListingBody sends a listing as a captioned media group when it has
// photos, or as a plain text message otherwise. Photo-bearing bodies are
// tracked for deletion, never for editing.
func (b *Bot) emitListingBody(sess *Session, chatID int64, listing *models.Listing, text string, asMain bool) {
	if len(listing.Photos) == 0 {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if asMain {
			b.sendMain(sess, msg)
		} else {
			b.sendWizard(sess, msg)
		}
		return
	}

	media := make([]interface{}, 0, len(listing.Photos))
	for i, fileID := range listing.Photos {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(fileID))
		if i == 0 {
			photo.Caption = text
			photo.ParseMode = tgbotapi.ModeMarkdown
		}
		media = append(media, photo)
	}

	sent, err := b.client.SendMediaGroup(tgbotapi.MediaGroupConfig{ChatID: chatID, Media: media})
	if err != nil {
		b.logger.Error("Failed to send media group", zap.Error(err))
		return
	}
	for _, m := range sent {
		sess.Messages.WizardIDs = append(sess.Messages.WizardIDs, m.MessageID)
	}
}

func browseNavKeyboard(page int, count int64) tgbotapi.InlineKeyboardMarkup {
	var pager []tgbotapi.InlineKeyboardButton
	if page > 0 {
		pager = append(pager, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("browse:%d", page-1)))
	}
	if int64(page) < count-1 {
		pager = append(pager, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("browse:%d", page+1)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(pager) > 0 {
		rows = append(rows, pager)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back to Menu", "menu:main"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderListing builds the full Markdown body for a listing.
func renderListing(l *models.Listing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n%s\n", l.Title, l.Description)
	if l.Price != "" {
		fmt.Fprintf(&sb, "\n💵 Price: %s", l.Price)
	}
	fmt.Fprintf(&sb, "\n📍 Location: %s", l.Location)
	if l.MarketplaceLink != "" {
		fmt.Fprintf(&sb, "\n🔗 [Marketplace Link](%s)", l.MarketplaceLink)
	}
	fmt.Fprintf(&sb, "\n📞 Contact: %s", l.User.Contact)
	return sb.String()
}

// handleListingsIndex renders a compact button-per-listing index.
func (b *Bot) handleListingsIndex(ctx context.Context, chatID int64, sess *Session) {
	b.cleanSlate(sess, chatID)

	listings, err := b.db.ListListings(ctx, 0, listingsIndexLimit)
	if err != nil {
		b.logger.Error("Failed to list listings", zap.Error(err))
		b.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}
	if len(listings) == 0 {
		msg := tgbotapi.NewMessage(chatID, "📭 No listings found.")
		msg.ReplyMarkup = backToMenuKeyboard()
		b.sendMain(sess, msg)
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(listings)+1)
	for _, listing := range listings {
		label := listing.Title
		if listing.Price != "" {
			label += fmt.Sprintf(" (%s)", listing.Price)
		}
		label += " - " + listing.Location
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("show:%d", listing.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back to Menu", "menu:main"),
	))

	msg := tgbotapi.NewMessage(chatID, "Select a listing to view details:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMain(sess, msg)
}

// handleShowListing renders the full detail view for an index selection.
func (b *Bot) handleShowListing(ctx context.Context, query *tgbotapi.CallbackQuery, listingID int64, sess *Session) {
	chatID := query.Message.Chat.ID

	listing, err := b.db.GetListing(ctx, listingID)
	if errors.Is(err, storage.ErrNotFound) {
		b.answerCallback(query.ID, "Listing not found.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to load listing", zap.Int64("listing_id", listingID), zap.Error(err))
		b.answerCallback(query.ID, "Something went wrong.")
		return
	}

	b.answerCallback(query.ID, "")
	b.emitListingBody(sess, chatID, listing, renderListing(listing), false)
	b.replaceNav(sess, chatID, "Navigation:", backToMenuKeyboard())
}
