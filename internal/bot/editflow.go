package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"geartrader/internal/models"
	"geartrader/internal/storage"
)

// editField enumerates the editable listing fields. Each value maps to a
// typed setter, so an unknown field name coming in over callback data is
// rejected at parse time instead of silently ignored.
type editField int

const (
	fieldNone editField = iota
	fieldTitle
	fieldDescription
	fieldPrice
	fieldLocation
	fieldContact
	fieldMarketplaceLink
)

var editFieldNames = map[string]editField{
	"title":       fieldTitle,
	"description": fieldDescription,
	"price":       fieldPrice,
	"location":    fieldLocation,
	"contact":     fieldContact,
	"link":        fieldMarketplaceLink,
}

func parseEditField(name string) (editField, bool) {
	f, ok := editFieldNames[name]
	return f, ok
}

func (f editField) label() string {
	switch f {
	case fieldTitle:
		return "title"
	case fieldDescription:
		return "description"
	case fieldPrice:
		return "price"
	case fieldLocation:
		return "location"
	case fieldContact:
		return "contact"
	case fieldMarketplaceLink:
		return "marketplace link"
	}
	return "field"
}

// optional reports whether the field may be cleared back to empty.
func (f editField) optional() bool {
	return f == fieldPrice || f == fieldMarketplaceLink
}

// check validates a candidate value with the same constraints the creation
// wizard applies.
func (f editField) check(value string) error {
	switch f {
	case fieldTitle:
		return checkLength("Title", value, 3, 100)
	case fieldDescription:
		return checkLength("Description", value, 10, 1000)
	case fieldPrice:
		return checkLength("Price", value, 0, 50)
	case fieldLocation:
		return checkLength("Location", value, 2, 100)
	case fieldContact:
		return checkLength("Contact", value, 2, 100)
	case fieldMarketplaceLink:
		return checkURL(strings.TrimSpace(value))
	}
	return nil
}

// apply writes the value into the pending listing copy. Contact lives on the
// owner record but is edited through the same menu.
func (f editField) apply(listing *models.Listing, value string) {
	switch f {
	case fieldTitle:
		listing.Title = value
	case fieldDescription:
		listing.Description = value
	case fieldPrice:
		listing.Price = value
	case fieldLocation:
		listing.Location = value
	case fieldContact:
		listing.User.Contact = value
	case fieldMarketplaceLink:
		listing.MarketplaceLink = strings.TrimSpace(value)
	}
}

func editFieldKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Title", "editfield:title")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Description", "editfield:description")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Price", "editfield:price")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Location", "editfield:location")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Contact", "editfield:contact")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Marketplace Link", "editfield:link")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Done", "editfield:done")),
	)
}

// handleMyListings renders each of the requester's listings with edit and
// delete controls.
func (b *Bot) handleMyListings(ctx context.Context, chatID, userID int64, sess *Session) {
	b.cleanSlate(sess, chatID)

	user, err := b.db.GetUserByTelegramID(ctx, strconv.FormatInt(userID, 10))
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(user.Listings) == 0) {
		msg := tgbotapi.NewMessage(chatID, "📭 You have no listings.")
		msg.ReplyMarkup = backToMenuKeyboard()
		b.sendMain(sess, msg)
		return
	}
	if err != nil {
		b.logger.Error("Failed to load user listings", zap.Error(err))
		b.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again."))
		return
	}

	for _, listing := range user.Listings {
		text := fmt.Sprintf("*%s*", listing.Title)
		if listing.Price != "" {
			text += fmt.Sprintf("\n💵 Price: %s", listing.Price)
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", fmt.Sprintf("edit:%d", listing.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("delete:%d", listing.ID)),
			),
		)
		b.sendWizard(sess, msg)
	}

	nav := tgbotapi.NewMessage(chatID, "Manage your listings above.")
	nav.ReplyMarkup = backToMenuKeyboard()
	b.sendMain(sess, nav)
}

// handleEditStart loads the listing, verifies ownership, and opens the field
// menu with a fresh pending copy.
func (b *Bot) handleEditStart(ctx context.Context, query *tgbotapi.CallbackQuery, listingID int64, sess *Session) {
	chatID := query.Message.Chat.ID

	listing, err := b.db.GetListing(ctx, listingID)
	if errors.Is(err, storage.ErrNotFound) {
		b.answerCallback(query.ID, "Listing not found.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to load listing for edit", zap.Int64("listing_id", listingID), zap.Error(err))
		b.answerCallback(query.ID, "Something went wrong.")
		return
	}
	if listing.User.TelegramID != strconv.FormatInt(query.From.ID, 10) {
		b.answerCallback(query.ID, "Listing not found.")
		return
	}

	sess.Edit = &EditState{ListingID: listingID, Pending: *listing}
	sess.Wizard = nil
	b.answerCallback(query.ID, "")

	msg := tgbotapi.NewMessage(chatID, "What do you want to edit?")
	msg.ReplyMarkup = editFieldKeyboard()
	b.sendWizard(sess, msg)
}

// handleEditFieldCallback reacts to a field-menu selection: either prompt
// for a new value or persist the accumulated changes on "Done".
func (b *Bot) handleEditFieldCallback(ctx context.Context, query *tgbotapi.CallbackQuery, name string, sess *Session) {
	if sess.Edit == nil {
		b.answerCallback(query.ID, "")
		return
	}
	chatID := query.Message.Chat.ID

	if name == "done" {
		b.finishEdit(ctx, query, sess)
		return
	}

	field, ok := parseEditField(name)
	if !ok {
		b.answerCallback(query.ID, "")
		return
	}

	sess.Edit.Field = field
	b.answerCallback(query.ID, "")
	prompt := fmt.Sprintf("Send new value for %s:", field.label())
	if field.optional() {
		prompt = fmt.Sprintf("Send new value for %s (or - to clear it):", field.label())
	}
	b.sendWizard(sess, tgbotapi.NewMessage(chatID, prompt))
}

// handleEditMessage consumes the new value for the field being edited and
// returns to the field menu.
func (b *Bot) handleEditMessage(message *tgbotapi.Message, sess *Session) {
	st := sess.Edit
	chatID := message.Chat.ID

	if message.Text == "" {
		b.sendWizard(sess, tgbotapi.NewMessage(chatID, fmt.Sprintf("Please send text for the %s.", st.Field.label())))
		return
	}

	if st.Field.optional() && strings.TrimSpace(message.Text) == "-" {
		st.Field.apply(&st.Pending, "")
		cleared := st.Field.label()
		st.Field = fieldNone

		b.sendWizard(sess, tgbotapi.NewMessage(chatID, fmt.Sprintf("%s cleared.", capitalize(cleared))))
		msg := tgbotapi.NewMessage(chatID, "What do you want to edit next?")
		msg.ReplyMarkup = editFieldKeyboard()
		b.sendWizard(sess, msg)
		return
	}

	if err := st.Field.check(message.Text); err != nil {
		b.sendWizard(sess, tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ %s Please try again:", capitalize(err.Error()))))
		return
	}

	st.Field.apply(&st.Pending, message.Text)
	updated := st.Field.label()
	st.Field = fieldNone

	b.sendWizard(sess, tgbotapi.NewMessage(chatID, fmt.Sprintf("%s updated.", capitalize(updated))))
	msg := tgbotapi.NewMessage(chatID, "What do you want to edit next?")
	msg.ReplyMarkup = editFieldKeyboard()
	b.sendWizard(sess, msg)
}

// finishEdit persists every accumulated change in one update call.
func (b *Bot) finishEdit(ctx context.Context, query *tgbotapi.CallbackQuery, sess *Session) {
	st := sess.Edit
	sess.Edit = nil
	chatID := query.Message.Chat.ID

	if err := b.db.UpdateListing(ctx, &st.Pending); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.answerCallback(query.ID, "Listing not found.")
			return
		}
		b.logger.Error("Failed to update listing", zap.Int64("listing_id", st.ListingID), zap.Error(err))
		b.answerCallback(query.ID, "Failed to update listing.")
		return
	}

	b.logger.Info("Listing updated", zap.Int64("listing_id", st.ListingID))
	b.answerCallback(query.ID, "")
	b.sendWizard(sess, tgbotapi.NewMessage(chatID, "✅ Listing updated!"))
}

// handleDeleteCallback removes an owned listing; the storage layer cascades
// to the user record when it was their last one.
func (b *Bot) handleDeleteCallback(ctx context.Context, query *tgbotapi.CallbackQuery, listingID int64, sess *Session) {
	chatID := query.Message.Chat.ID

	err := b.db.DeleteListing(ctx, listingID, strconv.FormatInt(query.From.ID, 10))
	if errors.Is(err, storage.ErrNotFound) {
		b.answerCallback(query.ID, "Listing not found.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to delete listing", zap.Int64("listing_id", listingID), zap.Error(err))
		b.answerCallback(query.ID, "Failed to delete listing.")
		return
	}

	b.logger.Info("Listing deleted", zap.Int64("listing_id", listingID))
	b.answerCallback(query.ID, "")
	b.sendWizard(sess, tgbotapi.NewMessage(chatID, "🗑 Listing deleted."))
}
