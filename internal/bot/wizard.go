package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"geartrader/internal/models"
)

// The creation wizard collects the listing fields in a fixed order, one
// inbound message per step. Invalid input re-prompts the same step without
// touching the draft; valid input overwrites the field and advances by one.

func wizardCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "wizard:cancel"),
		),
	)
}

func wizardSkipKeyboard(skipLabel string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(skipLabel, "wizard:skip"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "wizard:cancel"),
		),
	)
}

func wizardPhotosKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Complete Listing", "wizard:done"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "wizard:cancel"),
		),
	)
}

// startAddListing begins a fresh creation wizard, silently discarding any
// previous draft or edit state.
func (b *Bot) startAddListing(chatID int64, sess *Session) {
	sess.Wizard = &WizardState{Step: stepTitle}
	sess.Edit = nil
	b.promptWizard(sess, chatID, "Enter the title of your listing (minimum 3 characters):", wizardCancelKeyboard())
}

func (b *Bot) promptWizard(sess *Session, chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.sendWizard(sess, msg)
}

// handleWizardMessage routes one inbound message to the current wizard step.
func (b *Bot) handleWizardMessage(ctx context.Context, message *tgbotapi.Message, sess *Session) {
	st := sess.Wizard
	chatID := message.Chat.ID

	switch st.Step {
	case stepTitle:
		b.collectTextField(sess, chatID, message, "title",
			func(v string) error { return checkLength("Title", v, 3, 100) },
			func(v string) { st.Draft.Title = v },
			"Enter a description (minimum 10 characters):", wizardCancelKeyboard())

	case stepDescription:
		b.collectTextField(sess, chatID, message, "description",
			func(v string) error { return checkLength("Description", v, 10, 1000) },
			func(v string) { st.Draft.Description = v },
			"Enter a price or use the skip button below:", wizardSkipKeyboard("⏭️ Skip Price"))

	case stepPrice:
		b.collectTextField(sess, chatID, message, "price",
			func(v string) error { return checkLength("Price", v, 0, 50) },
			func(v string) { st.Draft.Price = strings.TrimSpace(v) },
			"Enter your location (minimum 2 characters):", wizardCancelKeyboard())

	case stepLocation:
		b.collectTextField(sess, chatID, message, "location",
			func(v string) error { return checkLength("Location", v, 2, 100) },
			func(v string) { st.Draft.Location = v },
			"Enter your contact info (minimum 2 characters):", wizardCancelKeyboard())

	case stepContact:
		b.collectTextField(sess, chatID, message, "contact info",
			func(v string) error { return checkLength("Contact", v, 2, 100) },
			func(v string) { st.Draft.Contact = v },
			"Do you have a marketplace link (e.g., eBay, Reverb)? Send the URL or use the skip button:",
			wizardSkipKeyboard("⏭️ Skip Marketplace Link"))

	case stepMarketplaceLink:
		b.collectTextField(sess, chatID, message, "marketplace link",
			func(v string) error { return checkURL(strings.TrimSpace(v)) },
			func(v string) { st.Draft.MarketplaceLink = strings.TrimSpace(v) },
			photosPrompt, wizardPhotosKeyboard())

	case stepPhotos:
		b.collectPhoto(message, sess)
	}
}

const photosPrompt = "Send up to 5 photos (send /done when finished):"

// collectTextField validates one text input, merges it into the draft, and
// advances to the next prompt. Failed validation re-prompts the same step.
func (b *Bot) collectTextField(sess *Session, chatID int64, message *tgbotapi.Message, fieldName string,
	check func(string) error, set func(string), nextPrompt string, nextMarkup tgbotapi.InlineKeyboardMarkup) {

	if message.Text == "" {
		b.promptWizard(sess, chatID, fmt.Sprintf("Please send text for the %s.", fieldName), wizardCancelKeyboard())
		return
	}
	if err := check(message.Text); err != nil {
		b.promptWizard(sess, chatID, fmt.Sprintf("❌ %s Please try again:", capitalize(err.Error())), wizardCancelKeyboard())
		return
	}

	set(message.Text)
	sess.Wizard.Step++
	b.promptWizard(sess, chatID, nextPrompt, nextMarkup)
}

// collectPhoto handles the photo-collection step: photo attachments up to
// the cap.
func (b *Bot) collectPhoto(message *tgbotapi.Message, sess *Session) {
	st := sess.Wizard
	chatID := message.Chat.ID

	if len(message.Photo) > 0 {
		if len(st.Draft.Photos) >= models.MaxPhotos {
			b.promptWizard(sess, chatID, "📸 You have reached the maximum of 5 photos. Complete your listing:", wizardPhotosKeyboard())
			return
		}
		// Telegram delivers several resolution variants; keep the largest.
		fileID := message.Photo[len(message.Photo)-1].FileID
		st.Draft.Photos = append(st.Draft.Photos, fileID)
		b.promptWizard(sess, chatID,
			fmt.Sprintf("📸 Photo %d/%d received. Send more or complete:", len(st.Draft.Photos), models.MaxPhotos),
			wizardPhotosKeyboard())
		return
	}

	// "/done" arrives as a command and is routed straight to completion
	// before wizard dispatch; anything else here is a stray message.
	b.promptWizard(sess, chatID, "Send a photo or complete your listing:", wizardPhotosKeyboard())
}

// skipWizardStep advances past a skippable field without validation.
func (b *Bot) skipWizardStep(sess *Session, chatID int64) {
	st := sess.Wizard
	switch st.Step {
	case stepPrice:
		st.Draft.Price = ""
		st.Step = stepLocation
		b.promptWizard(sess, chatID, "Enter your location (minimum 2 characters):", wizardCancelKeyboard())
	case stepMarketplaceLink:
		st.Draft.MarketplaceLink = ""
		st.Step = stepPhotos
		b.promptWizard(sess, chatID, photosPrompt, wizardPhotosKeyboard())
	}
}

// cancelWizard discards the draft, purges the wizard prompts, and returns to
// the main menu.
func (b *Bot) cancelWizard(chatID int64, sess *Session) {
	sess.Wizard = nil
	for _, id := range sess.Messages.WizardIDs {
		b.deleteMessage(chatID, id)
	}
	sess.Messages.WizardIDs = nil
	b.showMainMenu(chatID, sess)
}

// completeWizard validates the whole draft and persists it. The wizard exits
// its active state before anything is written, so a repeated completion
// trigger finds no wizard and cannot create a duplicate listing.
func (b *Bot) completeWizard(ctx context.Context, chatID int64, from *tgbotapi.User, sess *Session) {
	st := sess.Wizard
	if st == nil {
		return
	}
	sess.Wizard = nil

	if violations := b.draftViolations(&st.Draft); len(violations) > 0 {
		var text strings.Builder
		text.WriteString("❌ Validation errors:\n")
		for _, v := range violations {
			text.WriteString("• ")
			text.WriteString(v)
			text.WriteString("\n")
		}
		text.WriteString("\nPlease fix these issues and start again with /add.")
		b.promptWizard(sess, chatID, text.String(), backToMenuKeyboard())
		return
	}

	listing := &models.Listing{
		Title:           st.Draft.Title,
		Description:     st.Draft.Description,
		Price:           st.Draft.Price,
		Location:        st.Draft.Location,
		MarketplaceLink: st.Draft.MarketplaceLink,
		Photos:          models.PhotoList(st.Draft.Photos),
	}

	telegramID := strconv.FormatInt(from.ID, 10)
	if err := b.db.CreateListing(ctx, telegramID, from.UserName, st.Draft.Contact, listing); err != nil {
		b.logger.Error("Failed to save listing",
			zap.String("telegram_id", telegramID),
			zap.Error(err),
		)
		b.promptWizard(sess, chatID, "❌ There was an error saving your listing. Please try again.", backToMenuKeyboard())
		return
	}

	b.logger.Info("Listing created",
		zap.Int64("listing_id", listing.ID),
		zap.String("telegram_id", telegramID),
		zap.Int("photos", len(listing.Photos)),
	)

	msg := tgbotapi.NewMessage(chatID, "🎉 Your listing has been added successfully!")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧹 Clean Up & New Menu", "menu:clean"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Return to Menu", "menu:main"),
		),
	)
	b.sendWizard(sess, msg)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
