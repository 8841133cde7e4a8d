package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const welcomeText = `Welcome to GearTrader! 🎸

This bot helps you trade musical gear (no money involved).

🔒 *Privacy Notice:*
Your contact info and user data are stored *only while your listing is live*.
As soon as you delete your last listing, all your data is permanently deleted.
No personal information is retained longer than necessary.

Here's your main menu:`

const helpText = `🎸 *GearTrader Help*

*Commands:*
• /start - Show main menu
• /menu - Show main menu
• /add - Add new listing
• /browse - Browse all listings
• /listings - View all listings
• /mylistings - Manage your listings

*Features:*
• Add listings with photos
• Browse and search listings
• Contact sellers directly
• Manage your own listings

*Privacy:* Your data is only stored while your listings are active.`

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎛 Browse Listings", "menu:browse")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Add New Listing", "menu:add")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📦 My Listings", "menu:my")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("ℹ️ Help & Info", "menu:help")),
	)
}

func backToMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙 Back to Menu", "menu:main")),
	)
}

// handleStart shows the welcome message with the privacy notice and the menu
func (b *Bot) handleStart(message *tgbotapi.Message, sess *Session) {
	b.cleanSlate(sess, message.Chat.ID)

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
	b.showMainMenu(message.Chat.ID, sess)
}

// showMainMenu sends the main menu and records it as the main message.
func (b *Bot) showMainMenu(chatID int64, sess *Session) {
	msg := tgbotapi.NewMessage(chatID, "🎸 *GearTrader Main Menu*\n\nChoose what you'd like to do:")
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = mainMenuKeyboard()
	b.sendMain(sess, msg)
}

// handleHelp shows commands and features
func (b *Bot) handleHelp(chatID int64, sess *Session) {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = backToMenuKeyboard()
	b.sendMain(sess, msg)
}
