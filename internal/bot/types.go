package bot

import (
	"sync"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"geartrader/internal/models"
	"geartrader/internal/storage"
)

// Bot represents the Telegram bot wrapper
type Bot struct {
	api        *tgbotapi.BotAPI
	client     telegramClient
	db         storage.Storage
	sessions   map[int64]*Session
	sessionsMu sync.Mutex
	logger     *zap.Logger
	validate   *validator.Validate
}

// telegramClient covers the outbound Telegram calls the bot makes, so tests
// can substitute a recorder for *tgbotapi.BotAPI.
type telegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Session holds the per-user ephemeral state: an in-progress wizard, an
// in-progress edit, and the registry of messages sent for the current
// interaction. Webhook delivery is not serialized per user, so handlers
// take mu for the duration of an update; a session processes one update
// at a time.
type Session struct {
	mu       sync.Mutex
	Wizard   *WizardState
	Edit     *EditState
	Messages messageRegistry
}

// wizardStep identifies the field the creation wizard is currently collecting.
type wizardStep int

const (
	stepTitle wizardStep = iota
	stepDescription
	stepPrice
	stepLocation
	stepContact
	stepMarketplaceLink
	stepPhotos
)

// WizardState tracks an in-progress listing creation flow.
type WizardState struct {
	Step  wizardStep
	Draft ListingDraft
}

// ListingDraft accumulates the fields collected by the creation wizard.
// The validate tags carry the full field schema; the whole draft is checked
// against them once more before anything is persisted.
type ListingDraft struct {
	Title           string   `validate:"required,min=3,max=100"`
	Description     string   `validate:"required,min=10,max=1000"`
	Price           string   `validate:"omitempty,max=50"`
	Location        string   `validate:"required,min=2,max=100"`
	Contact         string   `validate:"required,min=2,max=100"`
	MarketplaceLink string   `validate:"omitempty,url,max=500"`
	Photos          []string `validate:"max=5"`
}

// EditState tracks an in-progress edit of an existing listing. Changes
// accumulate in Pending and are persisted in one update on "Done".
type EditState struct {
	ListingID int64
	Pending   models.Listing
	Field     editField
}

// messageRegistry records the bot-sent messages of the current interaction
// by role, so they can be edited or deleted later.
type messageRegistry struct {
	MainID    int
	NavID     int
	WizardIDs []int
}
