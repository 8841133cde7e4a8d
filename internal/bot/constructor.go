package bot

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"geartrader/internal/storage"
)

// NewBot creates a new Telegram bot
func NewBot(token string, db storage.Storage, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return &Bot{
		api:      api,
		client:   api,
		db:       db,
		sessions: make(map[int64]*Session),
		logger:   logger,
		validate: validator.New(),
	}, nil
}

// session returns the session for a user, creating it lazily.
func (b *Bot) session(userID int64) *Session {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	sess, ok := b.sessions[userID]
	if !ok {
		sess = &Session{}
		b.sessions[userID] = sess
	}
	return sess
}
