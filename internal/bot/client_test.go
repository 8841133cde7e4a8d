package bot

import (
	"strings"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"geartrader/internal/storage"
)

// fakeClient records outbound Telegram calls so tests can assert on what the
// bot sent without talking to the real API.
type fakeClient struct {
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	media     []tgbotapi.MediaGroupConfig
	nextID    int
	editErr   error
	deleteErr error
}

func (f *fakeClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeClient) SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	f.media = append(f.media, config)
	msgs := make([]tgbotapi.Message, len(config.Media))
	for i := range msgs {
		f.nextID++
		msgs[i] = tgbotapi.Message{MessageID: f.nextID}
	}
	return msgs, nil
}

func (f *fakeClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	switch c.(type) {
	case tgbotapi.EditMessageTextConfig:
		if f.editErr != nil {
			return nil, f.editErr
		}
	case tgbotapi.DeleteMessageConfig:
		if f.deleteErr != nil {
			return nil, f.deleteErr
		}
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastText returns the text of the most recent plain message sent.
func (f *fakeClient) lastText() string {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return msg.Text
		}
	}
	return ""
}

// texts returns every plain message text sent, in order.
func (f *fakeClient) texts() []string {
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

// toasts returns every callback answer text, in order.
func (f *fakeClient) toasts() []string {
	var out []string
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

// markupFor returns the inline keyboard of the most recent message whose
// text contains the given substring.
func (f *fakeClient) markupFor(substr string) (tgbotapi.InlineKeyboardMarkup, bool) {
	for i := len(f.sent) - 1; i >= 0; i-- {
		msg, ok := f.sent[i].(tgbotapi.MessageConfig)
		if !ok || !strings.Contains(msg.Text, substr) {
			continue
		}
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		return markup, ok
	}
	return tgbotapi.InlineKeyboardMarkup{}, false
}

// buttonData flattens an inline keyboard into its callback data values.
func buttonData(markup tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

// deletedIDs returns the message IDs of every delete request.
func (f *fakeClient) deletedIDs() []int {
	var out []int
	for _, c := range f.requests {
		if del, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			out = append(out, del.MessageID)
		}
	}
	return out
}

func newTestBot(db storage.Storage) (*Bot, *fakeClient) {
	client := &fakeClient{}
	b := &Bot{
		client:   client,
		db:       db,
		sessions: make(map[int64]*Session),
		logger:   zap.NewNop(),
		validate: validator.New(),
	}
	return b, client
}

func textMessage(userID, chatID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "tester"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])},
		}
	}
	return msg
}

func photoMessage(userID, chatID int64, fileID string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "tester"},
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		Photo: []tgbotapi.PhotoSize{
			{FileID: fileID + "-small"},
			{FileID: fileID},
		},
	}
}

func callback(userID, chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: userID, UserName: "tester"},
		Message: &tgbotapi.Message{
			MessageID: 9000,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		},
		Data: data,
	}
}
