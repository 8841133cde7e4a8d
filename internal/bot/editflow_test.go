package bot

import (
	"context"
	"strconv"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geartrader/internal/models"
	"geartrader/internal/storage/stubs"
)

// seedListing creates a listing owned by the given Telegram user directly
// through the storage layer.
func seedListing(t *testing.T, db *stubs.MockDB, telegramID, contact string, listing models.Listing) int64 {
	t.Helper()
	require.NoError(t, db.CreateListing(context.Background(), telegramID, "tester", contact, &listing))
	return listing.ID
}

func TestEdit_PriceOnlyPersistsOtherFieldsUnchanged(t *testing.T) {
	db := stubs.NewMockDB()
	b, _ := newTestBot(db)
	ctx := context.Background()

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Price:       "500",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))
	sess := b.session(testUserID)
	require.NotNil(t, sess.Edit)
	assert.Equal(t, id, sess.Edit.ListingID)

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:price"))
	assert.Equal(t, fieldPrice, sess.Edit.Field)

	b.handleMessage(textMessage(testUserID, testChatID, "450"))
	assert.Equal(t, fieldNone, sess.Edit.Field, "after a value the flow returns to the field menu")

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:done"))
	assert.Nil(t, sess.Edit)

	stored, err := db.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "450", stored.Price)
	assert.Equal(t, "Fender Strat", stored.Title)
	assert.Equal(t, "Great condition, barely used", stored.Description)
	assert.Equal(t, "NY", stored.Location)
}

func TestEdit_ContactPersistsOnOwner(t *testing.T) {
	db := stubs.NewMockDB()
	b, _ := newTestBot(db)
	ctx := context.Background()

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))
	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:contact"))
	b.handleMessage(textMessage(testUserID, testChatID, "@newhandle"))
	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:done"))

	user, err := db.GetUserByTelegramID(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "@newhandle", user.Contact)
}

func TestEdit_NotOwnedListingRejected(t *testing.T) {
	db := stubs.NewMockDB()
	b, client := newTestBot(db)

	id := seedListing(t, db, "999", "@other", models.Listing{
		Title:       "Gibson Les Paul",
		Description: "Sunburst finish, minor dings",
		Location:    "LA",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))

	sess := b.session(testUserID)
	assert.Nil(t, sess.Edit, "edit must not start for a listing the user does not own")
	assert.Contains(t, client.toasts(), "Listing not found.")
}

func TestEdit_InvalidValueReprompts(t *testing.T) {
	db := stubs.NewMockDB()
	b, client := newTestBot(db)
	ctx := context.Background()

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))
	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:title"))
	b.handleMessage(textMessage(testUserID, testChatID, "Hi"))

	sess := b.session(testUserID)
	require.NotNil(t, sess.Edit)
	assert.Equal(t, fieldTitle, sess.Edit.Field, "edit target stays selected after bad input")
	assert.Contains(t, client.lastText(), "at least 3 characters")

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:done"))

	stored, err := db.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fender Strat", stored.Title, "rejected value never reaches storage")
}

func TestEdit_DashClearsOptionalFields(t *testing.T) {
	db := stubs.NewMockDB()
	b, client := newTestBot(db)
	ctx := context.Background()

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:           "Fender Strat",
		Description:     "Great condition, barely used",
		Price:           "500",
		Location:        "NY",
		MarketplaceLink: "https://reverb.com/item/1",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:price"))
	assert.Contains(t, client.lastText(), "- to clear")
	b.handleMessage(textMessage(testUserID, testChatID, "-"))
	assert.Contains(t, client.texts(), "Price cleared.")

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:link"))
	b.handleMessage(textMessage(testUserID, testChatID, "-"))

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:done"))

	stored, err := db.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stored.Price)
	assert.Empty(t, stored.MarketplaceLink)
	assert.Equal(t, "Fender Strat", stored.Title)
}

func TestEdit_DashDoesNotClearRequiredFields(t *testing.T) {
	db := stubs.NewMockDB()
	b, _ := newTestBot(db)
	ctx := context.Background()

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))
	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:title"))
	b.handleMessage(textMessage(testUserID, testChatID, "-"))

	sess := b.session(testUserID)
	require.NotNil(t, sess.Edit)
	assert.Equal(t, fieldTitle, sess.Edit.Field, "a lone dash is invalid input for a required field")

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:done"))

	stored, err := db.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fender Strat", stored.Title)
}

func TestEdit_UnknownFieldNameIgnored(t *testing.T) {
	db := stubs.NewMockDB()
	b, _ := newTestBot(db)

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))
	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:bogus"))

	sess := b.session(testUserID)
	require.NotNil(t, sess.Edit)
	assert.Equal(t, fieldNone, sess.Edit.Field)
}

func TestEdit_ListingDeletedUnderneathReportsNotFound(t *testing.T) {
	db := stubs.NewMockDB()
	b, client := newTestBot(db)

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(id, "edit"))
	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:title"))
	b.handleMessage(textMessage(testUserID, testChatID, "Fender Telecaster"))

	require.NoError(t, db.DeleteListing(context.Background(), id, "123"))

	b.handleCallbackQuery(callback(testUserID, testChatID, "editfield:done"))

	sess := b.session(testUserID)
	assert.Nil(t, sess.Edit)
	assert.Contains(t, client.toasts(), "Listing not found.")
}

func TestDelete_LastListingCascadesToUser(t *testing.T) {
	db := stubs.NewMockDB()
	b, client := newTestBot(db)
	ctx := context.Background()

	id := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(id, "delete"))

	assert.Contains(t, client.lastText(), "deleted")

	_, err := db.GetListing(ctx, id)
	assert.Error(t, err)
	_, err = db.GetUserByTelegramID(ctx, "123")
	assert.Error(t, err, "deleting the last listing removes the user record")
}

func TestDelete_KeepsUserWithRemainingListings(t *testing.T) {
	db := stubs.NewMockDB()
	b, _ := newTestBot(db)
	ctx := context.Background()

	first := seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Fender Strat",
		Description: "Great condition, barely used",
		Location:    "NY",
	})
	seedListing(t, db, "123", "@me", models.Listing{
		Title:       "Boss DS-1",
		Description: "Classic distortion pedal",
		Location:    "NY",
	})

	b.handleCallbackQuery(callbackData(first, "delete"))

	user, err := db.GetUserByTelegramID(ctx, "123")
	require.NoError(t, err)
	assert.Len(t, user.Listings, 1)
}

func TestDelete_NotOwnedReportsNotFound(t *testing.T) {
	db := stubs.NewMockDB()
	b, client := newTestBot(db)
	ctx := context.Background()

	id := seedListing(t, db, "999", "@other", models.Listing{
		Title:       "Gibson Les Paul",
		Description: "Sunburst finish, minor dings",
		Location:    "LA",
	})

	b.handleCallbackQuery(callbackData(id, "delete"))

	assert.Contains(t, client.toasts(), "Listing not found.")

	_, err := db.GetListing(ctx, id)
	assert.NoError(t, err, "foreign listing survives the attempt")
}

// callbackData builds an id-carrying callback like "edit:7" for the default
// test user.
func callbackData(id int64, action string) *tgbotapi.CallbackQuery {
	return callback(testUserID, testChatID, action+":"+strconv.FormatInt(id, 10))
}
