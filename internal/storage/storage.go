package storage

import (
	"context"
	"errors"

	"geartrader/internal/models"
)

// ErrNotFound is returned when a listing or user does not exist, or when a
// listing is not owned by the requesting user.
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data storage operations
type Storage interface {
	// CreateListing upserts the owning user by Telegram ID (refreshing
	// username and contact) and inserts the listing, in a single
	// transaction. On success listing.ID and listing.UserID are set.
	CreateListing(ctx context.Context, telegramID, username, contact string, listing *models.Listing) error

	// ListListings returns listings ordered by creation time descending
	// (newest first) with the owning user preloaded.
	ListListings(ctx context.Context, offset, limit int) ([]models.Listing, error)

	// CountListings returns the total number of listings.
	CountListings(ctx context.Context) (int64, error)

	// GetListing returns a listing by ID with the owning user preloaded.
	GetListing(ctx context.Context, id int64) (*models.Listing, error)

	// GetUserByTelegramID returns a user with their listings preloaded.
	GetUserByTelegramID(ctx context.Context, telegramID string) (*models.User, error)

	// UpdateListing persists the editable fields of an existing listing
	// and, when listing.User.Contact is set, the owner's contact string,
	// in a single transaction.
	UpdateListing(ctx context.Context, listing *models.Listing) error

	// DeleteListing removes a listing owned by the given Telegram user.
	// If it was the owner's last listing the user record is removed in the
	// same transaction. Returns ErrNotFound for missing or foreign
	// listings, with no side effects.
	DeleteListing(ctx context.Context, id int64, telegramID string) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
