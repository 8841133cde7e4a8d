package pg

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"geartrader/internal/models"
	"geartrader/internal/storage"
)

// DB is the GORM-backed implementation of storage.Storage.
type DB struct {
	db *gorm.DB
}

// New opens a Postgres connection from a DSN and verifies it with a ping.
func New(dsn string) (*DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{db: db}, nil
}

// NewWithDB wraps an existing gorm.DB. Used by tests, which run the same
// implementation against an in-memory SQLite database.
func NewWithDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// Initialize is a no-op - tables are managed via migrations (see migrations/)
func (s *DB) Initialize(ctx context.Context) error {
	return nil
}

// CreateListing upserts the owning user and inserts the listing in a single
// transaction, so a failure at either step leaves no orphaned rows.
func (s *DB) CreateListing(ctx context.Context, telegramID, username, contact string, listing *models.Listing) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{
			TelegramID: telegramID,
			Username:   username,
			Contact:    contact,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "contact"}),
		}).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		// On a conflicting insert some drivers leave the generated ID unset.
		if user.ID == 0 {
			if err := tx.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
				return fmt.Errorf("failed to load upserted user: %w", err)
			}
		}

		listing.UserID = user.ID
		if err := tx.Create(listing).Error; err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}
		return nil
	})
}

// ListListings returns a page of listings, newest first, with owners preloaded.
func (s *DB) ListListings(ctx context.Context, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

// CountListings returns the total number of listings.
func (s *DB) CountListings(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Listing{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

// GetListing returns a listing by ID with the owning user preloaded.
func (s *DB) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.WithContext(ctx).Preload("User").First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// GetUserByTelegramID returns a user with their listings preloaded, newest first.
func (s *DB) GetUserByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Listings", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Where("telegram_id = ?", telegramID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateListing persists every editable field of the listing, including
// fields cleared back to their zero value, plus the owner's contact string
// when one is carried, in a single transaction.
func (s *DB) UpdateListing(ctx context.Context, listing *models.Listing) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{ID: listing.ID}).
			Select("title", "description", "price", "location", "marketplace_link", "photos").
			Updates(listing)
		if res.Error != nil {
			return fmt.Errorf("failed to update listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}

		if listing.User.Contact != "" {
			if err := tx.Model(&models.User{}).
				Where("id = (SELECT user_id FROM listings WHERE id = ?)", listing.ID).
				Update("contact", listing.User.Contact).Error; err != nil {
				return fmt.Errorf("failed to update owner contact: %w", err)
			}
		}
		return nil
	})
}

// DeleteListing removes a listing owned by the given Telegram user and, when
// it was the owner's last listing, the user record too, in one transaction.
func (s *DB) DeleteListing(ctx context.Context, id int64, telegramID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		err := tx.First(&listing, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get listing: %w", err)
		}

		var owner models.User
		if err := tx.First(&owner, listing.UserID).Error; err != nil {
			return fmt.Errorf("failed to get listing owner: %w", err)
		}
		if owner.TelegramID != telegramID {
			return storage.ErrNotFound
		}

		if err := tx.Delete(&models.Listing{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete listing: %w", err)
		}

		var remaining int64
		if err := tx.Model(&models.Listing{}).Where("user_id = ?", owner.ID).Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining listings: %w", err)
		}
		if remaining == 0 {
			if err := tx.Delete(&models.User{}, owner.ID).Error; err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
		}
		return nil
	})
}

// Close closes the database connection
func (s *DB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
