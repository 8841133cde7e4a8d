package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MaxPhotos is the cap on photo attachments per listing.
const MaxPhotos = 5

// User represents a listing owner. A user record exists only while it owns
// at least one listing; deleting the last listing removes the user.
type User struct {
	ID         int64  `gorm:"primaryKey"`
	TelegramID string `gorm:"uniqueIndex;size:64;not null"`
	Username   string `gorm:"size:100"`
	Contact    string `gorm:"size:100"`
	Listings   []Listing
	CreatedAt  time.Time
}

// Listing represents a single gear-for-trade post.
type Listing struct {
	ID              int64 `gorm:"primaryKey"`
	UserID          int64 `gorm:"index;not null"`
	User            User
	Title           string    `gorm:"size:100;not null"`
	Description     string    `gorm:"size:1000;not null"`
	Price           string    `gorm:"size:50"`
	Location        string    `gorm:"size:100;not null"`
	MarketplaceLink string    `gorm:"size:500"`
	Photos          PhotoList `gorm:"type:text"`
	CreatedAt       time.Time
}

// PhotoList is an ordered set of Telegram file IDs stored as a JSON array
// in a single text column.
type PhotoList []string

// Value implements driver.Valuer.
func (p PhotoList) Value() (driver.Value, error) {
	if p == nil {
		p = PhotoList{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal photos: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *PhotoList) Scan(value interface{}) error {
	if value == nil {
		*p = PhotoList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported photos column type %T", value)
	}

	if len(raw) == 0 {
		*p = PhotoList{}
		return nil
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("failed to unmarshal photos: %w", err)
	}
	return nil
}
