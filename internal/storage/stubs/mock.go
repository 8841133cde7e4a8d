package stubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"geartrader/internal/models"
	"geartrader/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu        sync.RWMutex
	users     map[int64]*models.User
	listings  map[int64]*models.Listing
	nextUser  int64
	nextList  int64
	createErr error
	updateErr error
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		users:    make(map[int64]*models.User),
		listings: make(map[int64]*models.Listing),
		nextUser: 1,
		nextList: 1,
	}
}

// Initialize does nothing for the mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// FailCreates makes subsequent CreateListing calls return the given error.
func (m *MockDB) FailCreates(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// FailUpdates makes subsequent UpdateListing calls return the given error.
func (m *MockDB) FailUpdates(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

// CreateListing upserts the owning user and stores the listing
func (m *MockDB) CreateListing(ctx context.Context, telegramID, username, contact string, listing *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}

	var user *models.User
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			user = u
			break
		}
	}
	if user == nil {
		user = &models.User{
			ID:         m.nextUser,
			TelegramID: telegramID,
			CreatedAt:  time.Now(),
		}
		m.nextUser++
		m.users[user.ID] = user
	}
	user.Username = username
	user.Contact = contact

	stored := *listing
	stored.ID = m.nextList
	stored.UserID = user.ID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	m.nextList++
	m.listings[stored.ID] = &stored

	listing.ID = stored.ID
	listing.UserID = stored.UserID
	return nil
}

// ListListings returns a page of listings, newest first
func (m *MockDB) ListListings(ctx context.Context, offset, limit int) ([]models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := m.sortedListings()
	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], nil
}

// CountListings returns the total number of listings
func (m *MockDB) CountListings(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.listings)), nil
}

// GetListing returns a listing by ID with its owner attached
func (m *MockDB) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listing, ok := m.listings[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *listing
	if user, ok := m.users[listing.UserID]; ok {
		copied.User = *user
		copied.User.Listings = nil
	}
	return &copied, nil
}

// GetUserByTelegramID returns a user with their listings attached
func (m *MockDB) GetUserByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.TelegramID == telegramID {
			copied := *u
			copied.Listings = nil
			for _, l := range m.sortedListings() {
				if l.UserID == u.ID {
					copied.Listings = append(copied.Listings, l)
				}
			}
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

// UpdateListing overwrites the editable fields of a stored listing
func (m *MockDB) UpdateListing(ctx context.Context, listing *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}

	stored, ok := m.listings[listing.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Title = listing.Title
	stored.Description = listing.Description
	stored.Price = listing.Price
	stored.Location = listing.Location
	stored.MarketplaceLink = listing.MarketplaceLink
	stored.Photos = listing.Photos

	if listing.User.Contact != "" {
		if owner, ok := m.users[stored.UserID]; ok {
			owner.Contact = listing.User.Contact
		}
	}
	return nil
}

// DeleteListing removes a listing owned by the given Telegram user, cascading
// to the user record when it was their last listing
func (m *MockDB) DeleteListing(ctx context.Context, id int64, telegramID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	if !ok {
		return storage.ErrNotFound
	}
	owner, ok := m.users[listing.UserID]
	if !ok || owner.TelegramID != telegramID {
		return storage.ErrNotFound
	}

	delete(m.listings, id)

	remaining := 0
	for _, l := range m.listings {
		if l.UserID == owner.ID {
			remaining++
		}
	}
	if remaining == 0 {
		delete(m.users, owner.ID)
	}
	return nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

// sortedListings returns copies of all listings, newest first, owners attached.
// Callers must hold at least the read lock.
func (m *MockDB) sortedListings() []models.Listing {
	listings := make([]models.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		copied := *l
		if user, ok := m.users[l.UserID]; ok {
			copied.User = *user
			copied.User.Listings = nil
		}
		listings = append(listings, copied)
	}
	sort.Slice(listings, func(i, j int) bool {
		if !listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		}
		return listings[i].ID > listings[j].ID
	})
	return listings
}
