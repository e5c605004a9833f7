package memory

import (
	"context"
	"errors"
	"sync"

	domain "andrew-web-services/internal/domain/user"
)

// InMemoryDatabase is a map-backed user store. It stands in for the durable
// store in tests and local runs. Reads are safe for concurrent use.
type InMemoryDatabase struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	nextID int64
}

// NewInMemoryDatabase creates a store holding the given records. Later records
// replace earlier ones with the same name.
func NewInMemoryDatabase(users ...domain.User) *InMemoryDatabase {
	db := &InMemoryDatabase{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		db.put(u)
	}
	return db
}

// FindByName returns a copy of the record named name, or nil if there is none.
func (db *InMemoryDatabase) FindByName(_ context.Context, name string) (*domain.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	u, ok := db.users[name]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Save inserts or replaces the record keyed by u.Name and returns its ID.
func (db *InMemoryDatabase) Save(_ context.Context, u *domain.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	return db.put(*u), nil
}

// Delete removes the record named name. Deleting an absent name is a no-op;
// an empty name is rejected.
func (db *InMemoryDatabase) Delete(_ context.Context, name string) error {
	if name == "" {
		return errors.New("invalid user name")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.users, name)
	return nil
}

// Len returns the number of stored records.
func (db *InMemoryDatabase) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.users)
}

// put must be called with mu held (or before db is shared).
func (db *InMemoryDatabase) put(u domain.User) int64 {
	if existing, ok := db.users[u.Name]; ok {
		u.ID = existing.ID
	} else if u.ID == 0 {
		db.nextID++
		u.ID = db.nextID
	} else if u.ID > db.nextID {
		db.nextID = u.ID
	}
	db.users[u.Name] = u
	return u.ID
}
