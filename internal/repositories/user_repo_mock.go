package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"ormlab/internal/models"
)

// MockUserStore is an in-memory implementation of UserStore. It enforces
// the same uniqueness and ordering rules as the real adapters so service
// tests can run without a database.
type MockUserStore struct {
	users  map[int64]models.User
	nextID int64
	mu     sync.RWMutex
}

// NewMockUserStore creates a new instance of MockUserStore.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users:  make(map[int64]models.User),
		nextID: 1,
	}
}

// Create adds a new user, assigning a sequential id.
func (r *MockUserStore) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return fmt.Errorf("create user: %w", models.ErrDuplicateKey)
		}
	}

	now := time.Now().UTC()
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByID returns a user by id, or (nil, nil) when absent.
func (r *MockUserStore) GetByID(id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// GetByEmail returns a user by email, or (nil, nil) when absent.
func (r *MockUserStore) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

// GetByUsername returns a user by username, or (nil, nil) when absent.
func (r *MockUserStore) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

// ListPage returns summaries ordered by id ascending.
func (r *MockUserStore) ListPage(skip, limit int) ([]models.UserSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	summaries := make([]models.UserSummary, 0, limit)
	for i := skip; i < len(ids) && len(summaries) < limit; i++ {
		u := r.users[ids[i]]
		summaries = append(summaries, models.UserSummary{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
	}
	return summaries, nil
}

// Update overwrites an existing user's mutable fields.
func (r *MockUserStore) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("update user %d: %w", user.ID, models.ErrNotFound)
	}

	for id, other := range r.users {
		if id == user.ID {
			continue
		}
		if other.Email == user.Email || other.Username == user.Username {
			return fmt.Errorf("update user %d: %w", user.ID, models.ErrDuplicateKey)
		}
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

// Delete removes a user by id.
func (r *MockUserStore) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("delete user %d: %w", id, models.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

// Count reports the number of stored rows. Test helper.
func (r *MockUserStore) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
