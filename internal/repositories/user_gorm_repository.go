package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ormlab/internal/models"
)

// GORMUserStore is the GORM implementation of UserStore. Column projection
// for the list page is expressed at query time with Select, which GORM
// pushes down to the generated SQL.
type GORMUserStore struct {
	db *gorm.DB
}

// NewGORMUserStore creates a new instance of GORMUserStore.
func NewGORMUserStore(db *gorm.DB) *GORMUserStore {
	return &GORMUserStore{
		db: db,
	}
}

// Create inserts a new user, letting the database assign the id.
func (r *GORMUserStore) Create(user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := r.db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create user: %w", models.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id. A missing row is (nil, nil).
func (r *GORMUserStore) GetByID(id int64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email. A missing row is (nil, nil).
func (r *GORMUserStore) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username. A missing row is (nil, nil).
func (r *GORMUserStore) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// ListPage returns the minimal projection, ordered by id. Only the three
// summary columns leave the database.
func (r *GORMUserStore) ListPage(skip, limit int) ([]models.UserSummary, error) {
	rows := make([]models.UserSummary, 0, limit)
	err := r.db.Model(&models.User{}).
		Select("id", "username", "created_at").
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return rows, nil
}

// Update overwrites all mutable columns of an existing user.
func (r *GORMUserStore) Update(user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	res := r.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Select("email", "username", "full_name", "hashed_password", "is_active", "is_superuser", "updated_at").
		Updates(user)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return fmt.Errorf("update user %d: %w", user.ID, models.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to update user %d: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user %d: %w", user.ID, models.ErrNotFound)
	}
	return nil
}

// Delete removes a user by id.
func (r *GORMUserStore) Delete(id int64) error {
	res := r.db.Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete user %d: %w", id, models.ErrNotFound)
	}
	return nil
}
