package repositories

import "ormlab/internal/models"

// UserStore defines the interface for user data access. Three adapters
// implement it against the same users table: a raw database/sql adapter,
// a GORM adapter, and a declared-projection adapter. Their observable
// behavior must be identical even though their projection capabilities
// are not.
type UserStore interface {
	// Create inserts a new row, assigning ID and both timestamps.
	// Returns models.ErrDuplicateKey when email or username collides.
	Create(user *models.User) error
	// GetByID returns (nil, nil) when the id does not exist; absence is
	// not an error at this layer.
	GetByID(id int64) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	// ListPage returns minimal-projection rows ordered by id ascending.
	// A skip past the end of the table yields an empty slice.
	ListPage(skip, limit int) ([]models.UserSummary, error)
	// Update overwrites every mutable column and refreshes updated_at.
	// Returns models.ErrNotFound when the id is absent and
	// models.ErrDuplicateKey when the new email/username collides.
	Update(user *models.User) error
	// Delete removes the row. Returns models.ErrNotFound when absent.
	Delete(id int64) error
}
