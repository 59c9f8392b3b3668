package dto

import (
	"time"

	"ormlab/internal/models"
)

// UserCreate is the request body for POST /users.
// Password is the raw secret; the service hashes it before anything is stored.
type UserCreate struct {
	Email    string  `json:"email" validate:"required,email"`
	Username string  `json:"username" validate:"required,min=3,max=100"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Password string  `json:"password" validate:"required,min=8"`
	IsActive *bool   `json:"is_active"`
}

// UserUpdate is the request body for PATCH /users/:id.
// Every field is a pointer: nil means "leave unchanged".
type UserUpdate struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	Username    *string `json:"username" validate:"omitempty,min=3,max=100"`
	FullName    *string `json:"full_name" validate:"omitempty,max=255"`
	Password    *string `json:"password" validate:"omitempty,min=8"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// Empty reports whether the patch carries no fields at all.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.Username == nil && u.FullName == nil &&
		u.Password == nil && u.IsActive == nil && u.IsSuperuser == nil
}

// UserDetail is the full read-shape returned by create, get and patch.
// It is only ever derived from a models.User, never built by hand, which is
// what keeps the hashed password out of every response.
type UserDetail struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListItem is the minimal read-shape returned by the paginated list.
type UserListItem struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// DetailFromUser projects a stored user into its detail shape.
func DetailFromUser(u *models.User) UserDetail {
	return UserDetail{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ListItemsFromSummaries wraps adapter projection rows as list items.
func ListItemsFromSummaries(rows []models.UserSummary) []UserListItem {
	items := make([]UserListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, UserListItem{ID: r.ID, Username: r.Username, CreatedAt: r.CreatedAt})
	}
	return items
}
