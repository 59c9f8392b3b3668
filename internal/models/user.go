package models

import "time"

// User represents a single account row in the shared users table.
// HashedPassword carries no json tag so it can never leak into a response body.
type User struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email          string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Username       string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	FullName       string    `json:"full_name" gorm:"type:varchar(255)"`
	HashedPassword string    `json:"-" gorm:"type:varchar(255);not null"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`
	IsSuperuser    bool      `json:"is_superuser" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null"`
}

// TableName pins the GORM mapping to the table the other adapters share.
func (User) TableName() string {
	return "users"
}

// UserSummary is the minimal projection returned by paginated list queries:
// only the columns a listing actually needs, so adapters that support
// column projection never fetch full rows.
type UserSummary struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
