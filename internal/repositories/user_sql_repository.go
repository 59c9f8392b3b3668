package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ormlab/internal/models"
	"ormlab/pkg/logger"
)

// SQLUserStore is the hand-written SQL implementation of UserStore on top
// of database/sql. Every query names its columns explicitly, so the list
// page naturally fetches only the projection columns.
type SQLUserStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLUserStore creates a new instance of SQLUserStore.
func NewSQLUserStore(db *sql.DB, log logger.Logger) *SQLUserStore {
	return &SQLUserStore{
		db:  db,
		log: log,
	}
}

const userColumns = "id, email, username, full_name, hashed_password, is_active, is_superuser, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FullName,
		&user.HashedPassword,
		&user.IsActive,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user and reads back the assigned id.
func (r *SQLUserStore) Create(user *models.User) error {
	query := `
		INSERT INTO users (email, username, full_name, hashed_password, is_active, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.QueryRow(
		query,
		user.Email,
		user.Username,
		user.FullName,
		user.HashedPassword,
		user.IsActive,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create user: %w", models.ErrDuplicateKey)
		}
		r.log.Error("failed to create user", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id. A missing row is (nil, nil).
func (r *SQLUserStore) GetByID(id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		r.log.Error("failed to get user by id", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email. A missing row is (nil, nil).
func (r *SQLUserStore) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(query, email))
	if err != nil {
		r.log.Error("failed to get user by email", map[string]interface{}{"email": email, "error": err.Error()})
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username. A missing row is (nil, nil).
func (r *SQLUserStore) GetByUsername(username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRow(query, username))
	if err != nil {
		r.log.Error("failed to get user by username", map[string]interface{}{"username": username, "error": err.Error()})
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return user, nil
}

// ListPage fetches only the three projection columns, ordered by id.
func (r *SQLUserStore) ListPage(skip, limit int) ([]models.UserSummary, error) {
	query := `SELECT id, username, created_at FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(query, limit, skip)
	if err != nil {
		r.log.Error("failed to list users", map[string]interface{}{"skip": skip, "limit": limit, "error": err.Error()})
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.UserSummary, 0, limit)
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return summaries, nil
}

// Update overwrites all mutable columns of an existing user.
func (r *SQLUserStore) Update(user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, username = $2, full_name = $3, hashed_password = $4, is_active = $5, is_superuser = $6, updated_at = $7
		WHERE id = $8
	`

	user.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(
		query,
		user.Email,
		user.Username,
		user.FullName,
		user.HashedPassword,
		user.IsActive,
		user.IsSuperuser,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("update user %d: %w", user.ID, models.ErrDuplicateKey)
		}
		r.log.Error("failed to update user", map[string]interface{}{"id": user.ID, "error": err.Error()})
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update user %d: %w", user.ID, models.ErrNotFound)
	}
	return nil
}

// Delete removes a user by id.
func (r *SQLUserStore) Delete(id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.Exec(query, id)
	if err != nil {
		r.log.Error("failed to delete user", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete user %d: %w", id, models.ErrNotFound)
	}
	return nil
}
