package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"ormlab/internal/models"
	"ormlab/pkg/logger"
)

// ViewUserStore is the declared-projection implementation of UserStore.
// It mimics a generated client: every statement it will ever run is
// prepared at construction time, and the shape of the list query is fixed
// by whatever projection was declared in the registry before the store was
// built. There is no way to ask it for a different column set at call time.
//
// When the user_summary projection was not declared, ListPage falls back
// to the prepared full-row statement and trims the rows in process. That
// fetches columns nobody asked for; the fallback is logged rather than
// hidden so the inefficiency stays visible.
type ViewUserStore struct {
	db  *sql.DB
	log logger.Logger

	createStmt     *sql.Stmt
	byIDStmt       *sql.Stmt
	byEmailStmt    *sql.Stmt
	byUsernameStmt *sql.Stmt
	updateStmt     *sql.Stmt
	deleteStmt     *sql.Stmt
	listStmt       *sql.Stmt

	summaryDeclared bool
}

// NewViewUserStore prepares all statements up front. It fails when the
// registry declares a user_summary projection that does not cover the
// summary columns, since a store built from it could not produce uniform
// list output.
func NewViewUserStore(db *sql.DB, reg *ProjectionRegistry, log logger.Logger) (*ViewUserStore, error) {
	s := &ViewUserStore{db: db, log: log}

	listQuery := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`
	if view, ok := reg.Lookup(UserSummaryView); ok {
		if !view.covers("id", "username", "created_at") {
			return nil, fmt.Errorf("projection %q must cover id, username and created_at", UserSummaryView)
		}
		listQuery = `SELECT id, username, created_at FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`
		s.summaryDeclared = true
	} else {
		s.log.Warn("no user_summary projection declared, list pages will fetch full rows", nil)
	}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.createStmt, `
			INSERT INTO users (email, username, full_name, hashed_password, is_active, is_superuser, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`},
		{&s.byIDStmt, `SELECT ` + userColumns + ` FROM users WHERE id = $1`},
		{&s.byEmailStmt, `SELECT ` + userColumns + ` FROM users WHERE email = $1`},
		{&s.byUsernameStmt, `SELECT ` + userColumns + ` FROM users WHERE username = $1`},
		{&s.updateStmt, `
			UPDATE users
			SET email = $1, username = $2, full_name = $3, hashed_password = $4, is_active = $5, is_superuser = $6, updated_at = $7
			WHERE id = $8
		`},
		{&s.deleteStmt, `DELETE FROM users WHERE id = $1`},
		{&s.listStmt, listQuery},
	}

	for _, st := range stmts {
		prepared, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to prepare statement: %w", err)
		}
		*st.dst = prepared
	}

	return s, nil
}

// Close releases the prepared statements. The database handle itself is
// owned by the caller.
func (r *ViewUserStore) Close() error {
	var firstErr error
	for _, stmt := range []*sql.Stmt{
		r.createStmt, r.byIDStmt, r.byEmailStmt, r.byUsernameStmt,
		r.updateStmt, r.deleteStmt, r.listStmt,
	} {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Create inserts a new user through the prepared insert.
func (r *ViewUserStore) Create(user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.createStmt.QueryRow(
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
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *ViewUserStore) getOne(stmt *sql.Stmt, arg interface{}) (*models.User, error) {
	user, err := scanUser(stmt.QueryRow(arg))
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by id. A missing row is (nil, nil).
func (r *ViewUserStore) GetByID(id int64) (*models.User, error) {
	user, err := r.getOne(r.byIDStmt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email. A missing row is (nil, nil).
func (r *ViewUserStore) GetByEmail(email string) (*models.User, error) {
	user, err := r.getOne(r.byEmailStmt, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username. A missing row is (nil, nil).
func (r *ViewUserStore) GetByUsername(username string) (*models.User, error) {
	user, err := r.getOne(r.byUsernameStmt, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return user, nil
}

// ListPage serves the minimal projection. With a declared user_summary
// view the prepared statement already selects only the three columns;
// otherwise full rows are fetched and trimmed here.
func (r *ViewUserStore) ListPage(skip, limit int) ([]models.UserSummary, error) {
	rows, err := r.listStmt.Query(limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.UserSummary, 0, limit)
	for rows.Next() {
		var s models.UserSummary
		if r.summaryDeclared {
			err = rows.Scan(&s.ID, &s.Username, &s.CreatedAt)
		} else {
			var full models.User
			err = rows.Scan(
				&full.ID,
				&full.Email,
				&full.Username,
				&full.FullName,
				&full.HashedPassword,
				&full.IsActive,
				&full.IsSuperuser,
				&full.CreatedAt,
				&full.UpdatedAt,
			)
			s = models.UserSummary{ID: full.ID, Username: full.Username, CreatedAt: full.CreatedAt}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return summaries, nil
}

// Update overwrites all mutable columns of an existing user.
func (r *ViewUserStore) Update(user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := r.updateStmt.Exec(
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
func (r *ViewUserStore) Delete(id int64) error {
	res, err := r.deleteStmt.Exec(id)
	if err != nil {
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
