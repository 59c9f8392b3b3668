package repositories_test

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ormlab/internal/database"
	"ormlab/internal/models"
	"ormlab/internal/repositories"
	"ormlab/pkg/logger"
)

// newTestDB creates a migrated sqlite database in a temp dir and returns
// the raw handle plus its DSN so GORM can open the same file.
func newTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ormlab_test.db")
	db, err := database.Setup(dsn, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dsn
}

// storeFactories builds each UserStore implementation against its own
// fresh database so the whole suite runs once per adapter.
func storeFactories() map[string]func(t *testing.T) repositories.UserStore {
	return map[string]func(t *testing.T) repositories.UserStore{
		"sql": func(t *testing.T) repositories.UserStore {
			db, _ := newTestDB(t)
			return repositories.NewSQLUserStore(db, logger.Discard())
		},
		"gorm": func(t *testing.T) repositories.UserStore {
			_, dsn := newTestDB(t)
			gormDB, err := database.OpenGORM(dsn)
			require.NoError(t, err)
			return repositories.NewGORMUserStore(gormDB)
		},
		"view": func(t *testing.T) repositories.UserStore {
			db, _ := newTestDB(t)
			registry := repositories.NewProjectionRegistry()
			require.NoError(t, registry.Declare(repositories.UserSummaryView, "id", "username", "created_at"))
			store, err := repositories.NewViewUserStore(db, registry, logger.Discard())
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			return store
		},
		"mock": func(t *testing.T) repositories.UserStore {
			return repositories.NewMockUserStore()
		},
	}
}

func newUser(n int) *models.User {
	return &models.User{
		Email:          fmt.Sprintf("user%d@example.com", n),
		Username:       fmt.Sprintf("user%d", n),
		HashedPassword: "bcrypt-hash",
		IsActive:       true,
	}
}

func TestUserStoreCreateAndGet(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			user := newUser(1)
			user.FullName = "Alice Example"
			require.NoError(t, store.Create(user))

			assert.Greater(t, user.ID, int64(0))
			assert.False(t, user.CreatedAt.IsZero())
			assert.False(t, user.UpdatedAt.Before(user.CreatedAt))

			got, err := store.GetByID(user.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, user.Email, got.Email)
			assert.Equal(t, user.Username, got.Username)
			assert.Equal(t, "Alice Example", got.FullName)
			assert.Equal(t, "bcrypt-hash", got.HashedPassword)
			assert.True(t, got.IsActive)
			assert.False(t, got.IsSuperuser)

			byEmail, err := store.GetByEmail(user.Email)
			require.NoError(t, err)
			require.NotNil(t, byEmail)
			assert.Equal(t, user.ID, byEmail.ID)

			byUsername, err := store.GetByUsername(user.Username)
			require.NoError(t, err)
			require.NotNil(t, byUsername)
			assert.Equal(t, user.ID, byUsername.ID)
		})
	}
}

func TestUserStoreGetMissingIsNotAnError(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			got, err := store.GetByID(42)
			assert.NoError(t, err)
			assert.Nil(t, got)

			got, err = store.GetByEmail("nobody@example.com")
			assert.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestUserStoreDuplicateKeyLeavesNoPartialRow(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			first := &models.User{Email: "a@x.com", Username: "alice", HashedPassword: "h", IsActive: true}
			require.NoError(t, store.Create(first))

			// Same email, different username.
			dupEmail := &models.User{Email: "a@x.com", Username: "bob", HashedPassword: "h", IsActive: true}
			err := store.Create(dupEmail)
			assert.ErrorIs(t, err, models.ErrDuplicateKey)

			// Same username, different email.
			dupUsername := &models.User{Email: "b@x.com", Username: "alice", HashedPassword: "h", IsActive: true}
			err = store.Create(dupUsername)
			assert.ErrorIs(t, err, models.ErrDuplicateKey)

			rows, err := store.ListPage(0, 10)
			require.NoError(t, err)
			assert.Len(t, rows, 1, "failed creates must not leave partial rows")
			assert.Equal(t, "alice", rows[0].Username)
		})
	}
}

func TestUserStoreListPagination(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			for i := 1; i <= 5; i++ {
				require.NoError(t, store.Create(newUser(i)))
			}

			full, err := store.ListPage(0, 100)
			require.NoError(t, err)
			require.Len(t, full, 5)
			for i := 1; i < len(full); i++ {
				assert.Less(t, full[i-1].ID, full[i].ID, "list must be ordered by id ascending")
			}

			// Two consecutive pages reconstruct a contiguous prefix.
			var paged []models.UserSummary
			for skip := 0; skip < 5; skip += 2 {
				page, err := store.ListPage(skip, 2)
				require.NoError(t, err)
				paged = append(paged, page...)
			}
			require.Len(t, paged, 5)
			for i := range full {
				assert.Equal(t, full[i].ID, paged[i].ID)
				assert.Equal(t, full[i].Username, paged[i].Username)
			}

			// Skip beyond the row count is empty, not an error.
			empty, err := store.ListPage(50, 10)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestUserStoreUpdate(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			user := newUser(1)
			require.NoError(t, store.Create(user))
			createdAt := user.CreatedAt

			time.Sleep(20 * time.Millisecond)

			user.FullName = "Renamed"
			user.IsSuperuser = true
			require.NoError(t, store.Update(user))

			got, err := store.GetByID(user.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Renamed", got.FullName)
			assert.True(t, got.IsSuperuser)
			assert.True(t, got.UpdatedAt.After(createdAt), "updated_at must move forward")
			assert.WithinDuration(t, createdAt, got.CreatedAt, time.Second, "created_at must not change")
		})
	}
}

func TestUserStoreUpdateMissingAndConflict(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			ghost := newUser(9)
			ghost.ID = 999
			err := store.Update(ghost)
			assert.ErrorIs(t, err, models.ErrNotFound)

			first := newUser(1)
			second := newUser(2)
			require.NoError(t, store.Create(first))
			require.NoError(t, store.Create(second))

			// Steal the first user's email.
			second.Email = first.Email
			err = store.Update(second)
			assert.ErrorIs(t, err, models.ErrDuplicateKey)

			// The conflicting update must not have mutated the row.
			got, err := store.GetByID(second.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "user2@example.com", got.Email)
		})
	}
}

func TestUserStoreDelete(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			user := newUser(1)
			require.NoError(t, store.Create(user))
			require.NoError(t, store.Delete(user.ID))

			got, err := store.GetByID(user.ID)
			assert.NoError(t, err)
			assert.Nil(t, got, "delete then get must be absent, not an error")

			err = store.Delete(user.ID)
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}
}

func TestViewStoreFallsBackWithoutDeclaredProjection(t *testing.T) {
	db, _ := newTestDB(t)

	// No user_summary declaration at all: the store must still serve the
	// minimal projection, just from full rows.
	store, err := repositories.NewViewUserStore(db, repositories.NewProjectionRegistry(), logger.Discard())
	require.NoError(t, err)
	defer store.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Create(newUser(i)))
	}

	rows, err := store.ListPage(0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "user1", rows[0].Username)
	assert.Equal(t, "user3", rows[2].Username)
}

func TestViewStoreRejectsIncompleteProjection(t *testing.T) {
	db, _ := newTestDB(t)

	registry := repositories.NewProjectionRegistry()
	require.NoError(t, registry.Declare(repositories.UserSummaryView, "id", "username"))

	_, err := repositories.NewViewUserStore(db, registry, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
}

func TestProjectionRegistryDeclare(t *testing.T) {
	registry := repositories.NewProjectionRegistry()

	require.NoError(t, registry.Declare("user_summary", "id", "username", "created_at"))
	assert.True(t, registry.Has("user_summary"))

	err := registry.Declare("user_summary", "id")
	assert.Error(t, err, "redeclaring a projection must fail")

	assert.Error(t, registry.Declare("", "id"))
	assert.Error(t, registry.Declare("empty"))

	view, ok := registry.Lookup("user_summary")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "username", "created_at"}, view.Columns)
}
