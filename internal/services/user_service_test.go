package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ormlab/internal/dto"
	"ormlab/internal/models"
	"ormlab/internal/repositories"
	"ormlab/internal/services"
	"ormlab/pkg/logger"
	"ormlab/pkg/rabbitmq"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []rabbitmq.UserEvent
}

func (p *recordingPublisher) PublishUserEvent(event rabbitmq.UserEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newService(events services.EventPublisher) (*services.UserService, *repositories.MockUserStore) {
	store := repositories.NewMockUserStore()
	return services.NewUserService("mock", store, logger.Discard(), events), store
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCreateHashesPasswordAndDefaults(t *testing.T) {
	svc, store := newService(nil)

	detail, err := svc.Create(dto.UserCreate{
		Email:    "a@x.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), detail.ID)
	assert.Equal(t, "a@x.com", detail.Email)
	assert.Equal(t, "alice", detail.Username)
	assert.True(t, detail.IsActive, "is_active defaults to true")

	stored, err := store.GetByID(detail.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "password123", stored.HashedPassword, "raw password must never be stored")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("password123")))
}

func TestCreateDuplicatePreCheck(t *testing.T) {
	svc, _ := newService(nil)

	_, err := svc.Create(dto.UserCreate{Email: "a@x.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	// Same email, different username.
	_, err = svc.Create(dto.UserCreate{Email: "a@x.com", Username: "bob", Password: "password123"})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	// Same username, different email.
	_, err = svc.Create(dto.UserCreate{Email: "b@x.com", Username: "alice", Password: "password123"})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)
}

func TestGetByIDMissing(t *testing.T) {
	svc, _ := newService(nil)

	_, err := svc.GetByID(42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListRejectsBadPagination(t *testing.T) {
	svc, _ := newService(nil)

	_, err := svc.List(-1, 10)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.List(0, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestListReturnsMinimalProjection(t *testing.T) {
	svc, _ := newService(nil)

	_, err := svc.Create(dto.UserCreate{Email: "a@x.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	items, err := svc.List(0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "alice", items[0].Username)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestPatchMergesOnlyProvidedFields(t *testing.T) {
	svc, store := newService(nil)

	created, err := svc.Create(dto.UserCreate{
		Email:    "a@x.com",
		Username: "alice",
		FullName: strPtr("Alice Example"),
		Password: "password123",
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	patched, err := svc.Patch(created.ID, dto.UserUpdate{
		FullName: strPtr("Alice Renamed"),
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, patched.ID)
	assert.Equal(t, "a@x.com", patched.Email, "unsupplied fields stay unchanged")
	assert.Equal(t, "alice", patched.Username)
	assert.Equal(t, "Alice Renamed", patched.FullName)
	assert.False(t, patched.IsActive)
	assert.Equal(t, created.CreatedAt, patched.CreatedAt)
	assert.True(t, patched.UpdatedAt.After(created.UpdatedAt))

	// Patching the password re-hashes it.
	oldHash, _ := store.GetByID(created.ID)
	_, err = svc.Patch(created.ID, dto.UserUpdate{Password: strPtr("newpassword1")})
	require.NoError(t, err)
	newHash, _ := store.GetByID(created.ID)
	assert.NotEqual(t, oldHash.HashedPassword, newHash.HashedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash.HashedPassword), []byte("newpassword1")))
}

func TestPatchMissingUser(t *testing.T) {
	svc, store := newService(nil)

	_, err := svc.Patch(42, dto.UserUpdate{FullName: strPtr("ghost")})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 0, store.Count())
}

func TestDeleteThenGet(t *testing.T) {
	svc, _ := newService(nil)

	created, err := svc.Create(dto.UserCreate{Email: "a@x.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))

	_, err = svc.GetByID(created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = svc.Delete(created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLifecycleEventsPublished(t *testing.T) {
	publisher := &recordingPublisher{}
	svc, _ := newService(publisher)

	created, err := svc.Create(dto.UserCreate{Email: "a@x.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Patch(created.ID, dto.UserUpdate{FullName: strPtr("Alice")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))

	require.Len(t, publisher.events, 3)
	assert.Equal(t, "user.created", publisher.events[0].Action)
	assert.Equal(t, "user.updated", publisher.events[1].Action)
	assert.Equal(t, "user.deleted", publisher.events[2].Action)
	assert.Equal(t, "mock", publisher.events[0].Variant)
	assert.Equal(t, created.ID, publisher.events[0].UserID)
}
