package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ormlab/internal/dto"
	"ormlab/internal/models"
	"ormlab/internal/repositories"
	"ormlab/pkg/logger"
	"ormlab/pkg/rabbitmq"
)

// EventPublisher publishes user lifecycle events. A nil publisher disables
// eventing entirely; tests and minimal deployments run without a broker.
type EventPublisher interface {
	PublishUserEvent(event rabbitmq.UserEvent) error
}

// UserService orchestrates user CRUD over a single UserStore: uniqueness
// pre-checks, password hashing, partial-field merges and projection
// selection. One instance exists per storage adapter variant; the variant
// name only tags logs and events.
type UserService struct {
	variant string
	store   repositories.UserStore
	log     logger.Logger
	events  EventPublisher
}

// NewUserService creates a new UserService.
func NewUserService(variant string, store repositories.UserStore, log logger.Logger, events EventPublisher) *UserService {
	return &UserService{
		variant: variant,
		store:   store,
		log:     log,
		events:  events,
	}
}

// Create registers a new user. Email and username are pre-checked as a
// courtesy, but the store's constraint is the source of truth: a racing
// create that slips past the pre-check still surfaces as the same
// duplicate-key error.
func (s *UserService) Create(req dto.UserCreate) (dto.UserDetail, error) {
	if existing, err := s.store.GetByEmail(req.Email); err == nil && existing != nil {
		return dto.UserDetail{}, fmt.Errorf("email '%s' already registered: %w", req.Email, models.ErrDuplicateKey)
	}
	if existing, err := s.store.GetByUsername(req.Username); err == nil && existing != nil {
		return dto.UserDetail{}, fmt.Errorf("username '%s' already taken: %w", req.Username, models.ErrDuplicateKey)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserDetail{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: string(hashedPassword),
		IsActive:       true,
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.store.Create(&user); err != nil {
		return dto.UserDetail{}, err
	}

	s.publish("user.created", &user)
	return dto.DetailFromUser(&user), nil
}

// GetByID returns the detail projection for an existing user.
func (s *UserService) GetByID(id int64) (dto.UserDetail, error) {
	user, err := s.store.GetByID(id)
	if err != nil {
		return dto.UserDetail{}, err
	}
	if user == nil {
		return dto.UserDetail{}, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return dto.DetailFromUser(user), nil
}

// List forwards pagination to the store and wraps its minimal-projection
// rows. Parameters are validated here so every adapter sees the same
// range.
func (s *UserService) List(skip, limit int) ([]dto.UserListItem, error) {
	if skip < 0 || limit <= 0 {
		return nil, fmt.Errorf("skip must be non-negative and limit positive: %w", models.ErrInvalidInput)
	}

	rows, err := s.store.ListPage(skip, limit)
	if err != nil {
		return nil, err
	}
	return dto.ListItemsFromSummaries(rows), nil
}

// Patch loads the existing row, merges only the provided fields and
// delegates the write. Fields left nil in the request are untouched.
func (s *UserService) Patch(id int64, req dto.UserUpdate) (dto.UserDetail, error) {
	user, err := s.store.GetByID(id)
	if err != nil {
		return dto.UserDetail{}, err
	}
	if user == nil {
		return dto.UserDetail{}, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return dto.UserDetail{}, fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = string(hashedPassword)
	}

	if err := s.store.Update(user); err != nil {
		return dto.UserDetail{}, err
	}

	s.publish("user.updated", user)
	return dto.DetailFromUser(user), nil
}

// Delete removes a user permanently.
func (s *UserService) Delete(id int64) error {
	user, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}

	if err := s.store.Delete(id); err != nil {
		return err
	}

	s.publish("user.deleted", user)
	return nil
}

// publish sends a lifecycle event. Publish failures are logged, never
// surfaced: the write already committed.
func (s *UserService) publish(action string, user *models.User) {
	if s.events == nil {
		return
	}
	event := rabbitmq.UserEvent{
		Action:   action,
		Variant:  s.variant,
		UserID:   user.ID,
		Username: user.Username,
	}
	if err := s.events.PublishUserEvent(event); err != nil {
		s.log.Warn("failed to publish user event", map[string]interface{}{
			"action": action,
			"user":   user.ID,
			"error":  err.Error(),
		})
	}
}
