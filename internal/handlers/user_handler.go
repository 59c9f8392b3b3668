package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"ormlab/internal/dto"
	"ormlab/internal/models"
	"ormlab/internal/services"
	"ormlab/pkg/logger"
)

// UserHandler handles HTTP requests for one user-resource variant. The
// same handler type serves all three storage adapters; only the injected
// service differs.
type UserHandler struct {
	service  *services.UserService
	log      logger.Logger
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{
		service:  service,
		log:      log,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the five user routes under the given prefix,
// e.g. /sql/users or /gorm/users.
func (h *UserHandler) RegisterRoutes(router fiber.Router, prefix string) {
	userRoutes := router.Group(prefix)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Patch("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleCreateUser creates a new user and returns its detail projection.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req dto.UserCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return h.validationError(c, err)
	}

	detail, err := h.service.Create(req)
	if err != nil {
		return h.serviceError(c, err, "Could not create user")
	}

	return c.Status(fiber.StatusCreated).JSON(detail)
}

// HandleGetUser returns the detail projection for a single user.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid user id",
		})
	}

	detail, err := h.service.GetByID(int64(id))
	if err != nil {
		return h.serviceError(c, err, "Could not retrieve user")
	}

	return c.JSON(detail)
}

// HandleListUsers returns the paginated minimal projection. skip defaults
// to 0 and limit to 100, matching the list contract.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)

	items, err := h.service.List(skip, limit)
	if err != nil {
		return h.serviceError(c, err, "Could not list users")
	}

	return c.JSON(items)
}

// HandleUpdateUser applies a partial update and returns the refreshed
// detail projection.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid user id",
		})
	}

	var req dto.UserUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return h.validationError(c, err)
	}

	detail, err := h.service.Patch(int64(id), req)
	if err != nil {
		return h.serviceError(c, err, "Could not update user")
	}

	return c.JSON(detail)
}

// HandleDeleteUser removes a user permanently.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid user id",
		})
	}

	if err := h.service.Delete(int64(id)); err != nil {
		return h.serviceError(c, err, "Could not delete user")
	}

	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

// validationError renders field-level validation failures.
func (h *UserHandler) validationError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// serviceError maps the error taxonomy onto HTTP statuses: duplicate key
// and invalid input are 400, missing ids are 404, everything else is 500.
func (h *UserHandler) serviceError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, models.ErrDuplicateKey):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, models.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		h.log.Error(message, map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}
