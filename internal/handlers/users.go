package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/middleware"
	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/utils"
)

const generatedPasswordLength = 12

// UserHandler manages accounts from the back office.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userEditPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	NewPassword string `json:"newPassword"`
}

func actorID(c *fiber.Ctx) (uint, error) {
	id, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "not signed in")
	}
	return id, nil
}

// ListUsers searches by name or email and filters by role.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c, services.AdminPageSize, true)
	items, total, err := h.users.List(c.UserContext(), services.UserFilter{
		Search:   c.Query("search"),
		Role:     c.Query("role"),
		Page:     pg.Page,
		PageSize: pg.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": utils.NewPaginationMeta(pg, total),
		"roles":      services.ValidRoles,
	})
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse[*models.User]{Success: true, Data: user})
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req userPayload
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	user, err := h.users.Create(c.UserContext(), services.UserInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(DataResponse[*models.User]{Success: true, Data: user})
}

// EditUser applies the self-or-User rule enforced by the service.
func (h *UserHandler) EditUser(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req userEditPayload
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.Edit(c.UserContext(), actor, id, services.UserEdit(req))
	if err != nil {
		return err
	}
	return c.JSON(DataResponse[*models.User]{Success: true, Data: user})
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Success: true, Message: "user deleted"})
}

// GeneratePassword suggests a password that passes the admin password rules.
func (h *UserHandler) GeneratePassword(c *fiber.Ctx) error {
	password, err := services.GeneratePassword(generatedPasswordLength)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "password": password})
}
