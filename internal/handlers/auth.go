package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/config"
	"github.com/example/snowstore/internal/middleware"
	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
)

// Landing pages after sign-in.
const (
	AdminLanding      = "/admin"
	StorefrontLanding = "/"
)

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	users *services.UserService
	cfg   *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AccountResponse describes the signed-in user and where the client should go next.
type AccountResponse struct {
	Success  bool         `json:"success"`
	User     *models.User `json:"user,omitempty"`
	IsAdmin  bool         `json:"isAdmin"`
	Redirect string       `json:"redirect,omitempty"`
}

func landingFor(role string) string {
	if role == models.RoleAdmin {
		return AdminLanding
	}
	return StorefrontLanding
}

// Register creates a storefront account and signs it in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.Register(c.UserContext(), services.RegisterInput(req))
	if err != nil {
		return err
	}
	if err := middleware.StartSession(c, h.cfg, user.ID, user.Name, user.Role); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(AccountResponse{
		Success:  true,
		User:     user,
		Redirect: StorefrontLanding,
	})
}

// Login authenticates an existing user. Admins land in the back office.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := middleware.StartSession(c, h.cfg, user.ID, user.Name, user.Role); err != nil {
		return err
	}

	return c.JSON(AccountResponse{
		Success:  true,
		User:     user,
		IsAdmin:  user.Role == models.RoleAdmin,
		Redirect: landingFor(user.Role),
	})
}

// Logout clears the session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.EndSession(c)
	return c.JSON(AccountResponse{Success: true, Redirect: StorefrontLanding})
}

// Me returns the signed-in account.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not signed in")
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(AccountResponse{Success: true, User: user, IsAdmin: user.Role == models.RoleAdmin})
}

// AccessDenied is the target of forbidden browser redirects.
func (h *AuthHandler) AccessDenied(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Success: false, Message: "access denied"})
}
