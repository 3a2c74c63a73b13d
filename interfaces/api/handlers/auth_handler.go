package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"safesight/domain/dto"
	"safesight/domain/services"
	"safesight/pkg/utils"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid credentials payload", err)
	}

	token, user, err := h.authService.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return utils.UnauthorizedResponse(c, "Invalid username or password")
		case errors.Is(err, services.ErrUserInactive):
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is inactive", nil)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", err)
		}
	}

	return utils.SuccessResponse(c, fiber.Map{
		"token": token,
		"user":  dto.UserToResponse(user),
	})
}

// Register creates an operator account (admin only).
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user payload", err)
	}

	user, err := h.authService.Register(c.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Username already taken", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to register user", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.UserToResponse(user),
	})
}
