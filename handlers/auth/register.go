package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/utils/auth"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
)

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher"`
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Email = validation.SanitizeString(req.Email)
	req.Name = validation.SanitizeString(req.Name)

	// Check if email is already taken
	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "Email is already registered")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         role,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	return response.Created(c, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}
