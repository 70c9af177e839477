package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"omitempty,min=2,max=255"`
}

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	return response.Success(c, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// UpdateProfile updates the authenticated user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Name != "" {
		user.Name = validation.SanitizeString(req.Name)
	}

	if err := h.db.Save(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated successfully", UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}
