package auth

import (
	"time"

	"github.com/minhtran-dev/edumarket-api/utils/auth"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *auth.JWTManager
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
