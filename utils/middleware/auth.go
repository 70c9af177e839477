package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/utils/auth"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*model.User, *auth.Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, response.Unauthorized(c, "Missing authorization token")
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, response.Unauthorized(c, "Invalid authorization format")
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if err == auth.ErrExpiredToken {
			return nil, nil, response.Unauthorized(c, "Token has expired")
		}
		return nil, nil, response.Unauthorized(c, "Invalid token")
	}

	if claims.TokenType != "access" {
		return nil, nil, response.Unauthorized(c, "Invalid token type")
	}

	// Load user from database and verify token version
	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, response.Unauthorized(c, "User not found")
		}
		return nil, nil, response.InternalServerError(c, "Failed to load user")
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, response.Unauthorized(c, "Token has been invalidated")
	}

	return &user, claims, nil
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := m.authenticate(c)
		if err != nil {
			return err
		}

		// Store user info and full user object in context
		c.Locals("user_id", claims.UserID)
		c.Locals("user_role", claims.Role)
		c.Locals("claims", claims)
		c.Locals("user", user)

		return c.Next()
	}
}

// RequireRole is middleware that requires one of the given user roles.
// It must run after Required().
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("user_role").(string)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, r := range roles {
			if userRole == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireTeacher requires the teacher or admin role
func (m *AuthMiddleware) RequireTeacher() fiber.Handler {
	return m.RequireRole(model.RoleTeacher, model.RoleAdmin)
}

// RequireAdmin requires the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.RequireRole(model.RoleAdmin)
}

// GetUser retrieves the authenticated user from the request context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals("user").(*model.User)
	return user, ok
}
