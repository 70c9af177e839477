package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/services"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
	"gorm.io/gorm"
)

// AdminHandler handles user administration and audit log access
type AdminHandler struct {
	db        *gorm.DB
	audit     *services.AuditService
	validator *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{
		db:        db,
		audit:     audit,
		validator: validation.NewValidator(),
	}
}

// UpdateRoleRequest represents the request body for changing a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student teacher admin"`
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	role := c.Query("role", "")

	query := h.db.Model(&model.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var users []model.User
	if err := query.Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, pagination)
}

// UpdateUserRole handles PUT /api/v1/admin/users/:id/role. Changing a
// role bumps the user's token version so existing tokens carrying the
// old role stop working.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || userID == 0 {
		return response.BadRequest(c, "Invalid user id")
	}

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	oldRole := user.Role
	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"role":          req.Role,
		"token_version": user.TokenVersion + 1,
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to update role")
	}

	h.audit.Record(admin.ID, "user_role_change", "users", uint(userID),
		fiber.Map{"role": oldRole},
		fiber.Map{"role": req.Role},
		c.IP(), "Admin changed user role")

	user.Role = req.Role
	user.TokenVersion++
	return response.SuccessWithMessage(c, "Role updated", user)
}

// ListAuditLogs handles GET /api/v1/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	if limit < 1 || limit > 200 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}

	entries, total, err := h.audit.List(limit, (page-1)*limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	pagination := response.CalculatePagination(page, limit, total)
	return response.Paginated(c, entries, pagination)
}
