package certificate

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/services"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"gorm.io/gorm"
)

// CertificateHandler serves issued certificates
type CertificateHandler struct {
	db           *gorm.DB
	certificates *services.CertificateService
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(db *gorm.DB, certificates *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{db: db, certificates: certificates}
}

// ListMine handles GET /api/v1/certificates
func (h *CertificateHandler) ListMine(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var certs []model.Certificate
	if err := h.db.Preload("Course").
		Where("user_id = ?", user.ID).
		Order("issued_at DESC").
		Find(&certs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch certificates")
	}

	return response.Success(c, certs)
}

// GetForCourse handles GET /api/v1/courses/:id/certificate
func (h *CertificateHandler) GetForCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || courseID == 0 {
		return response.BadRequest(c, "Invalid course id")
	}

	cert, err := h.certificates.Get(user.ID, uint(courseID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "No certificate issued for this course")
		}
		return response.InternalServerError(c, "Failed to fetch certificate")
	}

	return response.Success(c, cert)
}

// Verify handles GET /api/v1/certificates/verify/:code, a public lookup
// by certificate code so third parties can check authenticity.
func (h *CertificateHandler) Verify(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return response.BadRequest(c, "Certificate code is required")
	}

	var cert model.Certificate
	if err := h.db.Preload("Course").Preload("User").
		Where("code = ?", code).
		First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Certificate not found")
		}
		return response.InternalServerError(c, "Failed to verify certificate")
	}

	return response.Success(c, fiber.Map{
		"code":      cert.Code,
		"issued_at": cert.IssuedAt,
		"course":    cert.Course.Title,
		"holder":    cert.User.Name,
	})
}
