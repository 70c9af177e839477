package enrollment

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

// EnrollmentHandler handles purchase, cancellation and refund requests
type EnrollmentHandler struct {
	db          *gorm.DB
	enrollments *services.EnrollmentService
	payments    *services.PaymentService
	audit       *services.AuditService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB, enrollments *services.EnrollmentService, payments *services.PaymentService, audit *services.AuditService) *EnrollmentHandler {
	return &EnrollmentHandler{
		db:          db,
		enrollments: enrollments,
		payments:    payments,
		audit:       audit,
	}
}

// BuyRequest selects the simulated payment provider
type BuyRequest struct {
	Provider string `json:"provider"`
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.BadRequest(c, "Invalid id")
	}
	return uint(id), nil
}

// Enroll handles POST /api/v1/courses/:id/enroll
//
// Enrollment and payment are one purchase: the service records both in
// a single transaction even for free courses, keeping the ledger's
// entitlement invariant (a paid payment exists for every active
// enrollment) uniform.
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.enrollments.Enroll(user.ID, courseID, "sandbox")
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrCourseUnavailable):
			return response.Precondition(c, "Course is not open for enrollment")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "You are already enrolled in this course")
		}
		return response.InternalServerError(c, "Failed to enroll")
	}

	return response.Created(c, result.Enrollment)
}

// Buy handles POST /api/v1/courses/:id/buy and returns both halves of
// the purchase.
func (h *EnrollmentHandler) Buy(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req BuyRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}
	provider := req.Provider
	if provider == "" {
		provider = "sandbox"
	}

	result, err := h.enrollments.Enroll(user.ID, courseID, provider)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrCourseUnavailable):
			return response.Precondition(c, "Course is not open for enrollment")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Precondition(c, "You are already enrolled in this course")
		}
		return response.InternalServerError(c, "Failed to complete purchase")
	}

	return response.SuccessWithMessage(c, "Payment successful, you are enrolled", result)
}

// ListAdmin handles GET /api/v1/admin/enrollments with payment and
// refund state for each row.
func (h *EnrollmentHandler) ListAdmin(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	var total int64
	if err := h.db.Model(&model.Enrollment{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count enrollments")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var enrollments []model.Enrollment
	if err := h.db.Preload("User").Preload("Course").
		Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&enrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	type adminRow struct {
		model.Enrollment
		HasRefund bool `json:"has_refund"`
	}

	rows := make([]adminRow, 0, len(enrollments))
	for _, e := range enrollments {
		hasRefund, err := h.payments.HasRefund(e.UserID, e.CourseID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check refund state")
		}
		rows = append(rows, adminRow{Enrollment: e, HasRefund: hasRefund})
	}

	return response.Paginated(c, rows, pagination)
}

// Cancel handles POST /api/v1/admin/enrollments/:id/cancel
func (h *EnrollmentHandler) Cancel(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollmentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.enrollments.Cancel(enrollmentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Enrollment not found")
		case errors.Is(err, services.ErrAlreadyCancelled):
			return response.Conflict(c, "Enrollment is already cancelled")
		}
		return response.InternalServerError(c, "Failed to cancel enrollment")
	}

	h.audit.Record(admin.ID, "enrollment_cancel", "enrollments", enrollmentID,
		fiber.Map{"status": result.PreviousStatus},
		fiber.Map{"status": model.EnrollmentCancelled, "refunded": result.Refund != nil},
		c.IP(), "Admin cancelled enrollment")

	return response.SuccessWithMessage(c, "Enrollment cancelled", result)
}

// Refund handles POST /api/v1/admin/enrollments/:id/refund. It creates
// a refund for an enrollment that was cancelled without one.
func (h *EnrollmentHandler) Refund(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollmentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	enrollment, err := h.enrollments.Get(enrollmentID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	refund, err := h.payments.RefundStandalone(enrollment.UserID, enrollment.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoOriginalPayment):
			return response.Precondition(c, "No paid payment found to refund")
		case errors.Is(err, services.ErrDuplicateRefund):
			return response.Conflict(c, "A refund already exists for this enrollment")
		}
		return response.InternalServerError(c, "Failed to create refund")
	}

	h.audit.Record(admin.ID, "refund_create", "payments", refund.ID,
		nil,
		fiber.Map{"txn_ref": refund.TxnRef, "amount": refund.Amount},
		c.IP(), "Admin created refund")

	return response.SuccessWithMessage(c, "Refund recorded", refund)
}

// Ledger handles GET /api/v1/admin/enrollments/:id/payments. It returns
// the full payment history behind one enrollment.
func (h *EnrollmentHandler) Ledger(c *fiber.Ctx) error {
	enrollmentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	enrollment, err := h.enrollments.Get(enrollmentID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	payments, err := h.payments.LedgerFor(enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Success(c, payments)
}
