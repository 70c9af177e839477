package dashboard

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

// DashboardHandler serves the student's progress view
type DashboardHandler struct {
	db           *gorm.DB
	enrollments  *services.EnrollmentService
	progress     *services.ProgressService
	certificates *services.CertificateService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(db *gorm.DB, enrollments *services.EnrollmentService, progress *services.ProgressService, certificates *services.CertificateService) *DashboardHandler {
	return &DashboardHandler{
		db:           db,
		enrollments:  enrollments,
		progress:     progress,
		certificates: certificates,
	}
}

// CourseCard is one enrollment on the dashboard, with live progress
// and any certificate already earned.
type CourseCard struct {
	Enrollment  model.Enrollment         `json:"enrollment"`
	Course      model.Course             `json:"course"`
	Progress    *services.ProgressReport `json:"progress"`
	Certificate *model.Certificate       `json:"certificate,omitempty"`
}

// GetDashboard handles GET /api/v1/dashboard
//
// Progress here is read-only. Certificates are only issued by the
// explicit refresh endpoint or the nightly sweep, so viewing the
// dashboard never writes.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.enrollments.ActiveForUser(user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	cards := make([]CourseCard, 0, len(enrollments))
	for _, e := range enrollments {
		report, err := h.progress.Compute(e.UserID, e.CourseID)
		if err != nil {
			return response.InternalServerError(c, "Failed to compute progress")
		}

		card := CourseCard{Enrollment: e, Course: e.Course, Progress: report}

		cert, err := h.certificates.Get(e.UserID, e.CourseID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return response.InternalServerError(c, "Failed to fetch certificate")
		}
		if err == nil {
			card.Certificate = cert
		}

		cards = append(cards, card)
	}

	return response.Success(c, cards)
}

// GetCourseProgress handles GET /api/v1/courses/:id/progress
func (h *DashboardHandler) GetCourseProgress(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || courseID == 0 {
		return response.BadRequest(c, "Invalid course id")
	}

	enrolled, err := h.enrollments.IsEnrolled(user.ID, uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if !enrolled {
		return response.Forbidden(c, "You are not enrolled in this course")
	}

	report, err := h.progress.Compute(user.ID, uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to compute progress")
	}

	return response.Success(c, report)
}

// RefreshCompletion handles POST /api/v1/courses/:id/refresh-completion.
// It re-evaluates progress and, when every dimension is satisfied,
// issues the certificate and marks the enrollment completed. Calling
// it again returns the same certificate.
func (h *DashboardHandler) RefreshCompletion(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || courseID == 0 {
		return response.BadRequest(c, "Invalid course id")
	}

	enrolled, err := h.enrollments.IsEnrolled(user.ID, uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if !enrolled {
		return response.Forbidden(c, "You are not enrolled in this course")
	}

	result, err := h.certificates.CheckAndIssue(user.ID, uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to refresh completion")
	}

	return response.Success(c, result)
}
