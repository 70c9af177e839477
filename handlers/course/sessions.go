package course

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
	"gorm.io/gorm"
)

// CreateSessionRequest represents the request body for scheduling a session
type CreateSessionRequest struct {
	Title    string    `json:"title" validate:"required,min=2,max=255"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at"`
	Location string    `json:"location" validate:"omitempty,max=255"`
}

func (h *CourseHandler) ownedCourse(c *fiber.Ctx, courseID string) (*model.Course, error) {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return nil, response.Unauthorized(c, "User not authenticated")
	}

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Course not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch course")
	}

	if !user.IsAdmin() && course.TeacherID != user.ID {
		return nil, response.Forbidden(c, "You do not own this course")
	}

	return &course, nil
}

// ListSessions handles GET /api/v1/courses/:course_id/sessions
func (h *CourseHandler) ListSessions(c *fiber.Ctx) error {
	courseID := c.Params("course_id")

	var sessions []model.ClassSession
	if err := h.db.Where("course_id = ?", courseID).
		Order("starts_at").
		Find(&sessions).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}

	return response.Success(c, sessions)
}

// CreateSession handles POST /api/v1/teacher/courses/:course_id/sessions
func (h *CourseHandler) CreateSession(c *fiber.Ctx) error {
	course, err := h.ownedCourse(c, c.Params("course_id"))
	if err != nil {
		return err
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	session := model.ClassSession{
		CourseID: course.ID,
		Title:    validation.SanitizeString(req.Title),
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Location: validation.SanitizeString(req.Location),
	}

	if err := h.db.Create(&session).Error; err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	return response.Created(c, session)
}

// DeleteSession handles DELETE /api/v1/teacher/courses/:course_id/sessions/:id
func (h *CourseHandler) DeleteSession(c *fiber.Ctx) error {
	course, err := h.ownedCourse(c, c.Params("course_id"))
	if err != nil {
		return err
	}

	var session model.ClassSession
	if err := h.db.Where("course_id = ?", course.ID).First(&session, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to fetch session")
	}

	if err := h.db.Delete(&session).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete session")
	}

	return response.SuccessWithMessage(c, "Session deleted successfully", nil)
}
