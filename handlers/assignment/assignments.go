package assignment

import (
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/services"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/storage"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
	"gorm.io/gorm"
)

const maxSubmissionFileSize = 10 * 1024 * 1024 // 10MB

// AssignmentHandler handles assignment management, submission and grading
type AssignmentHandler struct {
	db          *gorm.DB
	assignments *services.AssignmentService
	files       *storage.Client
	validator   *validation.Validator
}

// NewAssignmentHandler creates a new assignment handler. The storage
// client may be nil, in which case file uploads are rejected and only
// text submissions are accepted.
func NewAssignmentHandler(db *gorm.DB, assignments *services.AssignmentService, files *storage.Client) *AssignmentHandler {
	return &AssignmentHandler{
		db:          db,
		assignments: assignments,
		files:       files,
		validator:   validation.NewValidator(),
	}
}

// CreateAssignmentRequest represents the request body for creating an assignment
type CreateAssignmentRequest struct {
	Title      string     `json:"title" validate:"required,min=2,max=255"`
	Content    string     `json:"content" validate:"omitempty,max=10000"`
	DueAt      *time.Time `json:"due_at"`
	IsRequired bool       `json:"is_required"`
	MaxScore   float64    `json:"max_score" validate:"omitempty,gt=0"`
}

// SubmitRequest represents a text submission body
type SubmitRequest struct {
	Content string `json:"content" validate:"omitempty,max=50000"`
}

// GradeRequest represents the request body for grading a submission
type GradeRequest struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"omitempty,max=5000"`
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.BadRequest(c, "Invalid id")
	}
	return uint(id), nil
}

// CreateAssignment handles POST /api/v1/teacher/courses/:course_id/assignments
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseID(c, "course_id")
	if err != nil {
		return err
	}

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if !user.IsAdmin() && course.TeacherID != user.ID {
		return response.Forbidden(c, "You do not own this course")
	}

	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	assignment := model.Assignment{
		CourseID:   course.ID,
		Title:      validation.SanitizeString(req.Title),
		Content:    req.Content,
		DueAt:      req.DueAt,
		IsRequired: req.IsRequired,
		MaxScore:   req.MaxScore,
	}
	if assignment.MaxScore == 0 {
		assignment.MaxScore = 10
	}

	if err := h.db.Create(&assignment).Error; err != nil {
		return response.InternalServerError(c, "Failed to create assignment")
	}

	return response.Created(c, assignment)
}

// ListAssignments handles GET /api/v1/courses/:course_id/assignments
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	courseID, err := parseID(c, "course_id")
	if err != nil {
		return err
	}

	var assignments []model.Assignment
	if err := h.db.Where("course_id = ?", courseID).
		Order("due_at NULLS LAST, created_at").
		Find(&assignments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch assignments")
	}

	return response.Success(c, assignments)
}

// Submit handles POST /api/v1/assignments/:id/submit. Accepts either a
// JSON body with content or a multipart form with an optional file,
// which is stored in the blob store and referenced by URL.
func (h *AssignmentHandler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	assignmentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	content := ""
	fileURL := ""

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if values := form.Value["content"]; len(values) > 0 {
			content = values[0]
		}

		if fileHeaders := form.File["file"]; len(fileHeaders) > 0 {
			if h.files == nil {
				return response.BadRequest(c, "File uploads are not enabled")
			}

			fileHeader := fileHeaders[0]
			if fileHeader.Size > maxSubmissionFileSize {
				return response.BadRequest(c, "File exceeds the 10MB limit")
			}

			file, err := fileHeader.Open()
			if err != nil {
				return response.BadRequest(c, "Failed to read uploaded file")
			}
			defer file.Close()

			contentType := fileHeader.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			url, err := h.files.UploadSubmission(c.Context(), assignmentID, user.ID,
				filepath.Base(fileHeader.Filename), contentType, file)
			if err != nil {
				return response.InternalServerError(c, "Failed to store submission file")
			}
			fileURL = url
		}
	} else {
		var req SubmitRequest
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
		content = req.Content
	}

	if content == "" && fileURL == "" {
		return response.BadRequest(c, "Submission must include content or a file")
	}

	submission, err := h.assignments.Submit(user, assignmentID, content, fileURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Assignment not found")
		case errors.Is(err, services.ErrNotEnrolled):
			return response.Forbidden(c, "You are not enrolled in this course")
		}
		return response.InternalServerError(c, "Failed to save submission")
	}

	return response.SuccessWithMessage(c, "Submission saved", submission)
}

// ListSubmissions handles GET /api/v1/teacher/assignments/:id/submissions
func (h *AssignmentHandler) ListSubmissions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	assignmentID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	submissions, err := h.assignments.ListForAssignment(user, assignmentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Assignment not found")
		case errors.Is(err, services.ErrNotCourseTeacher):
			return response.Forbidden(c, "You do not teach this course")
		}
		return response.InternalServerError(c, "Failed to fetch submissions")
	}

	return response.Success(c, submissions)
}

// Grade handles POST /api/v1/teacher/submissions/:id/grade
func (h *AssignmentHandler) Grade(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	submissionID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	submission, err := h.assignments.Grade(user, submissionID, req.Score, req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Submission not found")
		case errors.Is(err, services.ErrNotCourseTeacher):
			return response.Forbidden(c, "You do not teach this course")
		case errors.Is(err, services.ErrScoreOutOfRange):
			return response.BadRequest(c, "Score is outside the assignment's range")
		}
		return response.InternalServerError(c, "Failed to grade submission")
	}

	return response.SuccessWithMessage(c, "Submission graded", submission)
}
