package course

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title       string   `json:"title" validate:"omitempty,min=3,max=255"`
	Description string   `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Status      string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")

	query := h.db.Model(&model.Course{}).Where("status = ?", model.CourseActive)

	if search != "" {
		query = query.Where("title ILIKE ? OR description ILIKE ?",
			"%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	if err := query.Preload("Teacher").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var course model.Course
	if err := h.db.Preload("Teacher").
		Preload("Sessions").
		Preload("Assignments").
		First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/teacher/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course := model.Course{
		TeacherID:   user.ID,
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
		Price:       req.Price,
		Status:      model.CourseActive,
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/teacher/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Only the owning teacher or an admin may edit a course
	if !user.IsAdmin() && course.TeacherID != user.ID {
		return response.Forbidden(c, "You do not own this course")
	}

	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != "" {
		course.Description = validation.SanitizeString(req.Description)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Status != "" {
		course.Status = req.Status
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/teacher/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if !user.IsAdmin() && course.TeacherID != user.ID {
		return response.Forbidden(c, "You do not own this course")
	}

	// Courses with enrollments are deactivated, not removed: the
	// ledger rows beneath them must survive
	var enrollmentCount int64
	if err := h.db.Model(&model.Enrollment{}).Where("course_id = ?", id).Count(&enrollmentCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to check course dependencies")
	}

	if enrollmentCount > 0 {
		if err := h.db.Model(&course).Update("status", model.CourseInactive).Error; err != nil {
			return response.InternalServerError(c, "Failed to deactivate course")
		}
		return response.SuccessWithMessage(c, "Course has enrollments and was deactivated instead of deleted", course)
	}

	if err := h.db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}
