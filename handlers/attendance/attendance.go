package attendance

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/services"
	"github.com/minhtran-dev/edumarket-api/utils/middleware"
	"github.com/minhtran-dev/edumarket-api/utils/response"
	"github.com/minhtran-dev/edumarket-api/utils/validation"
)

// AttendanceHandler handles attendance sheet reads and writes
type AttendanceHandler struct {
	attendance *services.AttendanceService
	validator  *validation.Validator
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendance *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		validator:  validation.NewValidator(),
	}
}

// RecordSheetRequest is a full attendance sheet for one session
type RecordSheetRequest struct {
	Entries []services.SheetEntry `json:"entries" validate:"required,min=1,dive"`
}

func (h *AttendanceHandler) sessionID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("session_id"), 10, 32)
	if err != nil || id == 0 {
		return 0, response.BadRequest(c, "Invalid session id")
	}
	return uint(id), nil
}

// GetSheet handles GET /api/v1/teacher/sessions/:session_id/attendance
func (h *AttendanceHandler) GetSheet(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID, err := h.sessionID(c)
	if err != nil {
		return err
	}

	records, err := h.attendance.SheetForSession(user, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Session not found")
		case errors.Is(err, services.ErrNotCourseTeacher):
			return response.Forbidden(c, "You do not teach this course")
		}
		return response.InternalServerError(c, "Failed to fetch attendance")
	}

	return response.Success(c, records)
}

// RecordSheet handles POST /api/v1/teacher/sessions/:session_id/attendance.
// Re-posting a sheet overwrites earlier marks for the same students.
func (h *AttendanceHandler) RecordSheet(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	sessionID, err := h.sessionID(c)
	if err != nil {
		return err
	}

	var req RecordSheetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.attendance.RecordSheet(user, sessionID, req.Entries); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Session not found")
		case errors.Is(err, services.ErrNotCourseTeacher):
			return response.Forbidden(c, "You do not teach this course")
		case errors.Is(err, services.ErrInvalidAttendance):
			return response.BadRequest(c, "Invalid attendance status")
		}
		return response.InternalServerError(c, "Failed to record attendance")
	}

	return response.SuccessWithMessage(c, "Attendance recorded", fiber.Map{
		"session_id": sessionID,
		"recorded":   len(req.Entries),
	})
}
