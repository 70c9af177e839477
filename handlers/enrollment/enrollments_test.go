package enrollment

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/minhtran-dev/edumarket-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Enrollment{},
		&model.Payment{},
		&model.AdminAuditLog{},
	))

	return db
}

// asUser injects the acting user the way the auth middleware would
func asUser(user *model.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", user)
		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		return c.Next()
	}
}

func newTestApp(db *gorm.DB, student, admin *model.User) *fiber.App {
	payments := services.NewPaymentService(db)
	enrollments := services.NewEnrollmentService(db, payments)
	audit := services.NewAuditService(db)
	handler := NewEnrollmentHandler(db, enrollments, payments, audit)

	app := fiber.New()
	app.Post("/api/v1/courses/:id/enroll", asUser(student), handler.Enroll)
	app.Post("/api/v1/courses/:id/buy", asUser(student), handler.Buy)
	app.Post("/api/v1/admin/enrollments/:id/cancel", asUser(admin), handler.Cancel)
	app.Post("/api/v1/admin/enrollments/:id/refund", asUser(admin), handler.Refund)
	return app
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x", Name: email, Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestCourse(t *testing.T, db *gorm.DB, teacherID uint, price float64) *model.Course {
	t.Helper()
	course := &model.Course{TeacherID: teacherID, Title: "Go Basics", Price: price, Status: model.CourseActive}
	require.NoError(t, db.Create(course).Error)
	return course
}

func postJSON(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &parsed))
	return resp, parsed
}

func TestEnrollEndpoint(t *testing.T) {
	db := newHandlerTestDB(t)
	student := createTestUser(t, db, "student@example.com", model.RoleStudent)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	teacher := createTestUser(t, db, "teacher@example.com", model.RoleTeacher)
	course := createTestCourse(t, db, teacher.ID, 500000)
	app := newTestApp(db, student, admin)

	resp, body := postJSON(t, app, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID))
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Enrolling again conflicts
	resp, body = postJSON(t, app, fmt.Sprintf("/api/v1/courses/%d/enroll", course.ID))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestEnrollEndpointMissingCourse(t *testing.T) {
	db := newHandlerTestDB(t)
	student := createTestUser(t, db, "student@example.com", model.RoleStudent)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	app := newTestApp(db, student, admin)

	resp, _ := postJSON(t, app, "/api/v1/courses/9999/enroll")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBuyEndpointReturnsBothHalves(t *testing.T) {
	db := newHandlerTestDB(t)
	student := createTestUser(t, db, "student@example.com", model.RoleStudent)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	teacher := createTestUser(t, db, "teacher@example.com", model.RoleTeacher)
	course := createTestCourse(t, db, teacher.ID, 500000)
	app := newTestApp(db, student, admin)

	resp, body := postJSON(t, app, fmt.Sprintf("/api/v1/courses/%d/buy", course.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)

	payment, ok := data["payment"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "paid", payment["status"])
	assert.Equal(t, 500000.0, payment["amount"])

	enrollment, ok := data["enrollment"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "active", enrollment["status"])
}

func TestAdminCancelAndRefundFlow(t *testing.T) {
	db := newHandlerTestDB(t)
	student := createTestUser(t, db, "student@example.com", model.RoleStudent)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	teacher := createTestUser(t, db, "teacher@example.com", model.RoleTeacher)
	course := createTestCourse(t, db, teacher.ID, 500000)
	app := newTestApp(db, student, admin)

	resp, _ := postJSON(t, app, fmt.Sprintf("/api/v1/courses/%d/buy", course.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var enrollment model.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		First(&enrollment).Error)

	// Cancel produces the refund inline
	resp, body := postJSON(t, app, fmt.Sprintf("/api/v1/admin/enrollments/%d/cancel", enrollment.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	refund, ok := data["refund"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "refunded", refund["status"])
	assert.Equal(t, 500000.0, refund["amount"])

	// Second cancel conflicts and adds no second refund
	resp, _ = postJSON(t, app, fmt.Sprintf("/api/v1/admin/enrollments/%d/cancel", enrollment.ID))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Standalone refund after the inline one is a duplicate
	resp, _ = postJSON(t, app, fmt.Sprintf("/api/v1/admin/enrollments/%d/refund", enrollment.ID))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var refunds int64
	require.NoError(t, db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentRefunded).
		Count(&refunds).Error)
	assert.EqualValues(t, 1, refunds)

	// Admin actions leave an audit trail
	var auditCount int64
	require.NoError(t, db.Model(&model.AdminAuditLog{}).Count(&auditCount).Error)
	assert.EqualValues(t, 1, auditCount)
}

func TestAdminRefundWithoutPayment(t *testing.T) {
	db := newHandlerTestDB(t)
	student := createTestUser(t, db, "student@example.com", model.RoleStudent)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	teacher := createTestUser(t, db, "teacher@example.com", model.RoleTeacher)
	course := createTestCourse(t, db, teacher.ID, 0)
	app := newTestApp(db, student, admin)

	// Enrollment without any paid ledger row
	enrollment := &model.Enrollment{UserID: student.ID, CourseID: course.ID, Status: model.EnrollmentCancelled}
	require.NoError(t, db.Create(enrollment).Error)

	resp, body := postJSON(t, app, fmt.Sprintf("/api/v1/admin/enrollments/%d/refund", enrollment.ID))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	errDetail := body["error"].(map[string]interface{})
	assert.Equal(t, "PRECONDITION_FAILED", errDetail["code"])
}

func TestAdminCancelMissingEnrollment(t *testing.T) {
	db := newHandlerTestDB(t)
	student := createTestUser(t, db, "student@example.com", model.RoleStudent)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	app := newTestApp(db, student, admin)

	resp, _ := postJSON(t, app, "/api/v1/admin/enrollments/9999/cancel")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminCancelAuditsPriorStatus(t *testing.T) {
	db := newHandlerTestDB(t)
	student := createTestUser(t, db, "student@example.com", model.RoleStudent)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)
	teacher := createTestUser(t, db, "teacher@example.com", model.RoleTeacher)
	course := createTestCourse(t, db, teacher.ID, 0)
	app := newTestApp(db, student, admin)

	enrollment := model.Enrollment{
		UserID:   student.ID,
		CourseID: course.ID,
		Status:   model.EnrollmentCompleted,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	resp, _ := postJSON(t, app, fmt.Sprintf("/api/v1/admin/enrollments/%d/cancel", enrollment.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The audit snapshot records the status the row actually held
	var auditLog model.AdminAuditLog
	require.NoError(t, db.Where("action = ?", "enrollment_cancel").First(&auditLog).Error)
	assert.Contains(t, string(auditLog.OldValue), model.EnrollmentCompleted)
	assert.Contains(t, string(auditLog.NewValue), model.EnrollmentCancelled)
}
