package services

import (
	"fmt"
	"testing"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. The pool is
// pinned to one connection so every query sees the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
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
		&model.ClassSession{},
		&model.Enrollment{},
		&model.Payment{},
		&model.Assignment{},
		&model.Submission{},
		&model.AttendanceRecord{},
		&model.Certificate{},
		&model.Review{},
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	))

	return db
}

var testUserSeq int

func createUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	testUserSeq++
	user := &model.User{
		Email:        fmt.Sprintf("%s%d@example.com", role, testUserSeq),
		PasswordHash: "not-a-real-hash",
		Name:         fmt.Sprintf("Test %s %d", role, testUserSeq),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCourse(t *testing.T, db *gorm.DB, teacherID uint, price float64, status string) *model.Course {
	t.Helper()
	course := &model.Course{
		TeacherID: teacherID,
		Title:     "Test Course",
		Price:     price,
		Status:    status,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func createSession(t *testing.T, db *gorm.DB, courseID uint, title string) *model.ClassSession {
	t.Helper()
	session := &model.ClassSession{
		CourseID: courseID,
		Title:    title,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func createAssignment(t *testing.T, db *gorm.DB, courseID uint, required bool, maxScore float64) *model.Assignment {
	t.Helper()
	assignment := &model.Assignment{
		CourseID:   courseID,
		Title:      "Test Assignment",
		IsRequired: required,
		MaxScore:   maxScore,
	}
	require.NoError(t, db.Create(assignment).Error)
	return assignment
}

// ledgerFixture wires the full service graph the way the router does
type ledgerFixture struct {
	db           *gorm.DB
	payments     *PaymentService
	enrollments  *EnrollmentService
	progress     *ProgressService
	certificates *CertificateService
	attendance   *AttendanceService
	assignments  *AssignmentService
	reviews      *ReviewService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := newTestDB(t)

	payments := NewPaymentService(db)
	enrollments := NewEnrollmentService(db, payments)
	progress := NewProgressService(db)

	return &ledgerFixture{
		db:           db,
		payments:     payments,
		enrollments:  enrollments,
		progress:     progress,
		certificates: NewCertificateService(db, progress, enrollments),
		attendance:   NewAttendanceService(db),
		assignments:  NewAssignmentService(db, enrollments),
		reviews:      NewReviewService(db, enrollments),
	}
}
