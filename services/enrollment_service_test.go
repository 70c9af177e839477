package services

import (
	"strings"
	"testing"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollCreatesEnrollmentAndPayment(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 500000, model.CourseActive)

	result, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	assert.Equal(t, model.EnrollmentActive, result.Enrollment.Status)
	assert.Equal(t, student.ID, result.Enrollment.UserID)

	assert.Equal(t, model.PaymentPaid, result.Payment.Status)
	assert.Equal(t, 500000.0, result.Payment.Amount)
	assert.Equal(t, "sandbox", result.Payment.Provider)
	assert.True(t, strings.HasPrefix(result.Payment.TxnRef, "TXN-"))
}

func TestEnrollFreeCourseStillRecordsPayment(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	result, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Payment.Amount)
	assert.Equal(t, model.PaymentPaid, result.Payment.Status)
}

func TestEnrollInactiveCourse(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 100, model.CourseInactive)

	_, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	assert.ErrorIs(t, err, ErrCourseUnavailable)
}

func TestEnrollMissingCourse(t *testing.T) {
	f := newLedgerFixture(t)
	student := createUser(t, f.db, model.RoleStudent)

	_, err := f.enrollments.Enroll(student.ID, 9999, "sandbox")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnrollTwiceIsConflict(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 100, model.CourseActive)

	_, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	_, err = f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	// The failed attempt must not leave a second payment behind
	var payments int64
	require.NoError(t, f.db.Model(&model.Payment{}).Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
}

func TestCancelCreatesRefund(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 500000, model.CourseActive)

	purchase, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	result, err := f.enrollments.Cancel(purchase.Enrollment.ID)
	require.NoError(t, err)

	assert.Equal(t, model.EnrollmentCancelled, result.Enrollment.Status)
	require.NotNil(t, result.Refund)
	assert.Equal(t, 500000.0, result.Refund.Amount)
	assert.Equal(t, model.PaymentRefunded, result.Refund.Status)
	assert.Equal(t, model.RefundProvider, result.Refund.Provider)
	assert.Equal(t, RefundPrefix+purchase.Payment.TxnRef, result.Refund.TxnRef)

	// Original payment row is untouched
	var original model.Payment
	require.NoError(t, f.db.First(&original, purchase.Payment.ID).Error)
	assert.Equal(t, model.PaymentPaid, original.Status)
}

func TestCancelTwiceIsConflictWithoutSecondRefund(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 100, model.CourseActive)

	purchase, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	_, err = f.enrollments.Cancel(purchase.Enrollment.ID)
	require.NoError(t, err)

	_, err = f.enrollments.Cancel(purchase.Enrollment.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	var refunds int64
	require.NoError(t, f.db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentRefunded).
		Count(&refunds).Error)
	assert.EqualValues(t, 1, refunds)
}

func TestCancelMissingEnrollment(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.enrollments.Cancel(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReenrollReusesRow(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 100, model.CourseActive)

	first, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	_, err = f.enrollments.Cancel(first.Enrollment.ID)
	require.NoError(t, err)

	second, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	// Same row across the whole lifecycle
	assert.Equal(t, first.Enrollment.ID, second.Enrollment.ID)
	assert.Equal(t, model.EnrollmentActive, second.Enrollment.Status)

	var rows int64
	require.NoError(t, f.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	var stored model.Enrollment
	require.NoError(t, f.db.First(&stored, first.Enrollment.ID).Error)
	assert.Equal(t, first.Enrollment.CreatedAt.UTC(), stored.CreatedAt.UTC())

	// Each purchase appended its own payment
	var payments int64
	require.NoError(t, f.db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentPaid).
		Count(&payments).Error)
	assert.EqualValues(t, 2, payments)
}

func TestIsEnrolledCoversStatuses(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 100, model.CourseActive)

	enrolled, err := f.enrollments.IsEnrolled(student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	purchase, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)

	enrolled, err = f.enrollments.IsEnrolled(student.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	_, err = f.enrollments.Cancel(purchase.Enrollment.ID)
	require.NoError(t, err)

	enrolled, err = f.enrollments.IsEnrolled(student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestEnrollAfterCompletionIsConflict(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 250000, model.CourseActive)

	_, err := f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	require.NoError(t, err)
	completeCourse(t, f, student.ID, course.ID)

	issued, err := f.certificates.CheckAndIssue(student.ID, course.ID)
	require.NoError(t, err)
	require.NotNil(t, issued.Certificate)

	// Completed is a terminal state for re-enrollment
	_, err = f.enrollments.Enroll(student.ID, course.ID, "sandbox")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	var enrollment model.Enrollment
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		First(&enrollment).Error)
	assert.Equal(t, model.EnrollmentCompleted, enrollment.Status)

	// The rejected purchase leaves no stray ledger entry
	var payments int64
	require.NoError(t, f.db.Model(&model.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", student.ID, course.ID, model.PaymentPaid).
		Count(&payments).Error)
	assert.EqualValues(t, 1, payments)
}
