package services

import (
	"errors"
	"fmt"

	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/gorm"
)

// EnrollmentService owns the enrollment state machine:
//
//	active ⇄ cancelled (re-enroll returns to active)
//	active → completed (one-way, driven by the certificate issuer)
//
// A (user, course) pair owns at most one enrollment row for all time;
// cancel and re-enroll flip its status instead of deleting or
// duplicating it, so the original id and creation timestamp survive
// the whole lifecycle.
type EnrollmentService struct {
	db       *gorm.DB
	payments *PaymentService
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, payments *PaymentService) *EnrollmentService {
	return &EnrollmentService{db: db, payments: payments}
}

// PurchaseResult pairs the enrollment with the payment row created in
// the same transaction.
type PurchaseResult struct {
	Enrollment *model.Enrollment `json:"enrollment"`
	Payment    *model.Payment    `json:"payment"`
}

// CancelResult pairs the cancelled enrollment with the refund entry,
// which is nil when no paid payment existed to compensate.
// PreviousStatus is the status the enrollment held before the cancel,
// kept for audit snapshots.
type CancelResult struct {
	Enrollment     *model.Enrollment `json:"enrollment"`
	Refund         *model.Payment    `json:"refund"`
	PreviousStatus string            `json:"-"`
}

// Enroll registers the student on an active course and records the
// simulated payment in the same transaction; if either write fails the
// whole purchase rolls back.
//
// An existing active or completed enrollment is a conflict; only a
// cancelled one is reactivated in place. Under two concurrent purchases
// the composite unique index on (user_id, course_id) rejects the losing
// insert.
func (s *EnrollmentService) Enroll(userID, courseID uint, provider string) (*PurchaseResult, error) {
	result := &PurchaseResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch course: %w", err)
		}
		if !course.IsActive() {
			return ErrCourseUnavailable
		}

		var enrollment model.Enrollment
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
		switch {
		case err == nil:
			// Completed stays completed; only a cancelled enrollment
			// comes back
			if enrollment.Status != model.EnrollmentCancelled {
				return ErrAlreadyEnrolled
			}
			// Re-enrollment reuses the row; history is not duplicated
			if err := tx.Model(&enrollment).Update("status", model.EnrollmentActive).Error; err != nil {
				return fmt.Errorf("failed to reactivate enrollment: %w", err)
			}
			enrollment.Status = model.EnrollmentActive
		case errors.Is(err, gorm.ErrRecordNotFound):
			enrollment = model.Enrollment{
				UserID:   userID,
				CourseID: courseID,
				Status:   model.EnrollmentActive,
			}
			if err := tx.Create(&enrollment).Error; err != nil {
				return fmt.Errorf("failed to create enrollment: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up enrollment: %w", err)
		}

		payment, err := s.payments.RecordPayment(tx, userID, courseID, course.Price, provider)
		if err != nil {
			return err
		}

		result.Enrollment = &enrollment
		result.Payment = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Cancel transitions an enrollment to cancelled and records a refund
// against its most recent paid payment, both in one transaction.
// Cancelling an already-cancelled enrollment reports a conflict and
// must not create a second refund. A missing original payment is not
// an error here: the enrollment is cancelled and the refund stays nil.
func (s *EnrollmentService) Cancel(enrollmentID uint) (*CancelResult, error) {
	result := &CancelResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var enrollment model.Enrollment
		if err := tx.First(&enrollment, enrollmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch enrollment: %w", err)
		}

		if enrollment.Status == model.EnrollmentCancelled {
			return ErrAlreadyCancelled
		}
		result.PreviousStatus = enrollment.Status

		if err := tx.Model(&enrollment).Update("status", model.EnrollmentCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel enrollment: %w", err)
		}
		enrollment.Status = model.EnrollmentCancelled

		refund, err := s.payments.Refund(tx, enrollment.UserID, enrollment.CourseID)
		switch {
		case err == nil:
			result.Refund = refund
		case errors.Is(err, ErrNoOriginalPayment):
			// Cancel proceeds without a compensating entry
		case errors.Is(err, ErrDuplicateRefund):
			// Already compensated earlier; nothing to add
		default:
			return err
		}

		result.Enrollment = &enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Complete marks an active enrollment completed inside the caller's
// transaction. Invoked by the certificate issuer at issuance time;
// completion does not block further attendance or submissions.
func (s *EnrollmentService) Complete(tx *gorm.DB, userID, courseID uint) error {
	return tx.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.EnrollmentActive).
		Update("status", model.EnrollmentCompleted).Error
}

// Get returns one enrollment by id
func (s *EnrollmentService) Get(enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.Preload("Course").Preload("User").First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// ActiveForUser lists the user's non-cancelled enrollments with
// courses preloaded, newest first. Backs the student dashboard.
func (s *EnrollmentService) ActiveForUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.Preload("Course").
		Where("user_id = ? AND status IN ?", userID, []string{model.EnrollmentActive, model.EnrollmentCompleted}).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// IsEnrolled reports whether the user currently holds an active or
// completed enrollment for the course.
func (s *EnrollmentService) IsEnrolled(userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status IN ?",
			userID, courseID, []string{model.EnrollmentActive, model.EnrollmentCompleted}).
		Count(&count).Error
	return count > 0, err
}
