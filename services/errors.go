package services

import "errors"

// Business-rule outcomes surfaced by the ledger services. Handlers map
// these onto the HTTP error taxonomy: conflicts to 409, failed
// preconditions to 400, absent entities to 404. None of them indicate
// a system failure.
var (
	ErrNotFound = errors.New("entity not found")

	// Conflict: uniqueness or state violations
	ErrAlreadyEnrolled  = errors.New("enrollment already active for this course")
	ErrAlreadyCancelled = errors.New("enrollment is already cancelled")
	ErrDuplicateRefund  = errors.New("refund already recorded for this payment")

	// Precondition: the request is well-formed but the ledger state
	// does not allow it
	ErrCourseUnavailable = errors.New("course is not open for enrollment")
	ErrNoOriginalPayment = errors.New("no paid payment found to refund")
	ErrNotEnrolled       = errors.New("student is not enrolled in this course")
	ErrNotCourseTeacher  = errors.New("caller is not the teacher of this course")
	ErrScoreOutOfRange   = errors.New("score exceeds the assignment max score")
	ErrInvalidAttendance = errors.New("unknown attendance status")
)
