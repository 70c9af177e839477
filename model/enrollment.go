package model

import (
	"time"
)

// Enrollment statuses. Cancellation flips the status back and forth;
// the row itself is never deleted, so (user, course) history lives in
// a single row.
const (
	EnrollmentActive    = "active"
	EnrollmentCancelled = "cancelled"
	EnrollmentCompleted = "completed"
)

// Enrollment represents a student's relationship to a course across its
// lifecycle. At most one row exists per (user, course); the composite
// unique index is the arbiter under concurrent enroll calls.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"` // active, cancelled, completed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}
