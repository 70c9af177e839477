package model

import (
	"time"

	"gorm.io/gorm"
)

// Submission statuses
const (
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

// Assignment represents course work set by the teacher. Only required
// assignments count toward completion.
type Assignment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID   uint           `gorm:"not null;index" json:"course_id"`
	Title      string         `gorm:"not null" json:"title"`
	Content    string         `gorm:"type:text" json:"content"`
	DueAt      *time.Time     `json:"due_at"`
	IsRequired bool           `gorm:"not null;default:false;index" json:"is_required"`
	MaxScore   float64        `gorm:"not null;default:10" json:"max_score"`

	// Relationships
	Course      Course       `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Assignment
func (Assignment) TableName() string {
	return "assignments"
}

// Submission is a student's current answer to an assignment. One row
// per (assignment, user); resubmission overwrites it rather than
// keeping a history.
type Submission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_user" json:"assignment_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_submission_assignment_user" json:"user_id"`
	Content      string    `gorm:"type:text" json:"content"`
	FileURL      string    `gorm:"type:varchar(500)" json:"file_url"`
	Score        *float64  `json:"score"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	Status       string    `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"` // submitted, graded

	// Relationships
	Assignment Assignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
	User       User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "submissions"
}
