package model

import (
	"time"

	"gorm.io/gorm"
)

// Course statuses
const (
	CourseActive   = "active"
	CourseInactive = "inactive"
)

// Course represents a purchasable course in the catalog
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	TeacherID   uint           `gorm:"not null;index" json:"teacher_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"not null;default:0" json:"price"`
	Status      string         `gorm:"type:varchar(20);default:'active';index" json:"status"` // active, inactive

	// Relationships
	Teacher     User           `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	Sessions    []ClassSession `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"sessions,omitempty"`
	Assignments []Assignment   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
	Enrollments []Enrollment   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the course can accept new enrollments
func (c *Course) IsActive() bool {
	return c.Status == CourseActive
}

// ClassSession represents a single scheduled session of a course.
// Attendance is recorded against sessions.
type ClassSession struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Title     string         `gorm:"not null" json:"title"`
	StartsAt  time.Time      `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time      `json:"ends_at"`
	Location  string         `gorm:"type:varchar(255)" json:"location"` // room or meeting link

	// Relationships
	Course  Course             `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Records []AttendanceRecord `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for ClassSession
func (ClassSession) TableName() string {
	return "class_sessions"
}
