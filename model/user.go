package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, teacher, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Relationships
	Enrollments   []Enrollment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Payments      []Payment    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TaughtCourses []Course     `gorm:"foreignKey:TeacherID" json:"-"`
}

// IsTeacher reports whether the user holds the teacher role
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
