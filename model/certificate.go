package model

import (
	"time"
)

// Certificate is issued exactly once per (user, course) when the
// progress calculator reports completion. Once issued it is never
// revoked, even if progress later regresses.
type Certificate struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_certificate_user_course" json:"user_id"`
	CourseID uint      `gorm:"not null;uniqueIndex:idx_certificate_user_course" json:"course_id"`
	Code     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	IssuedAt time.Time `gorm:"not null" json:"issued_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Certificate
func (Certificate) TableName() string {
	return "certificates"
}
