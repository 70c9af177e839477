package model

import (
	"time"

	"gorm.io/gorm"
)

// Review is a student's rating of a course. One review per (user,
// course); posting again replaces the previous one.
type Review struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_review_user_course" json:"user_id"`
	CourseID  uint           `gorm:"not null;uniqueIndex:idx_review_user_course" json:"course_id"`
	Rating    int            `gorm:"not null" json:"rating"` // 1..5
	Comment   string         `gorm:"type:text" json:"comment"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Review
func (Review) TableName() string {
	return "reviews"
}
