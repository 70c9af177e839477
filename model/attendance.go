package model

import (
	"time"
)

// Attendance statuses. Present and late both count toward the
// attendance ratio.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
)

// AttendanceRecord is the per-session, per-student attendance mark.
// One row per (session, user); re-submitting a sheet overwrites the
// status in place and refreshes noted_at.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_attendance_session_user" json:"session_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_attendance_session_user" json:"user_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'present'" json:"status"` // present, absent, late
	NotedAt   time.Time `gorm:"not null" json:"noted_at"`

	// Relationships
	Session ClassSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	User    User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AttendanceRecord
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// ValidAttendanceStatus reports whether s is a known attendance status
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}
