package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SheetEntry is one student's mark on an attendance sheet
type SheetEntry struct {
	UserID uint   `json:"user_id" validate:"required,min=1"`
	Status string `json:"status" validate:"required,oneof=present absent late"`
}

// AttendanceService upserts per-session, per-student attendance.
// Teachers submit a whole sheet per session; the sheet is applied
// atomically so a failure mid-sheet never leaves partial attendance.
type AttendanceService struct {
	db *gorm.DB
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db}
}

// sessionCourse loads the session and its course, for ownership checks
func (s *AttendanceService) sessionCourse(sessionID uint) (*model.ClassSession, error) {
	var session model.ClassSession
	if err := s.db.Preload("Course").First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	return &session, nil
}

// RecordSheet upserts the attendance sheet for one session. Only the
// teacher of record for the course (or an admin) may write attendance;
// the caller's identity is passed explicitly rather than read from any
// ambient session state.
func (s *AttendanceService) RecordSheet(actor *model.User, sessionID uint, entries []SheetEntry) error {
	session, err := s.sessionCourse(sessionID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() && session.Course.TeacherID != actor.ID {
		return ErrNotCourseTeacher
	}

	for _, entry := range entries {
		if !model.ValidAttendanceStatus(entry.Status) {
			return ErrInvalidAttendance
		}
	}

	now := time.Now()

	// All-or-nothing per session: one transaction for the whole sheet
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			record := model.AttendanceRecord{
				SessionID: sessionID,
				UserID:    entry.UserID,
				Status:    entry.Status,
				NotedAt:   now,
			}

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "noted_at"}),
			}).Create(&record).Error
			if err != nil {
				return fmt.Errorf("failed to record attendance for user %d: %w", entry.UserID, err)
			}
		}
		return nil
	})
}

// SheetForSession returns the recorded marks for one session, for the
// teacher's sheet view. Same ownership rule as RecordSheet.
func (s *AttendanceService) SheetForSession(actor *model.User, sessionID uint) ([]model.AttendanceRecord, error) {
	session, err := s.sessionCourse(sessionID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && session.Course.TeacherID != actor.ID {
		return nil, ErrNotCourseTeacher
	}

	var records []model.AttendanceRecord
	err = s.db.Where("session_id = ?", sessionID).
		Order("user_id").
		Find(&records).Error
	return records, err
}
