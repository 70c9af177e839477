package services

import (
	"fmt"

	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/gorm"
)

// AttendanceThreshold is the minimum attendance ratio for a course
// with scheduled sessions to count as complete.
const AttendanceThreshold = 0.70

// ProgressReport is the computed completion state of one student in
// one course.
type ProgressReport struct {
	AttendanceRatio float64 `json:"attendance_ratio"`
	AssignmentRatio float64 `json:"assignment_ratio"`
	ProgressRatio   float64 `json:"progress_ratio"`
	Completed       bool    `json:"completed"`

	TotalSessions     int64 `json:"total_sessions"`
	PresentCount      int64 `json:"present_count"`
	TotalRequired     int64 `json:"total_required_assignments"`
	SubmittedRequired int64 `json:"submitted_required_assignments"`
}

// ProgressService computes completion ratios from attendance and
// required-assignment data. It is a pure read path: Compute never
// writes, so it is safe to call repeatedly from dashboards, the
// certificate issuer and the nightly sweep.
type ProgressService struct {
	db *gorm.DB
}

// NewProgressService creates a new progress service
func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// Compute calculates the student's progress for a course.
//
// A dimension with nothing to measure (no sessions, or no required
// assignments) is treated as satisfied and excluded from the combined
// ratio rather than defaulting to 1.0. A course with neither sessions
// nor required assignments can never complete.
func (s *ProgressService) Compute(userID, courseID uint) (*ProgressReport, error) {
	report := &ProgressReport{}

	// Attendance dimension
	if err := s.db.Model(&model.ClassSession{}).
		Where("course_id = ?", courseID).
		Count(&report.TotalSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	if err := s.db.Model(&model.AttendanceRecord{}).
		Joins("JOIN class_sessions ON class_sessions.id = attendance_records.session_id").
		Where("class_sessions.course_id = ? AND attendance_records.user_id = ?", courseID, userID).
		Where("attendance_records.status IN ?", []string{model.AttendancePresent, model.AttendanceLate}).
		Count(&report.PresentCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}

	attendanceMet := true
	if report.TotalSessions > 0 {
		report.AttendanceRatio = float64(report.PresentCount) / float64(report.TotalSessions)
		attendanceMet = report.AttendanceRatio >= AttendanceThreshold
	}

	// Required-assignment dimension
	if err := s.db.Model(&model.Assignment{}).
		Where("course_id = ? AND is_required = ?", courseID, true).
		Count(&report.TotalRequired).Error; err != nil {
		return nil, fmt.Errorf("failed to count required assignments: %w", err)
	}

	if err := s.db.Model(&model.Submission{}).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("assignments.course_id = ? AND assignments.is_required = ? AND submissions.user_id = ?",
			courseID, true, userID).
		Count(&report.SubmittedRequired).Error; err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	assignmentMet := true
	if report.TotalRequired > 0 {
		report.AssignmentRatio = float64(report.SubmittedRequired) / float64(report.TotalRequired)
		assignmentMet = report.SubmittedRequired == report.TotalRequired
	}

	// Combined ratio: only dimensions that apply take part
	switch {
	case report.TotalSessions > 0 && report.TotalRequired > 0:
		report.ProgressRatio = (report.AttendanceRatio + report.AssignmentRatio) / 2
	case report.TotalSessions > 0:
		report.ProgressRatio = report.AttendanceRatio
	case report.TotalRequired > 0:
		report.ProgressRatio = report.AssignmentRatio
	default:
		report.ProgressRatio = 0.0
	}

	// A course with no trackable work never auto-completes
	report.Completed = attendanceMet && assignmentMet &&
		(report.TotalSessions > 0 || report.TotalRequired > 0)

	return report, nil
}
