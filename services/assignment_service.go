package services

import (
	"errors"
	"fmt"

	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentService handles assignment submission and grading. A
// student owns one current submission per assignment: resubmitting
// replaces it and clears any earlier grade. Only the teacher of record
// (or an admin) may grade.
type AssignmentService struct {
	db          *gorm.DB
	enrollments *EnrollmentService
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB, enrollments *EnrollmentService) *AssignmentService {
	return &AssignmentService{db: db, enrollments: enrollments}
}

func (s *AssignmentService) assignmentCourse(assignmentID uint) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := s.db.Preload("Course").First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}
	return &assignment, nil
}

// Submit records the student's current answer to an assignment.
// Requires an active enrollment on the course. Upsert on
// (assignment_id, user_id): a resubmission overwrites content and file
// reference, resets status to submitted and drops the previous grade.
func (s *AssignmentService) Submit(actor *model.User, assignmentID uint, content, fileURL string) (*model.Submission, error) {
	assignment, err := s.assignmentCourse(assignmentID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.IsEnrolled(actor.ID, assignment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	submission := model.Submission{
		AssignmentID: assignmentID,
		UserID:       actor.ID,
		Content:      content,
		FileURL:      fileURL,
		Status:       model.SubmissionSubmitted,
		Score:        nil,
		Feedback:     "",
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "file_url", "status", "score", "feedback", "updated_at"}),
	}).Create(&submission).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	// Reload to pick up the surviving row's id on the upsert path
	if err := s.db.Where("assignment_id = ? AND user_id = ?", assignmentID, actor.ID).
		First(&submission).Error; err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}

	return &submission, nil
}

// Grade scores a submission. Teacher-of-record or admin only; the
// score must not exceed the assignment's max score.
func (s *AssignmentService) Grade(actor *model.User, submissionID uint, score float64, feedback string) (*model.Submission, error) {
	var submission model.Submission
	if err := s.db.Preload("Assignment.Course").First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}

	if !actor.IsAdmin() && submission.Assignment.Course.TeacherID != actor.ID {
		return nil, ErrNotCourseTeacher
	}

	if score < 0 || score > submission.Assignment.MaxScore {
		return nil, ErrScoreOutOfRange
	}

	updates := map[string]interface{}{
		"score":    score,
		"feedback": feedback,
		"status":   model.SubmissionGraded,
	}
	if err := s.db.Model(&submission).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	submission.Score = &score
	submission.Feedback = feedback
	submission.Status = model.SubmissionGraded
	return &submission, nil
}

// ListForAssignment returns all submissions for an assignment, for the
// teacher's grading view.
func (s *AssignmentService) ListForAssignment(actor *model.User, assignmentID uint) ([]model.Submission, error) {
	assignment, err := s.assignmentCourse(assignmentID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && assignment.Course.TeacherID != actor.ID {
		return nil, ErrNotCourseTeacher
	}

	var submissions []model.Submission
	err = s.db.Preload("User").
		Where("assignment_id = ?", assignmentID).
		Order("created_at").
		Find(&submissions).Error
	return submissions, err
}
