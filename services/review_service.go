package services

import (
	"errors"
	"fmt"

	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseRating aggregates a course's reviews
type CourseRating struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// ReviewService lets enrolled students rate a course. One review per
// (user, course); posting again replaces the earlier one.
type ReviewService struct {
	db          *gorm.DB
	enrollments *EnrollmentService
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, enrollments *EnrollmentService) *ReviewService {
	return &ReviewService{db: db, enrollments: enrollments}
}

// Post creates or replaces the student's review of a course
func (s *ReviewService) Post(actor *model.User, courseID uint, rating int, comment string) (*model.Review, error) {
	var course model.Course
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}

	enrolled, err := s.enrollments.IsEnrolled(actor.ID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	review := model.Review{
		UserID:   actor.ID,
		CourseID: courseID,
		Rating:   rating,
		Comment:  comment,
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(&review).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	return &review, nil
}

// ListForCourse returns a course's reviews with its aggregate rating
func (s *ReviewService) ListForCourse(courseID uint) ([]model.Review, *CourseRating, error) {
	var reviews []model.Review
	if err := s.db.Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, nil, err
	}

	rating := &CourseRating{Count: int64(len(reviews))}
	if rating.Count > 0 {
		var sum int
		for _, r := range reviews {
			sum += r.Rating
		}
		rating.Average = float64(sum) / float64(rating.Count)
	}

	return reviews, rating, nil
}
