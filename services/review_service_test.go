package services

import (
	"testing"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostReviewRequiresEnrollment(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	_, err := f.reviews.Post(student, course.ID, 5, "great")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestPostReviewReplacesEarlierOne(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)
	enrollStudent(t, f, student.ID, course.ID)

	_, err := f.reviews.Post(student, course.ID, 3, "okay")
	require.NoError(t, err)

	_, err = f.reviews.Post(student, course.ID, 5, "got much better")
	require.NoError(t, err)

	reviews, rating, err := f.reviews.ListForCourse(course.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, 5.0, rating.Average)
	assert.EqualValues(t, 1, rating.Count)
}

func TestCourseRatingAggregates(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	s1 := createUser(t, f.db, model.RoleStudent)
	s2 := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)
	enrollStudent(t, f, s1.ID, course.ID)
	enrollStudent(t, f, s2.ID, course.ID)

	_, err := f.reviews.Post(s1, course.ID, 4, "")
	require.NoError(t, err)
	_, err = f.reviews.Post(s2, course.ID, 5, "")
	require.NoError(t, err)

	_, rating, err := f.reviews.ListForCourse(course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, rating.Count)
	assert.InDelta(t, 4.5, rating.Average, 1e-9)
}

func TestPostReviewMissingCourse(t *testing.T) {
	f := newLedgerFixture(t)
	student := createUser(t, f.db, model.RoleStudent)

	_, err := f.reviews.Post(student, 9999, 4, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
