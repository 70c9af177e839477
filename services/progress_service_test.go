package services

import (
	"testing"
	"time"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markAttendance(t *testing.T, f *ledgerFixture, sessionID, userID uint, status string) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.AttendanceRecord{
		SessionID: sessionID,
		UserID:    userID,
		Status:    status,
		NotedAt:   time.Now(),
	}).Error)
}

func submitWork(t *testing.T, f *ledgerFixture, assignmentID, userID uint) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.Submission{
		AssignmentID: assignmentID,
		UserID:       userID,
		Content:      "done",
		Status:       model.SubmissionSubmitted,
	}).Error)
}

func TestProgressAttendanceOnlyCourseCompletes(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	// 10 sessions, 7 attended (6 present, 1 late), no required work
	var sessions []*model.ClassSession
	for i := 0; i < 10; i++ {
		sessions = append(sessions, createSession(t, f.db, course.ID, "Session"))
	}
	for i := 0; i < 6; i++ {
		markAttendance(t, f, sessions[i].ID, student.ID, model.AttendancePresent)
	}
	markAttendance(t, f, sessions[6].ID, student.ID, model.AttendanceLate)

	report, err := f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, report.AttendanceRatio, 1e-9)
	assert.InDelta(t, 0.7, report.ProgressRatio, 1e-9)
	assert.True(t, report.Completed)
}

func TestProgressMissingRequiredWorkBlocksCompletion(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	// 10 sessions with only 6 attended, 2 required assignments both done
	var sessions []*model.ClassSession
	for i := 0; i < 10; i++ {
		sessions = append(sessions, createSession(t, f.db, course.ID, "Session"))
	}
	for i := 0; i < 6; i++ {
		markAttendance(t, f, sessions[i].ID, student.ID, model.AttendancePresent)
	}

	a1 := createAssignment(t, f.db, course.ID, true, 10)
	a2 := createAssignment(t, f.db, course.ID, true, 10)
	submitWork(t, f, a1.ID, student.ID)
	submitWork(t, f, a2.ID, student.ID)

	report, err := f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, report.AttendanceRatio, 1e-9)
	assert.InDelta(t, 1.0, report.AssignmentRatio, 1e-9)
	assert.InDelta(t, 0.8, report.ProgressRatio, 1e-9)
	assert.False(t, report.Completed)
}

func TestProgressAbsencesDoNotCount(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	s1 := createSession(t, f.db, course.ID, "One")
	s2 := createSession(t, f.db, course.ID, "Two")
	markAttendance(t, f, s1.ID, student.ID, model.AttendancePresent)
	markAttendance(t, f, s2.ID, student.ID, model.AttendanceAbsent)

	report, err := f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 1, report.PresentCount)
	assert.InDelta(t, 0.5, report.AttendanceRatio, 1e-9)
	assert.False(t, report.Completed)
}

func TestProgressOptionalAssignmentsIgnored(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	session := createSession(t, f.db, course.ID, "Only")
	markAttendance(t, f, session.ID, student.ID, model.AttendancePresent)

	// An optional assignment, unsubmitted, must not block completion
	createAssignment(t, f.db, course.ID, false, 10)

	report, err := f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 0, report.TotalRequired)
	assert.InDelta(t, 1.0, report.ProgressRatio, 1e-9)
	assert.True(t, report.Completed)
}

func TestProgressAssignmentsOnlyCourse(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	a1 := createAssignment(t, f.db, course.ID, true, 10)
	a2 := createAssignment(t, f.db, course.ID, true, 10)
	submitWork(t, f, a1.ID, student.ID)

	report, err := f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, report.ProgressRatio, 1e-9)
	assert.False(t, report.Completed)

	submitWork(t, f, a2.ID, student.ID)

	report, err = f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.ProgressRatio, 1e-9)
	assert.True(t, report.Completed)
}

func TestProgressEmptyCourseNeverCompletes(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	report, err := f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.ProgressRatio)
	assert.False(t, report.Completed)
}

func TestProgressIgnoresOtherCoursesData(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)
	other := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)

	session := createSession(t, f.db, course.ID, "Here")
	otherSession := createSession(t, f.db, other.ID, "Elsewhere")
	markAttendance(t, f, session.ID, student.ID, model.AttendancePresent)
	markAttendance(t, f, otherSession.ID, student.ID, model.AttendancePresent)

	otherAssignment := createAssignment(t, f.db, other.ID, true, 10)
	submitWork(t, f, otherAssignment.ID, student.ID)

	report, err := f.progress.Compute(student.ID, course.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 1, report.TotalSessions)
	assert.EqualValues(t, 1, report.PresentCount)
	assert.EqualValues(t, 0, report.TotalRequired)
}
