package services

import (
	"testing"

	"github.com/minhtran-dev/edumarket-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSheetInsertsMarks(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	s1 := createUser(t, f.db, model.RoleStudent)
	s2 := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)
	session := createSession(t, f.db, course.ID, "Week 1")

	err := f.attendance.RecordSheet(teacher, session.ID, []SheetEntry{
		{UserID: s1.ID, Status: model.AttendancePresent},
		{UserID: s2.ID, Status: model.AttendanceAbsent},
	})
	require.NoError(t, err)

	records, err := f.attendance.SheetForSession(teacher, session.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestRecordSheetOverwritesEarlierMarks(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)
	session := createSession(t, f.db, course.ID, "Week 1")

	require.NoError(t, f.attendance.RecordSheet(teacher, session.ID, []SheetEntry{
		{UserID: student.ID, Status: model.AttendanceAbsent},
	}))
	require.NoError(t, f.attendance.RecordSheet(teacher, session.ID, []SheetEntry{
		{UserID: student.ID, Status: model.AttendancePresent},
	}))

	var records []model.AttendanceRecord
	require.NoError(t, f.db.Where("session_id = ? AND user_id = ?", session.ID, student.ID).
		Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, model.AttendancePresent, records[0].Status)
}

func TestRecordSheetRejectsOtherTeachers(t *testing.T) {
	f := newLedgerFixture(t)
	owner := createUser(t, f.db, model.RoleTeacher)
	intruder := createUser(t, f.db, model.RoleTeacher)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, owner.ID, 0, model.CourseActive)
	session := createSession(t, f.db, course.ID, "Week 1")

	err := f.attendance.RecordSheet(intruder, session.ID, []SheetEntry{
		{UserID: student.ID, Status: model.AttendancePresent},
	})
	assert.ErrorIs(t, err, ErrNotCourseTeacher)

	_, err = f.attendance.SheetForSession(intruder, session.ID)
	assert.ErrorIs(t, err, ErrNotCourseTeacher)
}

func TestRecordSheetAllowsAdmin(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	admin := createUser(t, f.db, model.RoleAdmin)
	student := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)
	session := createSession(t, f.db, course.ID, "Week 1")

	err := f.attendance.RecordSheet(admin, session.ID, []SheetEntry{
		{UserID: student.ID, Status: model.AttendanceLate},
	})
	assert.NoError(t, err)
}

func TestRecordSheetRejectsInvalidStatusWithoutPartialWrite(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)
	s1 := createUser(t, f.db, model.RoleStudent)
	s2 := createUser(t, f.db, model.RoleStudent)
	course := createCourse(t, f.db, teacher.ID, 0, model.CourseActive)
	session := createSession(t, f.db, course.ID, "Week 1")

	err := f.attendance.RecordSheet(teacher, session.ID, []SheetEntry{
		{UserID: s1.ID, Status: model.AttendancePresent},
		{UserID: s2.ID, Status: "vanished"},
	})
	assert.ErrorIs(t, err, ErrInvalidAttendance)

	var count int64
	require.NoError(t, f.db.Model(&model.AttendanceRecord{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRecordSheetMissingSession(t *testing.T) {
	f := newLedgerFixture(t)
	teacher := createUser(t, f.db, model.RoleTeacher)

	err := f.attendance.RecordSheet(teacher, 9999, []SheetEntry{
		{UserID: 1, Status: model.AttendancePresent},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
