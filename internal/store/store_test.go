package store

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
	"github.com/edboard/masterschedule/internal/scheduler"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewStore(sqlxDB), mock, func() { db.Close() }
}

func TestMigrateRunsEverySchemaStatement(t *testing.T) {
	st, mock, cleanup := newStoreMock(t)
	defer cleanup()

	for range schemaStatements {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogLoadsCoursesAndRooms(t *testing.T) {
	st, mock, cleanup := newStoreMock(t)
	defer cleanup()

	courseID := domain.NewID()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, required_endorsement, min_size, max_size FROM course")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "required_endorsement", "min_size", "max_size"}).
			AddRow(courseID.String(), "Algebra I", "math", 20, 30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT number, type FROM room")).
		WillReturnRows(sqlmock.NewRows([]string{"number", "type"}).AddRow("101", "standard"))

	catalog, rooms, err := st.Catalog(context.Background())
	require.NoError(t, err)

	course, ok := catalog.Get(courseID)
	require.True(t, ok)
	assert.Equal(t, "Algebra I", course.Name)
	require.Len(t, rooms, 1)
	assert.Equal(t, "101", rooms[0].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyJoinsCertsOntoTeachers(t *testing.T) {
	st, mock, cleanup := newStoreMock(t)
	defer cleanup()

	teacherID := domain.NewID()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, max_sections, faculty_index FROM teacher")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "max_sections", "faculty_index"}).
			AddRow(teacherID.String(), "Ms. Ada", 5, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT teacher_id, endorsement FROM certs")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "endorsement"}).
			AddRow(teacherID.String(), "math").
			AddRow(teacherID.String(), "lbs1"))

	faculty, err := st.Faculty(context.Background())
	require.NoError(t, err)
	require.Len(t, faculty, 1)
	assert.True(t, faculty[0].HasCert(domain.Math))
	assert.True(t, faculty[0].HasLBS1())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterAssemblesRequiredElectivesAndServiceLevels(t *testing.T) {
	st, mock, cleanup := newStoreMock(t)
	defer cleanup()

	studentID := domain.NewID()
	requiredCourseID := domain.NewID()
	electiveCourseID := domain.NewID()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, grade, student_index FROM student")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "grade", "student_index"}).
			AddRow(studentID.String(), "9", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, course_id, is_elective FROM course_preference")).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "course_id", "is_elective"}).
			AddRow(studentID.String(), requiredCourseID.String(), false).
			AddRow(studentID.String(), electiveCourseID.String(), true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, department, level FROM room_preference")).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "department", "level"}).
			AddRow(studentID.String(), "math", "inclusion"))

	students, err := st.Roster(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)

	student := students[0]
	assert.Equal(t, []domain.ID{requiredCourseID}, student.Required)
	assert.Equal(t, []domain.ID{electiveCourseID}, student.Electives)
	assert.True(t, student.IsInclusion(domain.DeptMath))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveScheduleRollsBackOnFailure(t *testing.T) {
	st, mock, cleanup := newStoreMock(t)
	defer cleanup()

	catalog := domain.NewCatalog()
	course := domain.NewCourse(domain.NewID(), "Algebra I", domain.Math, 0, 10)
	catalog.Add(course)
	room := domain.NewRoom("101", domain.RoomStandard)
	sched := scheduler.NewSchedule(catalog, []domain.Room{room})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO room")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := st.SaveSchedule(context.Background(), sched)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveScheduleCommitsOnSuccess(t *testing.T) {
	st, mock, cleanup := newStoreMock(t)
	defer cleanup()

	catalog := domain.NewCatalog()
	room := domain.NewRoom("101", domain.RoomStandard)
	sched := scheduler.NewSchedule(catalog, []domain.Room{room})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO room")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, st.SaveSchedule(context.Background(), sched))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadScheduleReconstructsSectionsAndEnrollments(t *testing.T) {
	st, mock, cleanup := newStoreMock(t)
	defer cleanup()

	catalog := domain.NewCatalog()
	algebra := domain.NewCourse(domain.NewID(), "Algebra I", domain.Math, 0, 10)
	catalog.Add(algebra)
	rooms := []domain.Room{domain.NewRoom("101", domain.RoomStandard)}

	sectionID := domain.NewID()
	teacherID := domain.NewID()
	studentID := domain.NewID()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, period, room_number, primary_teacher, co_teacher, environment, max_size FROM section")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "period", "room_number", "primary_teacher", "co_teacher", "environment", "max_size"}).
			AddRow(sectionID.String(), algebra.ID.String(), "A", "101", teacherID.String(), nil, "gen-ed", 10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT section_id, student_id FROM enrollment")).
		WillReturnRows(sqlmock.NewRows([]string{"section_id", "student_id"}).
			AddRow(sectionID.String(), studentID.String()))

	sched, err := st.LoadSchedule(context.Background(), catalog, rooms)
	require.NoError(t, err)

	sec, ok := sched.Section(sectionID)
	require.True(t, ok)
	assert.Equal(t, period.A, sec.Period)
	assert.Equal(t, teacherID, sec.PrimaryTeacher)
	assert.Equal(t, domain.Nil, sec.CoTeacher)
	assert.True(t, sec.HasStudent(studentID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodByNameRoundTripsStringForm(t *testing.T) {
	p, ok := PeriodByName("A")
	require.True(t, ok)
	assert.Equal(t, period.A, p)

	_, ok = PeriodByName("not-a-period")
	assert.False(t, ok)
}
