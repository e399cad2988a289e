package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edboard/masterschedule/internal/period"
)

func TestDepartmentOfResolvesFamilyPrefixes(t *testing.T) {
	assert.Equal(t, DeptScience, DepartmentOf(Endorsement("science-biology")))
	assert.Equal(t, DeptWorldLanguage, DepartmentOf(Endorsement("world-language-spanish")))
	assert.Equal(t, DeptSocialScience, DepartmentOf(Endorsement("social-science-us-history")))
	assert.Equal(t, DeptArt, DepartmentOf(Endorsement("art-ceramics")))
	assert.Equal(t, DeptSpecialEd, DepartmentOf(SpecialEdLBS1))
	assert.Equal(t, DeptMath, DepartmentOf(Math))
	assert.Equal(t, DeptNone, DepartmentOf(Endorsement("unknown")))
}

func TestTeacherHasCertAndDepartment(t *testing.T) {
	teacher := NewTeacher(NewID(), "Ms. Ada", 5, []Endorsement{Math, SpecialEdLBS1}, 0)
	assert.True(t, teacher.HasCert(Math))
	assert.False(t, teacher.HasCert(English))
	assert.True(t, teacher.HasLBS1())
	assert.True(t, teacher.HasDepartment(DeptMath))
	assert.True(t, teacher.HasDepartment(DeptSpecialEd))
	assert.False(t, teacher.HasDepartment(DeptArt))
}

func TestNewTeacherAppliesDefaultMaxSections(t *testing.T) {
	teacher := NewTeacher(NewID(), "Mr. Byte", 0, nil, 0)
	assert.Equal(t, DefaultMaxSections, teacher.MaxSections)
}

func TestNewCourseAppliesDefaultSizes(t *testing.T) {
	course := NewCourse(NewID(), "Algebra I", Math, 0, 0)
	assert.Equal(t, DefaultMinSize, course.MinSize)
	assert.Equal(t, DefaultMaxSize, course.MaxSize)
	assert.Equal(t, DeptMath, course.Department())
}

func TestLunchAndSpedSeminarSentinels(t *testing.T) {
	lunch := NewLunchCourse(NewID())
	assert.True(t, lunch.IsLunch())
	assert.False(t, lunch.IsSpedSeminar())

	seminar := NewSpedSeminarCourse(NewID())
	assert.True(t, seminar.IsSpedSeminar())
	assert.Equal(t, SpecialEdLBS1, seminar.RequiredEndorsement)
}

func TestCatalogAddAndGet(t *testing.T) {
	catalog := NewCatalog()
	course := NewCourse(NewID(), "Biology", Endorsement("science-biology"), 0, 0)
	catalog.Add(course)
	catalog.Add(course) // re-adding must not duplicate Order

	got, ok := catalog.Get(course.ID)
	assert.True(t, ok)
	assert.Equal(t, course, got)
	assert.Len(t, catalog.Order, 1)
}

func TestStudentPriorityWeighting(t *testing.T) {
	inclusion := map[Department]bool{DeptMath: true}
	separate := map[Department]bool{DeptSpecialEd: true, DeptEnglish: true}
	student := NewStudent(NewID(), "9", nil, nil, inclusion, separate, 0)
	// 1 inclusion department + 5 * 2 separate-class departments
	assert.Equal(t, 11, student.Priority)
	assert.True(t, student.IsInclusion(DeptMath))
	assert.True(t, student.IsSeparateClass(DeptSpecialEd))
	assert.True(t, student.NeedsSpedSeminar())
}

func TestStudentWithoutSpedDoesNotNeedSeminar(t *testing.T) {
	student := NewStudent(NewID(), "9", nil, nil, nil, nil, 0)
	assert.False(t, student.NeedsSpedSeminar())
	assert.Equal(t, 0, student.Priority)
}

func TestNewRoomDerivesCapacityFromType(t *testing.T) {
	lab := NewRoom("204", RoomLab)
	assert.Equal(t, 10, lab.MinCap)
	assert.Equal(t, 24, lab.MaxCap)
}

func TestDefaultRoomTypeForDepartment(t *testing.T) {
	assert.Equal(t, RoomLab, DefaultRoomTypeFor(DeptScience))
	assert.Equal(t, RoomArt, DefaultRoomTypeFor(DeptArt))
	assert.Equal(t, RoomGym, DefaultRoomTypeFor(DeptPhysEd))
	assert.Equal(t, RoomSped, DefaultRoomTypeFor(DeptSpecialEd))
	assert.Equal(t, RoomStandard, DefaultRoomTypeFor(DeptMath))
}

func TestSectionCapacityIsMinOfCourseAndRoom(t *testing.T) {
	course := NewCourse(NewID(), "Gym", PhysEd, 0, 40)
	room := NewRoom("gym-1", RoomGym) // max cap 60, so course wins
	sec := NewSection(NewID(), course.ID, period.First, room, course, NewID(), GenEd)
	assert.Equal(t, 40, sec.MaxSize)

	smallRoom := NewRoom("closet", RoomSped) // max cap 15
	sec2 := NewSection(NewID(), course.ID, period.First, smallRoom, course, NewID(), GenEd)
	assert.Equal(t, 15, sec2.MaxSize)
}

func TestSectionRosterLifecycle(t *testing.T) {
	course := NewCourse(NewID(), "Algebra I", Math, 0, 2)
	room := NewRoom("101", RoomStandard)
	sec := NewSection(NewID(), course.ID, period.First, room, course, NewID(), GenEd)
	assert.True(t, sec.HasSpace())

	studentA, studentB := NewID(), NewID()
	sec = sec.WithStudent(studentA)
	assert.True(t, sec.HasStudent(studentA))
	assert.True(t, sec.HasSpace())

	sec = sec.WithStudent(studentB)
	assert.False(t, sec.HasSpace())

	sec = sec.WithoutStudent(studentA)
	assert.False(t, sec.HasStudent(studentA))
	assert.True(t, sec.HasStudent(studentB))
	assert.True(t, sec.HasSpace())
}

func TestSectionCloneDoesNotAliasRoster(t *testing.T) {
	course := NewCourse(NewID(), "Algebra I", Math, 0, 10)
	room := NewRoom("101", RoomStandard)
	sec := NewSection(NewID(), course.ID, period.First, room, course, NewID(), GenEd)
	sec = sec.WithStudent(NewID())

	clone := sec.Clone()
	clone = clone.WithStudent(NewID())

	assert.Len(t, sec.Roster, 1)
	assert.Len(t, clone.Roster, 2)
}

func TestSectionCoTeacher(t *testing.T) {
	course := NewCourse(NewID(), "Algebra I", Math, 0, 10)
	room := NewRoom("101", RoomStandard)
	sec := NewSection(NewID(), course.ID, period.First, room, course, NewID(), Inclusion)
	assert.False(t, sec.HasCoTeacher())
	sec.CoTeacher = NewID()
	assert.True(t, sec.HasCoTeacher())
}

func TestIDNilAndString(t *testing.T) {
	assert.True(t, Nil.IsNil())
	id := NewID()
	assert.False(t, id.IsNil())
	assert.NotEmpty(t, id.String())
}
