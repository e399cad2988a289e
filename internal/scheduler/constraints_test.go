package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
)

func TestTeacherCanTakeGenedRequiresCertMatch(t *testing.T) {
	catalog := domain.NewCatalog()
	sched := NewSchedule(catalog, nil)
	course := domain.NewCourse(domain.NewID(), "Algebra I", domain.Math, 0, 10)

	uncertified := domain.NewTeacher(domain.NewID(), "Mr. Byte", 5, []domain.Endorsement{domain.English}, 0)
	assert.False(t, TeacherCanTakeGened(sched, uncertified, course, period.First))

	certified := domain.NewTeacher(domain.NewID(), "Ms. Ada", 5, []domain.Endorsement{domain.Math}, 1)
	assert.True(t, TeacherCanTakeGened(sched, certified, course, period.First))
}

func TestTeacherCanTakeGenedRespectsLoadCap(t *testing.T) {
	catalog := domain.NewCatalog()
	course := domain.NewCourse(domain.NewID(), "Algebra I", domain.Math, 0, 10)
	catalog.Add(course)
	sched := NewSchedule(catalog, []domain.Room{domain.NewRoom("101", domain.RoomStandard)})

	teacher := domain.NewTeacher(domain.NewID(), "Ms. Ada", 1, []domain.Endorsement{domain.Math}, 0)
	room := domain.NewRoom("101", domain.RoomStandard)
	sec := domain.NewSection(domain.NewID(), course.ID, period.First, room, course, teacher.ID, domain.GenEd)
	sched.addSection(sec)

	assert.False(t, TeacherCanTakeGened(sched, teacher, course, period.Second), "teacher is already at MaxSections")
}

func TestTeacherCanTakeGenedRespectsPrepCap(t *testing.T) {
	catalog := domain.NewCatalog()
	courseA := domain.NewCourse(domain.NewID(), "Algebra I", domain.Math, 0, 10)
	courseB := domain.NewCourse(domain.NewID(), "Geometry", domain.Math, 0, 10)
	courseC := domain.NewCourse(domain.NewID(), "Calculus", domain.Math, 0, 10)
	catalog.Add(courseA)
	catalog.Add(courseB)
	catalog.Add(courseC)
	sched := NewSchedule(catalog, []domain.Room{domain.NewRoom("101", domain.RoomStandard)})

	teacher := domain.NewTeacher(domain.NewID(), "Ms. Ada", 5, []domain.Endorsement{domain.Math}, 0)
	room := domain.NewRoom("101", domain.RoomStandard)
	sched.addSection(domain.NewSection(domain.NewID(), courseA.ID, period.First, room, courseA, teacher.ID, domain.GenEd))
	sched.addSection(domain.NewSection(domain.NewID(), courseB.ID, period.Second, room, courseB, teacher.ID, domain.GenEd))

	assert.True(t, TeacherCanTakeGened(sched, teacher, courseA, period.Third), "a third section of an existing prep does not grow the prep count")
	assert.False(t, TeacherCanTakeGened(sched, teacher, courseC, period.Third), "a third distinct prep exceeds the 2-prep cap")
}

func TestTeacherCanTakeGenedRequiresFreePeriod(t *testing.T) {
	catalog := domain.NewCatalog()
	course := domain.NewCourse(domain.NewID(), "Algebra I", domain.Math, 0, 10)
	catalog.Add(course)
	sched := NewSchedule(catalog, []domain.Room{domain.NewRoom("101", domain.RoomStandard)})

	teacher := domain.NewTeacher(domain.NewID(), "Ms. Ada", 5, []domain.Endorsement{domain.Math}, 0)
	room := domain.NewRoom("101", domain.RoomStandard)
	sched.addSection(domain.NewSection(domain.NewID(), course.ID, period.First, room, course, teacher.ID, domain.GenEd))

	assert.False(t, TeacherCanTakeGened(sched, teacher, course, period.First))
}

func TestTeacherCanTakeSpedRequiresLBS1(t *testing.T) {
	sched := NewSchedule(domain.NewCatalog(), nil)
	uncertified := domain.NewTeacher(domain.NewID(), "Mr. Byte", 5, []domain.Endorsement{domain.Math}, 0)
	assert.False(t, TeacherCanTakeSped(sched, uncertified, period.First))

	certified := domain.NewTeacher(domain.NewID(), "Ms. Sped", 5, []domain.Endorsement{domain.SpecialEdLBS1}, 1)
	assert.True(t, TeacherCanTakeSped(sched, certified, period.First))
}

func TestTeacherCanTakeSpedIgnoresPrepCap(t *testing.T) {
	catalog := domain.NewCatalog()
	courseA := domain.NewSpedSeminarCourse(domain.NewID())
	courseB := domain.NewCourse(domain.NewID(), "Life Skills A", domain.SpecialEdLBS1, 0, 10)
	courseC := domain.NewCourse(domain.NewID(), "Life Skills B", domain.SpecialEdLBS1, 0, 10)
	catalog.Add(courseA)
	catalog.Add(courseB)
	catalog.Add(courseC)
	sched := NewSchedule(catalog, []domain.Room{domain.NewRoom("sped-1", domain.RoomSped)})

	teacher := domain.NewTeacher(domain.NewID(), "Ms. Sped", 5, []domain.Endorsement{domain.SpecialEdLBS1}, 0)
	room := domain.NewRoom("sped-1", domain.RoomSped)
	sched.addSection(domain.NewSection(domain.NewID(), courseA.ID, period.First, room, courseA, teacher.ID, domain.SeparateClass))
	sched.addSection(domain.NewSection(domain.NewID(), courseB.ID, period.Second, room, courseB, teacher.ID, domain.SeparateClass))

	assert.True(t, TeacherCanTakeSped(sched, teacher, period.Third), "LBS1 staff are exempt from the prep cap")
}
