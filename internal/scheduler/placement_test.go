package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
)

// TestPlaceInclusionRollsBackWhenNoCoTeacherIsFree exercises §4.6 step 6's
// demote path directly: the only LBS1-certified teacher in the building
// is already booked at the exact period the gen-ed section lands on, so
// the promotion to an inclusion section must unwind cleanly rather than
// leave a section claiming an inclusion environment with no co-teacher.
func TestPlaceInclusionRollsBackWhenNoCoTeacherIsFree(t *testing.T) {
	catalog := domain.NewCatalog()
	algebra := domain.NewCourse(domain.NewID(), "Algebra I", domain.Math, 0, 10)
	catalog.Add(algebra)

	room := domain.NewRoom("101", domain.RoomStandard)
	sched := NewSchedule(catalog, []domain.Room{room})

	mathTeacher := domain.NewTeacher(domain.NewID(), "Ms. Ada", 5, []domain.Endorsement{domain.Math}, 0)
	lbs1Teacher := domain.NewTeacher(domain.NewID(), "Ms. Sped", 5, []domain.Endorsement{domain.SpecialEdLBS1}, 1)
	faculty := []domain.Teacher{mathTeacher, lbs1Teacher}

	// Math prefers the largest free period (period.D here, since the
	// student has no other sections yet); book the only LBS1 teacher
	// into that exact period ahead of time so no co-teacher is free.
	fillerCourse := domain.NewCourse(domain.NewID(), "Study Hall", domain.Endorsement("special-education"), 0, 10)
	busy := domain.NewSection(domain.NewID(), fillerCourse.ID, period.D, room, fillerCourse, lbs1Teacher.ID, domain.GenEd)
	sched.addSection(busy)

	student := domain.NewStudent(domain.NewID(), "9", []domain.ID{algebra.ID}, nil,
		map[domain.Department]bool{domain.DeptMath: true}, nil, 0)

	gen := newIDGen(1)
	placed := placeInclusion(sched, gen, 1, faculty, student, algebra)
	assert.False(t, placed, "promotion must fail when no co-teacher is free")

	var algebraSection domain.Section
	var found bool
	for _, sec := range sched.AllSections() {
		if sec.CourseID == algebra.ID {
			algebraSection = sec
			found = true
		}
	}
	require.True(t, found, "the gen-ed section created before the failed promotion should still exist")
	assert.Equal(t, domain.GenEd, algebraSection.Environment, "a rolled-back section must revert to gen-ed")
	assert.Equal(t, domain.Nil, algebraSection.CoTeacher, "a rolled-back section must not carry a co-teacher")
	assert.False(t, algebraSection.HasStudent(student.ID), "the student must be removed from the rolled-back section's roster")

	missing := MissingRequirements(sched, []domain.Student{student})
	assert.Contains(t, missing[student.ID], algebra.ID, "algebra should reappear as unmet once the inclusion placement is rolled back")
}
