package scheduler

import (
	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
)

// SectionHasSpace is an alias for domain.Section.HasSpace kept at
// package level so constraint checks read uniformly (§4.4).
func SectionHasSpace(sec domain.Section) bool {
	return sec.HasSpace()
}

// TeacherCanTakeGened implements §4.4's four-part gen-ed eligibility
// check: load cap, certification match, period freedom, and the
// 2-prep limit that a new course assignment would not exceed.
func TeacherCanTakeGened(s *Schedule, teacher domain.Teacher, course domain.Course, p period.Period) bool {
	if len(TeacherSections(s, teacher.ID)) >= teacher.MaxSections {
		return false
	}
	if !teacher.HasCert(course.RequiredEndorsement) {
		return false
	}
	if !period.Contains(TeacherFreePeriods(s, teacher.ID), p) {
		return false
	}
	preps := TeacherPreps(s, teacher.ID)
	if !preps[course.ID] && len(preps)+1 > domain.MaxPreps {
		return false
	}
	return true
}

// TeacherCanTakeSped implements §4.4's SPED eligibility check: load cap,
// LBS1 certification, and period freedom. It drops the certification
// match against the course's endorsement (using LBS1 instead) and drops
// the prep-count check entirely, per the relaxed cap for LBS1 staff.
func TeacherCanTakeSped(s *Schedule, teacher domain.Teacher, p period.Period) bool {
	if len(TeacherSections(s, teacher.ID)) >= teacher.MaxSections {
		return false
	}
	if !teacher.HasLBS1() {
		return false
	}
	if !period.Contains(TeacherFreePeriods(s, teacher.ID), p) {
		return false
	}
	return true
}
