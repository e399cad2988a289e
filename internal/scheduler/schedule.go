// Package scheduler implements the schedule state (C3), the constraint
// predicates (C4), the placement engine (C6), and the inclusion/lunch
// overlays (C7) described in the specification.
package scheduler

import (
	"sort"

	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
)

// Schedule is the mapping section-id -> Section plus the read-only
// catalog/room references every placement decision is checked against.
// The upstream source treats this as a persistent value threaded
// through pure updates; in Go, per DESIGN NOTES, it is implemented as a
// mutable map with explicit, narrowly-scoped rollback at the one place
// that needs it (the inclusion-fallback path in placement.go).
type Schedule struct {
	Catalog domain.Catalog
	Rooms   map[string]domain.Room

	sections    map[domain.ID]domain.Section
	order       []domain.ID // section creation order, for deterministic iteration
	roomsByType map[domain.RoomType][]domain.Room
	roomCursor  map[domain.RoomType]int
}

// NewSchedule returns a schedule seeded with one lunch section and one
// SPED-seminar section at each of the four half-blocks (8 sections
// total), per §4.7. Room assignment for seeded sections prefers a
// cafeteria-typed room for lunch and a sped-typed room for the seminar,
// falling back as NextRoomForType does (standard rooms, then any room).
func NewSchedule(catalog domain.Catalog, rooms []domain.Room) *Schedule {
	roomIndex := make(map[string]domain.Room, len(rooms))
	for _, r := range rooms {
		roomIndex[r.Number] = r
	}

	roomsByType := make(map[domain.RoomType][]domain.Room)
	for _, r := range rooms {
		roomsByType[r.Type] = append(roomsByType[r.Type], r)
	}

	s := &Schedule{
		Catalog:     catalog,
		Rooms:       roomIndex,
		sections:    make(map[domain.ID]domain.Section),
		roomsByType: roomsByType,
		roomCursor:  make(map[domain.RoomType]int),
	}

	lunchCourse, lunchOK := findSentinelCourse(catalog, domain.LunchCourseName)
	seminarCourse, seminarOK := findSentinelCourse(catalog, domain.SpedSeminarCourseName)

	halfBlocks := []period.Period{period.A, period.B, period.C, period.D}
	for _, p := range halfBlocks {
		if lunchOK {
			room := s.NextRoomForType(domain.RoomCafeteria)
			sec := domain.NewSection(seededSectionID("lunch-"+p.String()), lunchCourse.ID, p, room, lunchCourse, domain.Nil, domain.GenEd)
			s.addSection(sec)
		}
		if seminarOK {
			room := s.NextRoomForType(domain.RoomSped)
			sec := domain.NewSection(seededSectionID("seminar-"+p.String()), seminarCourse.ID, p, room, seminarCourse, domain.Nil, domain.SeparateClass)
			s.addSection(sec)
		}
	}

	return s
}

// NewScheduleFromSections reconstructs a schedule from previously
// persisted sections rather than running the placement engine, used by
// a serving process to resume reporting and metrics for the last
// completed run. Sections are inserted in the order given; sections
// whose id matches one of NewSchedule's seeded lunch/SPED-seminar
// sections simply overwrite the freshly-seeded placeholder with the
// persisted roster.
func NewScheduleFromSections(catalog domain.Catalog, rooms []domain.Room, sections []domain.Section) *Schedule {
	s := NewSchedule(catalog, rooms)
	for _, sec := range sections {
		s.addSection(sec)
	}
	return s
}

func findSentinelCourse(catalog domain.Catalog, name string) (domain.Course, bool) {
	for _, id := range catalog.Order {
		if c := catalog.Courses[id]; c.Name == name {
			return c, true
		}
	}
	return domain.Course{}, false
}

// NextRoomForType returns a default room for the given room type,
// rotating round-robin through every room of that type so that sections
// created back to back don't all pile into the same physical room. It
// falls back to standard-type rooms, then to any room, then to a
// synthetic placeholder if the run has no rooms at all.
func (s *Schedule) NextRoomForType(want domain.RoomType) domain.Room {
	candidates := s.roomsByType[want]
	if len(candidates) == 0 {
		candidates = s.roomsByType[domain.RoomStandard]
	}
	if len(candidates) == 0 {
		for _, list := range s.roomsByType {
			candidates = list
			if len(candidates) > 0 {
				break
			}
		}
	}
	if len(candidates) == 0 {
		return domain.NewRoom("unassigned", want)
	}
	i := s.roomCursor[want] % len(candidates)
	s.roomCursor[want]++
	return candidates[i]
}

// addSection inserts or replaces a section, recording creation order on
// first insert.
func (s *Schedule) addSection(sec domain.Section) {
	if _, present := s.sections[sec.ID]; !present {
		s.order = append(s.order, sec.ID)
	}
	s.sections[sec.ID] = sec
}

// Section looks up a section by id.
func (s *Schedule) Section(id domain.ID) (domain.Section, bool) {
	sec, ok := s.sections[id]
	return sec, ok
}

// AllSections returns every section in creation order.
func (s *Schedule) AllSections() []domain.Section {
	out := make([]domain.Section, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sections[id])
	}
	return out
}

// SectionsOfCourse returns the sections teaching courseID, in creation
// order. When onlyWithSpace is true, full sections are filtered out.
func SectionsOfCourse(s *Schedule, courseID domain.ID, onlyWithSpace bool) []domain.Section {
	var out []domain.Section
	for _, id := range s.order {
		sec := s.sections[id]
		if sec.CourseID != courseID {
			continue
		}
		if onlyWithSpace && !sec.HasSpace() {
			continue
		}
		out = append(out, sec)
	}
	return out
}

// SectionsOfCoursePacked is SectionsOfCourse(..., true) sorted ascending
// by roster size, so the placement engine packs the least-loaded
// section first (§4.6 step 1).
func SectionsOfCoursePacked(s *Schedule, courseID domain.ID) []domain.Section {
	out := SectionsOfCourse(s, courseID, true)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Roster) < len(out[j].Roster)
	})
	return out
}

// TeacherSections returns every section where teacherID is the primary
// or co-teacher, in creation order.
func TeacherSections(s *Schedule, teacherID domain.ID) []domain.Section {
	var out []domain.Section
	for _, id := range s.order {
		sec := s.sections[id]
		if sec.PrimaryTeacher == teacherID || sec.CoTeacher == teacherID {
			out = append(out, sec)
		}
	}
	return out
}

// StudentSections returns every section studentID is enrolled in, in
// creation order.
func StudentSections(s *Schedule, studentID domain.ID) []domain.Section {
	var out []domain.Section
	for _, id := range s.order {
		sec := s.sections[id]
		if sec.HasStudent(studentID) {
			out = append(out, sec)
		}
	}
	return out
}

// TeacherPreps returns the set of distinct course ids teacherID
// primary-teaches. Co-teaching assignments never count toward this set,
// per the relaxed prep cap for LBS1 co-teaching (open question c).
func TeacherPreps(s *Schedule, teacherID domain.ID) map[domain.ID]bool {
	preps := make(map[domain.ID]bool)
	for _, id := range s.order {
		sec := s.sections[id]
		if sec.PrimaryTeacher == teacherID {
			preps[sec.CourseID] = true
		}
	}
	return preps
}

// TeacherFreePeriods returns the periods that do not overlap any
// section teacherID currently teaches (primary or co-teacher).
func TeacherFreePeriods(s *Schedule, teacherID domain.ID) []period.Period {
	var busy []period.Period
	for _, sec := range TeacherSections(s, teacherID) {
		busy = append(busy, sec.Period)
	}
	return period.NonOverlappingWith(busy)
}

// StudentFreePeriods returns the periods that do not overlap any
// section studentID is currently enrolled in.
func StudentFreePeriods(s *Schedule, studentID domain.ID) []period.Period {
	var busy []period.Period
	for _, sec := range StudentSections(s, studentID) {
		busy = append(busy, sec.Period)
	}
	return period.NonOverlappingWith(busy)
}

// StudentLunchSections returns the seeded lunch sections studentID is
// currently enrolled in (normally 0 or 1; invariant 7 requires exactly
// 1 by the time a placement attempt for that student completes).
func StudentLunchSections(s *Schedule, studentID domain.ID, lunchCourseID domain.ID) []domain.Section {
	var out []domain.Section
	for _, sec := range StudentSections(s, studentID) {
		if sec.CourseID == lunchCourseID {
			out = append(out, sec)
		}
	}
	return out
}
