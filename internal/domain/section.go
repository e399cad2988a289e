package domain

import "github.com/edboard/masterschedule/internal/period"

// Environment classifies how a section is staffed and who it serves.
type Environment string

const (
	GenEd         Environment = "gen-ed"
	Inclusion     Environment = "inclusion"
	SeparateClass Environment = "separate-class"
)

// Section is a scheduled instance of a course at one period in one
// room, with a primary teacher, an optional co-teacher, and a roster.
// Sections are created by the placement engine and mutated only by
// adding students/teachers; the Schedule type treats each mutation as
// producing a new Section value (see scheduler.Schedule).
type Section struct {
	ID             ID
	CourseID       ID
	Period         period.Period
	RoomNumber     string
	PrimaryTeacher ID
	CoTeacher      ID // domain.Nil when unset
	Environment    Environment
	MaxSize        int

	// Roster is kept as an ordered slice (registration order) plus a
	// membership set, so iteration over a roster is deterministic
	// without resorting to sorting student UUIDs at render time.
	Roster    []ID
	inRoster  map[ID]bool
}

// NewSection constructs a section with its effective capacity derived
// as min(course max, room max), per invariant 1.
func NewSection(id, courseID ID, p period.Period, room Room, course Course, primaryTeacher ID, env Environment) Section {
	maxSize := course.MaxSize
	if room.MaxCap < maxSize {
		maxSize = room.MaxCap
	}
	return Section{
		ID:             id,
		CourseID:       courseID,
		Period:         p,
		RoomNumber:     room.Number,
		PrimaryTeacher: primaryTeacher,
		CoTeacher:      Nil,
		Environment:    env,
		MaxSize:        maxSize,
		inRoster:       make(map[ID]bool),
	}
}

// Clone returns a deep-enough copy of the section so that the caller
// can mutate the roster without aliasing the original section's slice
// or map — the persistent-schedule discipline described in DESIGN NOTES.
func (s Section) Clone() Section {
	roster := make([]ID, len(s.Roster))
	copy(roster, s.Roster)
	inRoster := make(map[ID]bool, len(s.inRoster))
	for k, v := range s.inRoster {
		inRoster[k] = v
	}
	s.Roster = roster
	s.inRoster = inRoster
	return s
}

// HasSpace reports whether the section can accept another student.
func (s Section) HasSpace() bool {
	return len(s.Roster) < s.MaxSize
}

// HasStudent reports whether studentID is already on the roster.
func (s Section) HasStudent(studentID ID) bool {
	if s.inRoster == nil {
		return false
	}
	return s.inRoster[studentID]
}

// WithStudent returns a clone of s with studentID appended to the
// roster. It is the caller's responsibility to have checked HasSpace
// and !HasStudent first; this keeps the mutation itself unconditional
// and easy to reason about.
func (s Section) WithStudent(studentID ID) Section {
	next := s.Clone()
	next.Roster = append(next.Roster, studentID)
	next.inRoster[studentID] = true
	return next
}

// WithoutStudent returns a clone of s with studentID removed from the
// roster, used by the inclusion-fallback rollback path.
func (s Section) WithoutStudent(studentID ID) Section {
	next := s.Clone()
	out := next.Roster[:0]
	for _, id := range next.Roster {
		if id != studentID {
			out = append(out, id)
		}
	}
	next.Roster = out
	delete(next.inRoster, studentID)
	return next
}

// HasCoTeacher reports whether a co-teacher has been assigned.
func (s Section) HasCoTeacher() bool {
	return s.CoTeacher != Nil
}
