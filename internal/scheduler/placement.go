package scheduler

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
	"github.com/edboard/masterschedule/internal/priority"
)

// Options tunes the placement engine's optional behavior.
type Options struct {
	// IncludeElectives schedules elective demands after required
	// demands are exhausted. Per open question (b), the engine is
	// required-only by default.
	IncludeElectives bool
}

// Run places every student's required (and, if enabled, elective)
// course demands into sched in priority order, then enforces lunch
// coverage for every student, per §4.6–§4.7. It mutates sched in place
// and also returns it, matching the abstract engine API's "returns a
// new schedule" contract while using the mutate-with-rollback strategy
// DESIGN NOTES recommends for a single-threaded Go implementation.
//
// Run is deterministic in seed: identical (sched, faculty, catalog,
// students, seed) inputs always produce byte-identical schedules (D1),
// and reordering the students slice does not change the outcome as long
// as each student's Index field reflects its original position (D2).
func Run(ctx context.Context, sched *Schedule, faculty []domain.Teacher, catalog domain.Catalog, students []domain.Student, seed int64, opts Options) (*Schedule, error) {
	if sched == nil {
		return nil, errors.New("run: schedule must not be nil")
	}

	studentByID := make(map[domain.ID]domain.Student, len(students))
	for _, s := range students {
		studentByID[s.ID] = s
	}

	lunchCourseID, haveLunch := sentinelID(catalog, domain.LunchCourseName)
	if !haveLunch {
		return nil, errors.New("run: catalog has no lunch course")
	}

	tickets := priority.BuildTickets(students, catalog, opts.IncludeElectives)
	tickets = priority.Prioritize(tickets, catalog)

	gen := newIDGen(seed)
	var step int64

	for _, ticket := range tickets {
		select {
		case <-ctx.Done():
			return sched, ctx.Err()
		default:
		}

		student, ok := studentByID[ticket.StudentID]
		if !ok {
			continue
		}
		course, ok := catalog.Get(ticket.CourseID)
		if !ok {
			continue
		}
		if studentHasCourse(sched, student.ID, course.ID) {
			continue
		}

		step++
		placed := placeDemand(sched, gen, step, faculty, student, course, ticket.Flags)
		if placed {
			ensureLunch(sched, student, lunchCourseID)
		}
	}

	// A final sweep guarantees every student was at least considered for
	// lunch, including students whose entire required list was already
	// satisfied or entirely unplaceable (invariant 7 is a property of
	// every student, not just ones who received a new section above).
	for _, student := range students {
		ensureLunch(sched, student, lunchCourseID)
	}

	return sched, nil
}

func sentinelID(catalog domain.Catalog, name string) (domain.ID, bool) {
	for _, id := range catalog.Order {
		if catalog.Courses[id].Name == name {
			return id, true
		}
	}
	return domain.Nil, false
}

func studentHasCourse(sched *Schedule, studentID, courseID domain.ID) bool {
	for _, sec := range StudentSections(sched, studentID) {
		if sec.CourseID == courseID {
			return true
		}
	}
	return false
}

// placeDemand dispatches a single (student, course) ticket to the
// gen-ed, inclusion, or separate-class variant of §4.6, in that order
// of specificity: separate-class service takes precedence over
// inclusion when (unusually) both flags are set for the same
// department, since a separate-class placement is the more restrictive
// service level.
func placeDemand(sched *Schedule, gen *idGen, step int64, faculty []domain.Teacher, student domain.Student, course domain.Course, flags priority.Flags) bool {
	switch {
	case flags.SeparateClass:
		return placeSeparateClass(sched, gen, step, faculty, student, course)
	case flags.Inclusion:
		return placeInclusion(sched, gen, step, faculty, student, course)
	default:
		_, ok := attachOrCreateGenEd(sched, gen, step, faculty, student, course)
		return ok
	}
}

// attachOrCreateGenEd implements §4.6 steps 1-5: attach to an existing,
// non-separate-class section of course if a compatible free period
// exists; otherwise create a new gen-ed section with a period chosen by
// department rule and a teacher found via TeacherCanTakeGened. It
// returns the section the student ended up in.
func attachOrCreateGenEd(sched *Schedule, gen *idGen, step int64, faculty []domain.Teacher, student domain.Student, course domain.Course) (domain.ID, bool) {
	existing := filterByEnvironment(SectionsOfCoursePacked(sched, course.ID), domain.SeparateClass, false)
	free := StudentFreePeriods(sched, student.ID)

	if secID, ok := attachToExisting(sched, existing, free, student.ID); ok {
		return secID, true
	}

	if len(free) == 0 {
		return domain.Nil, false
	}
	p := selectPeriodByDepartment(course.Department(), free)

	teacher, ok := bestTeacherForGened(sched, faculty, course, p)
	if !ok {
		return domain.Nil, false
	}

	room := sched.NextRoomForType(domain.DefaultRoomTypeFor(course.Department()))
	secID := gen.next(step)
	sec := domain.NewSection(secID, course.ID, p, room, course, teacher.ID, domain.GenEd)
	sec = sec.WithStudent(student.ID)
	sched.addSection(sec)
	return secID, true
}

// placeInclusion implements §4.6 step 6: try existing inclusion
// sections first; otherwise run the gen-ed path and promote the result,
// assigning a co-teacher. If no co-teacher can be found, the promotion
// is rolled back and the student is removed from the section's roster.
func placeInclusion(sched *Schedule, gen *idGen, step int64, faculty []domain.Teacher, student domain.Student, course domain.Course) bool {
	existingIncl := filterByEnvironment(SectionsOfCoursePacked(sched, course.ID), domain.Inclusion, true)
	free := StudentFreePeriods(sched, student.ID)
	if _, ok := attachToExisting(sched, existingIncl, free, student.ID); ok {
		return true
	}

	secID, ok := attachOrCreateGenEd(sched, gen, step, faculty, student, course)
	if !ok {
		return false
	}

	sec, _ := sched.Section(secID)
	wasGenEd := sec.Environment == domain.GenEd
	sec.Environment = domain.Inclusion
	sched.addSection(sec)

	coTeacher, found := findCoTeacher(sched, faculty, sec.Period, sec.PrimaryTeacher)
	if !found {
		reverted := sec.WithoutStudent(student.ID)
		if wasGenEd {
			reverted.Environment = domain.GenEd
		}
		reverted.CoTeacher = domain.Nil
		sched.addSection(reverted)
		return false
	}

	sec.CoTeacher = coTeacher.ID
	sched.addSection(sec)
	return true
}

// placeSeparateClass implements §4.6 step 7: attach to an existing
// separate-class section if possible; otherwise create one with an
// LBS1 primary teacher chosen via TeacherCanTakeSped.
func placeSeparateClass(sched *Schedule, gen *idGen, step int64, faculty []domain.Teacher, student domain.Student, course domain.Course) bool {
	existing := filterByEnvironment(SectionsOfCoursePacked(sched, course.ID), domain.SeparateClass, true)
	free := StudentFreePeriods(sched, student.ID)
	if _, ok := attachToExisting(sched, existing, free, student.ID); ok {
		return true
	}

	if len(free) == 0 {
		return false
	}
	p := selectPeriodByDepartment(course.Department(), free)

	teacher, ok := bestTeacherForSped(sched, faculty, p)
	if !ok {
		return false
	}

	room := sched.NextRoomForType(domain.RoomSped)
	secID := gen.next(step)
	sec := domain.NewSection(secID, course.ID, p, room, course, teacher.ID, domain.SeparateClass)
	sec = sec.WithStudent(student.ID)
	sched.addSection(sec)
	return true
}

func filterByEnvironment(sections []domain.Section, env domain.Environment, include bool) []domain.Section {
	var out []domain.Section
	for _, sec := range sections {
		if (sec.Environment == env) == include {
			out = append(out, sec)
		}
	}
	return out
}

// attachToExisting implements §4.6 step 4: among candidates (already
// filtered to has-space and sorted ascending by roster size), pick the
// smallest free period present among them and register the student into
// the least-loaded section at that period.
func attachToExisting(sched *Schedule, candidates []domain.Section, free []period.Period, studentID domain.ID) (domain.ID, bool) {
	var candidatePeriods []period.Period
	seen := map[period.Period]bool{}
	for _, sec := range candidates {
		if !seen[sec.Period] {
			seen[sec.Period] = true
			candidatePeriods = append(candidatePeriods, sec.Period)
		}
	}
	overlap := period.Intersect(candidatePeriods, free)
	if len(overlap) == 0 {
		return domain.Nil, false
	}
	p := period.Smallest(overlap)
	for _, sec := range candidates {
		if sec.Period == p {
			next := sec.WithStudent(studentID)
			sched.addSection(next)
			return next.ID, true
		}
	}
	return domain.Nil, false
}

// selectPeriodByDepartment implements §4.6 step 5's department rule and
// DESIGN NOTES decision (d): Science and Art prefer the smallest free
// period (early/long blocks); Math and World-Language prefer the
// largest; every other department also takes the smallest free period.
// No random choice is made here: the selection does not depend on the
// run seed, so two runs over the same inputs pick the same periods.
func selectPeriodByDepartment(d domain.Department, free []period.Period) period.Period {
	switch d {
	case domain.DeptScience, domain.DeptArt:
		return period.Smallest(free)
	case domain.DeptMath, domain.DeptWorldLanguage:
		return period.Largest(free)
	default:
		return period.Smallest(free)
	}
}

// bestTeacherForGened finds the teacher that can take the gen-ed course
// at p, preferring the busiest eligible teacher (most current sections)
// to keep prep counts concentrated, per §4.6 step 5.
func bestTeacherForGened(sched *Schedule, faculty []domain.Teacher, course domain.Course, p period.Period) (domain.Teacher, bool) {
	var eligible []domain.Teacher
	for _, t := range faculty {
		if TeacherCanTakeGened(sched, t, course, p) {
			eligible = append(eligible, t)
		}
	}
	return pickBusiest(sched, eligible)
}

// bestTeacherForSped mirrors bestTeacherForGened using the SPED
// eligibility check, for separate-class primary teacher selection.
func bestTeacherForSped(sched *Schedule, faculty []domain.Teacher, p period.Period) (domain.Teacher, bool) {
	var eligible []domain.Teacher
	for _, t := range faculty {
		if TeacherCanTakeSped(sched, t, p) {
			eligible = append(eligible, t)
		}
	}
	return pickBusiest(sched, eligible)
}

// findCoTeacher implements §4.7's co-teacher assignment: any LBS1
// teacher satisfying TeacherCanTakeSped at the section's period,
// excluding the section's own primary teacher, preferring the busiest.
func findCoTeacher(sched *Schedule, faculty []domain.Teacher, p period.Period, primary domain.ID) (domain.Teacher, bool) {
	var eligible []domain.Teacher
	for _, t := range faculty {
		if t.ID == primary {
			continue
		}
		if TeacherCanTakeSped(sched, t, p) {
			eligible = append(eligible, t)
		}
	}
	return pickBusiest(sched, eligible)
}

func pickBusiest(sched *Schedule, candidates []domain.Teacher) (domain.Teacher, bool) {
	if len(candidates) == 0 {
		return domain.Teacher{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		li := len(TeacherSections(sched, candidates[i].ID))
		lj := len(TeacherSections(sched, candidates[j].ID))
		if li != lj {
			return li > lj
		}
		return candidates[i].Index < candidates[j].Index
	})
	return candidates[0], true
}

// ensureLunch implements §4.7's lunch enforcement: if studentID does
// not already have a lunch section, pick the first (by fixed period
// order) lunch section with space among the student's free half-blocks
// and register them. If none is available, the caller is expected to
// surface this student via Anomalies. Lunch sections are always among
// the seeded sections, so no new section is ever created here.
func ensureLunch(sched *Schedule, student domain.Student, lunchCourseID domain.ID) {
	if len(StudentLunchSections(sched, student.ID, lunchCourseID)) > 0 {
		return
	}
	free := period.HalfBlocks(StudentFreePeriods(sched, student.ID))
	candidates := filterByEnvironment(SectionsOfCoursePacked(sched, lunchCourseID), domain.SeparateClass, false)

	var bestByPeriod = map[period.Period]domain.Section{}
	for _, sec := range candidates {
		if _, present := bestByPeriod[sec.Period]; !present {
			bestByPeriod[sec.Period] = sec
		}
	}
	for _, p := range period.All {
		if !period.Contains(free, p) {
			continue
		}
		sec, present := bestByPeriod[p]
		if !present {
			continue
		}
		next := sec.WithStudent(student.ID)
		sched.addSection(next)
		return
	}
	// no half-block with a non-full lunch section was free: this
	// student will surface in the lunch anomaly report.
}
