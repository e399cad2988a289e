package scheduler

import (
	"sort"

	"github.com/edboard/masterschedule/internal/domain"
)

// MissingRequirements computes, for every student, the set of required
// course ids they ended up without a section for, per §4.8. Electives
// are never reported missing: the engine is required-only by default
// and a dropped elective is not a failure.
func MissingRequirements(sched *Schedule, students []domain.Student) map[domain.ID][]domain.ID {
	out := make(map[domain.ID][]domain.ID, len(students))
	for _, student := range students {
		have := make(map[domain.ID]bool)
		for _, sec := range StudentSections(sched, student.ID) {
			have[sec.CourseID] = true
		}
		var missing []domain.ID
		for _, courseID := range student.Required {
			if !have[courseID] {
				missing = append(missing, courseID)
			}
		}
		if student.NeedsSpedSeminar() {
			if seminarID, ok := sentinelID(sched.Catalog, domain.SpedSeminarCourseName); ok && !have[seminarID] {
				missing = append(missing, seminarID)
			}
		}
		out[student.ID] = missing
	}
	return out
}

// MissingBuckets groups the per-student missing-requirement counts
// into the 0/1/2/3/>3 buckets §4.8 and the external interface ask for.
func MissingBuckets(missing map[domain.ID][]domain.ID) map[string]int {
	buckets := map[string]int{"0": 0, "1": 0, "2": 0, "3": 0, ">3": 0}
	for _, lst := range missing {
		switch n := len(lst); {
		case n == 0:
			buckets["0"]++
		case n == 1:
			buckets["1"]++
		case n == 2:
			buckets["2"]++
		case n == 3:
			buckets["3"]++
		default:
			buckets[">3"]++
		}
	}
	return buckets
}

// Anomalies returns, for every student whose lunch-section count is not
// exactly 1, that count, per invariant 7 and §4.8.
func Anomalies(sched *Schedule, students []domain.Student) map[domain.ID]int {
	lunchID, ok := sentinelID(sched.Catalog, domain.LunchCourseName)
	if !ok {
		return nil
	}
	out := make(map[domain.ID]int)
	for _, student := range students {
		n := len(StudentLunchSections(sched, student.ID, lunchID))
		if n != 1 {
			out[student.ID] = n
		}
	}
	return out
}

// SortedIDs is a small convenience for rendering: deterministic id
// ordering by string form, since domain.ID has no natural ordering of
// its own.
func SortedIDs(ids []domain.ID) []domain.ID {
	out := make([]domain.ID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
