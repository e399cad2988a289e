// Package priority implements the demand prioritizer (C5): it turns a
// student body's required/elective course lists into registration
// tickets and ranks them globally by scarcity and IEP weight, per
// spec.md §4.5.
package priority

import (
	"sort"

	"github.com/edboard/masterschedule/internal/domain"
)

// Flags captures the per-ticket modifiers that drive the priority
// transform.
type Flags struct {
	Elective      bool
	Inclusion     bool
	SeparateClass bool
}

// Ticket is a single (student, course, flags) registration demand.
type Ticket struct {
	StudentID       domain.ID
	CourseID        domain.ID
	Flags           Flags
	StudentPriority int
	StudentIndex    int
	Priority        int
}

// BuildTickets expands every student's required courses (and, when
// includeElectives is true, elective courses) into tickets. Per open
// question (b), the engine defaults to required-only; electives are a
// wired but normally-unused seam (scheduler.Options.IncludeElectives).
func BuildTickets(students []domain.Student, catalog domain.Catalog, includeElectives bool) []Ticket {
	var tickets []Ticket
	for _, student := range students {
		for _, courseID := range student.Required {
			tickets = append(tickets, newTicket(student, catalog, courseID, false))
		}
		if includeElectives {
			for _, courseID := range student.Electives {
				tickets = append(tickets, newTicket(student, catalog, courseID, true))
			}
		}
	}
	return tickets
}

func newTicket(student domain.Student, catalog domain.Catalog, courseID domain.ID, elective bool) Ticket {
	flags := Flags{Elective: elective}
	if course, ok := catalog.Get(courseID); ok {
		dept := course.Department()
		flags.Inclusion = student.IsInclusion(dept)
		flags.SeparateClass = student.IsSeparateClass(dept)
	}
	return Ticket{
		StudentID:       student.ID,
		CourseID:        courseID,
		Flags:           flags,
		StudentPriority: student.Priority,
		StudentIndex:    student.Index,
	}
}

// Prioritize computes each ticket's Priority field and returns the
// tickets sorted in the order the placement engine must process them:
// descending priority, then descending student priority, then
// ascending student index (stable input order), per §4.5 and D2.
func Prioritize(tickets []Ticket, catalog domain.Catalog) []Ticket {
	estimate := sectionCountEstimates(tickets, catalog)
	sMax := 0
	for _, n := range estimate {
		if n > sMax {
			sMax = n
		}
	}

	out := make([]Ticket, len(tickets))
	copy(out, tickets)
	for i, t := range out {
		base := sMax - estimate[t.CourseID]
		x := base
		if t.Flags.Inclusion {
			x = (x + 2) * 2
		}
		if t.Flags.SeparateClass {
			x = (x + 2) * 3
		}
		if t.Flags.Elective {
			x = x - 1
		}
		out[i].Priority = x
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].StudentPriority != out[j].StudentPriority {
			return out[i].StudentPriority > out[j].StudentPriority
		}
		return out[i].StudentIndex < out[j].StudentIndex
	})
	return out
}

// sectionCountEstimates computes, for every course with at least one
// ticket, 1 + floor(tickets-for(c) / course-max-size) — the expected
// number of sections needed to serve demand, per §4.5 step 1. The
// course's own max section size stands in for "default-cap(required-
// space(c))": it is the cap that actually governs how many students
// one section of c can hold.
func sectionCountEstimates(tickets []Ticket, catalog domain.Catalog) map[domain.ID]int {
	counts := make(map[domain.ID]int)
	for _, t := range tickets {
		counts[t.CourseID]++
	}
	estimate := make(map[domain.ID]int, len(counts))
	for courseID, n := range counts {
		sectionCap := domain.DefaultMaxSize
		if course, ok := catalog.Get(courseID); ok && course.MaxSize > 0 {
			sectionCap = course.MaxSize
		}
		estimate[courseID] = 1 + n/sectionCap
	}
	return estimate
}
