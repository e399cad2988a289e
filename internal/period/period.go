// Package period implements the fixed period calculus: the enumeration
// of full and half blocks, their overlap relation, and the derived
// free-period arithmetic used throughout the scheduler.
package period

// Period is one of the eight full blocks or four half blocks a section
// can meet in. The zero value is not a valid period; use the named
// constants.
type Period int

const (
	First Period = iota + 1
	Second
	Third
	Fourth
	Fifth
	Sixth
	Seventh
	Eighth
	A
	B
	C
	D
)

// All enumerates every period in a fixed, stable order. Callers that
// need "smallest free period" or "largest free period" rely on this
// order rather than the underlying int values.
var All = []Period{First, Second, Third, Fourth, Fifth, Sixth, Seventh, Eighth, A, B, C, D}

var names = map[Period]string{
	First: "1st", Second: "2nd", Third: "3rd", Fourth: "4th",
	Fifth: "5th", Sixth: "6th", Seventh: "7th", Eighth: "8th",
	A: "A", B: "B", C: "C", D: "D",
}

func (p Period) String() string {
	if s, ok := names[p]; ok {
		return s
	}
	return "invalid-period"
}

// IsHalfBlock reports whether p is one of the A/B/C/D half blocks.
func IsHalfBlock(p Period) bool {
	switch p {
	case A, B, C, D:
		return true
	default:
		return false
	}
}

// IsFullBlock is the complement of IsHalfBlock within the enumeration.
func IsFullBlock(p Period) bool {
	return !IsHalfBlock(p)
}

// overlapPairs is the hard-coded overlap table from the spec: each pair
// listed here overlaps, in addition to every period overlapping itself.
var overlapPairs = [][2]Period{
	{Second, A}, {Second, B},
	{Sixth, A}, {Sixth, B},
	{Third, C}, {Third, D},
	{Seventh, C}, {Seventh, D},
}

var overlapSet map[Period]map[Period]bool

func init() {
	overlapSet = make(map[Period]map[Period]bool, len(All))
	for _, p := range All {
		overlapSet[p] = map[Period]bool{p: true}
	}
	for _, pair := range overlapPairs {
		overlapSet[pair[0]][pair[1]] = true
		overlapSet[pair[1]][pair[0]] = true
	}
}

// Overlaps reports whether p and q occupy overlapping time, per the
// fixed table. The relation is reflexive and symmetric.
func Overlaps(p, q Period) bool {
	set, ok := overlapSet[p]
	if !ok {
		return p == q
	}
	return set[q]
}

// NonOverlappingWith returns every period in All that does not overlap
// any period in s. This is the building block for both a teacher's and
// a student's free-period computation.
func NonOverlappingWith(s []Period) []Period {
	var out []Period
	for _, p := range All {
		clear := true
		for _, busy := range s {
			if Overlaps(p, busy) {
				clear = false
				break
			}
		}
		if clear {
			out = append(out, p)
		}
	}
	return out
}

// HalfBlocks filters periods to just the half-block subset, preserving
// the fixed order.
func HalfBlocks(periods []Period) []Period {
	var out []Period
	for _, p := range periods {
		if IsHalfBlock(p) {
			out = append(out, p)
		}
	}
	return out
}

// Index returns p's position in the fixed order, used to pick "smallest"
// or "largest" among a set of candidate periods.
func Index(p Period) int {
	for i, elt := range All {
		if elt == p {
			return i
		}
	}
	return -1
}

// Smallest returns the period in periods with the lowest fixed-order
// index. It panics if periods is empty; callers must check first.
func Smallest(periods []Period) Period {
	best := periods[0]
	for _, p := range periods[1:] {
		if Index(p) < Index(best) {
			best = p
		}
	}
	return best
}

// Largest returns the period in periods with the highest fixed-order
// index. It panics if periods is empty; callers must check first.
func Largest(periods []Period) Period {
	best := periods[0]
	for _, p := range periods[1:] {
		if Index(p) > Index(best) {
			best = p
		}
	}
	return best
}

// Contains reports whether p appears in periods.
func Contains(periods []Period, p Period) bool {
	for _, elt := range periods {
		if elt == p {
			return true
		}
	}
	return false
}

// Intersect returns the periods present in both a and b, in a's order.
func Intersect(a, b []Period) []Period {
	var out []Period
	for _, p := range a {
		if Contains(b, p) {
			out = append(out, p)
		}
	}
	return out
}
