package domain

// Default section-size bounds applied when a course omits them.
const (
	DefaultMinSize = 20
	DefaultMaxSize = 30
)

// Sentinel course ids / names that exist in every run. They are not
// random UUIDs: the engine seeds them deterministically so that two
// runs over the same catalog produce byte-identical section ids for
// the seeded sections (see scheduler.NewSchedule).
var (
	LunchCourseName       = "lunch"
	SpedSeminarCourseName = "sped-seminar"
)

// Course is immutable once constructed; required endorsement maps 1:1
// to a department.
type Course struct {
	ID                  ID
	Name                string
	RequiredEndorsement Endorsement
	MinSize             int
	MaxSize             int
}

// NewCourse applies the default min/max section size when either is
// left at zero.
func NewCourse(id ID, name string, endorsement Endorsement, minSize, maxSize int) Course {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return Course{ID: id, Name: name, RequiredEndorsement: endorsement, MinSize: minSize, MaxSize: maxSize}
}

// Department derives the course's department from its required
// endorsement.
func (c Course) Department() Department {
	return DepartmentOf(c.RequiredEndorsement)
}

// NewLunchCourse builds the sentinel lunch course: no endorsement
// required, 360-seat cap.
func NewLunchCourse(id ID) Course {
	return Course{ID: id, Name: LunchCourseName, RequiredEndorsement: "", MinSize: 0, MaxSize: 360}
}

// NewSpedSeminarCourse builds the sentinel SPED-seminar course:
// requires LBS1, 15-seat cap.
func NewSpedSeminarCourse(id ID) Course {
	return Course{ID: id, Name: SpedSeminarCourseName, RequiredEndorsement: SpecialEdLBS1, MinSize: 0, MaxSize: 15}
}

// IsLunch reports whether this is the sentinel lunch course.
func (c Course) IsLunch() bool {
	return c.Name == LunchCourseName
}

// IsSpedSeminar reports whether this is the sentinel SPED-seminar course.
func (c Course) IsSpedSeminar() bool {
	return c.Name == SpedSeminarCourseName
}

// Catalog is the full set of courses available in a run, keyed by id.
type Catalog struct {
	Courses map[ID]Course
	// Order preserves the input order courses were ingested in, used
	// wherever a deterministic iteration over the whole catalog matters.
	Order []ID
}

// NewCatalog builds an empty catalog.
func NewCatalog() Catalog {
	return Catalog{Courses: make(map[ID]Course)}
}

// Add inserts a course, recording its ingestion order.
func (c *Catalog) Add(course Course) {
	if _, present := c.Courses[course.ID]; !present {
		c.Order = append(c.Order, course.ID)
	}
	c.Courses[course.ID] = course
}

// Get looks up a course by id.
func (c Catalog) Get(id ID) (Course, bool) {
	course, ok := c.Courses[id]
	return course, ok
}
