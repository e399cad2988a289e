// Package store implements the persisted store collaborator (C10):
// loading a catalog/faculty/roster from Postgres and saving a completed
// schedule back to it. Grounded on noah-isme-sma-adp-api's
// sqlx/lib/pq repository layer.
package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
	"github.com/edboard/masterschedule/internal/scheduler"
)

// Store wraps a Postgres connection pool.
type Store struct {
	db *sqlx.DB
}

// Open connects to dsn using the lib/pq driver and verifies the
// connection with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "store: connect")
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-open handle, used by tests against sqlmock
// or an injected *sqlx.DB.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema described in spec.md §6 if it does not
// already exist. It is intentionally idempotent and side-effect-free on
// a database that already has the tables, so it is safe to call on
// every process start.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "store: migrate")
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS room (
		number   TEXT PRIMARY KEY,
		type     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS course (
		id                   UUID PRIMARY KEY,
		name                 TEXT NOT NULL,
		required_endorsement TEXT NOT NULL,
		min_size             INT NOT NULL,
		max_size             INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teacher (
		id           UUID PRIMARY KEY,
		name         TEXT NOT NULL,
		max_sections INT NOT NULL,
		faculty_index INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS certs (
		teacher_id  UUID NOT NULL REFERENCES teacher(id),
		endorsement TEXT NOT NULL,
		PRIMARY KEY (teacher_id, endorsement)
	)`,
	`CREATE TABLE IF NOT EXISTS student (
		id            UUID PRIMARY KEY,
		grade         TEXT NOT NULL,
		student_index INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS course_preference (
		student_id UUID NOT NULL REFERENCES student(id),
		course_id  UUID NOT NULL REFERENCES course(id),
		is_elective BOOLEAN NOT NULL,
		rank       INT NOT NULL,
		PRIMARY KEY (student_id, course_id)
	)`,
	`CREATE TABLE IF NOT EXISTS room_preference (
		student_id UUID NOT NULL REFERENCES student(id),
		department TEXT NOT NULL,
		level      TEXT NOT NULL,
		PRIMARY KEY (student_id, department)
	)`,
	`CREATE TABLE IF NOT EXISTS section (
		id              UUID PRIMARY KEY,
		course_id       UUID NOT NULL REFERENCES course(id),
		period          TEXT NOT NULL,
		room_number     TEXT NOT NULL REFERENCES room(number),
		primary_teacher UUID REFERENCES teacher(id),
		co_teacher      UUID REFERENCES teacher(id),
		environment     TEXT NOT NULL,
		max_size        INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS enrollment (
		section_id UUID NOT NULL REFERENCES section(id),
		student_id UUID NOT NULL REFERENCES student(id),
		PRIMARY KEY (section_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS assignment (
		section_id UUID NOT NULL REFERENCES section(id),
		teacher_id UUID NOT NULL REFERENCES teacher(id),
		role       TEXT NOT NULL,
		PRIMARY KEY (section_id, teacher_id)
	)`,
}

// roomRow / courseRow / teacherRow / studentRow mirror the schema rows
// one-for-one, the same flat-struct-plus-db-tag shape the donor repo
// uses for every table.
type roomRow struct {
	Number string `db:"number"`
	Type   string `db:"type"`
}

type courseRow struct {
	ID                  string `db:"id"`
	Name                string `db:"name"`
	RequiredEndorsement string `db:"required_endorsement"`
	MinSize             int    `db:"min_size"`
	MaxSize             int    `db:"max_size"`
}

type teacherRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	MaxSections  int    `db:"max_sections"`
	FacultyIndex int    `db:"faculty_index"`
}

type certRow struct {
	TeacherID  string `db:"teacher_id"`
	Endorsement string `db:"endorsement"`
}

type studentRow struct {
	ID           string `db:"id"`
	Grade        string `db:"grade"`
	StudentIndex int    `db:"student_index"`
}

type roomPreferenceRow struct {
	StudentID  string `db:"student_id"`
	Department string `db:"department"`
	Level      string `db:"level"`
}

type coursePreferenceRow struct {
	StudentID  string `db:"student_id"`
	CourseID   string `db:"course_id"`
	IsElective bool   `db:"is_elective"`
}

// Catalog loads the course catalog and room list.
func (s *Store) Catalog(ctx context.Context) (domain.Catalog, []domain.Room, error) {
	catalog := domain.NewCatalog()

	var courseRows []courseRow
	if err := s.db.SelectContext(ctx, &courseRows, `SELECT id, name, required_endorsement, min_size, max_size FROM course ORDER BY name`); err != nil {
		return catalog, nil, errors.Wrap(err, "store: load courses")
	}
	for _, r := range courseRows {
		id, err := parseID(r.ID)
		if err != nil {
			return catalog, nil, errors.Wrap(err, "store: course id")
		}
		catalog.Add(domain.NewCourse(id, r.Name, domain.Endorsement(r.RequiredEndorsement), r.MinSize, r.MaxSize))
	}

	var roomRows []roomRow
	if err := s.db.SelectContext(ctx, &roomRows, `SELECT number, type FROM room ORDER BY number`); err != nil {
		return catalog, nil, errors.Wrap(err, "store: load rooms")
	}
	rooms := make([]domain.Room, 0, len(roomRows))
	for _, r := range roomRows {
		rooms = append(rooms, domain.NewRoom(r.Number, domain.RoomType(r.Type)))
	}

	return catalog, rooms, nil
}

// Faculty loads every teacher together with their certifications.
func (s *Store) Faculty(ctx context.Context) ([]domain.Teacher, error) {
	var teacherRows []teacherRow
	if err := s.db.SelectContext(ctx, &teacherRows, `SELECT id, name, max_sections, faculty_index FROM teacher ORDER BY faculty_index`); err != nil {
		return nil, errors.Wrap(err, "store: load teachers")
	}

	var certRows []certRow
	if err := s.db.SelectContext(ctx, &certRows, `SELECT teacher_id, endorsement FROM certs`); err != nil {
		return nil, errors.Wrap(err, "store: load certs")
	}
	certsByTeacher := make(map[string][]domain.Endorsement)
	for _, c := range certRows {
		certsByTeacher[c.TeacherID] = append(certsByTeacher[c.TeacherID], domain.Endorsement(c.Endorsement))
	}

	out := make([]domain.Teacher, 0, len(teacherRows))
	for _, r := range teacherRows {
		id, err := parseID(r.ID)
		if err != nil {
			return nil, errors.Wrap(err, "store: teacher id")
		}
		out = append(out, domain.NewTeacher(id, r.Name, r.MaxSections, certsByTeacher[r.ID], r.FacultyIndex))
	}
	return out, nil
}

// Roster loads the student body together with their course and
// department preferences.
func (s *Store) Roster(ctx context.Context) ([]domain.Student, error) {
	var studentRows []studentRow
	if err := s.db.SelectContext(ctx, &studentRows, `SELECT id, grade, student_index FROM student ORDER BY student_index`); err != nil {
		return nil, errors.Wrap(err, "store: load students")
	}

	var prefRows []coursePreferenceRow
	if err := s.db.SelectContext(ctx, &prefRows, `SELECT student_id, course_id, is_elective FROM course_preference ORDER BY rank`); err != nil {
		return nil, errors.Wrap(err, "store: load course preferences")
	}
	required := make(map[string][]domain.ID)
	electives := make(map[string][]domain.ID)
	for _, p := range prefRows {
		courseID, err := parseID(p.CourseID)
		if err != nil {
			return nil, errors.Wrap(err, "store: course preference id")
		}
		if p.IsElective {
			electives[p.StudentID] = append(electives[p.StudentID], courseID)
		} else {
			required[p.StudentID] = append(required[p.StudentID], courseID)
		}
	}

	var roomPrefRows []roomPreferenceRow
	if err := s.db.SelectContext(ctx, &roomPrefRows, `SELECT student_id, department, level FROM room_preference`); err != nil {
		return nil, errors.Wrap(err, "store: load room preferences")
	}
	inclusion := make(map[string]map[domain.Department]bool)
	separate := make(map[string]map[domain.Department]bool)
	for _, p := range roomPrefRows {
		switch p.Level {
		case "inclusion":
			if inclusion[p.StudentID] == nil {
				inclusion[p.StudentID] = map[domain.Department]bool{}
			}
			inclusion[p.StudentID][domain.Department(p.Department)] = true
		case "separate-class":
			if separate[p.StudentID] == nil {
				separate[p.StudentID] = map[domain.Department]bool{}
			}
			separate[p.StudentID][domain.Department(p.Department)] = true
		}
	}

	out := make([]domain.Student, 0, len(studentRows))
	for _, r := range studentRows {
		id, err := parseID(r.ID)
		if err != nil {
			return nil, errors.Wrap(err, "store: student id")
		}
		out = append(out, domain.NewStudent(id, r.Grade, required[r.ID], electives[r.ID], inclusion[r.ID], separate[r.ID], r.StudentIndex))
	}
	return out, nil
}

// SaveSchedule persists every section, enrollment, and teacher
// assignment from sched inside one transaction: either the whole
// schedule lands or none of it does.
func (s *Store) SaveSchedule(ctx context.Context, sched *scheduler.Schedule) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: begin save schedule")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := saveRooms(ctx, tx, sched.Rooms); err != nil {
		return err
	}
	for _, sec := range sched.AllSections() {
		if err := saveSection(ctx, tx, sec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "store: commit save schedule")
	}
	committed = true
	return nil
}

func saveRooms(ctx context.Context, tx *sqlx.Tx, rooms map[string]domain.Room) error {
	for _, r := range rooms {
		_, err := tx.ExecContext(ctx, `INSERT INTO room (number, type) VALUES ($1, $2) ON CONFLICT (number) DO UPDATE SET type = EXCLUDED.type`, r.Number, string(r.Type))
		if err != nil {
			return errors.Wrap(err, "store: save room")
		}
	}
	return nil
}

func saveSection(ctx context.Context, tx *sqlx.Tx, sec domain.Section) error {
	var coTeacher interface{}
	if !sec.CoTeacher.IsNil() {
		coTeacher = sec.CoTeacher.String()
	}
	var primary interface{}
	if !sec.PrimaryTeacher.IsNil() {
		primary = sec.PrimaryTeacher.String()
	}

	const upsert = `
		INSERT INTO section (id, course_id, period, room_number, primary_teacher, co_teacher, environment, max_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			period = EXCLUDED.period,
			room_number = EXCLUDED.room_number,
			primary_teacher = EXCLUDED.primary_teacher,
			co_teacher = EXCLUDED.co_teacher,
			environment = EXCLUDED.environment,
			max_size = EXCLUDED.max_size`
	_, err := tx.ExecContext(ctx, upsert,
		sec.ID.String(), sec.CourseID.String(), sec.Period.String(), sec.RoomNumber,
		primary, coTeacher, string(sec.Environment), sec.MaxSize)
	if err != nil {
		return errors.Wrap(err, "store: save section")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollment WHERE section_id = $1`, sec.ID.String()); err != nil {
		return errors.Wrap(err, "store: clear enrollment")
	}
	for _, studentID := range sec.Roster {
		_, err := tx.ExecContext(ctx, `INSERT INTO enrollment (section_id, student_id) VALUES ($1, $2)`, sec.ID.String(), studentID.String())
		if err != nil {
			return errors.Wrap(err, "store: save enrollment")
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignment WHERE section_id = $1`, sec.ID.String()); err != nil {
		return errors.Wrap(err, "store: clear assignment")
	}
	if !sec.PrimaryTeacher.IsNil() {
		_, err := tx.ExecContext(ctx, `INSERT INTO assignment (section_id, teacher_id, role) VALUES ($1, $2, 'primary')`, sec.ID.String(), sec.PrimaryTeacher.String())
		if err != nil {
			return errors.Wrap(err, "store: save primary assignment")
		}
	}
	if !sec.CoTeacher.IsNil() {
		_, err := tx.ExecContext(ctx, `INSERT INTO assignment (section_id, teacher_id, role) VALUES ($1, $2, 'co-teacher')`, sec.ID.String(), sec.CoTeacher.String())
		if err != nil {
			return errors.Wrap(err, "store: save co-teacher assignment")
		}
	}
	return nil
}

type sectionRow struct {
	ID             string         `db:"id"`
	CourseID       string         `db:"course_id"`
	Period         string         `db:"period"`
	RoomNumber     string         `db:"room_number"`
	PrimaryTeacher sql.NullString `db:"primary_teacher"`
	CoTeacher      sql.NullString `db:"co_teacher"`
	Environment    string         `db:"environment"`
	MaxSize        int            `db:"max_size"`
}

type enrollmentRow struct {
	SectionID string `db:"section_id"`
	StudentID string `db:"student_id"`
}

// LoadSchedule reconstructs the schedule saved by the last SaveSchedule
// call, so a long-running server can report metrics on the last
// completed run rather than an empty, freshly-seeded schedule. catalog
// and rooms are the values already loaded via Catalog, passed in rather
// than reloaded here since the caller almost always needs them anyway.
func (s *Store) LoadSchedule(ctx context.Context, catalog domain.Catalog, rooms []domain.Room) (*scheduler.Schedule, error) {
	roomIndex := make(map[string]domain.Room, len(rooms))
	for _, r := range rooms {
		roomIndex[r.Number] = r
	}

	var sectionRows []sectionRow
	if err := s.db.SelectContext(ctx, &sectionRows, `SELECT id, course_id, period, room_number, primary_teacher, co_teacher, environment, max_size FROM section ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "store: load sections")
	}

	var enrollRows []enrollmentRow
	if err := s.db.SelectContext(ctx, &enrollRows, `SELECT section_id, student_id FROM enrollment`); err != nil {
		return nil, errors.Wrap(err, "store: load enrollments")
	}
	rosterBySection := make(map[string][]string, len(sectionRows))
	for _, e := range enrollRows {
		rosterBySection[e.SectionID] = append(rosterBySection[e.SectionID], e.StudentID)
	}

	sections := make([]domain.Section, 0, len(sectionRows))
	for _, r := range sectionRows {
		id, err := parseID(r.ID)
		if err != nil {
			return nil, errors.Wrap(err, "store: section id")
		}
		courseID, err := parseID(r.CourseID)
		if err != nil {
			return nil, errors.Wrap(err, "store: section course id")
		}
		course, ok := catalog.Get(courseID)
		if !ok {
			return nil, errors.Errorf("store: section %s references unknown course %s", r.ID, r.CourseID)
		}
		room, ok := roomIndex[r.RoomNumber]
		if !ok {
			return nil, errors.Errorf("store: section %s references unknown room %s", r.ID, r.RoomNumber)
		}
		p, ok := PeriodByName(r.Period)
		if !ok {
			return nil, errors.Errorf("store: section %s has unrecognized period %q", r.ID, r.Period)
		}

		var primary domain.ID
		if r.PrimaryTeacher.Valid {
			primary, err = parseID(r.PrimaryTeacher.String)
			if err != nil {
				return nil, errors.Wrap(err, "store: section primary teacher id")
			}
		}

		sec := domain.NewSection(id, courseID, p, room, course, primary, domain.Environment(r.Environment))
		sec.MaxSize = r.MaxSize
		if r.CoTeacher.Valid {
			coTeacherID, err := parseID(r.CoTeacher.String)
			if err != nil {
				return nil, errors.Wrap(err, "store: section co-teacher id")
			}
			sec.CoTeacher = coTeacherID
		}
		for _, studentIDStr := range rosterBySection[r.ID] {
			studentID, err := parseID(studentIDStr)
			if err != nil {
				return nil, errors.Wrap(err, "store: enrollment student id")
			}
			sec = sec.WithStudent(studentID)
		}
		sections = append(sections, sec)
	}

	return scheduler.NewScheduleFromSections(catalog, rooms, sections), nil
}

func parseID(s string) (domain.ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return domain.Nil, errors.Wrapf(err, "parsing id %q", s)
	}
	return domain.ID(u), nil
}

// PeriodByName recovers a period.Period from its stored string form,
// used when reconstructing a Schedule from saved section rows.
func PeriodByName(name string) (period.Period, bool) {
	for _, p := range period.All {
		if p.String() == name {
			return p, true
		}
	}
	return period.Period(0), false
}
