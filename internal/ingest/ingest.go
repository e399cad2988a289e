// Package ingest implements the catalog/roster import collaborator
// (C9): parsing a newline-delimited or CSV record stream into the
// domain types the placement engine consumes. It is grounded on the
// teacher repository's line-dispatch reader (its Parse/fetchFile), kept
// to a single pass and never touching schedule state directly.
package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edboard/masterschedule/internal/domain"
)

// internNamespace anchors the deterministic ids minted for every
// ingested name: the same normalized identifier always interns to the
// same domain.ID, in this run or any other, which keeps fixture files
// stable across test runs without needing a lookup table on disk.
var internNamespace = uuid.MustParse("a9292a13-6dfa-4c13-8b7e-2a9c6e2d9b77")

var identifierJunk = regexp.MustCompile(`[^a-zA-Z0-9\s-]+`)
var dashRun = regexp.MustCompile(`-+`)

// NormalizeIdentifier lower-cases s, strips non-alphanumeric/dash
// characters and collapses whitespace to single dashes, per spec.md §6.
func NormalizeIdentifier(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = identifierJunk.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// InternID deterministically maps a normalized identifier to a
// domain.ID. Calling it twice with the same name always yields the
// same id.
func InternID(normalized string) domain.ID {
	return domain.ID(uuid.NewSHA1(internNamespace, []byte(normalized)))
}

// Result is everything a run needs out of ingest: a catalog, a faculty
// list, a student body, and a room list.
type Result struct {
	Catalog  domain.Catalog
	Teachers []domain.Teacher
	Students []domain.Student
	Rooms    []domain.Room
}

// FetchLines reads whitespace-delimited records from r, or CSV records
// if isCSV is true, matching the teacher's fetchFile dual-format
// behavior for local files vs spreadsheet exports.
func FetchLines(r io.Reader, isCSV bool) ([][]string, error) {
	var lines [][]string
	if isCSV {
		reader := csv.NewReader(bufio.NewReader(r))
		for {
			record, err := reader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				return nil, errors.Wrap(err, "fetch: reading csv record")
			}
			lines = append(lines, record)
		}
		return lines, nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.Fields(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "fetch: scanning line records")
	}
	return lines, nil
}

// Parse walks tagged records ("room:", "course:", "teacher:",
// "student:") the way the teacher's Parse dispatches on fields[0], and
// returns the fully interned domain values. filename is used only for
// error messages.
func Parse(filename string, lines [][]string) (Result, error) {
	var res Result
	res.Catalog = domain.NewCatalog()

	teacherIndex := 0
	studentIndex := 0

	for lineNo, raw := range lines {
		fields := stripComments(raw)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "room:":
			err = parseRoom(&res, fields)
		case "course:":
			err = parseCourse(&res, fields)
		case "teacher:":
			err = parseTeacher(&res, fields, teacherIndex)
			if err == nil {
				teacherIndex++
			}
		case "student:":
			err = parseStudent(&res, fields, studentIndex)
			if err == nil {
				studentIndex++
			}
		default:
			err = errors.Errorf("unknown record tag %q", fields[0])
		}
		if err != nil {
			return Result{}, errors.Wrapf(err, "%q line %d", filename, lineNo+1)
		}
	}

	if _, ok := res.Catalog.Get(InternID(domain.LunchCourseName)); !ok {
		res.Catalog.Add(domain.NewLunchCourse(InternID(domain.LunchCourseName)))
	}
	if _, ok := res.Catalog.Get(InternID(domain.SpedSeminarCourseName)); !ok {
		res.Catalog.Add(domain.NewSpedSeminarCourse(InternID(domain.SpedSeminarCourseName)))
	}

	return res, nil
}

func stripComments(fields []string) []string {
	var out []string
	for _, elt := range fields {
		if i := strings.Index(elt, "//"); i >= 0 {
			elt = elt[:i]
			if s := strings.TrimSpace(elt); s != "" {
				out = append(out, s)
			}
			break
		}
		if s := strings.TrimSpace(elt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// room: <number> <type>
func parseRoom(res *Result, fields []string) error {
	if len(fields) != 3 {
		return errors.New(`expected "room: number type"`)
	}
	res.Rooms = append(res.Rooms, domain.NewRoom(NormalizeIdentifier(fields[1]), domain.RoomType(fields[2])))
	return nil
}

// course: <id> <name> <endorsement> [minSize] [maxSize]
func parseCourse(res *Result, fields []string) error {
	if len(fields) < 4 {
		return errors.New(`expected "course: id name endorsement [min] [max]"`)
	}
	id := InternID(NormalizeIdentifier(fields[1]))
	min, max := 0, 0
	var err error
	if len(fields) >= 5 {
		if min, err = strconv.Atoi(fields[4]); err != nil {
			return errors.Wrap(err, "parsing min size")
		}
	}
	if len(fields) >= 6 {
		if max, err = strconv.Atoi(fields[5]); err != nil {
			return errors.Wrap(err, "parsing max size")
		}
	}
	res.Catalog.Add(domain.NewCourse(id, fields[2], domain.Endorsement(fields[3]), min, max))
	return nil
}

// teacher: <id> <name> <maxSections> <cert> <cert> ...
func parseTeacher(res *Result, fields []string, index int) error {
	if len(fields) < 4 {
		return errors.New(`expected "teacher: id name maxSections cert cert ..."`)
	}
	id := InternID(NormalizeIdentifier(fields[1]))
	maxSections, err := strconv.Atoi(fields[3])
	if err != nil {
		return errors.Wrap(err, "parsing max sections")
	}
	var certs []domain.Endorsement
	for _, c := range fields[4:] {
		certs = append(certs, domain.Endorsement(c))
	}
	res.Teachers = append(res.Teachers, domain.NewTeacher(id, fields[2], maxSections, certs, index))
	return nil
}

// student: <id> <grade> <required,comma,list> <elective,comma,list> <inclusion,dept,list> <separate,dept,list>
func parseStudent(res *Result, fields []string, index int) error {
	if len(fields) < 3 {
		return errors.New(`expected "student: id grade required [electives] [inclusion] [separate]"`)
	}
	id := InternID(NormalizeIdentifier(fields[1]))
	grade := fields[2]

	required := splitCourseIDs(listField(fields, 3))
	electives := splitCourseIDs(listField(fields, 4))
	inclusion := splitDeptSet(listField(fields, 5))
	separate := splitDeptSet(listField(fields, 6))

	res.Students = append(res.Students, domain.NewStudent(id, grade, required, electives, inclusion, separate, index))
	return nil
}

func listField(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}

func splitCourseIDs(field string) []domain.ID {
	if field == "" || field == "-" {
		return nil
	}
	var out []domain.ID
	for _, tok := range strings.Split(field, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, InternID(NormalizeIdentifier(tok)))
	}
	return out
}

func splitDeptSet(field string) map[domain.Department]bool {
	if field == "" || field == "-" {
		return nil
	}
	out := make(map[domain.Department]bool)
	for _, tok := range strings.Split(field, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out[domain.Department(tok)] = true
	}
	return out
}
