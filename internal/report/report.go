// Package report implements the report renderer collaborator (C11):
// a plain-text summary, a tabular PDF export, and the Prometheus
// counters a long-running server exposes over the run. Grounded on the
// teacher's writeRoomByTime table layout and noah-isme-sma-adp-api's
// PDFExporter/MetricsService.
package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edboard/masterschedule/internal/domain"
	"github.com/edboard/masterschedule/internal/period"
	"github.com/edboard/masterschedule/internal/scheduler"
)

// WriteText renders the plain-text summary described in spec.md §6: the
// faculty roster with certifications (a), a room-by-period grid of
// every section naming its course, teachers, and capacity (b), the
// per-student section list (c), per-student missing-requirement counts
// bucketed by severity (d, f), and the raw lunch anomaly list (e).
func WriteText(w io.Writer, sched *scheduler.Schedule, faculty []domain.Teacher, students []domain.Student) error {
	missing := scheduler.MissingRequirements(sched, students)
	buckets := scheduler.MissingBuckets(missing)
	anomalies := scheduler.Anomalies(sched, students)

	bw := bytes.Buffer{}
	fmt.Fprintf(&bw, "MASTER SCHEDULE REPORT\n")
	fmt.Fprintf(&bw, "=======================\n\n")

	fmt.Fprintf(&bw, "Faculty roster:\n")
	writeFacultyRoster(&bw, faculty)
	fmt.Fprintf(&bw, "\n")

	fmt.Fprintf(&bw, "Missing requirements by severity:\n")
	for _, key := range []string{"0", "1", "2", "3", ">3"} {
		fmt.Fprintf(&bw, "  %3s missing: %d students\n", key, buckets[key])
	}
	fmt.Fprintf(&bw, "\n")

	if len(anomalies) > 0 {
		fmt.Fprintf(&bw, "Lunch anomalies (students without exactly one lunch):\n")
		ids := make([]domain.ID, 0, len(anomalies))
		for id := range anomalies {
			ids = append(ids, id)
		}
		for _, id := range scheduler.SortedIDs(ids) {
			fmt.Fprintf(&bw, "  %s: %d lunch sections\n", id, anomalies[id])
		}
		fmt.Fprintf(&bw, "\n")
	}

	fmt.Fprintf(&bw, "Sections by room and period:\n")
	writeRoomByPeriod(&bw, sched, faculty)
	fmt.Fprintf(&bw, "\n")

	fmt.Fprintf(&bw, "Per-student schedules:\n")
	writeStudentSchedules(&bw, sched, students)

	_, err := w.Write(bw.Bytes())
	return err
}

// writeFacultyRoster lists every teacher in hiring order alongside the
// certifications that drive their gen-ed and SPED eligibility checks.
func writeFacultyRoster(w io.Writer, faculty []domain.Teacher) {
	roster := make([]domain.Teacher, len(faculty))
	copy(roster, faculty)
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].Index < roster[j].Index })

	for _, t := range roster {
		certs := make([]string, 0, len(t.Certs))
		for _, c := range t.Certs {
			certs = append(certs, string(c))
		}
		fmt.Fprintf(w, "  %-24s max %d, certs: %s\n", t.Name, t.MaxSections, strings.Join(certs, ", "))
	}
}

// writeStudentSchedules lists, for each student in roster order, the
// sections they ended up enrolled in: period, course, and environment.
func writeStudentSchedules(w io.Writer, sched *scheduler.Schedule, students []domain.Student) {
	for _, student := range students {
		fmt.Fprintf(w, "  %s (grade %s):\n", student.ID, student.Grade)
		sections := scheduler.StudentSections(sched, student.ID)
		if len(sections) == 0 {
			fmt.Fprintf(w, "    (no sections)\n")
			continue
		}
		for _, sec := range sections {
			courseName := sec.CourseID.String()
			if course, ok := sched.Catalog.Get(sec.CourseID); ok {
				courseName = course.Name
			}
			fmt.Fprintf(w, "    %-4s %-16s %s\n", sec.Period.String(), courseName, sec.Environment)
		}
	}
}

// teacherNames builds a lookup from teacher id to display name, used
// when a grid cell or roster line needs a teacher's name rather than
// their raw id.
func teacherNames(faculty []domain.Teacher) map[domain.ID]string {
	out := make(map[domain.ID]string, len(faculty))
	for _, t := range faculty {
		out[t.ID] = t.Name
	}
	return out
}

// sectionCell renders the label shown in a room/period grid cell: the
// course name, its primary/co-teacher, and current roster size over cap.
func sectionCell(sched *scheduler.Schedule, names map[domain.ID]string, sec domain.Section) string {
	courseName := sec.CourseID.String()
	if course, ok := sched.Catalog.Get(sec.CourseID); ok {
		courseName = course.Name
	}
	teacher := names[sec.PrimaryTeacher]
	if teacher == "" {
		teacher = "unassigned"
	}
	if sec.HasCoTeacher() {
		teacher = teacher + "/" + names[sec.CoTeacher]
	}
	return fmt.Sprintf("%s - %s (%d/%d)", courseName, teacher, len(sec.Roster), sec.MaxSize)
}

// writeRoomByPeriod lays out one row per period and one column per
// room, the same grid the teacher's writeRoomByTime builds for its HTML
// output, rendered here as a fixed-width text table.
func writeRoomByPeriod(w io.Writer, sched *scheduler.Schedule, faculty []domain.Teacher) {
	names := teacherNames(faculty)

	roomSeen := map[string]bool{}
	var rooms []string
	byRoomPeriod := map[string]domain.Section{}
	for _, sec := range sched.AllSections() {
		if !roomSeen[sec.RoomNumber] {
			roomSeen[sec.RoomNumber] = true
			rooms = append(rooms, sec.RoomNumber)
		}
		byRoomPeriod[sec.RoomNumber+":"+sec.Period.String()] = sec
	}
	sort.Strings(rooms)

	const colWidth = 36

	fmt.Fprintf(w, "%-6s", "")
	for _, room := range rooms {
		fmt.Fprintf(w, "| %-*s", colWidth, room)
	}
	fmt.Fprintf(w, "\n")

	for _, p := range period.All {
		fmt.Fprintf(w, "%-6s", p.String())
		for _, room := range rooms {
			sec, ok := byRoomPeriod[room+":"+p.String()]
			if !ok {
				fmt.Fprintf(w, "| %-*s", colWidth, "")
				continue
			}
			fmt.Fprintf(w, "| %-*s", colWidth, sectionCell(sched, names, sec))
		}
		fmt.Fprintf(w, "\n")
	}
}

// WritePDF renders the same room-by-period grid as a one-page-per-chunk
// tabular PDF, in the PDFExporter style: a title, a bold header row,
// then one row per period.
func WritePDF(w io.Writer, sched *scheduler.Schedule, faculty []domain.Teacher, title string) error {
	names := teacherNames(faculty)

	roomSeen := map[string]bool{}
	var rooms []string
	byRoomPeriod := map[string]domain.Section{}
	for _, sec := range sched.AllSections() {
		if !roomSeen[sec.RoomNumber] {
			roomSeen[sec.RoomNumber] = true
			rooms = append(rooms, sec.RoomNumber)
		}
		byRoomPeriod[sec.RoomNumber+":"+sec.Period.String()] = sec
	}
	sort.Strings(rooms)
	if len(rooms) == 0 {
		return fmt.Errorf("report: schedule has no sections to render")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	headers := append([]string{"Period"}, rooms...)
	colWidth := 270.0 / float64(len(headers))

	pdf.SetFont("Arial", "B", 9)
	for _, h := range headers {
		pdf.CellFormat(colWidth, 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, p := range period.All {
		pdf.CellFormat(colWidth, 7, p.String(), "1", 0, "", false, 0, "")
		for _, room := range rooms {
			cell := ""
			if sec, ok := byRoomPeriod[room+":"+p.String()]; ok {
				cell = sectionCell(sched, names, sec)
				if len(cell) > 28 {
					cell = cell[:28]
				}
			}
			pdf.CellFormat(colWidth, 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return fmt.Errorf("report: render pdf: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Counters holds the run-level Prometheus gauges a serving process
// exposes, mirroring MetricsService's "build once, register once, read
// many times" shape.
type Counters struct {
	registry       *prometheus.Registry
	UnmetDemands   prometheus.Gauge
	LunchAnomalies prometheus.Gauge
	SectionsTotal  prometheus.Gauge
}

// NewCounters builds and registers the three gauges a placement run
// updates: total unmet demands, total lunch anomalies, and total
// sections created.
func NewCounters() *Counters {
	registry := prometheus.NewRegistry()

	unmet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "masterschedule_unmet_demands_total",
		Help: "Number of student course requirements left unsatisfied after the last run",
	})
	anomalies := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "masterschedule_lunch_anomalies_total",
		Help: "Number of students without exactly one lunch section after the last run",
	})
	sections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "masterschedule_sections_total",
		Help: "Total number of sections in the last completed schedule",
	})

	registry.MustRegister(unmet, anomalies, sections)

	return &Counters{
		registry:       registry,
		UnmetDemands:   unmet,
		LunchAnomalies: anomalies,
		SectionsTotal:  sections,
	}
}

// Registry exposes the underlying Prometheus registry so a server can
// hand it to promhttp.HandlerFor.
func (c *Counters) Registry() *prometheus.Registry {
	return c.registry
}

// Observe updates every gauge from the outcome of a completed run.
func (c *Counters) Observe(sched *scheduler.Schedule, students []domain.Student) {
	missing := scheduler.MissingRequirements(sched, students)
	total := 0
	for _, m := range missing {
		total += len(m)
	}
	c.UnmetDemands.Set(float64(total))
	c.LunchAnomalies.Set(float64(len(scheduler.Anomalies(sched, students))))
	c.SectionsTotal.Set(float64(len(sched.AllSections())))
}
