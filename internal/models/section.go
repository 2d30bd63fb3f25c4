package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ComponentKind is the role a section plays within its course.
type ComponentKind string

const (
	ComponentLecture    ComponentKind = "lecture"
	ComponentLab        ComponentKind = "lab"
	ComponentDiscussion ComponentKind = "discussion"
)

// ComponentKinds lists kinds in bundle order.
var ComponentKinds = []ComponentKind{ComponentLecture, ComponentLab, ComponentDiscussion}

// Abbrev returns the short label used in block titles.
func (k ComponentKind) Abbrev() string {
	switch k {
	case ComponentLab:
		return "LAB"
	case ComponentDiscussion:
		return "DIS"
	default:
		return "LEC"
	}
}

// ParseComponentKind maps explicit component labels. Unknown labels return false.
func ParseComponentKind(raw string) (ComponentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lecture", "lec":
		return ComponentLecture, true
	case "lab", "laboratory":
		return ComponentLab, true
	case "discussion", "dis", "disc":
		return ComponentDiscussion, true
	}
	return "", false
}

// CategorizeComponent derives the component from the registrar schedule type and,
// failing that, from the section number ranges used by the registrar.
func CategorizeComponent(sectionNumber, scheduleType string) ComponentKind {
	desc := strings.ToLower(scheduleType)
	switch {
	case strings.Contains(desc, "lab"):
		return ComponentLab
	case strings.Contains(desc, "lecture"):
		return ComponentLecture
	case strings.Contains(desc, "discussion"), strings.Contains(desc, "disc"):
		return ComponentDiscussion
	}

	number, err := strconv.Atoi(strings.TrimSpace(sectionNumber))
	if err != nil || number <= 0 {
		return ComponentLecture
	}
	switch {
	case number <= 15:
		return ComponentLecture
	case number <= 19:
		return ComponentDiscussion
	case number <= 24:
		return ComponentLab
	default:
		return ComponentDiscussion
	}
}

// CatalogSection is a section row as stored by the catalog, with raw day/time text.
type CatalogSection struct {
	CRN           string  `db:"crn" json:"crn"`
	CourseCode    string  `db:"course_code" json:"course_code"`
	CourseTitle   string  `db:"course_title" json:"course_title"`
	SectionNumber string  `db:"section_number" json:"section"`
	ScheduleType  string  `db:"schedule_type" json:"schedule_type"`
	Component     string  `db:"component" json:"component"`
	Days          string  `db:"days" json:"days"`
	StartTime     string  `db:"start_time" json:"start_time"`
	EndTime       string  `db:"end_time" json:"end_time"`
	Location      string  `db:"location" json:"location"`
	Instructors   string  `db:"instructors" json:"instructors"`
	ParentCRN     *string `db:"parent_crn" json:"parent_crn,omitempty"`
	Position      int     `db:"position" json:"-"`
}

// Section is a normalised, schedulable course offering.
type Section struct {
	Ref           string        `json:"crn"`
	CourseID      string        `json:"courseId"`
	Title         string        `json:"title,omitempty"`
	SectionNumber string        `json:"section,omitempty"`
	Kind          ComponentKind `json:"kind"`
	Days          WeekdaySet    `json:"days"`
	Start         ClockTime     `json:"start"`
	End           ClockTime     `json:"end"`
	Location      string        `json:"location,omitempty"`
	Instructor    string        `json:"instructor,omitempty"`
	ParentRef     string        `json:"parentCrn,omitempty"`
}

// Timed reports whether the section has both days and real start/end times.
func (s Section) Timed() bool {
	return !s.Days.Empty() && s.Start.Scheduled() && s.End.Scheduled()
}

// ErrMalformedSection flags catalog rows whose day/time fields cannot be trusted.
var ErrMalformedSection = errors.New("malformed section data")

// NormalizeSection decodes a catalog row into a Section. Rows with unparsable or
// inconsistent day/time data return ErrMalformedSection and are not repaired.
func NormalizeSection(row CatalogSection) (Section, error) {
	ref := strings.TrimSpace(row.CRN)
	if ref == "" {
		return Section{}, fmt.Errorf("%w: missing section reference", ErrMalformedSection)
	}

	section := Section{
		Ref:           ref,
		CourseID:      NormalizeCourseID(row.CourseCode),
		Title:         strings.TrimSpace(row.CourseTitle),
		SectionNumber: strings.TrimSpace(row.SectionNumber),
		Days:          DecodeDayPattern(row.Days),
		Start:         Unscheduled,
		End:           Unscheduled,
		Location:      strings.TrimSpace(row.Location),
		Instructor:    strings.TrimSpace(row.Instructors),
	}
	if kind, ok := ParseComponentKind(row.Component); ok {
		section.Kind = kind
	} else {
		section.Kind = CategorizeComponent(row.SectionNumber, row.ScheduleType)
	}
	if row.ParentCRN != nil {
		section.ParentRef = strings.TrimSpace(*row.ParentCRN)
	}

	startTBA := isTBA(row.StartTime)
	endTBA := isTBA(row.EndTime)
	if startTBA && endTBA {
		return section, nil
	}
	if startTBA != endTBA {
		return Section{}, fmt.Errorf("%w: section %s has a partial time range", ErrMalformedSection, ref)
	}
	if section.Days.Empty() {
		return Section{}, fmt.Errorf("%w: section %s has times but no days", ErrMalformedSection, ref)
	}

	start, err := ParseClockTime(row.StartTime)
	if err != nil {
		return Section{}, fmt.Errorf("%w: section %s start: %v", ErrMalformedSection, ref, err)
	}
	end, err := ParseClockTime(row.EndTime)
	if err != nil {
		return Section{}, fmt.Errorf("%w: section %s end: %v", ErrMalformedSection, ref, err)
	}
	if start >= end {
		return Section{}, fmt.Errorf("%w: section %s starts at or after it ends", ErrMalformedSection, ref)
	}
	section.Start = start
	section.End = end
	return section, nil
}

func isTBA(raw string) bool {
	value := strings.TrimSpace(raw)
	return value == "" || strings.EqualFold(value, "TBA")
}

// NormalizeCourseID strips whitespace and upper-cases a course identifier ("cs 100" -> "CS100").
func NormalizeCourseID(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// Course is a catalog course summary.
type Course struct {
	Code         string `db:"course_code" json:"code"`
	Subject      string `db:"subject" json:"subject"`
	Number       string `db:"course_number" json:"number"`
	Title        string `db:"course_title" json:"title"`
	SectionCount int    `db:"section_count" json:"sectionCount"`
	ImportBatch  string `db:"import_batch" json:"-"`
}

// CourseFilter narrows catalog course listings.
type CourseFilter struct {
	Subject string
	Search  string
}
