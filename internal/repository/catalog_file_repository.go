package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/noah-isme/schedulease-api/internal/models"
)

// CatalogFileCourse is one course entry of a JSON catalog file.
type CatalogFileCourse struct {
	Subject  string               `json:"subject"`
	Code     string               `json:"code"`
	Title    string               `json:"title"`
	Sections []CatalogFileSection `json:"sections"`
}

// CatalogFileSection is a section entry of a JSON catalog file. Instructors may be
// a string or a list of names.
type CatalogFileSection struct {
	CRN          string          `json:"crn"`
	Section      string          `json:"section"`
	ScheduleType string          `json:"schedule_type"`
	Component    string          `json:"component"`
	Days         string          `json:"days"`
	StartTime    string          `json:"start_time"`
	EndTime      string          `json:"end_time"`
	Location     string          `json:"location"`
	Instructors  instructorNames `json:"instructors"`
	ParentCRN    string          `json:"parent_crn"`
}

type instructorNames string

func (n *instructorNames) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*n = instructorNames(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("instructors must be a string or list: %w", err)
	}
	*n = instructorNames(strings.Join(many, ", "))
	return nil
}

// FileCatalogRepository serves the catalog from a JSON document held in memory.
type FileCatalogRepository struct {
	courses  []models.Course
	sections map[string][]models.CatalogSection
}

// NewFileCatalogRepository loads a catalog file from disk.
func NewFileCatalogRepository(path string) (*FileCatalogRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog decodes a JSON array of courses.
func LoadCatalog(r io.Reader) (*FileCatalogRepository, error) {
	var entries []CatalogFileCourse
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}

	repo := &FileCatalogRepository{
		sections: make(map[string][]models.CatalogSection, len(entries)),
	}
	for _, entry := range entries {
		code := models.NormalizeCourseID(entry.Subject + entry.Code)
		if code == "" {
			continue
		}
		offset := len(repo.sections[code])
		rows := make([]models.CatalogSection, 0, len(entry.Sections))
		for i, raw := range entry.Sections {
			rows = append(rows, raw.toCatalogSection(code, entry.Title, offset+i))
		}
		if _, exists := repo.sections[code]; !exists {
			repo.courses = append(repo.courses, models.Course{
				Code:    code,
				Subject: strings.ToUpper(strings.TrimSpace(entry.Subject)),
				Number:  strings.TrimSpace(entry.Code),
				Title:   entry.Title,
			})
		}
		repo.sections[code] = append(repo.sections[code], rows...)
	}
	for i := range repo.courses {
		repo.courses[i].SectionCount = len(repo.sections[repo.courses[i].Code])
	}
	return repo, nil
}

func (s CatalogFileSection) toCatalogSection(courseCode, title string, position int) models.CatalogSection {
	row := models.CatalogSection{
		CRN:           strings.TrimSpace(s.CRN),
		CourseCode:    courseCode,
		CourseTitle:   title,
		SectionNumber: s.Section,
		ScheduleType:  s.ScheduleType,
		Component:     s.Component,
		Days:          s.Days,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Location:      s.Location,
		Instructors:   string(s.Instructors),
		Position:      position,
	}
	if parent := strings.TrimSpace(s.ParentCRN); parent != "" {
		row.ParentCRN = &parent
	}
	return row
}

// SectionsFor returns a copy of the course's sections in file order.
func (r *FileCatalogRepository) SectionsFor(ctx context.Context, courseID string) ([]models.CatalogSection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := r.sections[models.NormalizeCourseID(courseID)]
	out := make([]models.CatalogSection, len(rows))
	copy(out, rows)
	return out, nil
}

// List filters courses by subject and a case-insensitive code/title search.
func (r *FileCatalogRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subject := strings.ToUpper(strings.TrimSpace(filter.Subject))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Course, 0, len(r.courses))
	for _, course := range r.courses {
		if subject != "" && course.Subject != subject {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(course.Code), search) &&
			!strings.Contains(strings.ToLower(course.Title), search) {
			continue
		}
		out = append(out, course)
	}
	return out, nil
}

// SectionRows returns every section of a course ready to be stored.
func (r *FileCatalogRepository) SectionRows(code string) []models.CatalogSection {
	rows, _ := r.SectionsFor(context.Background(), code)
	return rows
}

// Courses returns all course summaries in file order.
func (r *FileCatalogRepository) Courses() []models.Course {
	out := make([]models.Course, len(r.courses))
	copy(out, r.courses)
	return out
}
