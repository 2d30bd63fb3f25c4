package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/schedulease-api/internal/models"
)

// CatalogSchema creates the catalog tables when they do not exist yet.
const CatalogSchema = `
CREATE TABLE IF NOT EXISTS catalog_courses (
    course_code   TEXT PRIMARY KEY,
    subject       TEXT NOT NULL,
    course_number TEXT NOT NULL,
    course_title  TEXT NOT NULL DEFAULT '',
    import_batch  TEXT NOT NULL DEFAULT '',
    imported_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS catalog_sections (
    crn            TEXT PRIMARY KEY,
    course_code    TEXT NOT NULL REFERENCES catalog_courses (course_code) ON DELETE CASCADE,
    position       INTEGER NOT NULL DEFAULT 0,
    section_number TEXT NOT NULL DEFAULT '',
    schedule_type  TEXT NOT NULL DEFAULT '',
    component      TEXT NOT NULL DEFAULT '',
    days           TEXT NOT NULL DEFAULT 'TBA',
    start_time     TEXT NOT NULL DEFAULT 'TBA',
    end_time       TEXT NOT NULL DEFAULT 'TBA',
    location       TEXT NOT NULL DEFAULT '',
    instructors    TEXT NOT NULL DEFAULT '',
    parent_crn     TEXT NULL
);
CREATE INDEX IF NOT EXISTS idx_catalog_sections_course ON catalog_sections (course_code, position);`

// SectionRepository reads and writes catalog sections in Postgres.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository builds repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// SectionsFor returns a course's sections in catalog order. An unknown course yields an empty slice.
func (r *SectionRepository) SectionsFor(ctx context.Context, courseID string) ([]models.CatalogSection, error) {
	const query = `SELECT s.crn, s.course_code, c.course_title, s.section_number, s.schedule_type, s.component,
       s.days, s.start_time, s.end_time, s.location, s.instructors, s.parent_crn, s.position
FROM catalog_sections s
JOIN catalog_courses c ON c.course_code = s.course_code
WHERE s.course_code = $1
ORDER BY s.position ASC, s.crn ASC`
	sections := make([]models.CatalogSection, 0)
	if err := r.db.SelectContext(ctx, &sections, query, courseID); err != nil {
		return nil, fmt.Errorf("list sections for %s: %w", courseID, err)
	}
	return sections, nil
}

// ReplaceForCourse removes a course's sections and inserts the given ones in order.
func (r *SectionRepository) ReplaceForCourse(ctx context.Context, exec sqlx.ExtContext, courseID string, sections []models.CatalogSection) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM catalog_sections WHERE course_code = $1`, courseID); err != nil {
		return fmt.Errorf("clear sections for %s: %w", courseID, err)
	}
	return r.UpsertBatch(ctx, target, sections)
}

// UpsertBatch inserts or updates sections keyed by CRN.
func (r *SectionRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, sections []models.CatalogSection) error {
	if len(sections) == 0 {
		return nil
	}
	target := r.exec(exec)

	const query = `
INSERT INTO catalog_sections (crn, course_code, position, section_number, schedule_type, component, days, start_time, end_time, location, instructors, parent_crn)
VALUES (:crn, :course_code, :position, :section_number, :schedule_type, :component, :days, :start_time, :end_time, :location, :instructors, :parent_crn)
ON CONFLICT (crn) DO UPDATE
SET course_code = EXCLUDED.course_code,
    position = EXCLUDED.position,
    section_number = EXCLUDED.section_number,
    schedule_type = EXCLUDED.schedule_type,
    component = EXCLUDED.component,
    days = EXCLUDED.days,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    location = EXCLUDED.location,
    instructors = EXCLUDED.instructors,
    parent_crn = EXCLUDED.parent_crn`

	for i := range sections {
		section := &sections[i]
		section.CourseCode = models.NormalizeCourseID(section.CourseCode)
		if _, err := sqlx.NamedExecContext(ctx, target, query, section); err != nil {
			return fmt.Errorf("upsert section %s: %w", section.CRN, err)
		}
	}
	return nil
}
