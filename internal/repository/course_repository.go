package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/schedulease-api/internal/models"
)

// CourseRepository handles catalog course rows.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns catalog courses with their section counts, ordered by code.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	base := "FROM catalog_courses c LEFT JOIN catalog_sections s ON s.course_code = c.course_code WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("c.subject = $%d", len(args)+1))
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.Subject)))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.course_code) LIKE $%d OR LOWER(c.course_title) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT c.course_code, c.subject, c.course_number, c.course_title, COUNT(s.crn) AS section_count %s
GROUP BY c.course_code, c.subject, c.course_number, c.course_title
ORDER BY c.course_code ASC`, base)
	courses := make([]models.Course, 0)
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Upsert inserts or refreshes a course row.
func (r *CourseRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, course *models.Course) error {
	target := exec
	if target == nil {
		target = r.db
	}
	course.Code = models.NormalizeCourseID(course.Code)
	course.Subject = strings.ToUpper(strings.TrimSpace(course.Subject))

	const query = `INSERT INTO catalog_courses (course_code, subject, course_number, course_title, import_batch, imported_at)
VALUES (:course_code, :subject, :course_number, :course_title, :import_batch, :imported_at)
ON CONFLICT (course_code) DO UPDATE
SET subject = EXCLUDED.subject,
    course_number = EXCLUDED.course_number,
    course_title = EXCLUDED.course_title,
    import_batch = EXCLUDED.import_batch,
    imported_at = EXCLUDED.imported_at`
	row := struct {
		*models.Course
		ImportedAt time.Time `db:"imported_at"`
	}{Course: course, ImportedAt: time.Now().UTC()}
	if _, err := sqlx.NamedExecContext(ctx, target, query, row); err != nil {
		return fmt.Errorf("upsert course %s: %w", course.Code, err)
	}
	return nil
}
