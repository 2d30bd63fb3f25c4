package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/schedulease-api/internal/dto"
	"github.com/noah-isme/schedulease-api/internal/models"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
)

const (
	catalogSectionsNamespace = "catalog:sections"
	catalogCoursesNamespace  = "catalog:courses"
)

// SectionCatalog resolves a course identifier to its raw catalog rows.
// An unknown course returns an empty slice and no error.
type SectionCatalog interface {
	SectionsFor(ctx context.Context, courseID string) ([]models.CatalogSection, error)
}

// CourseLister lists catalog courses.
type CourseLister interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

// CatalogService is a read-through cache over the catalog store.
type CatalogService struct {
	sections  SectionCatalog
	courses   CourseLister
	cache     *CacheService
	metrics   *MetricsService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService wires the catalog store with caching and metrics.
func NewCatalogService(sections SectionCatalog, courses CourseLister, cache *CacheService, metrics *MetricsService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		sections:  sections,
		courses:   courses,
		cache:     cache,
		metrics:   metrics,
		ttl:       ttl,
		validator: validate,
		logger:    logger,
	}
}

// SectionsFor returns the catalog rows of one course, consulting the cache first.
// Empty results are not cached so newly imported courses show up immediately.
func (s *CatalogService) SectionsFor(ctx context.Context, courseID string) ([]models.CatalogSection, error) {
	key := cacheKey(catalogSectionsNamespace, courseID)
	var cached []models.CatalogSection
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	rows, err := s.sections.SectionsFor(ctx, courseID)
	s.metrics.ObserveCatalogLookup("sections_for", time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		s.cache.Set(ctx, key, rows, s.ttl)
	}
	return rows, nil
}

// ListCourses returns catalog courses. The boolean reports a cache hit.
func (s *CatalogService) ListCourses(ctx context.Context, query dto.CourseListQuery) ([]models.Course, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course query")
	}
	if s.courses == nil {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "course listing is not configured")
	}
	filter := models.CourseFilter{
		Subject: strings.ToUpper(strings.TrimSpace(query.Subject)),
		Search:  strings.TrimSpace(query.Search),
	}
	key := cacheKey(catalogCoursesNamespace, filter.Subject, strings.ToLower(filter.Search))
	var cached []models.Course
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	courses, err := s.courses.List(ctx, filter)
	s.metrics.ObserveCatalogLookup("list_courses", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	s.cache.Set(ctx, key, courses, s.ttl)
	return courses, false, nil
}

// CourseSections returns the normalised sections of one course together with the
// rows that were dropped as malformed.
func (s *CatalogService) CourseSections(ctx context.Context, rawID string) (*dto.CourseSectionsResponse, error) {
	courseID := models.NormalizeCourseID(rawID)
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	rows, err := s.SectionsFor(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course sections")
	}
	if len(rows) == 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrCourseNotFound, fmt.Sprintf("course %s was not found in the catalog", courseID)),
			map[string]any{"failedCourses": []dto.FailedCourse{{Course: courseID, Error: "not found"}}},
		)
	}
	sections, skipped := normalizeRows(courseID, rows, s.logger)
	return &dto.CourseSectionsResponse{Course: courseID, Sections: sections, SkippedSections: skipped}, nil
}

// Invalidate drops cached catalog entries and the schedules derived from them.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, "catalog:*"); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, schedulesNamespace+":*")
}

// normalizeRows decodes catalog rows, dropping and logging malformed ones.
func normalizeRows(courseID string, rows []models.CatalogSection, logger *zap.Logger) ([]models.Section, []dto.SkippedSection) {
	sections := make([]models.Section, 0, len(rows))
	var skipped []dto.SkippedSection
	for _, row := range rows {
		section, err := models.NormalizeSection(row)
		if err != nil {
			logger.Warn("skipping malformed section",
				zap.String("course", courseID),
				zap.String("crn", row.CRN),
				zap.Error(err),
			)
			skipped = append(skipped, dto.SkippedSection{CourseID: courseID, CRN: row.CRN, Reason: err.Error()})
			continue
		}
		if section.CourseID == "" {
			section.CourseID = courseID
		}
		sections = append(sections, section)
	}
	return sections, skipped
}
