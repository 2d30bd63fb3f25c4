package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/schedulease-api/internal/dto"
	"github.com/noah-isme/schedulease-api/internal/models"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
)

const schedulesNamespace = "schedules"

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	MaxResults        int
	LookupConcurrency int
	ResultCacheTTL    time.Duration
}

// ScheduleGeneratorService enumerates conflict-free section combinations for a set of courses.
type ScheduleGeneratorService struct {
	catalog   SectionCatalog
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	catalog SectionCatalog,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 4
	}
	return &ScheduleGeneratorService{
		catalog:   catalog,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate resolves the requested courses, applies the preferences and returns up to
// the configured number of conflict-free schedules. The boolean reports a cache hit.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, bool, error) {
	started := time.Now()
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	courseIDs := uniqueCourseIDs(req.Courses)
	if len(courseIDs) == 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "courses must contain at least one course identifier")
	}
	prefs, err := parsePreferences(req.Preferences)
	if err != nil {
		return nil, false, err
	}
	limit := s.cfg.MaxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	key := generationCacheKey(courseIDs, prefs, limit)
	var cached dto.GenerateScheduleResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	rowsByCourse, err := s.lookupAll(ctx, courseIDs)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog sections")
	}
	if failed := missingCourses(courseIDs, rowsByCourse); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, f := range failed {
			names = append(names, f.Course)
		}
		return nil, false, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrCourseNotFound, "courses not found in the catalog: "+strings.Join(names, ", ")),
			map[string]any{"failedCourses": failed},
		)
	}

	resp := &dto.GenerateScheduleResponse{
		Status:      dto.StatusOK,
		Courses:     courseIDs,
		Preferences: prefs,
		Schedules:   []models.ScheduleResult{},
		Limit:       limit,
	}

	candidates := make([]courseCandidates, 0, len(courseIDs))
	for i, courseID := range courseIDs {
		sections, skipped := normalizeRows(courseID, rowsByCourse[i], s.logger)
		resp.SkippedSections = append(resp.SkippedSections, skipped...)
		bundles := filterBundles(buildCourseBundles(sections), prefs)
		if len(bundles) == 0 {
			resp.EmptyCourses = append(resp.EmptyCourses, courseID)
		}
		candidates = append(candidates, courseCandidates{CourseID: courseID, Bundles: bundles})
	}

	outcome := searchCombinations(candidates, limit)
	for _, combination := range outcome.Combinations {
		resp.Schedules = append(resp.Schedules, buildScheduleResult(combination))
	}
	resp.Count = len(resp.Schedules)
	resp.TotalCombinations = outcome.TotalCombinations
	resp.Capped = outcome.Capped

	if resp.Count == 0 {
		resp.Status = dto.StatusNoFeasibleSchedule
		resp.Reason = dto.ReasonAllConflicting
		if len(resp.EmptyCourses) > 0 {
			resp.Reason = dto.ReasonEmptyCandidates
		}
	}

	s.metrics.ObserveGeneration(resp.Status, resp.Count, len(resp.SkippedSections), time.Since(started))
	s.logger.Debug("schedules generated",
		zap.Strings("courses", courseIDs),
		zap.String("status", resp.Status),
		zap.Int("count", resp.Count),
		zap.Int64("total_combinations", resp.TotalCombinations),
		zap.Bool("capped", resp.Capped),
		zap.Int("skipped_sections", len(resp.SkippedSections)),
		zap.Duration("elapsed", time.Since(started)),
	)

	s.cache.Set(ctx, key, resp, s.cfg.ResultCacheTTL)
	return resp, false, nil
}

// lookupAll issues one catalog lookup per course concurrently. Results keep request order.
func (s *ScheduleGeneratorService) lookupAll(ctx context.Context, courseIDs []string) ([][]models.CatalogSection, error) {
	results := make([][]models.CatalogSection, len(courseIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LookupConcurrency)
	for i, courseID := range courseIDs {
		i, courseID := i, courseID
		g.Go(func() error {
			rows, err := s.catalog.SectionsFor(gctx, courseID)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", courseID, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func uniqueCourseIDs(selections []dto.CourseSelection) []string {
	seen := make(map[string]struct{}, len(selections))
	ids := make([]string, 0, len(selections))
	for _, selection := range selections {
		id := models.NormalizeCourseID(selection.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func missingCourses(courseIDs []string, rows [][]models.CatalogSection) []dto.FailedCourse {
	var failed []dto.FailedCourse
	for i, courseID := range courseIDs {
		if len(rows[i]) == 0 {
			failed = append(failed, dto.FailedCourse{Course: courseID, Error: "not found"})
		}
	}
	return failed
}

// parsePreferences merges the canonical fields with the legacy form aliases.
func parsePreferences(req dto.PreferencesRequest) (models.PreferenceConfig, error) {
	prefs := models.DefaultPreferences()
	for _, raw := range req.ExcludeDays {
		day, err := models.ParseWeekday(raw)
		if err != nil {
			return prefs, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("excludeDays: unknown weekday %q", raw))
		}
		prefs.ExcludeDays = prefs.ExcludeDays.Add(day)
	}
	if req.NoFriday {
		prefs.ExcludeDays = prefs.ExcludeDays.Add(models.Friday)
	}

	start, err := preferenceClock("startNotBefore", req.StartNotBefore, req.StartAfter, prefs.StartNotBefore)
	if err != nil {
		return prefs, err
	}
	end, err := preferenceClock("endNotAfter", req.EndNotAfter, req.EndBefore, prefs.EndNotAfter)
	if err != nil {
		return prefs, err
	}
	if start > end {
		return prefs, appErrors.Clone(appErrors.ErrValidation, "startNotBefore must not be later than endNotAfter")
	}
	prefs.StartNotBefore = start
	prefs.EndNotAfter = end
	return prefs, nil
}

func preferenceClock(field, canonical, legacy string, fallback models.ClockTime) (models.ClockTime, error) {
	raw := strings.TrimSpace(canonical)
	if raw == "" {
		raw = strings.TrimSpace(legacy)
	}
	if raw == "" {
		return fallback, nil
	}
	t, err := models.ParseAnyClock(raw)
	if err != nil {
		return fallback, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: expected h:mm AM|PM or HH:MM, got %q", field, raw))
	}
	return t, nil
}

func generationCacheKey(courseIDs []string, prefs models.PreferenceConfig, limit int) string {
	return cacheKey(schedulesNamespace,
		strings.Join(courseIDs, ","),
		prefs.ExcludeDays.String(),
		strconv.Itoa(int(prefs.StartNotBefore)),
		strconv.Itoa(int(prefs.EndNotAfter)),
		strconv.Itoa(limit),
	)
}
