package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/schedulease-api/internal/models"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
)

func clock(raw string) models.ClockTime {
	t, err := models.ParseAnyClock(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func timedSection(ref, course string, kind models.ComponentKind, days, start, end string) models.Section {
	return models.Section{
		Ref:      ref,
		CourseID: course,
		Kind:     kind,
		Days:     models.DecodeDayPattern(days),
		Start:    clock(start),
		End:      clock(end),
	}
}

func tbaSection(ref, course string, kind models.ComponentKind) models.Section {
	return models.Section{Ref: ref, CourseID: course, Kind: kind, Start: models.Unscheduled, End: models.Unscheduled}
}

func lecture(ref, course, days, start, end string) models.Section {
	return timedSection(ref, course, models.ComponentLecture, days, start, end)
}

func row(crn, course, section, scheduleType, days, start, end string) models.CatalogSection {
	return models.CatalogSection{
		CRN:           crn,
		CourseCode:    course,
		SectionNumber: section,
		ScheduleType:  scheduleType,
		Days:          days,
		StartTime:     start,
		EndTime:       end,
	}
}

func refsOf(sections []models.Section) []string {
	refs := make([]string, 0, len(sections))
	for _, s := range sections {
		refs = append(refs, s.Ref)
	}
	return refs
}

type fakeCatalog struct {
	mu      sync.Mutex
	rows    map[string][]models.CatalogSection
	err     error
	calls   map[string]int
	courses []models.Course
}

func newFakeCatalog(rows ...models.CatalogSection) *fakeCatalog {
	catalog := &fakeCatalog{rows: map[string][]models.CatalogSection{}, calls: map[string]int{}}
	for _, r := range rows {
		code := models.NormalizeCourseID(r.CourseCode)
		catalog.rows[code] = append(catalog.rows[code], r)
	}
	return catalog
}

func (f *fakeCatalog) SectionsFor(_ context.Context, courseID string) ([]models.CatalogSection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[courseID]++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.CatalogSection(nil), f.rows[courseID]...), nil
}

func (f *fakeCatalog) List(_ context.Context, filter models.CourseFilter) ([]models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Course
	for _, c := range f.courses {
		if filter.Subject == "" || c.Subject == filter.Subject {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}
