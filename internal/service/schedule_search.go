package service

import (
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/schedulease-api/internal/models"
)

// courseCandidates pairs a course with its filtered bundles, in catalog order.
type courseCandidates struct {
	CourseID string
	Bundles  []sectionBundle
}

// searchOutcome is what one backtracking run produced.
type searchOutcome struct {
	Combinations      [][]models.Section
	TotalCombinations int64
	Capped            bool
}

// scheduleSearch enumerates conflict-free combinations with one bundle per course.
type scheduleSearch struct {
	courses []courseCandidates
	limit   int

	partial []models.Section
	seen    map[string]struct{}
	out     [][]models.Section
	capped  bool
}

// searchCombinations runs the backtracking search. A course without candidates
// short-circuits to an empty outcome. limit <= 0 means no results are accepted.
func searchCombinations(courses []courseCandidates, limit int) searchOutcome {
	outcome := searchOutcome{TotalCombinations: countCombinations(courses)}
	if len(courses) == 0 || limit <= 0 {
		return outcome
	}
	for _, course := range courses {
		if len(course.Bundles) == 0 {
			return outcome
		}
	}

	s := &scheduleSearch{
		courses: courses,
		limit:   limit,
		seen:    make(map[string]struct{}),
	}
	s.descend(0)

	outcome.Combinations = s.out
	outcome.Capped = s.capped
	return outcome
}

func (s *scheduleSearch) full() bool {
	return len(s.out) >= s.limit
}

func (s *scheduleSearch) descend(depth int) {
	if depth == len(s.courses) {
		s.accept()
		return
	}
	for _, bundle := range s.courses[depth].Bundles {
		if s.full() {
			s.capped = true
			return
		}
		if !s.fits(bundle) {
			continue
		}
		mark := len(s.partial)
		s.partial = append(s.partial, bundle...)
		s.descend(depth + 1)
		s.partial = s.partial[:mark]
	}
}

func (s *scheduleSearch) fits(bundle sectionBundle) bool {
	for _, section := range bundle {
		if conflictsWithAny(section, s.partial) {
			return false
		}
	}
	return true
}

func (s *scheduleSearch) accept() {
	if s.full() {
		s.capped = true
		return
	}
	key := combinationKey(s.partial)
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	result := make([]models.Section, len(s.partial))
	copy(result, s.partial)
	s.out = append(s.out, result)
}

func combinationKey(sections []models.Section) string {
	return strings.Join(sortedRefs(sections), ",")
}

func sortedRefs(sections []models.Section) []string {
	refs := make([]string, 0, len(sections))
	for _, section := range sections {
		refs = append(refs, section.Ref)
	}
	sort.Strings(refs)
	return refs
}

// countCombinations is the product of candidate counts, saturating at MaxInt64.
func countCombinations(courses []courseCandidates) int64 {
	if len(courses) == 0 {
		return 0
	}
	total := int64(1)
	for _, course := range courses {
		n := int64(len(course.Bundles))
		if n == 0 {
			return 0
		}
		if total > math.MaxInt64/n {
			return math.MaxInt64
		}
		total *= n
	}
	return total
}
