package service

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedulease-api/internal/models"
)

func singleBundles(sections ...models.Section) []sectionBundle {
	bundles := make([]sectionBundle, 0, len(sections))
	for _, section := range sections {
		bundles = append(bundles, sectionBundle{section})
	}
	return bundles
}

func TestSearchCombinationsDisjointCourses(t *testing.T) {
	outcome := searchCombinations([]courseCandidates{
		{CourseID: "CS100", Bundles: singleBundles(lecture("11111", "CS100", "MWF", "9:00 AM", "9:50 AM"))},
		{CourseID: "MATH200", Bundles: singleBundles(lecture("22222", "MATH200", "TR", "10:00 AM", "11:15 AM"))},
	}, 10)

	require.Len(t, outcome.Combinations, 1)
	assert.Equal(t, []string{"11111", "22222"}, refsOf(outcome.Combinations[0]))
	assert.EqualValues(t, 1, outcome.TotalCombinations)
	assert.False(t, outcome.Capped)
}

func TestSearchCombinationsAllConflicting(t *testing.T) {
	outcome := searchCombinations([]courseCandidates{
		{CourseID: "A", Bundles: singleBundles(lecture("1", "A", "MWF", "9:00 AM", "9:50 AM"))},
		{CourseID: "B", Bundles: singleBundles(lecture("2", "B", "MWF", "9:30 AM", "10:20 AM"))},
	}, 10)

	assert.Empty(t, outcome.Combinations)
	assert.EqualValues(t, 1, outcome.TotalCombinations)
	assert.False(t, outcome.Capped)
}

func TestSearchCombinationsPrunesOnlyConflictingBranches(t *testing.T) {
	outcome := searchCombinations([]courseCandidates{
		{CourseID: "A", Bundles: singleBundles(
			lecture("A1", "A", "MWF", "9:00 AM", "9:50 AM"),
			lecture("A2", "A", "TR", "9:00 AM", "10:15 AM"),
		)},
		{CourseID: "B", Bundles: singleBundles(
			lecture("B1", "B", "MW", "9:30 AM", "10:45 AM"),
			lecture("B2", "B", "TR", "1:00 PM", "2:15 PM"),
		)},
	}, 10)

	got := make([][]string, 0, len(outcome.Combinations))
	for _, combination := range outcome.Combinations {
		got = append(got, refsOf(combination))
	}
	assert.Equal(t, [][]string{{"A1", "B2"}, {"A2", "B1"}, {"A2", "B2"}}, got)
	assert.EqualValues(t, 4, outcome.TotalCombinations)
}

func TestSearchCombinationsEmptyCourseShortCircuits(t *testing.T) {
	outcome := searchCombinations([]courseCandidates{
		{CourseID: "A", Bundles: singleBundles(lecture("1", "A", "MWF", "9:00 AM", "9:50 AM"))},
		{CourseID: "B"},
	}, 10)
	assert.Empty(t, outcome.Combinations)
	assert.Zero(t, outcome.TotalCombinations)
	assert.False(t, outcome.Capped)

	assert.Empty(t, searchCombinations(nil, 10).Combinations)
}

func TestSearchCombinationsRespectsLimit(t *testing.T) {
	var courses []courseCandidates
	for c := 0; c < 3; c++ {
		course := fmt.Sprintf("C%d", c)
		var sections []models.Section
		for i := 0; i < 4; i++ {
			sections = append(sections, tbaSection(fmt.Sprintf("%s-%d", course, i), course, models.ComponentLecture))
		}
		courses = append(courses, courseCandidates{CourseID: course, Bundles: singleBundles(sections...)})
	}

	outcome := searchCombinations(courses, 5)
	assert.Len(t, outcome.Combinations, 5)
	assert.True(t, outcome.Capped)
	assert.EqualValues(t, 64, outcome.TotalCombinations)

	exact := searchCombinations(courses, 64)
	assert.Len(t, exact.Combinations, 64)
	assert.False(t, exact.Capped)

	assert.Empty(t, searchCombinations(courses, 0).Combinations)
}

func TestSearchCombinationsDeduplicatesIdenticalSets(t *testing.T) {
	shared := tbaSection("S1", "A", models.ComponentLecture)
	outcome := searchCombinations([]courseCandidates{
		{CourseID: "A", Bundles: []sectionBundle{{shared}, {shared}}},
		{CourseID: "B", Bundles: singleBundles(lecture("B1", "B", "TR", "9:00 AM", "9:50 AM"))},
	}, 10)
	require.Len(t, outcome.Combinations, 1)
	assert.Equal(t, []string{"B1", "S1"}, sortedRefs(outcome.Combinations[0]))
}

func TestSearchCombinationsResultsNeverConflict(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	patterns := []string{"MWF", "TR", "MW", "F", "R"}
	for round := 0; round < 20; round++ {
		var courses []courseCandidates
		for c := 0; c < 4; c++ {
			course := fmt.Sprintf("C%d", c)
			var sections []models.Section
			for i := 0; i < 3; i++ {
				start := models.ClockTime(8*60 + rng.Intn(10)*30)
				sections = append(sections, models.Section{
					Ref:      fmt.Sprintf("%d-%s-%d", round, course, i),
					CourseID: course,
					Kind:     models.ComponentLecture,
					Days:     models.DecodeDayPattern(patterns[rng.Intn(len(patterns))]),
					Start:    start,
					End:      start + models.ClockTime(50+rng.Intn(40)),
				})
			}
			courses = append(courses, courseCandidates{CourseID: course, Bundles: singleBundles(sections...)})
		}

		outcome := searchCombinations(courses, 100)
		for _, combination := range outcome.Combinations {
			require.Len(t, combination, len(courses))
			for i := range combination {
				for j := i + 1; j < len(combination); j++ {
					assert.False(t, sectionsConflict(combination[i], combination[j]),
						"round %d: %s clashes with %s", round, combination[i].Ref, combination[j].Ref)
				}
			}
		}
	}
}

func TestCountCombinationsSaturates(t *testing.T) {
	courses := make([]courseCandidates, 70)
	for i := range courses {
		courses[i] = courseCandidates{Bundles: make([]sectionBundle, 2)}
	}
	assert.EqualValues(t, int64(math.MaxInt64), countCombinations(courses))
	assert.Zero(t, countCombinations(nil))
}
