package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedulease-api/internal/models"
)

func numbered(section models.Section, number string) models.Section {
	section.SectionNumber = number
	return section
}

func bundleRefs(bundles []sectionBundle) [][]string {
	out := make([][]string, 0, len(bundles))
	for _, bundle := range bundles {
		out = append(out, refsOf(bundle))
	}
	return out
}

func TestBuildCourseBundlesLectureOnly(t *testing.T) {
	bundles := buildCourseBundles([]models.Section{
		lecture("L1", "CS100", "MWF", "9:00 AM", "9:50 AM"),
		lecture("L2", "CS100", "TR", "9:00 AM", "10:15 AM"),
	})
	assert.Equal(t, [][]string{{"L1"}, {"L2"}}, bundleRefs(bundles))
}

func TestBuildCourseBundlesSingleLectureTakesEveryChild(t *testing.T) {
	bundles := buildCourseBundles([]models.Section{
		lecture("L1", "BIO110", "MWF", "9:00 AM", "9:50 AM"),
		timedSection("B1", "BIO110", models.ComponentLab, "T", "1:00 PM", "3:50 PM"),
		timedSection("B2", "BIO110", models.ComponentLab, "R", "1:00 PM", "3:50 PM"),
		timedSection("D1", "BIO110", models.ComponentDiscussion, "F", "2:00 PM", "2:50 PM"),
	})
	assert.Equal(t, [][]string{{"L1", "B1", "D1"}, {"L1", "B2", "D1"}}, bundleRefs(bundles))
}

func TestBuildCourseBundlesExplicitParent(t *testing.T) {
	lab1 := timedSection("B1", "CHM101", models.ComponentLab, "T", "1:00 PM", "3:50 PM")
	lab1.ParentRef = "L2"
	lab2 := timedSection("B2", "CHM101", models.ComponentLab, "R", "1:00 PM", "3:50 PM")
	lab2.ParentRef = "L1"
	shared := timedSection("B3", "CHM101", models.ComponentLab, "W", "1:00 PM", "3:50 PM")

	bundles := buildCourseBundles([]models.Section{
		lecture("L1", "CHM101", "MWF", "9:00 AM", "9:50 AM"),
		lecture("L2", "CHM101", "MWF", "11:00 AM", "11:50 AM"),
		lab1, lab2, shared,
	})
	assert.Equal(t, [][]string{{"L1", "B2"}, {"L1", "B3"}, {"L2", "B1"}, {"L2", "B3"}}, bundleRefs(bundles))
}

func TestBuildCourseBundlesTwoLecturesSplitChildrenInHalves(t *testing.T) {
	bundles := buildCourseBundles([]models.Section{
		numbered(lecture("L2", "PHY201", "MWF", "11:00 AM", "11:50 AM"), "2"),
		numbered(lecture("L1", "PHY201", "MWF", "9:00 AM", "9:50 AM"), "1"),
		numbered(timedSection("B4", "PHY201", models.ComponentLab, "R", "1:00 PM", "2:50 PM"), "24"),
		numbered(timedSection("B1", "PHY201", models.ComponentLab, "T", "1:00 PM", "2:50 PM"), "21"),
		numbered(timedSection("B2", "PHY201", models.ComponentLab, "T", "3:00 PM", "4:50 PM"), "22"),
		numbered(timedSection("B3", "PHY201", models.ComponentLab, "R", "3:00 PM", "4:50 PM"), "23"),
	})
	assert.Equal(t, [][]string{
		{"L2", "B3"}, {"L2", "B4"},
		{"L1", "B1"}, {"L1", "B2"},
	}, bundleRefs(bundles))
}

func TestBuildCourseBundlesLinksByNumberingConvention(t *testing.T) {
	bundles := buildCourseBundles([]models.Section{
		numbered(lecture("L1", "MTH150", "MWF", "8:00 AM", "8:50 AM"), "1"),
		numbered(lecture("L2", "MTH150", "MWF", "10:00 AM", "10:50 AM"), "21"),
		numbered(lecture("L3", "MTH150", "MWF", "1:00 PM", "1:50 PM"), "50"),
		numbered(timedSection("D11", "MTH150", models.ComponentDiscussion, "T", "8:00 AM", "8:50 AM"), "11"),
		numbered(timedSection("D52", "MTH150", models.ComponentDiscussion, "R", "8:00 AM", "8:50 AM"), "52"),
	})
	// 1 and 21 sit ten away from 11; 52 is a close neighbour of 50.
	assert.Equal(t, [][]string{{"L1", "D11"}, {"L2", "D11"}, {"L3", "D52"}}, bundleRefs(bundles))
}

func TestBuildCourseBundlesFallsBackWhenNothingLinks(t *testing.T) {
	bundles := buildCourseBundles([]models.Section{
		numbered(lecture("L1", "ART100", "MW", "8:00 AM", "8:50 AM"), "1"),
		numbered(lecture("L2", "ART100", "MW", "10:00 AM", "10:50 AM"), "5"),
		numbered(lecture("L3", "ART100", "MW", "1:00 PM", "1:50 PM"), "9"),
		numbered(timedSection("B1", "ART100", models.ComponentLab, "F", "8:00 AM", "9:50 AM"), "77"),
	})
	require.Len(t, bundles, 3)
	for _, bundle := range bundles {
		assert.Equal(t, "B1", bundle[1].Ref)
	}
}

func TestBuildCourseBundlesNonNumericSectionsSpreadEvenly(t *testing.T) {
	bundles := buildCourseBundles([]models.Section{
		numbered(lecture("L1", "ENG200", "MW", "8:00 AM", "8:50 AM"), "A"),
		numbered(lecture("L2", "ENG200", "MW", "10:00 AM", "10:50 AM"), "B"),
		numbered(lecture("L3", "ENG200", "MW", "1:00 PM", "1:50 PM"), "C"),
		numbered(timedSection("D1", "ENG200", models.ComponentDiscussion, "T", "8:00 AM", "8:50 AM"), "AD"),
		numbered(timedSection("D2", "ENG200", models.ComponentDiscussion, "T", "9:00 AM", "9:50 AM"), "BD"),
		numbered(timedSection("D3", "ENG200", models.ComponentDiscussion, "R", "8:00 AM", "8:50 AM"), "CD"),
	})
	assert.Equal(t, [][]string{{"L1", "D1"}, {"L2", "D2"}, {"L3", "D3"}}, bundleRefs(bundles))
}

func TestBuildCourseBundlesWithoutLectureIsCartesian(t *testing.T) {
	bundles := buildCourseBundles([]models.Section{
		timedSection("B1", "LAB10", models.ComponentLab, "T", "1:00 PM", "2:50 PM"),
		timedSection("B2", "LAB10", models.ComponentLab, "R", "1:00 PM", "2:50 PM"),
		timedSection("D1", "LAB10", models.ComponentDiscussion, "F", "9:00 AM", "9:50 AM"),
	})
	assert.Equal(t, [][]string{{"B1", "D1"}, {"B2", "D1"}}, bundleRefs(bundles))
}

func TestBuildCourseBundlesEmpty(t *testing.T) {
	assert.Empty(t, buildCourseBundles(nil))
}

func TestFilterBundlesAppliesPreferencesAndInternalConflicts(t *testing.T) {
	lec := lecture("L1", "BIO110", "MWF", "9:00 AM", "9:50 AM")
	fridayLab := timedSection("B1", "BIO110", models.ComponentLab, "F", "1:00 PM", "3:50 PM")
	clashingLab := timedSection("B2", "BIO110", models.ComponentLab, "M", "9:30 AM", "11:00 AM")
	goodLab := timedSection("B3", "BIO110", models.ComponentLab, "T", "1:00 PM", "3:50 PM")

	prefs := models.DefaultPreferences()
	prefs.ExcludeDays = models.NewWeekdaySet(models.Friday)

	bundles := []sectionBundle{{lec, fridayLab}, {lec, clashingLab}, {lec, goodLab}}
	kept := filterBundles(bundles, models.DefaultPreferences())
	assert.Equal(t, [][]string{{"L1", "B1"}, {"L1", "B3"}}, bundleRefs(kept))

	// The lecture meets on Friday too, so nothing survives a Friday exclusion.
	assert.Empty(t, filterBundles(bundles, prefs))
}

func TestNumericallyLinked(t *testing.T) {
	cases := []struct {
		lecture, other int
		linked         bool
	}{
		{1, 2, true},
		{1, 4, true},
		{1, 5, true},
		{1, 15, false},
		{1, 11, true},
		{1, 21, true},
		{1, 101, true},
		{1, 201, true},
		{41, 47, true},
		{41, 55, false},
		{0, 1, false},
		{3, 0, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.linked, numericallyLinked(tc.lecture, tc.other), "%d -> %d", tc.lecture, tc.other)
	}
}
