package service

import (
	"sort"
	"strconv"

	"github.com/noah-isme/schedulease-api/internal/models"
)

// sectionBundle is one course's atomic choice: one section per required component.
type sectionBundle []models.Section

// buildCourseBundles links a course's lectures with their labs and discussions.
// Every component kind present in the catalog is required. Linking prefers explicit
// parent references, then the registrar numbering conventions, and finally an even
// distribution. Bundles follow catalog order.
func buildCourseBundles(sections []models.Section) []sectionBundle {
	byKind := make(map[models.ComponentKind][]models.Section)
	var kinds []models.ComponentKind
	for _, kind := range models.ComponentKinds {
		for _, section := range sections {
			if section.Kind == kind {
				byKind[kind] = append(byKind[kind], section)
			}
		}
		if len(byKind[kind]) > 0 {
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil
	}

	lectures := byKind[models.ComponentLecture]
	if len(lectures) == 0 {
		groups := make([][]models.Section, 0, len(kinds))
		for _, kind := range kinds {
			groups = append(groups, byKind[kind])
		}
		return cartesianBundles(nil, groups)
	}

	var childKinds []models.ComponentKind
	for _, kind := range kinds {
		if kind != models.ComponentLecture {
			childKinds = append(childKinds, kind)
		}
	}

	linker := chooseLinker(lectures, byKind, childKinds)
	bundles := make([]sectionBundle, 0)
	for i, lecture := range lectures {
		groups := make([][]models.Section, 0, len(childKinds))
		for _, kind := range childKinds {
			linked := linker(i, lecture, byKind[kind])
			if len(linked) == 0 {
				linked = byKind[kind]
			}
			groups = append(groups, linked)
		}
		bundles = append(bundles, cartesianBundles(sectionBundle{lecture}, groups)...)
	}
	return bundles
}

type childLinker func(index int, lecture models.Section, children []models.Section) []models.Section

func chooseLinker(lectures []models.Section, byKind map[models.ComponentKind][]models.Section, childKinds []models.ComponentKind) childLinker {
	for _, kind := range childKinds {
		for _, child := range byKind[kind] {
			if child.ParentRef != "" {
				return linkByParent
			}
		}
	}
	if len(lectures) == 1 {
		return func(_ int, _ models.Section, children []models.Section) []models.Section {
			return children
		}
	}
	if !allNumbered(lectures) {
		return conservativeLinker(len(lectures))
	}
	for _, kind := range childKinds {
		if !allNumbered(byKind[kind]) {
			return conservativeLinker(len(lectures))
		}
	}
	if len(lectures) == 2 {
		return halvesLinker(lectures)
	}
	return linkByNumber
}

func linkByParent(_ int, lecture models.Section, children []models.Section) []models.Section {
	var linked []models.Section
	for _, child := range children {
		if child.ParentRef == "" || child.ParentRef == lecture.Ref {
			linked = append(linked, child)
		}
	}
	return linked
}

// halvesLinker gives the lower-numbered lecture the first half of the sorted
// children and the other lecture the remainder.
func halvesLinker(lectures []models.Section) childLinker {
	first := lectures[0]
	if sectionNumber(lectures[1]) < sectionNumber(lectures[0]) {
		first = lectures[1]
	}
	return func(_ int, lecture models.Section, children []models.Section) []models.Section {
		sorted := sortedByNumber(children)
		half := len(sorted) / 2
		if lecture.Ref == first.Ref {
			return sorted[:half]
		}
		return sorted[half:]
	}
}

func linkByNumber(_ int, lecture models.Section, children []models.Section) []models.Section {
	lectureNumber := sectionNumber(lecture)
	var linked []models.Section
	for _, child := range children {
		if numericallyLinked(lectureNumber, sectionNumber(child)) {
			linked = append(linked, child)
		}
	}
	return linked
}

// conservativeLinker spreads children evenly across lectures in catalog order.
func conservativeLinker(lectureCount int) childLinker {
	return func(index int, _ models.Section, children []models.Section) []models.Section {
		if len(children) == 0 {
			return nil
		}
		per := len(children) / lectureCount
		if per < 1 {
			per = 1
		}
		start := index * per
		end := start + per
		if start >= len(children) {
			return nil
		}
		if end > len(children) {
			end = len(children)
		}
		return children[start:end]
	}
}

func numericallyLinked(lecture, other int) bool {
	if lecture == 0 || other == 0 {
		return false
	}
	diff := other - lecture
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 3:
		return true
	case diff == 10, diff == 20, diff == 30, diff == 100, diff == 200:
		return true
	}
	return lecture/10 == other/10
}

func allNumbered(sections []models.Section) bool {
	for _, section := range sections {
		if _, err := strconv.Atoi(section.SectionNumber); err != nil {
			return false
		}
	}
	return true
}

func sectionNumber(section models.Section) int {
	n, err := strconv.Atoi(section.SectionNumber)
	if err != nil {
		return 0
	}
	return n
}

func sortedByNumber(sections []models.Section) []models.Section {
	sorted := make([]models.Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sectionNumber(sorted[i]) < sectionNumber(sorted[j])
	})
	return sorted
}

func cartesianBundles(prefix sectionBundle, groups [][]models.Section) []sectionBundle {
	if len(groups) == 0 {
		bundle := make(sectionBundle, len(prefix))
		copy(bundle, prefix)
		return []sectionBundle{bundle}
	}
	var bundles []sectionBundle
	for _, section := range groups[0] {
		next := append(prefix[:len(prefix):len(prefix)], section)
		bundles = append(bundles, cartesianBundles(next, groups[1:])...)
	}
	return bundles
}

// filterBundles drops bundles with a section rejected by the preferences or with
// sections that clash with each other.
func filterBundles(bundles []sectionBundle, prefs models.PreferenceConfig) []sectionBundle {
	kept := make([]sectionBundle, 0, len(bundles))
	for _, bundle := range bundles {
		if bundleAllowed(bundle, prefs) {
			kept = append(kept, bundle)
		}
	}
	return kept
}

func bundleAllowed(bundle sectionBundle, prefs models.PreferenceConfig) bool {
	for i, section := range bundle {
		if !sectionAllowed(section, prefs) {
			return false
		}
		if conflictsWithAny(section, bundle[:i]) {
			return false
		}
	}
	return true
}
