package service

import "github.com/noah-isme/schedulease-api/internal/models"

// sectionAllowed applies the user's day and time preferences to one section.
// Sections without real times always pass the time bounds.
func sectionAllowed(section models.Section, prefs models.PreferenceConfig) bool {
	if section.Days.Intersects(prefs.ExcludeDays) {
		return false
	}
	if !section.Timed() {
		return true
	}
	return section.Start >= prefs.StartNotBefore && section.End <= prefs.EndNotAfter
}

// sectionsConflict reports whether two sections overlap on a shared weekday.
// Intervals are half-open, so back-to-back sections do not conflict.
func sectionsConflict(a, b models.Section) bool {
	if !a.Timed() || !b.Timed() {
		return false
	}
	if !a.Days.Intersects(b.Days) {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

func conflictsWithAny(section models.Section, chosen []models.Section) bool {
	for _, other := range chosen {
		if sectionsConflict(section, other) {
			return true
		}
	}
	return false
}
