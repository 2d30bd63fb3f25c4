package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/schedulease-api/internal/models"
)

// Generation outcome statuses.
const (
	StatusOK                 = "OK"
	StatusNoFeasibleSchedule = "NO_FEASIBLE_SCHEDULE"
)

// Reasons attached to a NO_FEASIBLE_SCHEDULE outcome.
const (
	ReasonEmptyCandidates = "EMPTY_CANDIDATES"
	ReasonAllConflicting  = "ALL_COMBINATIONS_CONFLICT"
)

// CourseSelection is one requested course. It decodes from "CS 100" or {"subject":"CS","code":"100"}.
type CourseSelection struct {
	ID string `json:"id" validate:"required,max=32"`
}

// UnmarshalJSON normalises both accepted shapes into ID.
func (s *CourseSelection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		s.ID = models.NormalizeCourseID(raw)
		return nil
	}
	var obj struct {
		ID      string          `json:"id"`
		Subject string          `json:"subject"`
		Code    json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("course must be a string or {subject, code}: %w", err)
	}
	if obj.ID != "" {
		s.ID = models.NormalizeCourseID(obj.ID)
		return nil
	}
	code := strings.Trim(string(bytes.TrimSpace(obj.Code)), `"`)
	if obj.Subject == "" || code == "" || code == "null" {
		s.ID = ""
		return nil
	}
	s.ID = models.NormalizeCourseID(obj.Subject + code)
	return nil
}

// MarshalJSON renders the normalised identifier.
func (s CourseSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ID)
}

// PreferencesRequest carries the user's constraints. The canonical fields win over
// the legacy form fields (noFriday, startAfter, endBefore) when both are set.
type PreferencesRequest struct {
	ExcludeDays    []string `json:"excludeDays" validate:"omitempty,max=7,dive,required"`
	StartNotBefore string   `json:"startNotBefore"`
	EndNotAfter    string   `json:"endNotAfter"`
	NoFriday       bool     `json:"noFriday"`
	StartAfter     string   `json:"startAfter"`
	EndBefore      string   `json:"endBefore"`
}

// GenerateScheduleRequest asks for conflict-free section combinations.
type GenerateScheduleRequest struct {
	Courses     []CourseSelection  `json:"courses" validate:"required,min=1,max=12,dive"`
	Preferences PreferencesRequest `json:"prefs"`
	Limit       int                `json:"limit" validate:"omitempty,min=1,max=500"`
}

// SkippedSection reports a catalog row dropped because its day/time data was malformed.
type SkippedSection struct {
	CourseID string `json:"courseId"`
	CRN      string `json:"crn"`
	Reason   string `json:"reason"`
}

// FailedCourse names a requested course absent from the catalog.
type FailedCourse struct {
	Course string `json:"course"`
	Error  string `json:"error"`
}

// GenerateScheduleResponse lists accepted schedules in search order.
type GenerateScheduleResponse struct {
	Status            string                  `json:"status"`
	Reason            string                  `json:"reason,omitempty"`
	Courses           []string                `json:"courses"`
	Preferences       models.PreferenceConfig `json:"preferences"`
	Schedules         []models.ScheduleResult `json:"schedules"`
	Count             int                     `json:"count"`
	Limit             int                     `json:"limit"`
	TotalCombinations int64                   `json:"totalCombinations"`
	Capped            bool                    `json:"capped"`
	EmptyCourses      []string                `json:"emptyCourses,omitempty"`
	SkippedSections   []SkippedSection        `json:"skippedSections,omitempty"`
}

// CourseListQuery filters the course catalog listing.
type CourseListQuery struct {
	Subject string `form:"subject" validate:"omitempty,max=16"`
	Search  string `form:"q" validate:"omitempty,max=64"`
}

// CourseSectionsResponse is the normalised section list of one course.
type CourseSectionsResponse struct {
	Course          string           `json:"course"`
	Sections        []models.Section `json:"sections"`
	SkippedSections []SkippedSection `json:"skippedSections,omitempty"`
}
