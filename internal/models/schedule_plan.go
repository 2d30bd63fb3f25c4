package models

// PreferenceConfig holds the per-section time and day constraints of a request.
type PreferenceConfig struct {
	ExcludeDays    WeekdaySet `json:"excludeDays"`
	StartNotBefore ClockTime  `json:"startNotBefore"`
	EndNotAfter    ClockTime  `json:"endNotAfter"`
}

// DefaultPreferences excludes nothing and spans 00:00 to 23:59.
func DefaultPreferences() PreferenceConfig {
	return PreferenceConfig{StartNotBefore: 0, EndNotAfter: EndOfDay}
}

// ScheduleBlock is one weekly occurrence of a section on a single weekday.
// Day is WeekdayNone for sections without a day pattern.
type ScheduleBlock struct {
	Day        Weekday       `json:"day"`
	Start      ClockTime     `json:"start"`
	End        ClockTime     `json:"end"`
	Title      string        `json:"title"`
	CRN        string        `json:"crn"`
	CourseID   string        `json:"courseId"`
	Kind       ComponentKind `json:"kind"`
	Location   string        `json:"location"`
	Instructor string        `json:"instructor"`
}

// Timed reports whether the block has a day and real times.
func (b ScheduleBlock) Timed() bool {
	return b.Day.Valid() && b.Start.Scheduled() && b.End.Scheduled()
}

// ScheduleStats summarises a schedule's timed blocks.
type ScheduleStats struct {
	Earliest        ClockTime `json:"earliest"`
	Latest          ClockTime `json:"latest"`
	TotalGapMinutes int       `json:"totalGapMinutes"`
	DistinctDays    int       `json:"distinctDays"`
}

// ScheduleResult is one accepted, conflict-free combination of sections.
type ScheduleResult struct {
	SectionRefs []string        `json:"crns"`
	Sections    []Section       `json:"sections"`
	Blocks      []ScheduleBlock `json:"blocks"`
	Stats       ScheduleStats   `json:"stats"`
}
