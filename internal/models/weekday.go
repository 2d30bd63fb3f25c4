package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Weekday is the canonical day-of-week used by the scheduler (Mon=1 .. Sun=7).
type Weekday int

const (
	WeekdayNone Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AllWeekdays lists the weekdays in calendar order starting Monday.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = map[Weekday]string{
	Monday:    "Mon",
	Tuesday:   "Tue",
	Wednesday: "Wed",
	Thursday:  "Thu",
	Friday:    "Fri",
	Saturday:  "Sat",
	Sunday:    "Sun",
}

// Legacy registrar letters. R is Thursday and U is Sunday.
var weekdayLetters = map[byte]Weekday{
	'M': Monday,
	'T': Tuesday,
	'W': Wednesday,
	'R': Thursday,
	'F': Friday,
	'S': Saturday,
	'U': Sunday,
}

var weekdayICS = map[Weekday]string{
	Monday:    "MO",
	Tuesday:   "TU",
	Wednesday: "WE",
	Thursday:  "TH",
	Friday:    "FR",
	Saturday:  "SA",
	Sunday:    "SU",
}

var weekdayFullNames = map[string]Weekday{
	"MONDAY":    Monday,
	"TUESDAY":   Tuesday,
	"WEDNESDAY": Wednesday,
	"THURSDAY":  Thursday,
	"FRIDAY":    Friday,
	"SATURDAY":  Saturday,
	"SUNDAY":    Sunday,
}

// Valid reports whether the weekday is one of Mon..Sun.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// String returns the three-letter name, or "TBA" for WeekdayNone.
func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return "TBA"
}

// ICSCode returns the RFC 5545 BYDAY code.
func (d Weekday) ICSCode() string {
	return weekdayICS[d]
}

// Offset is the number of days after Monday.
func (d Weekday) Offset() int {
	if !d.Valid() {
		return 0
	}
	return int(d) - 1
}

// MarshalJSON renders the weekday as its three-letter name.
func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts any form understood by ParseWeekday, plus "TBA".
func (d *Weekday) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(raw), "TBA") {
		*d = WeekdayNone
		return nil
	}
	day, err := ParseWeekday(raw)
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// ParseWeekday accepts a legacy letter, a three-letter name or a full day name.
func ParseWeekday(raw string) (Weekday, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if len(value) == 1 {
		if day, ok := weekdayLetters[value[0]]; ok {
			return day, nil
		}
	}
	if day, ok := weekdayFullNames[value]; ok {
		return day, nil
	}
	if len(value) == 3 {
		if day, ok := matchWeekdayName(value); ok {
			return day, nil
		}
	}
	return WeekdayNone, fmt.Errorf("unknown weekday %q", raw)
}

func matchWeekdayName(upper string) (Weekday, bool) {
	for day, name := range weekdayNames {
		if strings.ToUpper(name) == upper {
			return day, true
		}
	}
	return WeekdayNone, false
}

func matchFullWeekday(upper string) (Weekday, int) {
	for name, day := range weekdayFullNames {
		if strings.HasPrefix(upper, name) {
			return day, len(name)
		}
	}
	return WeekdayNone, 0
}

// WeekdaySet is a set of weekdays stored as a bitmask.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given days, ignoring invalid values.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var set WeekdaySet
	for _, day := range days {
		set = set.Add(day)
	}
	return set
}

// Add returns the set with day included.
func (s WeekdaySet) Add(day Weekday) WeekdaySet {
	if !day.Valid() {
		return s
	}
	return s | 1<<uint(day)
}

// Has reports whether day is in the set.
func (s WeekdaySet) Has(day Weekday) bool {
	return day.Valid() && s&(1<<uint(day)) != 0
}

// Intersects reports whether the two sets share a weekday.
func (s WeekdaySet) Intersects(other WeekdaySet) bool {
	return s&other != 0
}

// Union merges two sets.
func (s WeekdaySet) Union(other WeekdaySet) WeekdaySet {
	return s | other
}

// Empty reports whether the set holds no weekday.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Len returns the number of weekdays in the set.
func (s WeekdaySet) Len() int {
	count := 0
	for _, day := range AllWeekdays {
		if s.Has(day) {
			count++
		}
	}
	return count
}

// Days returns the members in Monday-first order.
func (s WeekdaySet) Days() []Weekday {
	days := make([]Weekday, 0, 7)
	for _, day := range AllWeekdays {
		if s.Has(day) {
			days = append(days, day)
		}
	}
	return days
}

// String renders the set as a legacy letter pattern, "TBA" when empty.
func (s WeekdaySet) String() string {
	if s.Empty() {
		return "TBA"
	}
	var b strings.Builder
	for _, day := range s.Days() {
		for letter, d := range weekdayLetters {
			if d == day {
				b.WriteByte(letter)
				break
			}
		}
	}
	return b.String()
}

// MarshalJSON renders the set as an array of day names.
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, 7)
	for _, day := range s.Days() {
		names = append(names, day.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts an array of day names or a day pattern string.
func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var pattern string
	if err := json.Unmarshal(data, &pattern); err == nil {
		*s = DecodeDayPattern(pattern)
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("weekday set must be a pattern string or array: %w", err)
	}
	var set WeekdaySet
	for _, name := range names {
		day, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		set = set.Add(day)
	}
	*s = set
	return nil
}

// DecodeDayPattern turns a registrar day pattern ("MWF", "TR", "Mon/Wed", "TBA")
// into a weekday set. Full and three-letter names are matched before single letters,
// so "SUN" is Sunday alone while "SU" is Saturday and Sunday. Unrecognised characters
// are skipped.
func DecodeDayPattern(raw string) WeekdaySet {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" || value == "TBA" {
		return 0
	}
	var set WeekdaySet
	for i := 0; i < len(value); {
		if day, n := matchFullWeekday(value[i:]); n > 0 {
			set = set.Add(day)
			i += n
			continue
		}
		if i+3 <= len(value) {
			if day, ok := matchWeekdayName(value[i : i+3]); ok {
				set = set.Add(day)
				i += 3
				continue
			}
		}
		if day, ok := weekdayLetters[value[i]]; ok {
			set = set.Add(day)
		}
		i++
	}
	return set
}
