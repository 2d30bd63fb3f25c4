package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

const (
	// Unscheduled marks a TBA time. It never takes part in interval arithmetic.
	Unscheduled ClockTime = -1

	minutesPerDay = 24 * 60
	// EndOfDay is 23:59.
	EndOfDay ClockTime = minutesPerDay - 1
)

// ErrInvalidClockTime is returned when a time string cannot be decoded.
var ErrInvalidClockTime = errors.New("invalid clock time")

var (
	clock12Pattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)$`)
	clock24Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseClockTime decodes "h:mm AM|PM". "TBA", empty strings and anything else that
// does not match return Unscheduled together with ErrInvalidClockTime.
func ParseClockTime(raw string) (ClockTime, error) {
	match := clock12Pattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return Unscheduled, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return Unscheduled, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	if hour == 12 {
		hour = 0
	}
	if strings.EqualFold(match[3], "PM") {
		hour += 12
	}
	return ClockTime(hour*60 + minute), nil
}

// ParseClock24 decodes "HH:MM" as produced by HTML time inputs.
func ParseClock24(raw string) (ClockTime, error) {
	match := clock24Pattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return Unscheduled, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour > 23 || minute > 59 {
		return Unscheduled, fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	return ClockTime(hour*60 + minute), nil
}

// ParseAnyClock tries the 12-hour form first and falls back to 24-hour.
func ParseAnyClock(raw string) (ClockTime, error) {
	if t, err := ParseClockTime(raw); err == nil {
		return t, nil
	}
	return ParseClock24(raw)
}

// Scheduled reports whether the value is a real time of day.
func (t ClockTime) Scheduled() bool {
	return t >= 0 && t < minutesPerDay
}

// Hour returns the 24-hour component.
func (t ClockTime) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component.
func (t ClockTime) Minute() int {
	return int(t) % 60
}

// String formats as "h:mm AM|PM", or "TBA" when unscheduled.
func (t ClockTime) String() string {
	if !t.Scheduled() {
		return "TBA"
	}
	hour := t.Hour()
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute(), meridiem)
}

// MarshalJSON renders the formatted clock string.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "TBA", 12-hour and 24-hour strings.
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" || strings.EqualFold(strings.TrimSpace(raw), "TBA") {
		*t = Unscheduled
		return nil
	}
	parsed, err := ParseAnyClock(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
