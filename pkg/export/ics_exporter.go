package export

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

const (
	icsProdID      = "-//SchedulEase//EN"
	icsLocalLayout = "20060102T150405"
)

// CalendarEvent is one weekly recurring event. Start and End carry the
// location used for TZID.
type CalendarEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	ByDay       string
	Count       int
}

// ICSExporter renders RFC 5545 calendars.
type ICSExporter struct {
	now func() time.Time
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{now: time.Now}
}

// ContentType is the MIME type of rendered output.
func (e *ICSExporter) ContentType() string { return "text/calendar; charset=utf-8" }

// Extension is the file extension of rendered output.
func (e *ICSExporter) Extension() string { return "ics" }

// Render writes a VCALENDAR with one VEVENT per event. Every TZID referenced
// by an event gets a matching VTIMEZONE ahead of the events.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("ics requires at least one event")
	}
	for _, event := range events {
		if event.UID == "" {
			return nil, fmt.Errorf("ics event %q has no uid", event.Summary)
		}
		if !event.End.After(event.Start) {
			return nil, fmt.Errorf("ics event %q ends before it starts", event.Summary)
		}
	}
	stamp := e.now().UTC()

	cal := ics.NewCalendarFor("SchedulEase")
	cal.SetProductId(icsProdID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	for _, span := range zoneSpans(events) {
		cal.SetXWRTimezone(span.loc.String())
		cal.AddVTimezone(buildTimezone(span.loc, span.from, span.to))
	}

	for _, event := range events {
		vevent := cal.AddEvent(event.UID)
		vevent.SetDtStampTime(stamp)
		setEventTime(vevent, ics.ComponentPropertyDtStart, event.Start)
		setEventTime(vevent, ics.ComponentPropertyDtEnd, event.End)
		rule := "FREQ=WEEKLY"
		if event.Count > 0 {
			rule += fmt.Sprintf(";COUNT=%d", event.Count)
		}
		if event.ByDay != "" {
			rule += ";BYDAY=" + event.ByDay
		}
		vevent.AddRrule(rule)
		vevent.SetSummary(event.Summary)
		if event.Location != "" {
			vevent.SetLocation(event.Location)
		}
		if event.Description != "" {
			vevent.SetDescription(event.Description)
		}
	}

	buf := &bytes.Buffer{}
	if err := cal.SerializeTo(buf, ics.WithNewLineWindows); err != nil {
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func setEventTime(event *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	if t.Location() == time.UTC {
		event.SetProperty(prop, t.UTC().Format(icsLocalLayout)+"Z")
		return
	}
	event.SetProperty(prop, t.Format(icsLocalLayout), ics.WithTZID(t.Location().String()))
}

type zoneSpan struct {
	loc      *time.Location
	from, to time.Time
}

// zoneSpans groups the non-UTC locations used by events together with the
// instant range their recurrences cover.
func zoneSpans(events []CalendarEvent) []zoneSpan {
	var spans []zoneSpan
	index := map[string]int{}
	for _, event := range events {
		loc := event.Start.Location()
		if loc == time.UTC {
			continue
		}
		weeks := event.Count
		if weeks <= 0 {
			weeks = 1
		}
		last := event.End.AddDate(0, 0, 7*weeks)
		i, ok := index[loc.String()]
		if !ok {
			index[loc.String()] = len(spans)
			spans = append(spans, zoneSpan{loc: loc, from: event.Start, to: last})
			continue
		}
		if event.Start.Before(spans[i].from) {
			spans[i].from = event.Start
		}
		if last.After(spans[i].to) {
			spans[i].to = last
		}
	}
	return spans
}

// buildTimezone describes loc from the observance in effect at from through
// every offset change up to to, one STANDARD or DAYLIGHT onset per change.
func buildTimezone(loc *time.Location, from, to time.Time) *ics.VTimezone {
	tz := ics.NewTimezone(loc.String())
	t := from.In(loc)
	for {
		start, end := t.ZoneBounds()
		abbrev, offset := t.Zone()
		onset, prevOffset := t, offset
		if !start.IsZero() {
			onset = start
			_, prevOffset = start.Add(-time.Second).Zone()
		}

		var observance *ics.ComponentBase
		if t.IsDST() {
			daylight := &ics.Daylight{}
			tz.Components = append(tz.Components, daylight)
			observance = &daylight.ComponentBase
		} else {
			observance = &tz.AddStandard().ComponentBase
		}
		observance.SetProperty(ics.ComponentPropertyDtStart, onset.In(time.FixedZone("", prevOffset)).Format(icsLocalLayout))
		observance.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), formatOffset(prevOffset))
		observance.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), formatOffset(offset))
		observance.SetProperty(ics.ComponentProperty(ics.PropertyTzname), abbrev)

		if end.IsZero() || end.After(to) {
			return tz
		}
		t = end.In(loc)
	}
}

func formatOffset(seconds int) string {
	return time.Unix(0, 0).In(time.FixedZone("", seconds)).Format("-0700")
}
