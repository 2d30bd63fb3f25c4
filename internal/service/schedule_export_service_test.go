package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/schedulease-api/internal/dto"
	"github.com/noah-isme/schedulease-api/internal/models"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
)

func newExportFixture(t *testing.T, cfg ScheduleExportConfig) *ScheduleExportService {
	t.Helper()
	svc, err := NewScheduleExportService(NewMetricsService(), nil, zap.NewNop(), cfg)
	require.NoError(t, err)
	// Wednesday.
	svc.now = func() time.Time { return time.Date(2026, time.October, 14, 15, 4, 0, 0, time.UTC) }
	return svc
}

func sampleBlocks() []models.ScheduleBlock {
	result := buildScheduleResult([]models.Section{
		{
			Ref: "11111", CourseID: "CS100", Kind: models.ComponentLecture,
			Days: models.DecodeDayPattern("MW"), Start: clock("9:00 AM"), End: clock("9:50 AM"),
			Location: "ENG 101", Instructor: "Ada Lovelace",
		},
		tbaSection("44444", "ART300", models.ComponentLecture),
	})
	return result.Blocks
}

func TestScheduleExportServiceCalendar(t *testing.T) {
	svc := newExportFixture(t, ScheduleExportConfig{})

	file, err := svc.Export(context.Background(), dto.ExportScheduleRequest{Name: "Fall Plan", Blocks: sampleBlocks()})
	require.NoError(t, err)
	assert.Equal(t, "fall-plan.ics", file.Filename)
	assert.Equal(t, "text/calendar; charset=utf-8", file.ContentType)
	assert.Equal(t, 1, file.SkippedBlocks)

	body := string(file.Body)
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "X-WR-CALNAME:Fall Plan\r\n")
	assert.Contains(t, body, "DTSTART:20261019T090000Z\r\n")
	assert.Contains(t, body, "DTEND:20261019T095000Z\r\n")
	assert.Contains(t, body, "DTSTART:20261021T090000Z\r\n")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;COUNT=10;BYDAY=MO\r\n")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;COUNT=10;BYDAY=WE\r\n")
	assert.Contains(t, body, "SUMMARY:CS100 LEC (CRN 11111)\r\n")
	assert.Contains(t, body, "LOCATION:ENG 101\r\n")
	assert.Contains(t, body, "@schedulease\r\n")
}

func TestScheduleExportServiceCalendarDeclaresTimezone(t *testing.T) {
	svc := newExportFixture(t, ScheduleExportConfig{Timezone: "America/New_York"})

	file, err := svc.Export(context.Background(), dto.ExportScheduleRequest{Name: "Fall Plan", Blocks: sampleBlocks()})
	require.NoError(t, err)

	body := string(file.Body)
	assert.Contains(t, body, "DTSTART;TZID=America/New_York:20261019T090000\r\n")
	assert.Contains(t, body, "BEGIN:VTIMEZONE\r\nTZID:America/New_York\r\n")
	assert.Contains(t, body, "TZOFFSETTO:-0500\r\n")
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VTIMEZONE"))
	assert.Less(t, strings.Index(body, "END:VTIMEZONE"), strings.Index(body, "BEGIN:VEVENT"))
}

func TestScheduleExportServiceCalendarHonoursRecurrenceWeeks(t *testing.T) {
	svc := newExportFixture(t, ScheduleExportConfig{RecurrenceWeeks: 15, DefaultName: "My Week"})

	file, err := svc.Export(context.Background(), dto.ExportScheduleRequest{Blocks: sampleBlocks()})
	require.NoError(t, err)
	assert.Equal(t, "my-week.ics", file.Filename)
	assert.Contains(t, string(file.Body), "COUNT=15;")
}

func TestScheduleExportServiceCalendarNeedsTimedBlocks(t *testing.T) {
	svc := newExportFixture(t, ScheduleExportConfig{})

	blocks := buildScheduleResult([]models.Section{tbaSection("1", "A", models.ComponentLecture)}).Blocks
	_, err := svc.Export(context.Background(), dto.ExportScheduleRequest{Blocks: blocks})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestScheduleExportServiceCSV(t *testing.T) {
	svc := newExportFixture(t, ScheduleExportConfig{})

	file, err := svc.Export(context.Background(), dto.ExportScheduleRequest{
		Name:   "Fall Plan",
		Format: "CSV",
		Blocks: sampleBlocks(),
	})
	require.NoError(t, err)
	assert.Equal(t, "fall-plan.csv", file.Filename)
	assert.Zero(t, file.SkippedBlocks)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Day,Start,End,Course,CRN,Location,Instructor", lines[0])
	assert.Equal(t, "Mon,9:00 AM,9:50 AM,CS100 LEC,11111,ENG 101,Ada Lovelace", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "TBA,TBA,TBA,ART300 LEC,44444"))
}

func TestScheduleExportServicePDF(t *testing.T) {
	svc := newExportFixture(t, ScheduleExportConfig{})

	file, err := svc.Export(context.Background(), dto.ExportScheduleRequest{Format: "pdf", Blocks: sampleBlocks()})
	require.NoError(t, err)
	assert.Equal(t, "schedule.pdf", file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestScheduleExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(t, ScheduleExportConfig{})

	_, err := svc.Export(context.Background(), dto.ExportScheduleRequest{Format: "xlsx", Blocks: sampleBlocks()})
	appErr := requireAppError(t, err, appErrors.ErrUnsupported.Code)
	assert.Contains(t, appErr.Message, "xlsx")

	_, err = svc.Export(context.Background(), dto.ExportScheduleRequest{Format: "ics"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestNewScheduleExportServiceRejectsUnknownTimezone(t *testing.T) {
	_, err := NewScheduleExportService(nil, nil, nil, ScheduleExportConfig{Timezone: "Mars/Olympus_Mons"})
	assert.Error(t, err)
}

func TestNextMonday(t *testing.T) {
	cases := map[string]struct {
		now  time.Time
		want time.Time
	}{
		"wednesday": {time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		"sunday":    {time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		"monday":    {time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC), time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)},
		"year end":  {time.Date(2026, 12, 30, 12, 0, 0, 0, time.UTC), time.Date(2027, 1, 4, 0, 0, 0, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextMonday(tc.now))
		})
	}
}

func TestSortBlocksForDisplayPutsTBALast(t *testing.T) {
	blocks := []models.ScheduleBlock{
		{Day: models.WeekdayNone, Start: models.Unscheduled, End: models.Unscheduled, CRN: "tba"},
		{Day: models.Wednesday, Start: clock("8:00 AM"), End: clock("9:00 AM"), CRN: "wed"},
		{Day: models.Monday, Start: clock("1:00 PM"), End: clock("2:00 PM"), CRN: "mon-late"},
		{Day: models.Monday, Start: clock("9:00 AM"), End: clock("10:00 AM"), CRN: "mon-early"},
	}
	sorted := sortBlocksForDisplay(blocks)
	got := make([]string, 0, len(sorted))
	for _, block := range sorted {
		got = append(got, block.CRN)
	}
	assert.Equal(t, []string{"mon-early", "mon-late", "wed", "tba"}, got)
	assert.Equal(t, "tba", blocks[0].CRN, "input is not reordered")
}
