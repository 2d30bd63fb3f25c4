package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/noah-isme/schedulease-api/internal/dto"
	"github.com/noah-isme/schedulease-api/internal/models"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
	"github.com/noah-isme/schedulease-api/pkg/export"
)

var exportHeaders = []string{"Day", "Start", "End", "Course", "CRN", "Location", "Instructor"}

// ScheduleExportConfig governs calendar and file exports.
type ScheduleExportConfig struct {
	Timezone        string
	RecurrenceWeeks int
	DefaultName     string
}

// ScheduleExportService renders a generated schedule as ICS, CSV or PDF.
type ScheduleExportService struct {
	ics       *export.ICSExporter
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleExportConfig
	location  *time.Location
	now       func() time.Time
}

// NewScheduleExportService validates the calendar timezone and builds the exporters.
func NewScheduleExportService(metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ScheduleExportConfig) (*ScheduleExportService, error) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecurrenceWeeks <= 0 {
		cfg.RecurrenceWeeks = 10
	}
	if strings.TrimSpace(cfg.DefaultName) == "" {
		cfg.DefaultName = "schedule"
	}
	location := time.UTC
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load calendar timezone %q: %w", cfg.Timezone, err)
		}
		location = loc
	}
	return &ScheduleExportService{
		ics:       export.NewICSExporter(),
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		location:  location,
		now:       time.Now,
	}, nil
}

// Export renders the request's blocks in the requested format.
func (s *ScheduleExportService) Export(ctx context.Context, req dto.ExportScheduleRequest) (*dto.ExportFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = s.cfg.DefaultName
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = dto.ExportFormatICS
	}
	var (
		file *dto.ExportFile
		err  error
	)
	switch format {
	case dto.ExportFormatICS:
		file, err = s.renderCalendar(name, req.Blocks)
	case dto.ExportFormatCSV:
		file, err = s.renderTable(name, req.Blocks, s.csv.Render, s.csv.ContentType(), s.csv.Extension())
	case dto.ExportFormatPDF:
		file, err = s.renderTable(name, req.Blocks, s.pdf.Render, s.pdf.ContentType(), s.pdf.Extension())
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupported, fmt.Sprintf("unsupported export format %q (use ics, csv or pdf)", req.Format))
	}
	if err != nil {
		return nil, err
	}
	s.metrics.RecordExport(format)
	s.logger.Debug("schedule exported",
		zap.String("format", format),
		zap.Int("blocks", len(req.Blocks)),
		zap.Int("skipped_blocks", file.SkippedBlocks),
	)
	return file, nil
}

func (s *ScheduleExportService) renderCalendar(name string, blocks []models.ScheduleBlock) (*dto.ExportFile, error) {
	anchor := nextMonday(s.now().In(s.location))
	events := make([]export.CalendarEvent, 0, len(blocks))
	skipped := 0
	for _, block := range blocks {
		if !block.Timed() {
			skipped++
			continue
		}
		day := anchor.AddDate(0, 0, block.Day.Offset())
		summary := block.Title
		if summary == "" {
			summary = "Class"
		}
		if block.CRN != "" {
			summary = fmt.Sprintf("%s (CRN %s)", summary, block.CRN)
		}
		description := summary + " - Added by SchedulEase"
		if block.Instructor != "" {
			description += "\nInstructor: " + block.Instructor
		}
		events = append(events, export.CalendarEvent{
			UID:         uuid.NewString() + "@schedulease",
			Summary:     summary,
			Location:    block.Location,
			Description: description,
			Start:       atClock(day, block.Start),
			End:         atClock(day, block.End),
			ByDay:       block.Day.ICSCode(),
			Count:       s.cfg.RecurrenceWeeks,
		})
	}
	if len(events) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule has no timed blocks to put on a calendar")
	}
	body, err := s.ics.Render(name, events)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	return &dto.ExportFile{
		Filename:      exportFilename(name, s.ics.Extension()),
		ContentType:   s.ics.ContentType(),
		Body:          body,
		SkippedBlocks: skipped,
	}, nil
}

func (s *ScheduleExportService) renderTable(name string, blocks []models.ScheduleBlock, render func(export.Dataset) ([]byte, error), contentType, ext string) (*dto.ExportFile, error) {
	dataset := export.Dataset{
		Title:   name,
		Headers: exportHeaders,
		Widths:  []float64{1, 1.2, 1.2, 2, 1.2, 2.4, 2.4},
		Rows:    make([]map[string]string, 0, len(blocks)),
	}
	for _, block := range sortBlocksForDisplay(blocks) {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":        block.Day.String(),
			"Start":      block.Start.String(),
			"End":        block.End.String(),
			"Course":     block.Title,
			"CRN":        block.CRN,
			"Location":   block.Location,
			"Instructor": block.Instructor,
		})
	}
	body, err := render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &dto.ExportFile{Filename: exportFilename(name, ext), ContentType: contentType, Body: body}, nil
}

// sortBlocksForDisplay orders blocks by weekday then start time, with TBA blocks last.
func sortBlocksForDisplay(blocks []models.ScheduleBlock) []models.ScheduleBlock {
	sorted := make([]models.ScheduleBlock, len(blocks))
	copy(sorted, blocks)
	rank := func(b models.ScheduleBlock) (int, int) {
		day := int(b.Day)
		if !b.Day.Valid() {
			day = int(models.Sunday) + 1
		}
		start := int(b.Start)
		if !b.Start.Scheduled() {
			start = int(models.EndOfDay) + 1
		}
		return day, start
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		dayA, startA := rank(sorted[i])
		dayB, startB := rank(sorted[j])
		if dayA != dayB {
			return dayA < dayB
		}
		return startA < startB
	})
	return sorted
}

// nextMonday returns midnight of the first Monday strictly after t, in t's location.
func nextMonday(t time.Time) time.Time {
	add := (8 - int(t.Weekday())) % 7
	if add == 0 {
		add = 7
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+add, 0, 0, 0, 0, t.Location())
}

func atClock(day time.Time, clock models.ClockTime) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, day.Location())
}

func exportFilename(name, ext string) string {
	base := slug.Make(name)
	if base == "" {
		base = "schedule"
	}
	return base + "." + ext
}
