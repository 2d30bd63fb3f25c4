package dto

import "github.com/noah-isme/schedulease-api/internal/models"

// Export formats.
const (
	ExportFormatICS = "ics"
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportScheduleRequest carries one generated schedule to render as a file.
type ExportScheduleRequest struct {
	Name   string                 `json:"name" validate:"omitempty,max=120"`
	Format string                 `json:"-"`
	Blocks []models.ScheduleBlock `json:"blocks" validate:"required,min=1,max=200"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename      string
	ContentType   string
	Body          []byte
	SkippedBlocks int
}
