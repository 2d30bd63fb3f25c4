package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedulease-api/internal/dto"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
	"github.com/noah-isme/schedulease-api/pkg/response"
)

const skippedBlocksHeader = "X-Skipped-Blocks"

type scheduleExporter interface {
	Export(ctx context.Context, req dto.ExportScheduleRequest) (*dto.ExportFile, error)
}

// ScheduleExportHandler turns a generated schedule into a downloadable file.
type ScheduleExportHandler struct {
	service scheduleExporter
}

// NewScheduleExportHandler constructs the handler.
func NewScheduleExportHandler(svc scheduleExporter) *ScheduleExportHandler {
	return &ScheduleExportHandler{service: svc}
}

// Export godoc
// @Summary Export a schedule
// @Description Renders the blocks of one generated schedule as an iCalendar file with weekly recurrences, a CSV table or a PDF timetable.
// @Tags Schedules
// @Accept json
// @Produce text/calendar
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "ics (default), csv or pdf"
// @Param payload body dto.ExportScheduleRequest true "Schedule blocks"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /schedules/export [post]
func (h *ScheduleExportHandler) Export(c *gin.Context) {
	var req dto.ExportScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	req.Format = c.DefaultQuery("format", dto.ExportFormatICS)

	file, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header(skippedBlocksHeader, strconv.Itoa(file.SkippedBlocks))
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
