package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner/internal/service"
	appErrors "github.com/noah-isme/student-planner/pkg/errors"
	"github.com/noah-isme/student-planner/pkg/response"
)

type exportService interface {
	ExportData(ctx context.Context) (string, error)
	ImportData(ctx context.Context, raw string) error
	ExportWeek(ctx context.Context, weekStart, format string) (*service.ExportFile, error)
	ExportICS(ctx context.Context) (*service.ExportFile, error)
}

// ExportHandler serves backups and calendar downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Register mounts the backup and export routes on rg.
func (h *ExportHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/schedule/backup", h.Backup)
	rg.POST("/schedule/backup", h.Restore)
	rg.GET("/schedule/export/week", h.Week)
	rg.GET("/schedule/export/calendar.ics", h.Calendar)
}

// Backup godoc
// @Summary Download the persisted schedule as JSON
// @Tags Backup
// @Produce json
// @Success 200 {file} file
// @Router /schedule/backup [get]
func (h *ExportHandler) Backup(c *gin.Context) {
	payload, err := h.service.ExportData(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "schedule-backup.json", "application/json; charset=utf-8", []byte(payload))
}

// Restore godoc
// @Summary Restore a JSON backup
// @Tags Backup
// @Accept json
// @Produce json
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /schedule/backup [post]
func (h *ExportHandler) Restore(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "unable to read backup payload"))
		return
	}
	if err := h.service.ImportData(c.Request.Context(), string(raw)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Week godoc
// @Summary Export one week as csv, pdf or xlsx
// @Tags Export
// @Produce octet-stream
// @Param start query string false "Any date of the week; defaults to the cursor"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /schedule/export/week [get]
func (h *ExportHandler) Week(c *gin.Context) {
	file, err := h.service.ExportWeek(c.Request.Context(), c.Query("start"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Calendar godoc
// @Summary Export every course as an iCalendar feed
// @Tags Export
// @Produce text/calendar
// @Success 200 {file} file
// @Router /schedule/export/calendar.ics [get]
func (h *ExportHandler) Calendar(c *gin.Context) {
	file, err := h.service.ExportICS(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
