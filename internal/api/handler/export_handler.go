package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

// ExportHandler teaching practice assessment exports
type ExportHandler struct {
	exportSvc service.TPExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.TPExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAssessments one row per student, completed letters side by side
// GET /api/v1/tp/letters/export?format=csv|xlsx
func (h *ExportHandler) ExportAssessments(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", service.ExportXLSX)
	buf, filename, contentType, err := h.exportSvc.Export(c.Request.Context(), format, caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	sendFile(c, filename, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownExportFormat):
		response.BadRequest(c, 16101, "format must be csv or xlsx")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "you do not have permission to do this")
	default:
		response.InternalError(c)
	}
}

// sendFile writes a download response
func sendFile(c *gin.Context, filename, contentType string, body []byte) {
	encodedFilename := url.PathEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, body)
}
