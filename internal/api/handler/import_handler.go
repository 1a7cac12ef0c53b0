package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

// ImportHandler bulk uploads and the audit trail
type ImportHandler struct {
	importSvc service.ImportService
	auditSvc  service.AuditService
	maxBytes  int64
}

// NewImportHandler creates an ImportHandler; maxUploadMB <= 0 disables the cap
func NewImportHandler(importSvc service.ImportService, auditSvc service.AuditService, maxUploadMB int64) *ImportHandler {
	return &ImportHandler{importSvc: importSvc, auditSvc: auditSvc, maxBytes: maxUploadMB << 20}
}

// Import reads a csv or xlsx upload in the "file" form field
// POST /api/v1/imports/:kind
func (h *ImportHandler) Import(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 16001, "file is required")
		return
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "request body too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 16002, "import file could not be read")
		return
	}
	defer f.Close()

	out, err := h.importSvc.Import(c.Request.Context(), c.Param("kind"), fh.Filename, f, callerID)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, out)
}

// ListAuditLogs
// GET /api/v1/audit-logs
func (h *ImportHandler) ListAuditLogs(c *gin.Context) {
	var req dto.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, total, err := h.auditSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownImportKind):
		response.NotFound(c, 16003, "unknown import kind")
	case errors.Is(err, service.ErrInvalidImportFile):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16002, "import file could not be read", err.Error())
	default:
		response.InternalError(c)
	}
}
