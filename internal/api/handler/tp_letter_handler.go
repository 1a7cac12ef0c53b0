package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
	"github.com/Koomefranklin/kise-results-backend/pkg/scoring"
)

// LetterHandler the assessment letter workflow
type LetterHandler struct {
	letterSvc service.LetterService
}

// NewLetterHandler creates a LetterHandler
func NewLetterHandler(letterSvc service.LetterService) *LetterHandler {
	return &LetterHandler{letterSvc: letterSvc}
}

// CreateLetter starts an assessment, or returns the recent one for the
// same student and type
// POST /api/v1/tp/letters
func (h *LetterHandler) CreateLetter(c *gin.Context) {
	var req dto.CreateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	letter, err := h.letterSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	if letter.Reused {
		response.OK(c, letter)
		return
	}
	response.Created(c, letter)
}

// ListLetters letters visible to the caller
// GET /api/v1/tp/letters
func (h *LetterHandler) ListLetters(c *gin.Context) {
	var req dto.LetterListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.letterSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListPendingDeletion letters waiting for a deletion decision
// GET /api/v1/tp/letters/pending-deletion
func (h *LetterHandler) ListPendingDeletion(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.letterSvc.PendingDeletion(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetLetter
// GET /api/v1/tp/letters/:id
func (h *LetterHandler) GetLetter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	letter, err := h.letterSvc.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, letter)
}

// UpdateLetterDetails school, grade, zone and student particulars
// PUT /api/v1/tp/letters/:id
func (h *LetterHandler) UpdateLetterDetails(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateLetterDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	letter, err := h.letterSvc.UpdateDetails(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, letter)
}

// ScoreAspect scores one aspect row of a letter
// PUT /api/v1/tp/student-aspects/:id
func (h *LetterHandler) ScoreAspect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ScoreAspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	out, err := h.letterSvc.ScoreAspect(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, out)
}

// CommentSection comments one section row of a letter
// PUT /api/v1/tp/student-sections/:id
func (h *LetterHandler) CommentSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CommentSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	out, err := h.letterSvc.CommentSection(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, out)
}

// CompleteLetter locks the letter and mails the report to the student
// POST /api/v1/tp/letters/:id/complete
func (h *LetterHandler) CompleteLetter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CompleteLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	out, err := h.letterSvc.Complete(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, out)
}

// DownloadReport the assessment report as a PDF
// GET /api/v1/tp/letters/:id/report
func (h *LetterHandler) DownloadReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	pdf, filename, err := h.letterSvc.Report(c.Request.Context(), id, caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	sendFile(c, filename, "application/pdf", pdf)
}

// RequestDeletion asks the type admins to delete a letter
// POST /api/v1/tp/letters/:id/deletion-request
func (h *LetterHandler) RequestDeletion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.DeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.letterSvc.RequestDeletion(c.Request.Context(), id, &req, caller); err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, nil)
}

// CancelDeletion
// DELETE /api/v1/tp/letters/:id/deletion-request
func (h *LetterHandler) CancelDeletion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.letterSvc.CancelDeletion(c.Request.Context(), id, caller); err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteLetter removes a letter whose deletion was requested
// DELETE /api/v1/tp/letters/:id
func (h *LetterHandler) DeleteLetter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.letterSvc.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, nil)
}

// Dashboard teaching practice counters
// GET /api/v1/tp/dashboard
func (h *LetterHandler) Dashboard(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	out, err := h.letterSvc.Dashboard(c.Request.Context(), caller)
	if err != nil {
		h.handleLetterError(c, err)
		return
	}

	response.OK(c, out)
}

func (h *LetterHandler) handleLetterError(c *gin.Context, err error) {
	var incomplete *service.IncompleteLetterError
	var aspectErr *scoring.AspectScoreError
	switch {
	case errors.As(err, &incomplete):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 17506, incomplete.Error(), gin.H{
			"fields":   incomplete.Fields,
			"sections": incomplete.Sections,
		})
	case errors.As(err, &aspectErr):
		response.BadRequest(c, 17509, aspectErr.Error())
	case errors.Is(err, service.ErrLetterNotFound):
		response.NotFound(c, 17501, "assessment letter not found")
	case errors.Is(err, service.ErrStudentSectionNotFound):
		response.NotFound(c, 17502, "letter section not found")
	case errors.Is(err, service.ErrStudentAspectNotFound):
		response.NotFound(c, 17503, "letter aspect not found")
	case errors.Is(err, service.ErrLetterLocked):
		response.Conflict(c, 17504, "letter is completed and can no longer be edited")
	case errors.Is(err, service.ErrNotAssessor):
		response.Forbidden(c, 17505, "only the assessor may change this letter")
	case errors.Is(err, service.ErrTypeHasNoSections):
		response.BadRequest(c, 17507, "assessment type has no sections, add its rubric first")
	case errors.Is(err, service.ErrDeletionPending):
		response.Conflict(c, 17510, "deletion of this letter was already requested")
	case errors.Is(err, service.ErrDeletionNotRequested):
		response.Conflict(c, 17511, "deletion of this letter was not requested")
	case errors.Is(err, service.ErrInvalidDateFilter):
		response.BadRequest(c, 17512, "dates must be RFC3339 or YYYY-MM-DD")
	case errors.Is(err, mailer.ErrNoRecipients):
		response.Error(c, http.StatusUnprocessableEntity, 17513, "nobody can receive the deletion request")
	case errors.Is(err, service.ErrNoActivePeriod):
		response.Forbidden(c, 17104, "there is no active teaching practice period")
	case errors.Is(err, service.ErrTPStudentNotFound):
		response.NotFound(c, 17401, "teaching practice student not found")
	case errors.Is(err, service.ErrAssessmentTypeNotFound):
		response.NotFound(c, 17201, "assessment type not found")
	case errors.Is(err, service.ErrSpecializationNotFound):
		response.NotFound(c, 13201, "specialization not found")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "you do not have permission to do this")
	default:
		response.InternalError(c)
	}
}
