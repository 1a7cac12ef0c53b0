package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	pkgerrors "github.com/Koomefranklin/kise-results-backend/pkg/errors"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ScoreHandler deadlines, CAT combinations, scores and results
type ScoreHandler struct {
	deadlineSvc service.DeadlineService
	comboSvc    service.CatCombinationService
	scoreSvc    service.ScoreService
	resultSvc   service.ResultService
}

// NewScoreHandler creates a ScoreHandler
func NewScoreHandler(
	deadlineSvc service.DeadlineService,
	comboSvc service.CatCombinationService,
	scoreSvc service.ScoreService,
	resultSvc service.ResultService,
) *ScoreHandler {
	return &ScoreHandler{deadlineSvc: deadlineSvc, comboSvc: comboSvc, scoreSvc: scoreSvc, resultSvc: resultSvc}
}

// ── deadlines ──

// ListDeadlines every deadline with its open state
// GET /api/v1/deadlines
func (h *ScoreHandler) ListDeadlines(c *gin.Context) {
	list, err := h.deadlineSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SetDeadline
// PUT /api/v1/deadlines/:name
func (h *ScoreHandler) SetDeadline(c *gin.Context) {
	var uri dto.DeadlineURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.NotFound(c, 15001, "unknown deadline")
		return
	}
	var req dto.SetDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	out, err := h.deadlineSvc.Set(c.Request.Context(), uri.Name, &req, callerID)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, out)
}

// ── CAT combinations ──

// ListCatCombinations
// GET /api/v1/cat-combinations
func (h *ScoreHandler) ListCatCombinations(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.comboSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetCatCombination
// GET /api/v1/cat-combinations/:id
func (h *ScoreHandler) GetCatCombination(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	combo, err := h.comboSvc.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, combo)
}

// GetPaperCatCombination
// GET /api/v1/papers/:id/cat-combination
func (h *ScoreHandler) GetPaperCatCombination(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	combo, err := h.comboSvc.GetByPaper(c.Request.Context(), id, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, combo)
}

// AvailableModules modules of a paper not yet in any bucket
// GET /api/v1/papers/:id/available-modules
func (h *ScoreHandler) AvailableModules(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.comboSvc.AvailableModules(c.Request.Context(), id, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateCatCombination
// POST /api/v1/cat-combinations
func (h *ScoreHandler) CreateCatCombination(c *gin.Context) {
	var req dto.CatCombinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	combo, err := h.comboSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.Created(c, combo)
}

// UpdateCatCombination
// PUT /api/v1/cat-combinations/:id
func (h *ScoreHandler) UpdateCatCombination(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateCatCombinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	combo, err := h.comboSvc.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, combo)
}

// DeleteCatCombination
// DELETE /api/v1/cat-combinations/:id
func (h *ScoreHandler) DeleteCatCombination(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.comboSvc.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── module scores ──

// ListModuleScores
// GET /api/v1/module-scores
func (h *ScoreHandler) ListModuleScores(c *gin.Context) {
	var req dto.ScoreListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.scoreSvc.ListModuleScores(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateModuleScore
// POST /api/v1/module-scores
func (h *ScoreHandler) CreateModuleScore(c *gin.Context) {
	var req dto.CreateModuleScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	score, err := h.scoreSvc.CreateModuleScore(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.Created(c, score)
}

// UpdateModuleScore
// PUT /api/v1/module-scores/:id
func (h *ScoreHandler) UpdateModuleScore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateModuleScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	score, err := h.scoreSvc.UpdateModuleScore(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, score)
}

// DeleteModuleScore
// DELETE /api/v1/module-scores/:id
func (h *ScoreHandler) DeleteModuleScore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.scoreSvc.DeleteModuleScore(c.Request.Context(), id, caller); err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── sit-in CATs ──

// ListSitins
// GET /api/v1/sitin-cats
func (h *ScoreHandler) ListSitins(c *gin.Context) {
	var req dto.ScoreListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.scoreSvc.ListSitins(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateSitin
// POST /api/v1/sitin-cats
func (h *ScoreHandler) CreateSitin(c *gin.Context) {
	var req dto.CreateSitinCatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sitin, err := h.scoreSvc.CreateSitin(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.Created(c, sitin)
}

// UpdateSitin
// PUT /api/v1/sitin-cats/:id
func (h *ScoreHandler) UpdateSitin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateSitinCatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sitin, err := h.scoreSvc.UpdateSitin(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, sitin)
}

// DeleteSitin
// DELETE /api/v1/sitin-cats/:id
func (h *ScoreHandler) DeleteSitin(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.scoreSvc.DeleteSitin(c.Request.Context(), id, caller); err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── results ──

// GenerateResults computes one CAT column for every student of a paper
// POST /api/v1/results/generate
func (h *ScoreHandler) GenerateResults(c *gin.Context) {
	var req dto.GenerateResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	out, err := h.resultSvc.Generate(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OK(c, out)
}

// ListResults
// GET /api/v1/results
func (h *ScoreHandler) ListResults(c *gin.Context) {
	var req dto.ResultListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.resultSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ExportResults results of one paper as a workbook
// GET /api/v1/results/export?paper_id=xxx
func (h *ScoreHandler) ExportResults(c *gin.Context) {
	paperID := c.Query("paper_id")
	if paperID == "" {
		response.BadRequest(c, 10001, "paper_id is required")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.resultSvc.Export(c.Request.Context(), paperID, caller)
	if err != nil {
		h.handleScoreError(c, err)
		return
	}

	sendFile(c, filename, xlsxContentType, buf.Bytes())
}

func (h *ScoreHandler) handleScoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownDeadline):
		response.NotFound(c, 15001, "unknown deadline")
	case errors.Is(err, service.ErrInvalidDeadline):
		response.BadRequest(c, 15002, "deadline must be an RFC3339 timestamp")
	case errors.Is(err, service.ErrDeadlinePassed):
		response.Forbidden(c, 15003, "the deadline for this field has passed")
	case errors.Is(err, service.ErrCatCombinationNotFound):
		response.NotFound(c, 15101, "paper has no CAT combination")
	case errors.Is(err, service.ErrCatCombinationExists):
		response.Conflict(c, 15102, "paper already has a CAT combination")
	case errors.Is(err, service.ErrModuleNotInPaper):
		response.BadRequest(c, 15103, "module does not belong to the paper")
	case errors.Is(err, service.ErrModuleInBothBuckets):
		response.BadRequest(c, 15104, "module cannot be in both CAT buckets")
	case errors.Is(err, service.ErrModuleAlreadyAssigned):
		response.Conflict(c, 15105, "module is already assigned to a CAT")
	case errors.Is(err, service.ErrScoreNotFound):
		response.NotFound(c, 15201, "score not found")
	case errors.Is(err, service.ErrScoreExists):
		response.Conflict(c, 15202, "student already has a score for this module")
	case errors.Is(err, service.ErrSitinNotFound):
		response.NotFound(c, 15203, "sit-in CAT not found")
	case errors.Is(err, service.ErrSitinExists):
		response.Conflict(c, 15204, "student already has a sit-in CAT for this paper")
	case errors.Is(err, service.ErrStudentNotInSpecialization):
		response.BadRequest(c, 15205, "student is not in the paper's specialization")
	case errors.Is(err, service.ErrUnknownCat):
		response.BadRequest(c, 15301, "cat must be cat1 or cat2")
	case errors.Is(err, service.ErrPaperNotFound):
		response.NotFound(c, 13301, "paper not found")
	case errors.Is(err, service.ErrModuleNotFound):
		response.NotFound(c, 13401, "module not found")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14002, "student not found")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "record was modified by another request, reload and retry")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "you do not have permission to do this")
	default:
		response.InternalError(c)
	}
}
