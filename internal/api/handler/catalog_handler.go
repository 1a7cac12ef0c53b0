package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

// CatalogHandler courses, specializations, papers and modules
type CatalogHandler struct {
	courseSvc service.CourseService
	specSvc   service.SpecializationService
	paperSvc  service.PaperService
	moduleSvc service.ModuleService
}

// NewCatalogHandler creates a CatalogHandler
func NewCatalogHandler(
	courseSvc service.CourseService,
	specSvc service.SpecializationService,
	paperSvc service.PaperService,
	moduleSvc service.ModuleService,
) *CatalogHandler {
	return &CatalogHandler{courseSvc: courseSvc, specSvc: specSvc, paperSvc: paperSvc, moduleSvc: moduleSvc}
}

// ── courses ──

// ListCourses
// GET /api/v1/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, total, err := h.courseSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetCourse
// GET /api/v1/courses/:id
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, course)
}

// CreateCourse
// POST /api/v1/courses
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Created(c, course)
}

// UpdateCourse
// PUT /api/v1/courses/:id
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, course)
}

// DeleteCourse
// DELETE /api/v1/courses/:id
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── specializations ──

// ListSpecializations
// GET /api/v1/specializations
func (h *CatalogHandler) ListSpecializations(c *gin.Context) {
	var req dto.SpecializationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.specSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetSpecialization
// GET /api/v1/specializations/:id
func (h *CatalogHandler) GetSpecialization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	spec, err := h.specSvc.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, spec)
}

// CreateSpecialization
// POST /api/v1/specializations
func (h *CatalogHandler) CreateSpecialization(c *gin.Context) {
	var req dto.CreateSpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	spec, err := h.specSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Created(c, spec)
}

// UpdateSpecialization
// PUT /api/v1/specializations/:id
func (h *CatalogHandler) UpdateSpecialization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateSpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	spec, err := h.specSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, spec)
}

// AssignHoD sets or clears the head of department
// PUT /api/v1/specializations/:id/hod
func (h *CatalogHandler) AssignHoD(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AssignHoDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	spec, err := h.specSvc.AssignHoD(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, spec)
}

// DeleteSpecialization
// DELETE /api/v1/specializations/:id
func (h *CatalogHandler) DeleteSpecialization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.specSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── papers ──

// ListPapers
// GET /api/v1/papers
func (h *CatalogHandler) ListPapers(c *gin.Context) {
	var req dto.PaperListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.paperSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetPaper
// GET /api/v1/papers/:id
func (h *CatalogHandler) GetPaper(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	paper, err := h.paperSvc.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, paper)
}

// CreatePaper
// POST /api/v1/papers
func (h *CatalogHandler) CreatePaper(c *gin.Context) {
	var req dto.CreatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	paper, err := h.paperSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Created(c, paper)
}

// UpdatePaper
// PUT /api/v1/papers/:id
func (h *CatalogHandler) UpdatePaper(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	paper, err := h.paperSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, paper)
}

// DeletePaper
// DELETE /api/v1/papers/:id
func (h *CatalogHandler) DeletePaper(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.paperSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── modules ──

// ListModules
// GET /api/v1/modules
func (h *CatalogHandler) ListModules(c *gin.Context) {
	var req dto.ModuleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.moduleSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetModule
// GET /api/v1/modules/:id
func (h *CatalogHandler) GetModule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	module, err := h.moduleSvc.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, module)
}

// CreateModule
// POST /api/v1/modules
func (h *CatalogHandler) CreateModule(c *gin.Context) {
	var req dto.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	module, err := h.moduleSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Created(c, module)
}

// UpdateModule
// PUT /api/v1/modules/:id
func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	module, err := h.moduleSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, module)
}

// DeleteModule
// DELETE /api/v1/modules/:id
func (h *CatalogHandler) DeleteModule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.moduleSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13101, "course not found")
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 13102, "course code already exists")
	case errors.Is(err, service.ErrCourseInUse):
		response.Conflict(c, 13103, "course still has specializations or assessment types")
	case errors.Is(err, service.ErrSpecializationNotFound):
		response.NotFound(c, 13201, "specialization not found")
	case errors.Is(err, service.ErrSpecializationExists):
		response.Conflict(c, 13202, "specialization code already exists")
	case errors.Is(err, service.ErrSpecializationInUse):
		response.Conflict(c, 13203, "specialization still has papers, lecturers or students")
	case errors.Is(err, service.ErrHoDNotLecturer):
		response.BadRequest(c, 13204, "head of department must be a lecturer")
	case errors.Is(err, service.ErrPaperNotFound):
		response.NotFound(c, 13301, "paper not found")
	case errors.Is(err, service.ErrPaperCodeExists):
		response.Conflict(c, 13302, "paper code already exists")
	case errors.Is(err, service.ErrPaperInUse):
		response.Conflict(c, 13303, "paper still has modules, scores or results")
	case errors.Is(err, service.ErrModuleNotFound):
		response.NotFound(c, 13401, "module not found")
	case errors.Is(err, service.ErrModuleCodeExists):
		response.Conflict(c, 13402, "module code already exists")
	case errors.Is(err, service.ErrModuleInUse):
		response.Conflict(c, 13403, "module still has scores")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "you do not have permission to do this")
	default:
		response.InternalError(c)
	}
}
