package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

// TPHandler teaching practice setup: periods, assessment types, rubric,
// students and zonal leaders
type TPHandler struct {
	periodSvc  service.PeriodService
	typeSvc    service.AssessmentTypeService
	rubricSvc  service.RubricService
	studentSvc service.TPStudentService
	zonalSvc   service.ZonalLeaderService
}

// NewTPHandler creates a TPHandler
func NewTPHandler(
	periodSvc service.PeriodService,
	typeSvc service.AssessmentTypeService,
	rubricSvc service.RubricService,
	studentSvc service.TPStudentService,
	zonalSvc service.ZonalLeaderService,
) *TPHandler {
	return &TPHandler{
		periodSvc:  periodSvc,
		typeSvc:    typeSvc,
		rubricSvc:  rubricSvc,
		studentSvc: studentSvc,
		zonalSvc:   zonalSvc,
	}
}

// ── periods ──

// ListPeriods
// GET /api/v1/tp/periods
func (h *TPHandler) ListPeriods(c *gin.Context) {
	list, err := h.periodSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetActivePeriod
// GET /api/v1/tp/periods/active
func (h *TPHandler) GetActivePeriod(c *gin.Context) {
	period, err := h.periodSvc.GetActive(c.Request.Context())
	if errors.Is(err, service.ErrNoActivePeriod) {
		response.NotFound(c, 17104, "there is no active teaching practice period")
		return
	}
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, period)
}

// CreatePeriod
// POST /api/v1/tp/periods
func (h *TPHandler) CreatePeriod(c *gin.Context) {
	var req dto.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.Created(c, period)
}

// UpdatePeriod renames or (de)activates a period
// PUT /api/v1/tp/periods/:id
func (h *TPHandler) UpdatePeriod(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	period, err := h.periodSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, period)
}

// DeletePeriod
// DELETE /api/v1/tp/periods/:id
func (h *TPHandler) DeletePeriod(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.periodSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── assessment types ──

// ListAssessmentTypes
// GET /api/v1/tp/assessment-types?course_id=&keyword=
func (h *TPHandler) ListAssessmentTypes(c *gin.Context) {
	list, err := h.typeSvc.List(c.Request.Context(), c.Query("course_id"), c.Query("keyword"))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetAssessmentType
// GET /api/v1/tp/assessment-types/:id
func (h *TPHandler) GetAssessmentType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	at, err := h.typeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, at)
}

// CreateAssessmentType
// POST /api/v1/tp/assessment-types
func (h *TPHandler) CreateAssessmentType(c *gin.Context) {
	var req dto.AssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	at, err := h.typeSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.Created(c, at)
}

// UpdateAssessmentType
// PUT /api/v1/tp/assessment-types/:id
func (h *TPHandler) UpdateAssessmentType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	at, err := h.typeSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, at)
}

// ReplaceAssessmentTypeAdmins
// PUT /api/v1/tp/assessment-types/:id/admins
func (h *TPHandler) ReplaceAssessmentTypeAdmins(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AssessmentTypeAdminsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	at, err := h.typeSvc.ReplaceAdmins(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, at)
}

// DeleteAssessmentType
// DELETE /api/v1/tp/assessment-types/:id
func (h *TPHandler) DeleteAssessmentType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.typeSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── rubric ──

// ListSections
// GET /api/v1/tp/sections
func (h *TPHandler) ListSections(c *gin.Context) {
	var req dto.RubricListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, err := h.rubricSvc.ListSections(c.Request.Context(), &req)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetSection
// GET /api/v1/tp/sections/:id
func (h *TPHandler) GetSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	section, err := h.rubricSvc.GetSection(c.Request.Context(), id)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, section)
}

// CreateSection
// POST /api/v1/tp/sections
func (h *TPHandler) CreateSection(c *gin.Context) {
	var req dto.SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	section, err := h.rubricSvc.CreateSection(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.Created(c, section)
}

// UpdateSection
// PUT /api/v1/tp/sections/:id
func (h *TPHandler) UpdateSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	section, err := h.rubricSvc.UpdateSection(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, section)
}

// DeleteSection
// DELETE /api/v1/tp/sections/:id
func (h *TPHandler) DeleteSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.rubricSvc.DeleteSection(c.Request.Context(), id, caller); err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListSubSections
// GET /api/v1/tp/sub-sections
func (h *TPHandler) ListSubSections(c *gin.Context) {
	var req dto.RubricListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, err := h.rubricSvc.ListSubSections(c.Request.Context(), &req)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetSubSection
// GET /api/v1/tp/sub-sections/:id
func (h *TPHandler) GetSubSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	sub, err := h.rubricSvc.GetSubSection(c.Request.Context(), id)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, sub)
}

// CreateSubSection
// POST /api/v1/tp/sub-sections
func (h *TPHandler) CreateSubSection(c *gin.Context) {
	var req dto.SubSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sub, err := h.rubricSvc.CreateSubSection(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.Created(c, sub)
}

// UpdateSubSection
// PUT /api/v1/tp/sub-sections/:id
func (h *TPHandler) UpdateSubSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SubSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sub, err := h.rubricSvc.UpdateSubSection(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, sub)
}

// DeleteSubSection
// DELETE /api/v1/tp/sub-sections/:id
func (h *TPHandler) DeleteSubSection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.rubricSvc.DeleteSubSection(c.Request.Context(), id, caller); err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListAspects aspects plus the sum of their contributions
// GET /api/v1/tp/aspects
func (h *TPHandler) ListAspects(c *gin.Context) {
	var req dto.RubricListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, err := h.rubricSvc.ListAspects(c.Request.Context(), &req)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, list)
}

// GetAspect
// GET /api/v1/tp/aspects/:id
func (h *TPHandler) GetAspect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	aspect, err := h.rubricSvc.GetAspect(c.Request.Context(), id)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, aspect)
}

// CreateAspect
// POST /api/v1/tp/aspects
func (h *TPHandler) CreateAspect(c *gin.Context) {
	var req dto.AspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	aspect, err := h.rubricSvc.CreateAspect(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.Created(c, aspect)
}

// UpdateAspect
// PUT /api/v1/tp/aspects/:id
func (h *TPHandler) UpdateAspect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	aspect, err := h.rubricSvc.UpdateAspect(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, aspect)
}

// DeleteAspect
// DELETE /api/v1/tp/aspects/:id
func (h *TPHandler) DeleteAspect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.rubricSvc.DeleteAspect(c.Request.Context(), id, caller); err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── students ──

// ListTPStudents
// GET /api/v1/tp/students
func (h *TPHandler) ListTPStudents(c *gin.Context) {
	var req dto.TPStudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListInvalidIndex students whose index does not match the expected format
// GET /api/v1/tp/students/invalid
func (h *TPHandler) ListInvalidIndex(c *gin.Context) {
	list, err := h.studentSvc.ListInvalidIndex(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetTPStudent
// GET /api/v1/tp/students/:id
func (h *TPHandler) GetTPStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, st)
}

// CreateTPStudent
// POST /api/v1/tp/students
func (h *TPHandler) CreateTPStudent(c *gin.Context) {
	var req dto.CreateTPStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.Created(c, st)
}

// UpdateTPStudent
// PUT /api/v1/tp/students/:id
func (h *TPHandler) UpdateTPStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateTPStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, st)
}

// DeleteTPStudent
// DELETE /api/v1/tp/students/:id
func (h *TPHandler) DeleteTPStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── zonal leaders ──

// ListZonalLeaders
// GET /api/v1/tp/zonal-leaders?zone=&assessor_id=
func (h *TPHandler) ListZonalLeaders(c *gin.Context) {
	list, err := h.zonalSvc.List(c.Request.Context(), c.Query("zone"), c.Query("assessor_id"))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetZonalLeader
// GET /api/v1/tp/zonal-leaders/:id
func (h *TPHandler) GetZonalLeader(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	zl, err := h.zonalSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, zl)
}

// CreateZonalLeader
// POST /api/v1/tp/zonal-leaders
func (h *TPHandler) CreateZonalLeader(c *gin.Context) {
	var req dto.ZonalLeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	zl, err := h.zonalSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.Created(c, zl)
}

// UpdateZonalLeader
// PUT /api/v1/tp/zonal-leaders/:id
func (h *TPHandler) UpdateZonalLeader(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ZonalLeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	zl, err := h.zonalSvc.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, zl)
}

// DeleteZonalLeader
// DELETE /api/v1/tp/zonal-leaders/:id
func (h *TPHandler) DeleteZonalLeader(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.zonalSvc.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleTPError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *TPHandler) handleTPError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 17101, "teaching practice period not found")
	case errors.Is(err, service.ErrPeriodNameExists):
		response.Conflict(c, 17102, "a period with this name already exists")
	case errors.Is(err, service.ErrPeriodInUse):
		response.Conflict(c, 17103, "period still has students or letters")
	case errors.Is(err, service.ErrNoActivePeriod):
		response.Forbidden(c, 17104, "there is no active teaching practice period")
	case errors.Is(err, service.ErrAssessmentTypeNotFound):
		response.NotFound(c, 17201, "assessment type not found")
	case errors.Is(err, service.ErrAssessmentTypeExists):
		response.Conflict(c, 17202, "assessment type short name already exists")
	case errors.Is(err, service.ErrAssessmentTypeInUse):
		response.Conflict(c, 17203, "assessment type still has sections or letters")
	case errors.Is(err, service.ErrInvalidFormula):
		response.ErrorWithDetails(c, http.StatusBadRequest, 17204, "invalid total formula", err.Error())
	case errors.Is(err, service.ErrStudentCannotAdminTP):
		response.BadRequest(c, 17205, "students cannot administer assessment types")
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 17301, "section not found")
	case errors.Is(err, service.ErrSectionInUse):
		response.Conflict(c, 17302, "section is used by assessment letters")
	case errors.Is(err, service.ErrSubSectionNotFound):
		response.NotFound(c, 17303, "sub-section not found")
	case errors.Is(err, service.ErrSubSectionMismatch):
		response.BadRequest(c, 17304, "sub-section belongs to another section")
	case errors.Is(err, service.ErrAspectNotFound):
		response.NotFound(c, 17305, "aspect not found")
	case errors.Is(err, service.ErrAspectInUse):
		response.Conflict(c, 17306, "aspect is used by assessment letters")
	case errors.Is(err, service.ErrSectionNumberExists):
		response.Conflict(c, 17307, "assessment type already has a section with this number")
	case errors.Is(err, service.ErrRubricNotTypeManager):
		response.Forbidden(c, 17308, "only admins of the assessment type may change its rubric")
	case errors.Is(err, service.ErrTPStudentNotFound):
		response.NotFound(c, 17401, "teaching practice student not found")
	case errors.Is(err, service.ErrTPIndexExists):
		response.Conflict(c, 17402, "a student with this index already exists")
	case errors.Is(err, service.ErrTPStudentInUse):
		response.Conflict(c, 17403, "student still has assessment letters")
	case errors.Is(err, service.ErrZonalLeaderNotFound):
		response.NotFound(c, 17601, "zonal leader not found")
	case errors.Is(err, service.ErrZonalLeaderExists):
		response.Conflict(c, 17602, "this assessor already leads this zone")
	case errors.Is(err, service.ErrZonalLeaderRole):
		response.BadRequest(c, 17603, "zonal leaders must be lecturers")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13101, "course not found")
	case errors.Is(err, service.ErrSpecializationNotFound):
		response.NotFound(c, 13201, "specialization not found")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "user not found")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "you do not have permission to do this")
	default:
		response.InternalError(c)
	}
}
