package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

// PeopleHandler lecturer and student profiles
type PeopleHandler struct {
	lecturerSvc service.LecturerService
	studentSvc  service.StudentService
}

// NewPeopleHandler creates a PeopleHandler
func NewPeopleHandler(lecturerSvc service.LecturerService, studentSvc service.StudentService) *PeopleHandler {
	return &PeopleHandler{lecturerSvc: lecturerSvc, studentSvc: studentSvc}
}

// ListLecturers
// GET /api/v1/lecturers
func (h *PeopleHandler) ListLecturers(c *gin.Context) {
	var req dto.LecturerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.lecturerSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetLecturer
// GET /api/v1/lecturers/:id
func (h *PeopleHandler) GetLecturer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	lec, err := h.lecturerSvc.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handlePeopleError(c, err)
		return
	}

	response.OK(c, lec)
}

// CreateLecturer creates the login and the profile together
// POST /api/v1/lecturers
func (h *PeopleHandler) CreateLecturer(c *gin.Context) {
	var req dto.CreateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	lec, err := h.lecturerSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePeopleError(c, err)
		return
	}

	response.Created(c, lec)
}

// UpdateLecturer
// PUT /api/v1/lecturers/:id
func (h *PeopleHandler) UpdateLecturer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	lec, err := h.lecturerSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePeopleError(c, err)
		return
	}

	response.OK(c, lec)
}

// DeleteLecturer
// DELETE /api/v1/lecturers/:id
func (h *PeopleHandler) DeleteLecturer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.lecturerSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handlePeopleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListStudents
// GET /api/v1/students
func (h *PeopleHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.studentSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetStudent
// GET /api/v1/students/:id
func (h *PeopleHandler) GetStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	st, err := h.studentSvc.GetByID(c.Request.Context(), id, caller)
	if err != nil {
		h.handlePeopleError(c, err)
		return
	}

	response.OK(c, st)
}

// CreateStudent
// POST /api/v1/students
func (h *PeopleHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
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
		h.handlePeopleError(c, err)
		return
	}

	response.Created(c, st)
}

// UpdateStudent
// PUT /api/v1/students/:id
func (h *PeopleHandler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
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
		h.handlePeopleError(c, err)
		return
	}

	response.OK(c, st)
}

// DeleteStudent
// DELETE /api/v1/students/:id
func (h *PeopleHandler) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handlePeopleError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *PeopleHandler) handlePeopleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLecturerNotFound):
		response.NotFound(c, 14001, "lecturer not found")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14002, "student not found")
	case errors.Is(err, service.ErrAdmissionExists):
		response.Conflict(c, 14003, "admission number already registered")
	case errors.Is(err, service.ErrPersonInUse):
		response.Conflict(c, 14004, "record is still referenced by scores, results or assessments")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 12002, "username already taken")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 12003, "you cannot delete yourself")
	case errors.Is(err, service.ErrSpecializationNotFound):
		response.NotFound(c, 13201, "specialization not found")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "you do not have permission to do this")
	default:
		response.InternalError(c)
	}
}
