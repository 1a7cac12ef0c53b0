package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	pkgerrors "github.com/Koomefranklin/kise-results-backend/pkg/errors"
)

// ── catalog errors ──

var (
	ErrCourseNotFound         = errors.New("course not found")
	ErrCourseCodeExists       = errors.New("course code already exists")
	ErrCourseInUse            = errors.New("course still has specializations or assessment types")
	ErrSpecializationNotFound = errors.New("specialization not found")
	ErrSpecializationExists   = errors.New("specialization code already exists")
	ErrSpecializationInUse    = errors.New("specialization still has papers, lecturers or students")
	ErrHoDNotLecturer         = errors.New("head of department must be a lecturer")
	ErrPaperNotFound          = errors.New("paper not found")
	ErrPaperCodeExists        = errors.New("paper code already exists")
	ErrPaperInUse             = errors.New("paper still has modules, scores or results")
	ErrModuleNotFound         = errors.New("module not found")
	ErrModuleCodeExists       = errors.New("module code already exists")
	ErrModuleInUse            = errors.New("module still has scores")
)

// ════════════════════════════ courses ════════════════════════════

// CourseService courses
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService creates a CourseService
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	course := &model.Course{
		Code: strings.TrimSpace(req.Code),
		Name: strings.TrimSpace(req.Name),
	}
	course.Stamp(callerID)

	if err := s.repo.Course.Create(ctx, course); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("failed to create course", zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("failed to load course", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	courses, total, err := s.repo.Course.List(ctx, req.Keyword, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list courses", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, *toCourseResponse(&courses[i]))
	}
	return out, total, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	if req.Code != nil {
		course.Code = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		course.Name = strings.TrimSpace(*req.Name)
	}
	course.Stamp(callerID)

	if err := s.repo.Course.Update(ctx, course); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("failed to update course", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Course.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if err := s.repo.Course.Delete(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrCourseInUse
		}
		s.logger.Error("failed to delete course", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	return &dto.CourseResponse{
		ID:        c.CourseID,
		Code:      c.Code,
		Name:      c.Name,
		CreatedAt: dto.Timestamp(c.CreatedAt),
		UpdatedAt: dto.Timestamp(c.UpdatedAt),
	}
}

// ════════════════════════════ specializations ════════════════════════════

// SpecializationService specializations and their heads
type SpecializationService interface {
	Create(ctx context.Context, req *dto.CreateSpecializationRequest, callerID string) (*dto.SpecializationResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.SpecializationResponse, error)
	List(ctx context.Context, req *dto.SpecializationListRequest, caller Caller) ([]dto.SpecializationResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateSpecializationRequest, callerID string) (*dto.SpecializationResponse, error)
	Delete(ctx context.Context, id string) error
	AssignHoD(ctx context.Context, id string, req *dto.AssignHoDRequest, callerID string) (*dto.SpecializationResponse, error)
}

type specializationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSpecializationService creates a SpecializationService
func NewSpecializationService(repo *repository.Repository, logger *zap.Logger) SpecializationService {
	return &specializationService{repo: repo, logger: logger}
}

func (s *specializationService) Create(ctx context.Context, req *dto.CreateSpecializationRequest, callerID string) (*dto.SpecializationResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	spec := &model.Specialization{
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Mode:     req.Mode,
		CourseID: course.CourseID,
	}
	spec.Stamp(callerID)

	if err := s.repo.Specialization.Create(ctx, spec); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrSpecializationExists
		}
		s.logger.Error("failed to create specialization", zap.Error(err))
		return nil, err
	}
	spec.Course = course
	return toSpecializationResponse(spec), nil
}

func (s *specializationService) GetByID(ctx context.Context, id string, caller Caller) (*dto.SpecializationResponse, error) {
	spec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.canReadSpecialization(spec.SpecializationID) {
		return nil, ErrNoPermission
	}
	return toSpecializationResponse(spec), nil
}

func (s *specializationService) List(ctx context.Context, req *dto.SpecializationListRequest, caller Caller) ([]dto.SpecializationResponse, int64, error) {
	filter := repository.SpecializationFilter{
		CourseID: req.CourseID,
		Mode:     req.Mode,
		Search:   req.Keyword,
		IDs:      caller.specializationScope(),
	}
	specs, total, err := s.repo.Specialization.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list specializations", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.SpecializationResponse, 0, len(specs))
	for i := range specs {
		out = append(out, *toSpecializationResponse(&specs[i]))
	}
	return out, total, nil
}

func (s *specializationService) Update(ctx context.Context, id string, req *dto.UpdateSpecializationRequest, callerID string) (*dto.SpecializationResponse, error) {
	spec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CourseID != nil && *req.CourseID != spec.CourseID {
		course, err := s.repo.Course.GetByID(ctx, *req.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, err
		}
		spec.CourseID = course.CourseID
		spec.Course = course
	}
	if req.Code != nil {
		spec.Code = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		spec.Name = strings.TrimSpace(*req.Name)
	}
	if req.Mode != nil {
		spec.Mode = *req.Mode
	}
	spec.Stamp(callerID)

	if err := s.repo.Specialization.Update(ctx, spec); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrSpecializationExists
		}
		s.logger.Error("failed to update specialization", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSpecializationResponse(spec), nil
}

func (s *specializationService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Specialization.Delete(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrSpecializationInUse
		}
		s.logger.Error("failed to delete specialization", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// AssignHoD replaces the head of a specialization. Only lecturers qualify.
func (s *specializationService) AssignHoD(ctx context.Context, id string, req *dto.AssignHoDRequest, callerID string) (*dto.SpecializationResponse, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role != model.RoleLecturer {
		return nil, ErrHoDNotLecturer
	}

	hod := &model.HeadOfDepartment{SpecializationID: id, UserID: user.UserID}
	hod.Stamp(callerID)
	if err := s.repo.Specialization.SetHoD(ctx, hod); err != nil {
		s.logger.Error("failed to assign hod", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	spec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSpecializationResponse(spec), nil
}

func (s *specializationService) get(ctx context.Context, id string) (*model.Specialization, error) {
	spec, err := s.repo.Specialization.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecializationNotFound
		}
		s.logger.Error("failed to load specialization", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return spec, nil
}

func toSpecializationResponse(sp *model.Specialization) *dto.SpecializationResponse {
	out := &dto.SpecializationResponse{
		ID:        sp.SpecializationID,
		Code:      sp.Code,
		Name:      sp.Name,
		Mode:      sp.Mode,
		CreatedAt: dto.Timestamp(sp.CreatedAt),
		UpdatedAt: dto.Timestamp(sp.UpdatedAt),
	}
	if sp.Course != nil {
		out.Course = &dto.BriefResponse{ID: sp.Course.CourseID, Code: sp.Course.Code, Name: sp.Course.Name}
	}
	if sp.HoD != nil && sp.HoD.User != nil {
		out.HoD = &dto.BriefResponse{ID: sp.HoD.UserID, Code: sp.HoD.User.Username, Name: sp.HoD.User.FullName()}
	}
	return out
}

// ════════════════════════════ papers ════════════════════════════

// PaperService papers
type PaperService interface {
	Create(ctx context.Context, req *dto.CreatePaperRequest, callerID string) (*dto.PaperResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.PaperResponse, error)
	List(ctx context.Context, req *dto.PaperListRequest, caller Caller) ([]dto.PaperResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdatePaperRequest, callerID string) (*dto.PaperResponse, error)
	Delete(ctx context.Context, id string) error
}

type paperService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPaperService creates a PaperService
func NewPaperService(repo *repository.Repository, logger *zap.Logger) PaperService {
	return &paperService{repo: repo, logger: logger}
}

func (s *paperService) Create(ctx context.Context, req *dto.CreatePaperRequest, callerID string) (*dto.PaperResponse, error) {
	spec, err := s.repo.Specialization.GetByID(ctx, req.SpecializationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecializationNotFound
		}
		return nil, err
	}

	paper := &model.Paper{
		Code:             strings.TrimSpace(req.Code),
		Name:             strings.TrimSpace(req.Name),
		SpecializationID: spec.SpecializationID,
	}
	paper.Stamp(callerID)

	if err := s.repo.Paper.Create(ctx, paper); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrPaperCodeExists
		}
		s.logger.Error("failed to create paper", zap.Error(err))
		return nil, err
	}
	paper.Specialization = spec
	return toPaperResponse(paper), nil
}

func (s *paperService) GetByID(ctx context.Context, id string, caller Caller) (*dto.PaperResponse, error) {
	paper, err := loadPaper(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !caller.canReadSpecialization(paper.SpecializationID) {
		return nil, ErrNoPermission
	}
	return toPaperResponse(paper), nil
}

func (s *paperService) List(ctx context.Context, req *dto.PaperListRequest, caller Caller) ([]dto.PaperResponse, int64, error) {
	filter := repository.PaperFilter{
		SpecializationID:  req.SpecializationID,
		Search:            req.Keyword,
		SpecializationIDs: caller.specializationScope(),
	}
	papers, total, err := s.repo.Paper.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list papers", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.PaperResponse, 0, len(papers))
	for i := range papers {
		out = append(out, *toPaperResponse(&papers[i]))
	}
	return out, total, nil
}

func (s *paperService) Update(ctx context.Context, id string, req *dto.UpdatePaperRequest, callerID string) (*dto.PaperResponse, error) {
	paper, err := loadPaper(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	if req.SpecializationID != nil && *req.SpecializationID != paper.SpecializationID {
		spec, err := s.repo.Specialization.GetByID(ctx, *req.SpecializationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSpecializationNotFound
			}
			return nil, err
		}
		paper.SpecializationID = spec.SpecializationID
		paper.Specialization = spec
	}
	if req.Code != nil {
		paper.Code = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		paper.Name = strings.TrimSpace(*req.Name)
	}
	paper.Stamp(callerID)

	if err := s.repo.Paper.Update(ctx, paper); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrPaperCodeExists
		}
		s.logger.Error("failed to update paper", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toPaperResponse(paper), nil
}

func (s *paperService) Delete(ctx context.Context, id string) error {
	if _, err := loadPaper(ctx, s.repo, id); err != nil {
		return err
	}
	if err := s.repo.Paper.Delete(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrPaperInUse
		}
		s.logger.Error("failed to delete paper", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func loadPaper(ctx context.Context, repo *repository.Repository, id string) (*model.Paper, error) {
	paper, err := repo.Paper.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}
	return paper, nil
}

func toPaperResponse(p *model.Paper) *dto.PaperResponse {
	out := &dto.PaperResponse{
		ID:        p.PaperID,
		Code:      p.Code,
		Name:      p.Name,
		CreatedAt: dto.Timestamp(p.CreatedAt),
		UpdatedAt: dto.Timestamp(p.UpdatedAt),
	}
	if p.Specialization != nil {
		out.Specialization = &dto.BriefResponse{ID: p.Specialization.SpecializationID, Code: p.Specialization.Code, Name: p.Specialization.Name}
	}
	return out
}

// ════════════════════════════ modules ════════════════════════════

// ModuleService modules
type ModuleService interface {
	Create(ctx context.Context, req *dto.CreateModuleRequest, callerID string) (*dto.ModuleResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.ModuleResponse, error)
	List(ctx context.Context, req *dto.ModuleListRequest, caller Caller) ([]dto.ModuleResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateModuleRequest, callerID string) (*dto.ModuleResponse, error)
	Delete(ctx context.Context, id string) error
}

type moduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewModuleService creates a ModuleService
func NewModuleService(repo *repository.Repository, logger *zap.Logger) ModuleService {
	return &moduleService{repo: repo, logger: logger}
}

func (s *moduleService) Create(ctx context.Context, req *dto.CreateModuleRequest, callerID string) (*dto.ModuleResponse, error) {
	paper, err := loadPaper(ctx, s.repo, req.PaperID)
	if err != nil {
		return nil, err
	}

	module := &model.Module{
		Code:    strings.TrimSpace(req.Code),
		Name:    strings.TrimSpace(req.Name),
		PaperID: paper.PaperID,
	}
	module.Stamp(callerID)

	if err := s.repo.Module.Create(ctx, module); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrModuleCodeExists
		}
		s.logger.Error("failed to create module", zap.Error(err))
		return nil, err
	}
	module.Paper = paper
	return toModuleResponse(module), nil
}

func (s *moduleService) GetByID(ctx context.Context, id string, caller Caller) (*dto.ModuleResponse, error) {
	module, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if module.Paper != nil && !caller.canReadSpecialization(module.Paper.SpecializationID) {
		return nil, ErrNoPermission
	}
	return toModuleResponse(module), nil
}

func (s *moduleService) List(ctx context.Context, req *dto.ModuleListRequest, caller Caller) ([]dto.ModuleResponse, int64, error) {
	filter := repository.ModuleFilter{
		PaperID:           req.PaperID,
		Search:            req.Keyword,
		SpecializationIDs: caller.specializationScope(),
	}
	modules, total, err := s.repo.Module.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list modules", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ModuleResponse, 0, len(modules))
	for i := range modules {
		out = append(out, *toModuleResponse(&modules[i]))
	}
	return out, total, nil
}

func (s *moduleService) Update(ctx context.Context, id string, req *dto.UpdateModuleRequest, callerID string) (*dto.ModuleResponse, error) {
	module, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PaperID != nil && *req.PaperID != module.PaperID {
		paper, err := loadPaper(ctx, s.repo, *req.PaperID)
		if err != nil {
			return nil, err
		}
		module.PaperID = paper.PaperID
		module.Paper = paper
	}
	if req.Code != nil {
		module.Code = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		module.Name = strings.TrimSpace(*req.Name)
	}
	module.Stamp(callerID)

	if err := s.repo.Module.Update(ctx, module); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrModuleCodeExists
		}
		s.logger.Error("failed to update module", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toModuleResponse(module), nil
}

func (s *moduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Module.Delete(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrModuleInUse
		}
		s.logger.Error("failed to delete module", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *moduleService) get(ctx context.Context, id string) (*model.Module, error) {
	module, err := s.repo.Module.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		s.logger.Error("failed to load module", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return module, nil
}

func toModuleResponse(m *model.Module) *dto.ModuleResponse {
	out := &dto.ModuleResponse{
		ID:        m.ModuleID,
		Code:      m.Code,
		Name:      m.Name,
		CreatedAt: dto.Timestamp(m.CreatedAt),
		UpdatedAt: dto.Timestamp(m.UpdatedAt),
	}
	if m.Paper != nil {
		out.Paper = &dto.BriefResponse{ID: m.Paper.PaperID, Code: m.Paper.Code, Name: m.Paper.Name}
	}
	return out
}
