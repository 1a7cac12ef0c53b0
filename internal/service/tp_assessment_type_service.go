package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	pkgerrors "github.com/Koomefranklin/kise-results-backend/pkg/errors"
	"github.com/Koomefranklin/kise-results-backend/pkg/scoring"
)

var (
	ErrAssessmentTypeNotFound = errors.New("assessment type not found")
	ErrAssessmentTypeExists   = errors.New("assessment type short name already exists")
	ErrAssessmentTypeInUse    = errors.New("assessment type still has sections or letters")
	ErrInvalidFormula         = errors.New("invalid total formula")
	ErrStudentCannotAdminTP   = errors.New("students cannot administer assessment types")
)

// AssessmentTypeService teaching practice assessment types and their admins
type AssessmentTypeService interface {
	Create(ctx context.Context, req *dto.AssessmentTypeRequest, callerID string) (*dto.AssessmentTypeResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AssessmentTypeResponse, error)
	List(ctx context.Context, courseID, keyword string) ([]dto.AssessmentTypeResponse, error)
	Update(ctx context.Context, id string, req *dto.AssessmentTypeRequest, callerID string) (*dto.AssessmentTypeResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	ReplaceAdmins(ctx context.Context, id string, req *dto.AssessmentTypeAdminsRequest, callerID string) (*dto.AssessmentTypeResponse, error)
}

type assessmentTypeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssessmentTypeService creates an AssessmentTypeService
func NewAssessmentTypeService(repo *repository.Repository, logger *zap.Logger) AssessmentTypeService {
	return &assessmentTypeService{repo: repo, logger: logger}
}

func (s *assessmentTypeService) Create(ctx context.Context, req *dto.AssessmentTypeRequest, callerID string) (*dto.AssessmentTypeResponse, error) {
	if err := scoring.ValidateFormula(req.TotalFormula); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	if err := s.checkCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	at := &model.AssessmentType{
		Name:         strings.TrimSpace(req.Name),
		ShortName:    strings.ToUpper(strings.TrimSpace(req.ShortName)),
		CourseID:     req.CourseID,
		TotalFormula: strings.TrimSpace(req.TotalFormula),
	}
	at.Stamp(callerID)

	if err := s.repo.AssessmentType.Create(ctx, at); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrAssessmentTypeExists
		}
		s.logger.Error("failed to create assessment type", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditCreate, "tp_assessment_type", at.AssessmentTypeID, at.ShortName, req)
	return s.GetByID(ctx, at.AssessmentTypeID)
}

func (s *assessmentTypeService) GetByID(ctx context.Context, id string) (*dto.AssessmentTypeResponse, error) {
	at, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAssessmentTypeResponse(at), nil
}

func (s *assessmentTypeService) List(ctx context.Context, courseID, keyword string) ([]dto.AssessmentTypeResponse, error) {
	types, err := s.repo.AssessmentType.List(ctx, courseID, keyword)
	if err != nil {
		s.logger.Error("failed to list assessment types", zap.Error(err))
		return nil, err
	}
	out := make([]dto.AssessmentTypeResponse, 0, len(types))
	for i := range types {
		out = append(out, *toAssessmentTypeResponse(&types[i]))
	}
	return out, nil
}

func (s *assessmentTypeService) Update(ctx context.Context, id string, req *dto.AssessmentTypeRequest, callerID string) (*dto.AssessmentTypeResponse, error) {
	at, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scoring.ValidateFormula(req.TotalFormula); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormula, err)
	}
	if req.CourseID != at.CourseID {
		if err := s.checkCourse(ctx, req.CourseID); err != nil {
			return nil, err
		}
	}

	at.Name = strings.TrimSpace(req.Name)
	at.ShortName = strings.ToUpper(strings.TrimSpace(req.ShortName))
	at.CourseID = req.CourseID
	at.TotalFormula = strings.TrimSpace(req.TotalFormula)
	at.Stamp(callerID)

	if err := s.repo.AssessmentType.Update(ctx, at); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrAssessmentTypeExists
		}
		s.logger.Error("failed to update assessment type", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditChange, "tp_assessment_type", id, at.ShortName, req)
	return s.GetByID(ctx, id)
}

func (s *assessmentTypeService) Delete(ctx context.Context, id, callerID string) error {
	at, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.AssessmentType.Delete(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrAssessmentTypeInUse
		}
		s.logger.Error("failed to delete assessment type", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditDelete, "tp_assessment_type", id, at.ShortName, nil)
	return nil
}

// ReplaceAdmins sets the full admin list of a type
func (s *assessmentTypeService) ReplaceAdmins(ctx context.Context, id string, req *dto.AssessmentTypeAdminsRequest, callerID string) (*dto.AssessmentTypeResponse, error) {
	at, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := dedupe(req.UserIDs)
	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, ErrUserNotFound
	}
	for _, u := range users {
		if u.Role == model.RoleStudent {
			return nil, ErrStudentCannotAdminTP
		}
	}

	if err := s.repo.AssessmentType.ReplaceAdmins(ctx, at, users); err != nil {
		s.logger.Error("failed to replace assessment type admins", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditChange, "tp_assessment_type", id, "admins", ids)
	return s.GetByID(ctx, id)
}

func (s *assessmentTypeService) load(ctx context.Context, id string) (*model.AssessmentType, error) {
	at, err := s.repo.AssessmentType.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentTypeNotFound
		}
		return nil, err
	}
	return at, nil
}

func (s *assessmentTypeService) checkCourse(ctx context.Context, courseID string) error {
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	return nil
}

func toAssessmentTypeResponse(at *model.AssessmentType) *dto.AssessmentTypeResponse {
	resp := &dto.AssessmentTypeResponse{
		ID:           at.AssessmentTypeID,
		Name:         at.Name,
		ShortName:    at.ShortName,
		TotalFormula: at.TotalFormula,
		Admins:       make([]dto.BriefResponse, 0, len(at.Admins)),
	}
	if at.Course != nil {
		resp.Course = &dto.BriefResponse{ID: at.Course.CourseID, Code: at.Course.Code, Name: at.Course.Name}
	}
	for _, u := range at.Admins {
		resp.Admins = append(resp.Admins, dto.BriefResponse{ID: u.UserID, Code: u.Username, Name: u.FullName()})
	}
	return resp
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
