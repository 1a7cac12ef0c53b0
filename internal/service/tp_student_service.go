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

var (
	ErrTPStudentNotFound = errors.New("teaching practice student not found")
	ErrTPIndexExists     = errors.New("a student with this index already exists")
	ErrTPStudentInUse    = errors.New("student still has assessment letters")
)

// TPStudentService students on teaching practice
type TPStudentService interface {
	Create(ctx context.Context, req *dto.CreateTPStudentRequest, callerID string) (*dto.TPStudentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TPStudentResponse, error)
	List(ctx context.Context, req *dto.TPStudentListRequest) ([]dto.TPStudentResponse, int64, error)
	ListInvalidIndex(ctx context.Context) ([]dto.TPStudentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTPStudentRequest, callerID string) (*dto.TPStudentResponse, error)
	Delete(ctx context.Context, id, callerID string) error
}

type tpStudentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTPStudentService creates a TPStudentService
func NewTPStudentService(repo *repository.Repository, logger *zap.Logger) TPStudentService {
	return &tpStudentService{repo: repo, logger: logger}
}

// Create adds a student to the active period
func (s *tpStudentService) Create(ctx context.Context, req *dto.CreateTPStudentRequest, callerID string) (*dto.TPStudentResponse, error) {
	period, err := requireActivePeriod(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	if err := s.checkSpecialization(ctx, req.SpecializationID); err != nil {
		return nil, err
	}

	st := &model.TPStudent{
		FullName:         normalizeName(req.FullName),
		Sex:              normalizeSex(req.Sex),
		Index:            strings.ToUpper(strings.TrimSpace(req.Index)),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Department:       req.Department,
		SpecializationID: req.SpecializationID,
		PeriodID:         &period.PeriodID,
	}
	st.Stamp(callerID)

	if err := s.repo.TPStudent.Create(ctx, st); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrTPIndexExists
		}
		s.logger.Error("failed to create tp student", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditCreate, "tp_student", st.TPStudentID, st.Index, req)
	return s.GetByID(ctx, st.TPStudentID)
}

func (s *tpStudentService) GetByID(ctx context.Context, id string) (*dto.TPStudentResponse, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTPStudentResponse(st), nil
}

func (s *tpStudentService) List(ctx context.Context, req *dto.TPStudentListRequest) ([]dto.TPStudentResponse, int64, error) {
	filter := repository.TPStudentFilter{
		SpecializationID: req.SpecializationID,
		PeriodID:         req.PeriodID,
		Department:       req.Department,
		Search:           req.Keyword,
	}
	students, total, err := s.repo.TPStudent.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list tp students", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.TPStudentResponse, 0, len(students))
	for i := range students {
		out = append(out, *toTPStudentResponse(&students[i]))
	}
	return out, total, nil
}

// ListInvalidIndex diploma students whose index is not TA plus nine characters
func (s *tpStudentService) ListInvalidIndex(ctx context.Context) ([]dto.TPStudentResponse, error) {
	students, err := s.repo.TPStudent.ListInvalidIndex(ctx)
	if err != nil {
		s.logger.Error("failed to list invalid tp indexes", zap.Error(err))
		return nil, err
	}
	out := make([]dto.TPStudentResponse, 0, len(students))
	for i := range students {
		out = append(out, *toTPStudentResponse(&students[i]))
	}
	return out, nil
}

func (s *tpStudentService) Update(ctx context.Context, id string, req *dto.UpdateTPStudentRequest, callerID string) (*dto.TPStudentResponse, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		st.FullName = normalizeName(*req.FullName)
	}
	if req.Sex != nil {
		st.Sex = normalizeSex(*req.Sex)
	}
	if req.Index != nil {
		st.Index = strings.ToUpper(strings.TrimSpace(*req.Index))
	}
	if req.Email != nil {
		st.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Department != nil {
		st.Department = req.Department
	}
	if req.SpecializationID != nil {
		if err := s.checkSpecialization(ctx, req.SpecializationID); err != nil {
			return nil, err
		}
		st.SpecializationID = req.SpecializationID
	}
	st.Stamp(callerID)

	if err := s.repo.TPStudent.Update(ctx, st); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrTPIndexExists
		}
		s.logger.Error("failed to update tp student", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditChange, "tp_student", id, st.Index, req)
	return s.GetByID(ctx, id)
}

func (s *tpStudentService) Delete(ctx context.Context, id, callerID string) error {
	st, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.TPStudent.Delete(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrTPStudentInUse
		}
		s.logger.Error("failed to delete tp student", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditDelete, "tp_student", id, st.Index, nil)
	return nil
}

func (s *tpStudentService) load(ctx context.Context, id string) (*model.TPStudent, error) {
	st, err := s.repo.TPStudent.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTPStudentNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *tpStudentService) checkSpecialization(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.Specialization.GetByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSpecializationNotFound
		}
		return err
	}
	return nil
}

func toTPStudentResponse(st *model.TPStudent) *dto.TPStudentResponse {
	resp := &dto.TPStudentResponse{
		ID:       st.TPStudentID,
		FullName: st.FullName,
		Sex:      st.Sex,
		Index:    st.Index,
		Email:    st.Email,
	}
	if st.Department != nil {
		resp.Department = *st.Department
	}
	if st.Specialization != nil {
		resp.Specialization = &dto.BriefResponse{ID: st.Specialization.SpecializationID, Code: st.Specialization.Code, Name: st.Specialization.Name}
	}
	if st.Period != nil {
		resp.Period = &dto.BriefResponse{ID: st.Period.PeriodID, Name: st.Period.Name}
	}
	return resp
}
