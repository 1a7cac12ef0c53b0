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
	ErrZonalLeaderNotFound = errors.New("zonal leader not found")
	ErrZonalLeaderExists   = errors.New("this assessor already leads this zone")
	ErrZonalLeaderRole     = errors.New("zonal leaders must be lecturers")
)

// ZonalLeaderService delegation of zone review to lecturers. TP admins write.
type ZonalLeaderService interface {
	Create(ctx context.Context, req *dto.ZonalLeaderRequest, caller Caller) (*dto.ZonalLeaderResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ZonalLeaderResponse, error)
	List(ctx context.Context, zone, assessorID string) ([]dto.ZonalLeaderResponse, error)
	Update(ctx context.Context, id string, req *dto.ZonalLeaderRequest, caller Caller) (*dto.ZonalLeaderResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
}

type zonalLeaderService struct {
	repo   *repository.Repository
	tp     *TPAccess
	logger *zap.Logger
}

// NewZonalLeaderService creates a ZonalLeaderService
func NewZonalLeaderService(repo *repository.Repository, tp *TPAccess, logger *zap.Logger) ZonalLeaderService {
	return &zonalLeaderService{repo: repo, tp: tp, logger: logger}
}

func (s *zonalLeaderService) Create(ctx context.Context, req *dto.ZonalLeaderRequest, caller Caller) (*dto.ZonalLeaderResponse, error) {
	if err := s.requireTPAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if err := s.checkAssessor(ctx, req.AssessorID); err != nil {
		return nil, err
	}

	leader := &model.ZonalLeader{ZoneName: strings.TrimSpace(req.ZoneName), AssessorID: req.AssessorID}
	leader.Stamp(caller.UserID)
	if err := s.repo.ZonalLeader.Create(ctx, leader); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrZonalLeaderExists
		}
		s.logger.Error("failed to create zonal leader", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditCreate, "tp_zonal_leader", leader.ZonalLeaderID, leader.ZoneName, req)
	return s.GetByID(ctx, leader.ZonalLeaderID)
}

func (s *zonalLeaderService) GetByID(ctx context.Context, id string) (*dto.ZonalLeaderResponse, error) {
	leader, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toZonalLeaderResponse(leader), nil
}

func (s *zonalLeaderService) List(ctx context.Context, zone, assessorID string) ([]dto.ZonalLeaderResponse, error) {
	leaders, err := s.repo.ZonalLeader.List(ctx, zone, assessorID)
	if err != nil {
		s.logger.Error("failed to list zonal leaders", zap.Error(err))
		return nil, err
	}
	out := make([]dto.ZonalLeaderResponse, 0, len(leaders))
	for i := range leaders {
		out = append(out, *toZonalLeaderResponse(&leaders[i]))
	}
	return out, nil
}

func (s *zonalLeaderService) Update(ctx context.Context, id string, req *dto.ZonalLeaderRequest, caller Caller) (*dto.ZonalLeaderResponse, error) {
	if err := s.requireTPAdmin(ctx, caller); err != nil {
		return nil, err
	}
	leader, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AssessorID != leader.AssessorID {
		if err := s.checkAssessor(ctx, req.AssessorID); err != nil {
			return nil, err
		}
	}

	leader.ZoneName = strings.TrimSpace(req.ZoneName)
	leader.AssessorID = req.AssessorID
	leader.Stamp(caller.UserID)
	if err := s.repo.ZonalLeader.Update(ctx, leader); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrZonalLeaderExists
		}
		s.logger.Error("failed to update zonal leader", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_zonal_leader", id, leader.ZoneName, req)
	return s.GetByID(ctx, id)
}

func (s *zonalLeaderService) Delete(ctx context.Context, id string, caller Caller) error {
	if err := s.requireTPAdmin(ctx, caller); err != nil {
		return err
	}
	leader, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.ZonalLeader.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete zonal leader", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditDelete, "tp_zonal_leader", id, leader.ZoneName, nil)
	return nil
}

func (s *zonalLeaderService) requireTPAdmin(ctx context.Context, caller Caller) error {
	ok, err := s.tp.IsTPAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPermission
	}
	return nil
}

func (s *zonalLeaderService) checkAssessor(ctx context.Context, userID string) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Role != model.RoleLecturer && user.Role != model.RoleAdmin {
		return ErrZonalLeaderRole
	}
	return nil
}

func (s *zonalLeaderService) load(ctx context.Context, id string) (*model.ZonalLeader, error) {
	leader, err := s.repo.ZonalLeader.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrZonalLeaderNotFound
		}
		return nil, err
	}
	return leader, nil
}

func toZonalLeaderResponse(l *model.ZonalLeader) *dto.ZonalLeaderResponse {
	resp := &dto.ZonalLeaderResponse{ID: l.ZonalLeaderID, ZoneName: l.ZoneName}
	if l.Assessor != nil {
		resp.Assessor = &dto.BriefResponse{ID: l.Assessor.UserID, Code: l.Assessor.Username, Name: l.Assessor.FullName()}
	}
	return resp
}
