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
	ErrPeriodNotFound   = errors.New("teaching practice period not found")
	ErrPeriodNameExists = errors.New("a period with this name already exists")
	ErrPeriodInUse      = errors.New("period still has students or letters")
	ErrNoActivePeriod   = errors.New("there is no active teaching practice period")
)

// PeriodService teaching practice periods. At most one period is active.
type PeriodService interface {
	Create(ctx context.Context, req *dto.PeriodRequest, callerID string) (*dto.PeriodResponse, error)
	List(ctx context.Context) ([]dto.PeriodResponse, error)
	GetActive(ctx context.Context) (*dto.PeriodResponse, error)
	Update(ctx context.Context, id string, req *dto.PeriodRequest, callerID string) (*dto.PeriodResponse, error)
	Delete(ctx context.Context, id, callerID string) error
}

type periodService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPeriodService creates a PeriodService
func NewPeriodService(repo *repository.Repository, logger *zap.Logger) PeriodService {
	return &periodService{repo: repo, logger: logger}
}

func (s *periodService) Create(ctx context.Context, req *dto.PeriodRequest, callerID string) (*dto.PeriodResponse, error) {
	period := &model.Period{Name: strings.TrimSpace(req.Name), IsActive: req.IsActive}
	period.Stamp(callerID)

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if period.IsActive {
			if err := txRepo.Period.ClearActive(ctx); err != nil {
				return err
			}
		}
		return txRepo.Period.Create(ctx, period)
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrPeriodNameExists
		}
		s.logger.Error("failed to create period", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditCreate, "tp_period", period.PeriodID, period.Name, req)
	return toPeriodResponse(period), nil
}

func (s *periodService) List(ctx context.Context) ([]dto.PeriodResponse, error) {
	periods, err := s.repo.Period.List(ctx)
	if err != nil {
		s.logger.Error("failed to list periods", zap.Error(err))
		return nil, err
	}
	out := make([]dto.PeriodResponse, 0, len(periods))
	for i := range periods {
		out = append(out, *toPeriodResponse(&periods[i]))
	}
	return out, nil
}

func (s *periodService) GetActive(ctx context.Context) (*dto.PeriodResponse, error) {
	period, err := requireActivePeriod(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	return toPeriodResponse(period), nil
}

func (s *periodService) Update(ctx context.Context, id string, req *dto.PeriodRequest, callerID string) (*dto.PeriodResponse, error) {
	period, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, err
	}

	activating := req.IsActive && !period.IsActive
	period.Name = strings.TrimSpace(req.Name)
	period.IsActive = req.IsActive
	period.Stamp(callerID)

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if activating {
			if err := txRepo.Period.ClearActive(ctx); err != nil {
				return err
			}
		}
		return txRepo.Period.Update(ctx, period)
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrPeriodNameExists
		}
		s.logger.Error("failed to update period", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditChange, "tp_period", period.PeriodID, period.Name, req)
	return toPeriodResponse(period), nil
}

func (s *periodService) Delete(ctx context.Context, id, callerID string) error {
	period, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPeriodNotFound
		}
		return err
	}
	if err := s.repo.Period.Delete(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrPeriodInUse
		}
		s.logger.Error("failed to delete period", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditDelete, "tp_period", id, period.Name, nil)
	return nil
}

// requireActivePeriod returns the active period or ErrNoActivePeriod
func requireActivePeriod(ctx context.Context, repo *repository.Repository) (*model.Period, error) {
	period, err := repo.Period.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePeriod
		}
		return nil, err
	}
	return period, nil
}

func toPeriodResponse(p *model.Period) *dto.PeriodResponse {
	return &dto.PeriodResponse{
		ID:        p.PeriodID,
		Name:      p.Name,
		IsActive:  p.IsActive,
		CreatedAt: dto.Timestamp(p.CreatedAt),
	}
}
