package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	pkgerrors "github.com/Koomefranklin/kise-results-backend/pkg/errors"
)

var (
	ErrUnknownDeadline = errors.New("unknown deadline")
	ErrInvalidDeadline = errors.New("deadline must be an RFC3339 timestamp")
	ErrDeadlinePassed  = pkgerrors.ErrDeadlinePassed
)

// DeadlineService score entry deadlines
type DeadlineService interface {
	Set(ctx context.Context, name string, req *dto.SetDeadlineRequest, callerID string) (*dto.DeadlineResponse, error)
	List(ctx context.Context) ([]dto.DeadlineResponse, error)
	// Check fails with ErrDeadlinePassed when any named deadline is over.
	// Admins are never blocked; a deadline that was never set is open.
	Check(ctx context.Context, caller Caller, names ...string) error
}

type deadlineService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDeadlineService creates a DeadlineService
func NewDeadlineService(repo *repository.Repository, logger *zap.Logger) DeadlineService {
	return &deadlineService{repo: repo, logger: logger}
}

func (s *deadlineService) Set(ctx context.Context, name string, req *dto.SetDeadlineRequest, callerID string) (*dto.DeadlineResponse, error) {
	if !knownDeadline(name) {
		return nil, ErrUnknownDeadline
	}
	at, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return nil, ErrInvalidDeadline
	}

	d := &model.Deadline{Name: name, Deadline: at}
	d.Stamp(callerID)
	if err := s.repo.Deadline.Upsert(ctx, d); err != nil {
		s.logger.Error("failed to save deadline", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditChange, "deadline", name, "deadline set", map[string]string{"deadline": dto.Timestamp(at)})

	return toDeadlineResponse(name, d), nil
}

func (s *deadlineService) List(ctx context.Context) ([]dto.DeadlineResponse, error) {
	rows, err := s.repo.Deadline.List(ctx)
	if err != nil {
		s.logger.Error("failed to list deadlines", zap.Error(err))
		return nil, err
	}
	byName := make(map[string]*model.Deadline, len(rows))
	for i := range rows {
		byName[rows[i].Name] = &rows[i]
	}

	out := make([]dto.DeadlineResponse, 0, len(model.DeadlineNames))
	for _, name := range model.DeadlineNames {
		out = append(out, *toDeadlineResponse(name, byName[name]))
	}
	return out, nil
}

func (s *deadlineService) Check(ctx context.Context, caller Caller, names ...string) error {
	if caller.IsAdmin() {
		return nil
	}
	now := timeNow()
	for _, name := range names {
		d, err := s.repo.Deadline.Get(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			s.logger.Error("failed to load deadline", zap.String("name", name), zap.Error(err))
			return err
		}
		if !d.IsOpen(now) {
			return fmt.Errorf("%w: %s closed at %s", ErrDeadlinePassed, name, dto.Timestamp(d.Deadline))
		}
	}
	return nil
}

func knownDeadline(name string) bool {
	for _, n := range model.DeadlineNames {
		if n == name {
			return true
		}
	}
	return false
}

func toDeadlineResponse(name string, d *model.Deadline) *dto.DeadlineResponse {
	if d == nil {
		return &dto.DeadlineResponse{Name: name, IsOpen: true}
	}
	return &dto.DeadlineResponse{
		Name:     name,
		Deadline: dto.Timestamp(d.Deadline),
		IsOpen:   d.IsOpen(timeNow()),
	}
}
