package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
)

// AuditService read side of the audit trail
type AuditService interface {
	List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService creates an AuditService
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error) {
	filter := repository.AuditLogFilter{
		UserID:   req.UserID,
		Entity:   req.Entity,
		EntityID: req.EntityID,
		Action:   req.Action,
	}
	logs, total, err := s.repo.AuditLog.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list audit logs", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		list = append(list, toAuditLogResponse(&logs[i]))
	}
	return list, total, nil
}

func toAuditLogResponse(l *model.AuditLog) dto.AuditLogResponse {
	resp := dto.AuditLogResponse{
		ID:        l.AuditLogID,
		UserID:    l.UserID,
		Action:    l.Action,
		Entity:    l.Entity,
		EntityID:  l.EntityID,
		Summary:   l.Summary,
		CreatedAt: dto.Timestamp(l.CreatedAt),
	}
	if len(l.Changes) > 0 {
		var changes interface{}
		if err := json.Unmarshal(l.Changes, &changes); err == nil {
			resp.Changes = changes
		}
	}
	return resp
}
