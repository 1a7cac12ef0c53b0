package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	pkgerrors "github.com/Koomefranklin/kise-results-backend/pkg/errors"
)

var (
	ErrCatCombinationNotFound = errors.New("paper has no CAT combination")
	ErrCatCombinationExists   = errors.New("paper already has a CAT combination")
	ErrModuleNotInPaper       = errors.New("module does not belong to the paper")
	ErrModuleInBothBuckets    = errors.New("module cannot be in both CAT buckets")
	ErrModuleAlreadyAssigned  = errors.New("module is already assigned to a CAT")
)

// CatCombinationService CAT bucket assignment of paper modules
type CatCombinationService interface {
	Create(ctx context.Context, req *dto.CatCombinationRequest, caller Caller) (*dto.CatCombinationResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.CatCombinationResponse, error)
	GetByPaper(ctx context.Context, paperID string, caller Caller) (*dto.CatCombinationResponse, error)
	List(ctx context.Context, req *dto.PaginationRequest, caller Caller) ([]dto.CatCombinationResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateCatCombinationRequest, caller Caller) (*dto.CatCombinationResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
	AvailableModules(ctx context.Context, paperID string, caller Caller) ([]dto.BriefResponse, error)
}

type catCombinationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatCombinationService creates a CatCombinationService
func NewCatCombinationService(repo *repository.Repository, logger *zap.Logger) CatCombinationService {
	return &catCombinationService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *catCombinationService) Create(ctx context.Context, req *dto.CatCombinationRequest, caller Caller) (*dto.CatCombinationResponse, error) {
	paper, err := loadPaper(ctx, s.repo, req.PaperID)
	if err != nil {
		return nil, err
	}
	if !caller.canWriteSpecialization(paper.SpecializationID) {
		return nil, ErrNoPermission
	}

	if _, err := s.repo.CatCombination.GetByPaper(ctx, paper.PaperID); err == nil {
		return nil, ErrCatCombinationExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rows, err := s.buckets(ctx, paper.PaperID, "", req.Cat1, req.Cat2)
	if err != nil {
		return nil, err
	}

	combo := &model.CatCombination{PaperID: paper.PaperID, Modules: rows}
	combo.Stamp(caller.UserID)
	if err := s.repo.CatCombination.Create(ctx, combo); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrCatCombinationExists
		}
		s.logger.Error("failed to create cat combination", zap.String("paper_id", paper.PaperID), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, combo.CatCombinationID)
}

// ────────────────────── Get / List ──────────────────────

func (s *catCombinationService) GetByID(ctx context.Context, id string, caller Caller) (*dto.CatCombinationResponse, error) {
	combo, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if combo.Paper != nil && !caller.canReadSpecialization(combo.Paper.SpecializationID) {
		return nil, ErrNoPermission
	}
	return toCatCombinationResponse(combo), nil
}

func (s *catCombinationService) GetByPaper(ctx context.Context, paperID string, caller Caller) (*dto.CatCombinationResponse, error) {
	paper, err := loadPaper(ctx, s.repo, paperID)
	if err != nil {
		return nil, err
	}
	if !caller.canReadSpecialization(paper.SpecializationID) {
		return nil, ErrNoPermission
	}
	combo, err := s.repo.CatCombination.GetByPaper(ctx, paperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatCombinationNotFound
		}
		return nil, err
	}
	return toCatCombinationResponse(combo), nil
}

func (s *catCombinationService) List(ctx context.Context, req *dto.PaginationRequest, caller Caller) ([]dto.CatCombinationResponse, int64, error) {
	combos, total, err := s.repo.CatCombination.List(ctx, caller.specializationScope(), req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list cat combinations", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.CatCombinationResponse, 0, len(combos))
	for i := range combos {
		out = append(out, *toCatCombinationResponse(&combos[i]))
	}
	return out, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *catCombinationService) Update(ctx context.Context, id string, req *dto.UpdateCatCombinationRequest, caller Caller) (*dto.CatCombinationResponse, error) {
	combo, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if combo.Paper == nil || !caller.canWriteSpecialization(combo.Paper.SpecializationID) {
		return nil, ErrNoPermission
	}

	rows, err := s.buckets(ctx, combo.PaperID, combo.CatCombinationID, req.Cat1, req.Cat2)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CatCombination.ReplaceModules(ctx, combo.CatCombinationID, rows); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrModuleAlreadyAssigned
		}
		s.logger.Error("failed to update cat combination", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *catCombinationService) Delete(ctx context.Context, id string, caller Caller) error {
	combo, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if combo.Paper == nil || !caller.canWriteSpecialization(combo.Paper.SpecializationID) {
		return ErrNoPermission
	}
	if err := s.repo.CatCombination.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete cat combination", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AvailableModules ──────────────────────

// AvailableModules paper modules not yet placed in any bucket
func (s *catCombinationService) AvailableModules(ctx context.Context, paperID string, caller Caller) ([]dto.BriefResponse, error) {
	paper, err := loadPaper(ctx, s.repo, paperID)
	if err != nil {
		return nil, err
	}
	if !caller.canReadSpecialization(paper.SpecializationID) {
		return nil, ErrNoPermission
	}

	modules, err := s.repo.Module.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ModuleID)
	}
	assigned, err := s.repo.CatCombination.ListAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(assigned))
	for _, a := range assigned {
		taken[a.ModuleID] = true
	}

	out := make([]dto.BriefResponse, 0, len(modules))
	for _, m := range modules {
		if !taken[m.ModuleID] {
			out = append(out, dto.BriefResponse{ID: m.ModuleID, Code: m.Code, Name: m.Name})
		}
	}
	return out, nil
}

// ────────────────────── helpers ──────────────────────

// buckets validates cat1 / cat2 and returns the assignment rows. comboID is
// the combination being edited, whose own rows do not count as taken.
func (s *catCombinationService) buckets(ctx context.Context, paperID, comboID string, cat1, cat2 []string) ([]model.CatCombinationModule, error) {
	modules, err := s.repo.Module.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	inPaper := make(map[string]bool, len(modules))
	for _, m := range modules {
		inPaper[m.ModuleID] = true
	}

	bucketOf := make(map[string]string)
	var rows []model.CatCombinationModule
	var ids []string
	add := func(cat string, list []string) error {
		for _, id := range list {
			if !inPaper[id] {
				return fmt.Errorf("%w: %s", ErrModuleNotInPaper, id)
			}
			if prev, ok := bucketOf[id]; ok {
				if prev != cat {
					return ErrModuleInBothBuckets
				}
				continue
			}
			bucketOf[id] = cat
			ids = append(ids, id)
			rows = append(rows, model.CatCombinationModule{CatCombinationID: comboID, ModuleID: id, Cat: cat})
		}
		return nil
	}
	if err := add(model.Cat1, cat1); err != nil {
		return nil, err
	}
	if err := add(model.Cat2, cat2); err != nil {
		return nil, err
	}

	existing, err := s.repo.CatCombination.ListAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.CatCombinationID != comboID {
			return nil, fmt.Errorf("%w: %s", ErrModuleAlreadyAssigned, e.ModuleID)
		}
	}
	return rows, nil
}

func (s *catCombinationService) get(ctx context.Context, id string) (*model.CatCombination, error) {
	combo, err := s.repo.CatCombination.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatCombinationNotFound
		}
		s.logger.Error("failed to load cat combination", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return combo, nil
}

func (s *catCombinationService) reload(ctx context.Context, id string) (*dto.CatCombinationResponse, error) {
	combo, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCatCombinationResponse(combo), nil
}

func toCatCombinationResponse(c *model.CatCombination) *dto.CatCombinationResponse {
	out := &dto.CatCombinationResponse{
		ID:        c.CatCombinationID,
		Cat1:      []dto.BriefResponse{},
		Cat2:      []dto.BriefResponse{},
		CreatedAt: dto.Timestamp(c.CreatedAt),
	}
	if c.Paper != nil {
		out.Paper = &dto.BriefResponse{ID: c.Paper.PaperID, Code: c.Paper.Code, Name: c.Paper.Name}
	}
	for _, m := range c.Modules {
		b := dto.BriefResponse{ID: m.ModuleID}
		if m.Module != nil {
			b.Code, b.Name = m.Module.Code, m.Module.Name
		}
		if m.Cat == model.Cat2 {
			out.Cat2 = append(out.Cat2, b)
		} else {
			out.Cat1 = append(out.Cat1, b)
		}
	}
	return out
}
