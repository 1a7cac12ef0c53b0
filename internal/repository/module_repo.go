package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// ModuleFilter module list filters
type ModuleFilter struct {
	PaperID           string
	Search            string
	SpecializationIDs []string // nil: no restriction
}

// ModuleRepository module data access
type ModuleRepository interface {
	Create(ctx context.Context, module *model.Module) error
	GetByID(ctx context.Context, id string) (*model.Module, error)
	GetByCode(ctx context.Context, code string) (*model.Module, error)
	List(ctx context.Context, filter ModuleFilter, offset, limit int) ([]model.Module, int64, error)
	ListByPaper(ctx context.Context, paperID string) ([]model.Module, error)
	Update(ctx context.Context, module *model.Module) error
	Delete(ctx context.Context, id string) error
}

type moduleRepo struct {
	db *gorm.DB
}

// NewModuleRepo creates a ModuleRepository
func NewModuleRepo(db *gorm.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) Create(ctx context.Context, module *model.Module) error {
	return r.db.WithContext(ctx).Omit("Paper").Create(module).Error
}

func (r *moduleRepo) GetByID(ctx context.Context, id string) (*model.Module, error) {
	var module model.Module
	err := r.db.WithContext(ctx).
		Preload("Paper").
		Where("module_id = ?", id).
		First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepo) GetByCode(ctx context.Context, code string) (*model.Module, error) {
	var module model.Module
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepo) List(ctx context.Context, filter ModuleFilter, offset, limit int) ([]model.Module, int64, error) {
	var modules []model.Module
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Module{})
	if filter.SpecializationIDs != nil {
		db = db.Where("paper_id IN (?)",
			r.db.Model(&model.Paper{}).Select("paper_id").Where("specialization_id IN ?", nonEmpty(filter.SpecializationIDs)))
	}
	if filter.PaperID != "" {
		db = db.Where("paper_id = ?", filter.PaperID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where("code ILIKE ? OR name ILIKE ?", p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Paper").
		Order("code ASC").
		Find(&modules).Error; err != nil {
		return nil, 0, err
	}
	return modules, total, nil
}

func (r *moduleRepo) ListByPaper(ctx context.Context, paperID string) ([]model.Module, error) {
	var modules []model.Module
	err := r.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Order("code ASC").
		Find(&modules).Error
	return modules, err
}

func (r *moduleRepo) Update(ctx context.Context, module *model.Module) error {
	return r.db.WithContext(ctx).Omit("Paper").Save(module).Error
}

func (r *moduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("module_id = ?", id).
		Delete(&model.Module{}).Error
}
