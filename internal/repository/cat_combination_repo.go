package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// CatCombinationRepository cat combination data access
type CatCombinationRepository interface {
	Create(ctx context.Context, combo *model.CatCombination) error
	GetByID(ctx context.Context, id string) (*model.CatCombination, error)
	GetByPaper(ctx context.Context, paperID string) (*model.CatCombination, error)
	List(ctx context.Context, specializationIDs []string, offset, limit int) ([]model.CatCombination, int64, error)
	ReplaceModules(ctx context.Context, comboID string, modules []model.CatCombinationModule) error
	ListAssignments(ctx context.Context, moduleIDs []string) ([]model.CatCombinationModule, error)
	Delete(ctx context.Context, id string) error
}

type catCombinationRepo struct {
	db *gorm.DB
}

// NewCatCombinationRepo creates a CatCombinationRepository
func NewCatCombinationRepo(db *gorm.DB) CatCombinationRepository {
	return &catCombinationRepo{db: db}
}

func (r *catCombinationRepo) Create(ctx context.Context, combo *model.CatCombination) error {
	return r.db.WithContext(ctx).Omit("Paper", "Modules.Module").Create(combo).Error
}

func (r *catCombinationRepo) GetByID(ctx context.Context, id string) (*model.CatCombination, error) {
	var combo model.CatCombination
	err := r.db.WithContext(ctx).
		Preload("Paper").
		Preload("Modules.Module").
		Where("cat_combination_id = ?", id).
		First(&combo).Error
	if err != nil {
		return nil, err
	}
	return &combo, nil
}

func (r *catCombinationRepo) GetByPaper(ctx context.Context, paperID string) (*model.CatCombination, error) {
	var combo model.CatCombination
	err := r.db.WithContext(ctx).
		Preload("Paper").
		Preload("Modules.Module").
		Where("paper_id = ?", paperID).
		First(&combo).Error
	if err != nil {
		return nil, err
	}
	return &combo, nil
}

// List returns combinations, restricted to papers of specializationIDs when non-nil
func (r *catCombinationRepo) List(ctx context.Context, specializationIDs []string, offset, limit int) ([]model.CatCombination, int64, error) {
	var combos []model.CatCombination
	var total int64

	db := r.db.WithContext(ctx).Model(&model.CatCombination{})
	if specializationIDs != nil {
		db = db.Where("paper_id IN (?)",
			r.db.Model(&model.Paper{}).Select("paper_id").Where("specialization_id IN ?", nonEmpty(specializationIDs)))
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Paper").
		Preload("Modules.Module").
		Order("created_at DESC").
		Find(&combos).Error; err != nil {
		return nil, 0, err
	}
	return combos, total, nil
}

// ReplaceModules swaps the bucket assignment of a combination
func (r *catCombinationRepo) ReplaceModules(ctx context.Context, comboID string, modules []model.CatCombinationModule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cat_combination_id = ?", comboID).
			Delete(&model.CatCombinationModule{}).Error; err != nil {
			return err
		}
		if len(modules) > 0 {
			if err := tx.Omit("Module").Create(&modules).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAssignments existing bucket rows for any of moduleIDs
func (r *catCombinationRepo) ListAssignments(ctx context.Context, moduleIDs []string) ([]model.CatCombinationModule, error) {
	var rows []model.CatCombinationModule
	if len(moduleIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("module_id IN ?", moduleIDs).
		Find(&rows).Error
	return rows, err
}

func (r *catCombinationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("cat_combination_id = ?", id).
		Delete(&model.CatCombination{}).Error
}
