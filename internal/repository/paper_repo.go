package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// PaperFilter paper list filters
type PaperFilter struct {
	SpecializationID string
	Search           string
	// SpecializationIDs restricts to these specializations when non-nil
	SpecializationIDs []string
}

// PaperRepository paper data access
type PaperRepository interface {
	Create(ctx context.Context, paper *model.Paper) error
	GetByID(ctx context.Context, id string) (*model.Paper, error)
	GetByCode(ctx context.Context, code string) (*model.Paper, error)
	List(ctx context.Context, filter PaperFilter, offset, limit int) ([]model.Paper, int64, error)
	Update(ctx context.Context, paper *model.Paper) error
	Delete(ctx context.Context, id string) error
}

type paperRepo struct {
	db *gorm.DB
}

// NewPaperRepo creates a PaperRepository
func NewPaperRepo(db *gorm.DB) PaperRepository {
	return &paperRepo{db: db}
}

func (r *paperRepo) Create(ctx context.Context, paper *model.Paper) error {
	return r.db.WithContext(ctx).Omit("Specialization").Create(paper).Error
}

func (r *paperRepo) GetByID(ctx context.Context, id string) (*model.Paper, error) {
	var paper model.Paper
	err := r.db.WithContext(ctx).
		Preload("Specialization").
		Where("paper_id = ?", id).
		First(&paper).Error
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

func (r *paperRepo) GetByCode(ctx context.Context, code string) (*model.Paper, error) {
	var paper model.Paper
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&paper).Error
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

func (r *paperRepo) List(ctx context.Context, filter PaperFilter, offset, limit int) ([]model.Paper, int64, error) {
	var papers []model.Paper
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Paper{})
	if filter.SpecializationIDs != nil {
		db = db.Where("specialization_id IN ?", nonEmpty(filter.SpecializationIDs))
	}
	if filter.SpecializationID != "" {
		db = db.Where("specialization_id = ?", filter.SpecializationID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where("code ILIKE ? OR name ILIKE ?", p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Specialization").
		Order("code ASC").
		Find(&papers).Error; err != nil {
		return nil, 0, err
	}
	return papers, total, nil
}

func (r *paperRepo) Update(ctx context.Context, paper *model.Paper) error {
	return r.db.WithContext(ctx).Omit("Specialization").Save(paper).Error
}

func (r *paperRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("paper_id = ?", id).
		Delete(&model.Paper{}).Error
}
