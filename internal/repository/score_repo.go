package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// ScoreFilter filters shared by module score and sit-in lists
type ScoreFilter struct {
	PaperID           string
	ModuleID          string
	StudentID         string
	SpecializationIDs []string // nil: no restriction
}

// ModuleScoreRepository module score data access
type ModuleScoreRepository interface {
	Create(ctx context.Context, score *model.ModuleScore) error
	GetByID(ctx context.Context, id string) (*model.ModuleScore, error)
	List(ctx context.Context, filter ScoreFilter, offset, limit int) ([]model.ModuleScore, int64, error)
	ListByModules(ctx context.Context, moduleIDs []string) ([]model.ModuleScore, error)
	Update(ctx context.Context, score *model.ModuleScore) error
	Delete(ctx context.Context, id string) error
}

type moduleScoreRepo struct {
	db *gorm.DB
}

// NewModuleScoreRepo creates a ModuleScoreRepository
func NewModuleScoreRepo(db *gorm.DB) ModuleScoreRepository {
	return &moduleScoreRepo{db: db}
}

func (r *moduleScoreRepo) Create(ctx context.Context, score *model.ModuleScore) error {
	return r.db.WithContext(ctx).Omit("Student", "Module").Create(score).Error
}

func (r *moduleScoreRepo) GetByID(ctx context.Context, id string) (*model.ModuleScore, error) {
	var score model.ModuleScore
	err := r.db.WithContext(ctx).
		Preload("Student.User").
		Preload("Module.Paper").
		Where("module_score_id = ?", id).
		First(&score).Error
	if err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *moduleScoreRepo) List(ctx context.Context, filter ScoreFilter, offset, limit int) ([]model.ModuleScore, int64, error) {
	var scores []model.ModuleScore
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ModuleScore{})
	if filter.SpecializationIDs != nil {
		db = db.Where("student_id IN (?)",
			r.db.Model(&model.Student{}).Select("student_id").Where("specialization_id IN ?", nonEmpty(filter.SpecializationIDs)))
	}
	if filter.PaperID != "" {
		db = db.Where("module_id IN (?)",
			r.db.Model(&model.Module{}).Select("module_id").Where("paper_id = ?", filter.PaperID))
	}
	if filter.ModuleID != "" {
		db = db.Where("module_id = ?", filter.ModuleID)
	}
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Student.User").
		Preload("Module").
		Order("created_at DESC").
		Find(&scores).Error; err != nil {
		return nil, 0, err
	}
	return scores, total, nil
}

func (r *moduleScoreRepo) ListByModules(ctx context.Context, moduleIDs []string) ([]model.ModuleScore, error) {
	var scores []model.ModuleScore
	if len(moduleIDs) == 0 {
		return scores, nil
	}
	err := r.db.WithContext(ctx).
		Where("module_id IN ?", moduleIDs).
		Find(&scores).Error
	return scores, err
}

func (r *moduleScoreRepo) Update(ctx context.Context, score *model.ModuleScore) error {
	return r.db.WithContext(ctx).Omit("Student", "Module").Save(score).Error
}

func (r *moduleScoreRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("module_score_id = ?", id).
		Delete(&model.ModuleScore{}).Error
}

// SitinCatRepository sit-in CAT data access
type SitinCatRepository interface {
	Create(ctx context.Context, sitin *model.SitinCat) error
	GetByID(ctx context.Context, id string) (*model.SitinCat, error)
	List(ctx context.Context, filter ScoreFilter, offset, limit int) ([]model.SitinCat, int64, error)
	ListByPaper(ctx context.Context, paperID string) ([]model.SitinCat, error)
	Update(ctx context.Context, sitin *model.SitinCat) error
	Delete(ctx context.Context, id string) error
}

type sitinCatRepo struct {
	db *gorm.DB
}

// NewSitinCatRepo creates a SitinCatRepository
func NewSitinCatRepo(db *gorm.DB) SitinCatRepository {
	return &sitinCatRepo{db: db}
}

func (r *sitinCatRepo) Create(ctx context.Context, sitin *model.SitinCat) error {
	return r.db.WithContext(ctx).Omit("Student", "Paper").Create(sitin).Error
}

func (r *sitinCatRepo) GetByID(ctx context.Context, id string) (*model.SitinCat, error) {
	var sitin model.SitinCat
	err := r.db.WithContext(ctx).
		Preload("Student.User").
		Preload("Paper").
		Where("sitin_cat_id = ?", id).
		First(&sitin).Error
	if err != nil {
		return nil, err
	}
	return &sitin, nil
}

func (r *sitinCatRepo) List(ctx context.Context, filter ScoreFilter, offset, limit int) ([]model.SitinCat, int64, error) {
	var rows []model.SitinCat
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SitinCat{})
	if filter.SpecializationIDs != nil {
		db = db.Where("student_id IN (?)",
			r.db.Model(&model.Student{}).Select("student_id").Where("specialization_id IN ?", nonEmpty(filter.SpecializationIDs)))
	}
	if filter.PaperID != "" {
		db = db.Where("paper_id = ?", filter.PaperID)
	}
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Student.User").
		Preload("Paper").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *sitinCatRepo) ListByPaper(ctx context.Context, paperID string) ([]model.SitinCat, error) {
	var rows []model.SitinCat
	err := r.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Find(&rows).Error
	return rows, err
}

func (r *sitinCatRepo) Update(ctx context.Context, sitin *model.SitinCat) error {
	return r.db.WithContext(ctx).Omit("Student", "Paper").Save(sitin).Error
}

func (r *sitinCatRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("sitin_cat_id = ?", id).
		Delete(&model.SitinCat{}).Error
}
