package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// ResultFilter result list filters
type ResultFilter struct {
	PaperID           string
	StudentID         string
	SpecializationID  string
	SpecializationIDs []string // nil: no restriction
}

// ResultRepository result data access
type ResultRepository interface {
	// Upsert writes only the given cat column when (student, paper) exists
	Upsert(ctx context.Context, result *model.Result, cat string) error
	List(ctx context.Context, filter ResultFilter, offset, limit int) ([]model.Result, int64, error)
}

type resultRepo struct {
	db *gorm.DB
}

// NewResultRepo creates a ResultRepository
func NewResultRepo(db *gorm.DB) ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) Upsert(ctx context.Context, result *model.Result, cat string) error {
	if cat != model.Cat1 && cat != model.Cat2 {
		return fmt.Errorf("unknown cat %q", cat)
	}
	return r.db.WithContext(ctx).
		Omit("Student", "Paper").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "paper_id"}},
			DoUpdates: clause.AssignmentColumns([]string{cat, "updated_by", "updated_at"}),
		}).
		Create(result).Error
}

func (r *resultRepo) List(ctx context.Context, filter ResultFilter, offset, limit int) ([]model.Result, int64, error) {
	var results []model.Result
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Result{})
	if filter.SpecializationIDs != nil {
		db = db.Where("student_id IN (?)",
			r.db.Model(&model.Student{}).Select("student_id").Where("specialization_id IN ?", nonEmpty(filter.SpecializationIDs)))
	}
	if filter.SpecializationID != "" {
		db = db.Where("paper_id IN (?)",
			r.db.Model(&model.Paper{}).Select("paper_id").Where("specialization_id = ?", filter.SpecializationID))
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
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
