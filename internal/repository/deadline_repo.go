package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// DeadlineRepository deadline data access
type DeadlineRepository interface {
	Get(ctx context.Context, name string) (*model.Deadline, error)
	List(ctx context.Context) ([]model.Deadline, error)
	Upsert(ctx context.Context, deadline *model.Deadline) error
}

type deadlineRepo struct {
	db *gorm.DB
}

// NewDeadlineRepo creates a DeadlineRepository
func NewDeadlineRepo(db *gorm.DB) DeadlineRepository {
	return &deadlineRepo{db: db}
}

func (r *deadlineRepo) Get(ctx context.Context, name string) (*model.Deadline, error) {
	var d model.Deadline
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deadlineRepo) List(ctx context.Context) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&deadlines).Error
	return deadlines, err
}

func (r *deadlineRepo) Upsert(ctx context.Context, deadline *model.Deadline) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"deadline", "updated_by", "updated_at"}),
		}).
		Create(deadline).Error
}
