package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// ZonalLeaderRepository zonal leader data access
type ZonalLeaderRepository interface {
	Create(ctx context.Context, leader *model.ZonalLeader) error
	GetByID(ctx context.Context, id string) (*model.ZonalLeader, error)
	List(ctx context.Context, zone, assessorID string) ([]model.ZonalLeader, error)
	Update(ctx context.Context, leader *model.ZonalLeader) error
	Delete(ctx context.Context, id string) error
	ZonesByAssessor(ctx context.Context, assessorID string) ([]string, error)
}

type zonalLeaderRepo struct {
	db *gorm.DB
}

// NewZonalLeaderRepo creates a ZonalLeaderRepository
func NewZonalLeaderRepo(db *gorm.DB) ZonalLeaderRepository {
	return &zonalLeaderRepo{db: db}
}

func (r *zonalLeaderRepo) Create(ctx context.Context, leader *model.ZonalLeader) error {
	return r.db.WithContext(ctx).Omit("Assessor").Create(leader).Error
}

func (r *zonalLeaderRepo) GetByID(ctx context.Context, id string) (*model.ZonalLeader, error) {
	var leader model.ZonalLeader
	err := r.db.WithContext(ctx).
		Preload("Assessor").
		Where("zonal_leader_id = ?", id).
		First(&leader).Error
	if err != nil {
		return nil, err
	}
	return &leader, nil
}

func (r *zonalLeaderRepo) List(ctx context.Context, zone, assessorID string) ([]model.ZonalLeader, error) {
	var leaders []model.ZonalLeader
	db := r.db.WithContext(ctx).Model(&model.ZonalLeader{})
	if zone != "" {
		db = db.Where("zone_name = ?", zone)
	}
	if assessorID != "" {
		db = db.Where("assessor_id = ?", assessorID)
	}
	err := db.Preload("Assessor").
		Order("zone_name ASC").
		Find(&leaders).Error
	return leaders, err
}

func (r *zonalLeaderRepo) Update(ctx context.Context, leader *model.ZonalLeader) error {
	return r.db.WithContext(ctx).Omit("Assessor").Save(leader).Error
}

func (r *zonalLeaderRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("zonal_leader_id = ?", id).
		Delete(&model.ZonalLeader{}).Error
}

func (r *zonalLeaderRepo) ZonesByAssessor(ctx context.Context, assessorID string) ([]string, error) {
	var zones []string
	err := r.db.WithContext(ctx).
		Model(&model.ZonalLeader{}).
		Where("assessor_id = ?", assessorID).
		Pluck("zone_name", &zones).Error
	return zones, err
}
