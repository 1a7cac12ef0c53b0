package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// SpecializationFilter specialization list filters
type SpecializationFilter struct {
	CourseID string
	Mode     string
	Search   string
	// IDs restricts to these specializations when non-nil
	IDs []string
}

// SpecializationRepository specialization and HoD data access
type SpecializationRepository interface {
	Create(ctx context.Context, spec *model.Specialization) error
	GetByID(ctx context.Context, id string) (*model.Specialization, error)
	GetByCode(ctx context.Context, code string) (*model.Specialization, error)
	List(ctx context.Context, filter SpecializationFilter, offset, limit int) ([]model.Specialization, int64, error)
	Update(ctx context.Context, spec *model.Specialization) error
	Delete(ctx context.Context, id string) error

	SetHoD(ctx context.Context, hod *model.HeadOfDepartment) error
	ListHoDSpecializations(ctx context.Context, userID string) ([]string, error)
}

type specializationRepo struct {
	db *gorm.DB
}

// NewSpecializationRepo creates a SpecializationRepository
func NewSpecializationRepo(db *gorm.DB) SpecializationRepository {
	return &specializationRepo{db: db}
}

func (r *specializationRepo) Create(ctx context.Context, spec *model.Specialization) error {
	return r.db.WithContext(ctx).Omit("Course", "HoD").Create(spec).Error
}

func (r *specializationRepo) GetByID(ctx context.Context, id string) (*model.Specialization, error) {
	var spec model.Specialization
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("HoD.User").
		Where("specialization_id = ?", id).
		First(&spec).Error
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func (r *specializationRepo) GetByCode(ctx context.Context, code string) (*model.Specialization, error) {
	var spec model.Specialization
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("code = ?", code).
		First(&spec).Error
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

func (r *specializationRepo) List(ctx context.Context, filter SpecializationFilter, offset, limit int) ([]model.Specialization, int64, error) {
	var specs []model.Specialization
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Specialization{})
	if filter.IDs != nil {
		db = db.Where("specialization_id IN ?", nonEmpty(filter.IDs))
	}
	if filter.CourseID != "" {
		db = db.Where("course_id = ?", filter.CourseID)
	}
	if filter.Mode != "" {
		db = db.Where("mode = ?", filter.Mode)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where("code ILIKE ? OR name ILIKE ?", p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Course").
		Preload("HoD.User").
		Order("code ASC").
		Find(&specs).Error; err != nil {
		return nil, 0, err
	}
	return specs, total, nil
}

func (r *specializationRepo) Update(ctx context.Context, spec *model.Specialization) error {
	return r.db.WithContext(ctx).Omit("Course", "HoD").Save(spec).Error
}

func (r *specializationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("specialization_id = ?", id).
		Delete(&model.Specialization{}).Error
}

// SetHoD upserts the HoD row keyed by specialization
func (r *specializationRepo) SetHoD(ctx context.Context, hod *model.HeadOfDepartment) error {
	return r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "specialization_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "updated_by", "updated_at"}),
		}).
		Create(hod).Error
}

func (r *specializationRepo) ListHoDSpecializations(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.HeadOfDepartment{}).
		Where("user_id = ?", userID).
		Pluck("specialization_id", &ids).Error
	return ids, err
}

// nonEmpty keeps an IN clause valid when ids is empty
func nonEmpty(ids []string) []string {
	if len(ids) == 0 {
		return []string{"00000000-0000-0000-0000-000000000000"}
	}
	return ids
}
