package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// LecturerFilter lecturer list filters
type LecturerFilter struct {
	SpecializationID  string
	Role              string
	Search            string
	SpecializationIDs []string // nil: no restriction
}

// LecturerRepository lecturer data access
type LecturerRepository interface {
	Create(ctx context.Context, lecturer *model.Lecturer) error
	GetByID(ctx context.Context, id string) (*model.Lecturer, error)
	GetByUserID(ctx context.Context, userID string) (*model.Lecturer, error)
	List(ctx context.Context, filter LecturerFilter, offset, limit int) ([]model.Lecturer, int64, error)
	Update(ctx context.Context, lecturer *model.Lecturer) error
	Delete(ctx context.Context, id string) error
}

type lecturerRepo struct {
	db *gorm.DB
}

// NewLecturerRepo creates a LecturerRepository
func NewLecturerRepo(db *gorm.DB) LecturerRepository {
	return &lecturerRepo{db: db}
}

func (r *lecturerRepo) Create(ctx context.Context, lecturer *model.Lecturer) error {
	return r.db.WithContext(ctx).Omit("User", "Specialization").Create(lecturer).Error
}

func (r *lecturerRepo) GetByID(ctx context.Context, id string) (*model.Lecturer, error) {
	var lecturer model.Lecturer
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Specialization").
		Where("lecturer_id = ?", id).
		First(&lecturer).Error
	if err != nil {
		return nil, err
	}
	return &lecturer, nil
}

func (r *lecturerRepo) GetByUserID(ctx context.Context, userID string) (*model.Lecturer, error) {
	var lecturer model.Lecturer
	err := r.db.WithContext(ctx).
		Preload("Specialization").
		Where("user_id = ?", userID).
		First(&lecturer).Error
	if err != nil {
		return nil, err
	}
	return &lecturer, nil
}

func (r *lecturerRepo) List(ctx context.Context, filter LecturerFilter, offset, limit int) ([]model.Lecturer, int64, error) {
	var lecturers []model.Lecturer
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Lecturer{}).
		Joins("JOIN users ON users.user_id = lecturers.user_id AND users.deleted_at IS NULL")
	if filter.SpecializationIDs != nil {
		db = db.Where("lecturers.specialization_id IN ?", nonEmpty(filter.SpecializationIDs))
	}
	if filter.SpecializationID != "" {
		db = db.Where("lecturers.specialization_id = ?", filter.SpecializationID)
	}
	if filter.Role != "" {
		db = db.Where("lecturers.role = ?", filter.Role)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where("users.username ILIKE ? OR users.surname ILIKE ? OR users.other_names ILIKE ?", p, p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("User").
		Preload("Specialization").
		Order("users.surname ASC").
		Find(&lecturers).Error; err != nil {
		return nil, 0, err
	}
	return lecturers, total, nil
}

func (r *lecturerRepo) Update(ctx context.Context, lecturer *model.Lecturer) error {
	return r.db.WithContext(ctx).Omit("User", "Specialization").Save(lecturer).Error
}

func (r *lecturerRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("lecturer_id = ?", id).
		Delete(&model.Lecturer{}).Error
}
