package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// StudentFilter student list filters
type StudentFilter struct {
	SpecializationID  string
	Mode              string
	Year              int
	Search            string
	SpecializationIDs []string // nil: no restriction
	UserID            string
}

// StudentRepository student data access
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID string) (*model.Student, error)
	GetByAdmission(ctx context.Context, admission string) (*model.Student, error)
	List(ctx context.Context, filter StudentFilter, offset, limit int) ([]model.Student, int64, error)
	ListBySpecialization(ctx context.Context, specializationID string) ([]model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo creates a StudentRepository
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit("User", "Specialization").Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Specialization").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByAdmission(ctx context.Context, admission string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("admission = ?", admission).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context, filter StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{}).
		Joins("JOIN users ON users.user_id = students.user_id AND users.deleted_at IS NULL")
	if filter.SpecializationIDs != nil {
		db = db.Where("students.specialization_id IN ?", nonEmpty(filter.SpecializationIDs))
	}
	if filter.UserID != "" {
		db = db.Where("students.user_id = ?", filter.UserID)
	}
	if filter.SpecializationID != "" {
		db = db.Where("students.specialization_id = ?", filter.SpecializationID)
	}
	if filter.Mode != "" {
		db = db.Where("students.mode = ?", filter.Mode)
	}
	if filter.Year != 0 {
		db = db.Where("students.year = ?", filter.Year)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where("students.admission ILIKE ? OR users.surname ILIKE ? OR users.other_names ILIKE ?", p, p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("User").
		Preload("Specialization").
		Order("students.admission ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (r *studentRepo) ListBySpecialization(ctx context.Context, specializationID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("specialization_id = ?", specializationID).
		Order("admission ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit("User", "Specialization").Save(student).Error
}

func (r *studentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", id).
		Delete(&model.Student{}).Error
}
