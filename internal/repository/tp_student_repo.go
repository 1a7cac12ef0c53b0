package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// TPStudentFilter teaching practice student list filters
type TPStudentFilter struct {
	SpecializationID string
	PeriodID         string
	Department       string
	Search           string
}

// TPStudentRepository teaching practice student data access
type TPStudentRepository interface {
	Create(ctx context.Context, student *model.TPStudent) error
	GetByID(ctx context.Context, id string) (*model.TPStudent, error)
	GetByIndex(ctx context.Context, index string) (*model.TPStudent, error)
	List(ctx context.Context, filter TPStudentFilter, offset, limit int) ([]model.TPStudent, int64, error)
	ListInvalidIndex(ctx context.Context) ([]model.TPStudent, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, student *model.TPStudent) error
	Delete(ctx context.Context, id string) error
}

type tpStudentRepo struct {
	db *gorm.DB
}

// NewTPStudentRepo creates a TPStudentRepository
func NewTPStudentRepo(db *gorm.DB) TPStudentRepository {
	return &tpStudentRepo{db: db}
}

func (r *tpStudentRepo) Create(ctx context.Context, student *model.TPStudent) error {
	return r.db.WithContext(ctx).Omit("Specialization", "Period").Create(student).Error
}

func (r *tpStudentRepo) GetByID(ctx context.Context, id string) (*model.TPStudent, error) {
	var student model.TPStudent
	err := r.db.WithContext(ctx).
		Preload("Specialization.Course").
		Preload("Period").
		Where("tp_student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *tpStudentRepo) GetByIndex(ctx context.Context, index string) (*model.TPStudent, error) {
	var student model.TPStudent
	err := r.db.WithContext(ctx).
		Where(`"index" = ?`, index).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *tpStudentRepo) List(ctx context.Context, filter TPStudentFilter, offset, limit int) ([]model.TPStudent, int64, error) {
	var students []model.TPStudent
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TPStudent{})
	if filter.SpecializationID != "" {
		db = db.Where("specialization_id = ?", filter.SpecializationID)
	}
	if filter.PeriodID != "" {
		db = db.Where("period_id = ?", filter.PeriodID)
	}
	if filter.Department != "" {
		db = db.Where("department = ?", filter.Department)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Where(`full_name ILIKE ? OR "index" ILIKE ? OR email ILIKE ?`, p, p, p)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Specialization").
		Preload("Period").
		Order("full_name ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// ListInvalidIndex diploma students whose index is not 11 characters starting with TA
func (r *tpStudentRepo) ListInvalidIndex(ctx context.Context) ([]model.TPStudent, error) {
	var students []model.TPStudent
	err := r.db.WithContext(ctx).
		Joins("JOIN specializations ON specializations.specialization_id = tp_students.specialization_id").
		Joins("JOIN courses ON courses.course_id = specializations.course_id").
		Where("courses.name ILIKE ?", "%Diploma%").
		Where(`tp_students."index" <> ''`).
		Where(`LENGTH(tp_students."index") <> 11 OR tp_students."index" NOT LIKE 'TA%'`).
		Preload("Specialization").
		Order("tp_students.full_name ASC").
		Find(&students).Error
	return students, err
}

func (r *tpStudentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TPStudent{}).Count(&n).Error
	return n, err
}

func (r *tpStudentRepo) Update(ctx context.Context, student *model.TPStudent) error {
	return r.db.WithContext(ctx).Omit("Specialization", "Period").Save(student).Error
}

func (r *tpStudentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("tp_student_id = ?", id).
		Delete(&model.TPStudent{}).Error
}
