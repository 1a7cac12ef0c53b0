package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// AssessmentTypeRepository assessment type data access
type AssessmentTypeRepository interface {
	Create(ctx context.Context, at *model.AssessmentType) error
	GetByID(ctx context.Context, id string) (*model.AssessmentType, error)
	GetByShortName(ctx context.Context, shortName string) (*model.AssessmentType, error)
	List(ctx context.Context, courseID, search string) ([]model.AssessmentType, error)
	Update(ctx context.Context, at *model.AssessmentType) error
	Delete(ctx context.Context, id string) error
	ReplaceAdmins(ctx context.Context, at *model.AssessmentType, admins []model.User) error
	ListIDsByAdmin(ctx context.Context, userID string) ([]string, error)
}

type assessmentTypeRepo struct {
	db *gorm.DB
}

// NewAssessmentTypeRepo creates an AssessmentTypeRepository
func NewAssessmentTypeRepo(db *gorm.DB) AssessmentTypeRepository {
	return &assessmentTypeRepo{db: db}
}

func (r *assessmentTypeRepo) Create(ctx context.Context, at *model.AssessmentType) error {
	return r.db.WithContext(ctx).Omit("Course", "Admins").Create(at).Error
}

func (r *assessmentTypeRepo) GetByID(ctx context.Context, id string) (*model.AssessmentType, error) {
	var at model.AssessmentType
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Admins").
		Where("assessment_type_id = ?", id).
		First(&at).Error
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *assessmentTypeRepo) GetByShortName(ctx context.Context, shortName string) (*model.AssessmentType, error) {
	var at model.AssessmentType
	err := r.db.WithContext(ctx).
		Where("short_name = ?", shortName).
		First(&at).Error
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *assessmentTypeRepo) List(ctx context.Context, courseID, search string) ([]model.AssessmentType, error) {
	var types []model.AssessmentType
	db := r.db.WithContext(ctx).Model(&model.AssessmentType{})
	if courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}
	if search != "" {
		p := likePattern(search)
		db = db.Where("name ILIKE ? OR short_name ILIKE ?", p, p)
	}
	err := db.Preload("Course").
		Preload("Admins").
		Order("short_name ASC").
		Find(&types).Error
	return types, err
}

func (r *assessmentTypeRepo) Update(ctx context.Context, at *model.AssessmentType) error {
	return r.db.WithContext(ctx).Omit("Course", "Admins").Save(at).Error
}

func (r *assessmentTypeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("assessment_type_id = ?", id).
		Delete(&model.AssessmentType{}).Error
}

func (r *assessmentTypeRepo) ReplaceAdmins(ctx context.Context, at *model.AssessmentType, admins []model.User) error {
	return r.db.WithContext(ctx).
		Model(at).
		Omit("Admins.*").
		Association("Admins").
		Replace(admins)
}

// ListIDsByAdmin ids of the assessment types userID administers
func (r *assessmentTypeRepo) ListIDsByAdmin(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("tp_assessment_type_admins").
		Where("user_id = ?", userID).
		Pluck("assessment_type_id", &ids).Error
	return ids, err
}
