package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// RubricFilter section / aspect list filters
type RubricFilter struct {
	AssessmentTypeID string
	SectionID        string
	Search           string
}

// RubricRepository sections, sub-sections and aspects
type RubricRepository interface {
	CreateSection(ctx context.Context, section *model.Section) error
	GetSection(ctx context.Context, id string) (*model.Section, error)
	ListSections(ctx context.Context, filter RubricFilter) ([]model.Section, error)
	UpdateSection(ctx context.Context, section *model.Section) error
	DeleteSection(ctx context.Context, id string) error
	CountSections(ctx context.Context) (int64, error)

	CreateSubSection(ctx context.Context, sub *model.SubSection) error
	GetSubSection(ctx context.Context, id string) (*model.SubSection, error)
	ListSubSections(ctx context.Context, filter RubricFilter) ([]model.SubSection, error)
	UpdateSubSection(ctx context.Context, sub *model.SubSection) error
	DeleteSubSection(ctx context.Context, id string) error

	CreateAspect(ctx context.Context, aspect *model.Aspect) error
	GetAspect(ctx context.Context, id string) (*model.Aspect, error)
	ListAspects(ctx context.Context, filter RubricFilter) ([]model.Aspect, error)
	ListActiveAspects(ctx context.Context, sectionIDs []string) ([]model.Aspect, error)
	UpdateAspect(ctx context.Context, aspect *model.Aspect) error
	DeleteAspect(ctx context.Context, id string) error
	CountAspects(ctx context.Context) (int64, error)
}

type rubricRepo struct {
	db *gorm.DB
}

// NewRubricRepo creates a RubricRepository
func NewRubricRepo(db *gorm.DB) RubricRepository {
	return &rubricRepo{db: db}
}

// ────────────────────── Sections ──────────────────────

func (r *rubricRepo) CreateSection(ctx context.Context, section *model.Section) error {
	return r.db.WithContext(ctx).Omit("AssessmentType").Create(section).Error
}

func (r *rubricRepo) GetSection(ctx context.Context, id string) (*model.Section, error) {
	var section model.Section
	err := r.db.WithContext(ctx).
		Preload("AssessmentType").
		Where("section_id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *rubricRepo) ListSections(ctx context.Context, filter RubricFilter) ([]model.Section, error) {
	var sections []model.Section
	db := r.db.WithContext(ctx).Model(&model.Section{})
	if filter.AssessmentTypeID != "" {
		db = db.Where("assessment_type_id = ?", filter.AssessmentTypeID)
	}
	if filter.Search != "" {
		db = db.Where("name ILIKE ?", likePattern(filter.Search))
	}
	err := db.Preload("AssessmentType").
		Order("assessment_type_id, number ASC").
		Find(&sections).Error
	return sections, err
}

func (r *rubricRepo) UpdateSection(ctx context.Context, section *model.Section) error {
	return r.db.WithContext(ctx).Omit("AssessmentType").Save(section).Error
}

func (r *rubricRepo) DeleteSection(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("section_id = ?", id).
		Delete(&model.Section{}).Error
}

func (r *rubricRepo) CountSections(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Section{}).Count(&n).Error
	return n, err
}

// ────────────────────── Sub-sections ──────────────────────

func (r *rubricRepo) CreateSubSection(ctx context.Context, sub *model.SubSection) error {
	return r.db.WithContext(ctx).Omit("Section").Create(sub).Error
}

func (r *rubricRepo) GetSubSection(ctx context.Context, id string) (*model.SubSection, error) {
	var sub model.SubSection
	err := r.db.WithContext(ctx).
		Preload("Section").
		Where("sub_section_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *rubricRepo) ListSubSections(ctx context.Context, filter RubricFilter) ([]model.SubSection, error) {
	var subs []model.SubSection
	db := r.db.WithContext(ctx).Model(&model.SubSection{})
	if filter.SectionID != "" {
		db = db.Where("section_id = ?", filter.SectionID)
	}
	if filter.AssessmentTypeID != "" {
		db = db.Where("section_id IN (?)",
			r.db.Model(&model.Section{}).Select("section_id").Where("assessment_type_id = ?", filter.AssessmentTypeID))
	}
	if filter.Search != "" {
		db = db.Where("name ILIKE ?", likePattern(filter.Search))
	}
	err := db.Preload("Section").
		Order("name ASC").
		Find(&subs).Error
	return subs, err
}

func (r *rubricRepo) UpdateSubSection(ctx context.Context, sub *model.SubSection) error {
	return r.db.WithContext(ctx).Omit("Section").Save(sub).Error
}

func (r *rubricRepo) DeleteSubSection(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("sub_section_id = ?", id).
		Delete(&model.SubSection{}).Error
}

// ────────────────────── Aspects ──────────────────────

func (r *rubricRepo) CreateAspect(ctx context.Context, aspect *model.Aspect) error {
	return r.db.WithContext(ctx).Omit("Section", "SubSection").Create(aspect).Error
}

func (r *rubricRepo) GetAspect(ctx context.Context, id string) (*model.Aspect, error) {
	var aspect model.Aspect
	err := r.db.WithContext(ctx).
		Preload("Section").
		Preload("SubSection").
		Where("aspect_id = ?", id).
		First(&aspect).Error
	if err != nil {
		return nil, err
	}
	return &aspect, nil
}

func (r *rubricRepo) ListAspects(ctx context.Context, filter RubricFilter) ([]model.Aspect, error) {
	var aspects []model.Aspect
	db := r.db.WithContext(ctx).Model(&model.Aspect{})
	if filter.SectionID != "" {
		db = db.Where("section_id = ?", filter.SectionID)
	}
	if filter.AssessmentTypeID != "" {
		db = db.Where("section_id IN (?)",
			r.db.Model(&model.Section{}).Select("section_id").Where("assessment_type_id = ?", filter.AssessmentTypeID))
	}
	if filter.Search != "" {
		db = db.Where("name ILIKE ?", likePattern(filter.Search))
	}
	err := db.Preload("Section").
		Preload("SubSection").
		Order("section_id, created_at ASC").
		Find(&aspects).Error
	return aspects, err
}

func (r *rubricRepo) ListActiveAspects(ctx context.Context, sectionIDs []string) ([]model.Aspect, error) {
	var aspects []model.Aspect
	if len(sectionIDs) == 0 {
		return aspects, nil
	}
	err := r.db.WithContext(ctx).
		Where("section_id IN ? AND is_active = ?", sectionIDs, true).
		Order("created_at ASC").
		Find(&aspects).Error
	return aspects, err
}

func (r *rubricRepo) UpdateAspect(ctx context.Context, aspect *model.Aspect) error {
	return r.db.WithContext(ctx).Omit("Section", "SubSection").Save(aspect).Error
}

func (r *rubricRepo) DeleteAspect(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("aspect_id = ?", id).
		Delete(&model.Aspect{}).Error
}

func (r *rubricRepo) CountAspects(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Aspect{}).Count(&n).Error
	return n, err
}
