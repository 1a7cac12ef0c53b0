package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// LetterScope the letters a caller may see. All wins; otherwise a letter is
// visible when it matches any non-empty member.
type LetterScope struct {
	All               bool
	AssessmentTypeIDs []string
	Zones             []string
	SpecializationIDs []string
	AssessorID        string
}

// LetterFilter letter list filters
type LetterFilter struct {
	Scope            LetterScope
	StudentID        string
	SpecializationID string
	Department       string
	Zone             string
	AssessmentTypeID string
	AssessorID       string
	From             *time.Time
	To               *time.Time
	Search           string
	Incomplete       bool
	ToDelete         bool
}

// LetterStats dashboard counters
type LetterStats struct {
	Letters   int64 // distinct students
	Initiated int64
	Completed int64
	Pending   int64
}

// LetterRepository letters with their sections, aspects and location
type LetterRepository interface {
	CreateLocation(ctx context.Context, loc *model.Location) error
	Create(ctx context.Context, letter *model.StudentLetter) error
	GetByID(ctx context.Context, id string) (*model.StudentLetter, error)
	FindRecent(ctx context.Context, studentID, assessorID, typeID string, since time.Time) (*model.StudentLetter, error)
	List(ctx context.Context, filter LetterFilter, offset, limit int) ([]model.StudentLetter, int64, error)
	ListCompleted(ctx context.Context, scope LetterScope) ([]model.StudentLetter, error)
	Stats(ctx context.Context, scope LetterScope) (*LetterStats, error)
	Update(ctx context.Context, letter *model.StudentLetter) error
	Delete(ctx context.Context, letter *model.StudentLetter) error

	GetSection(ctx context.Context, id string) (*model.StudentSection, error)
	ListSections(ctx context.Context, letterID string) ([]model.StudentSection, error)
	UpdateSection(ctx context.Context, section *model.StudentSection) error
	GetAspect(ctx context.Context, id string) (*model.StudentAspect, error)
	ListAspects(ctx context.Context, studentSectionID string) ([]model.StudentAspect, error)
	UpdateAspect(ctx context.Context, aspect *model.StudentAspect) error
}

type letterRepo struct {
	db *gorm.DB
}

// NewLetterRepo creates a LetterRepository
func NewLetterRepo(db *gorm.DB) LetterRepository {
	return &letterRepo{db: db}
}

func (r *letterRepo) CreateLocation(ctx context.Context, loc *model.Location) error {
	return r.db.WithContext(ctx).Create(loc).Error
}

// Create inserts the letter, then its sections, then each section's aspects.
// Call it inside a transaction.
func (r *letterRepo) Create(ctx context.Context, letter *model.StudentLetter) error {
	db := r.db.WithContext(ctx)
	sections := letter.Sections
	if err := db.Omit("Student", "Assessor", "AssessmentType", "Location", "Sections").Create(letter).Error; err != nil {
		return err
	}
	for i := range sections {
		sections[i].LetterID = letter.LetterID
		aspects := sections[i].Aspects
		if err := db.Omit("Section", "Aspects").Create(&sections[i]).Error; err != nil {
			return err
		}
		if len(aspects) == 0 {
			continue
		}
		for j := range aspects {
			aspects[j].StudentSectionID = sections[i].StudentSectionID
		}
		if err := db.Omit("Aspect").Create(&aspects).Error; err != nil {
			return err
		}
		sections[i].Aspects = aspects
	}
	letter.Sections = sections
	return nil
}

func (r *letterRepo) GetByID(ctx context.Context, id string) (*model.StudentLetter, error) {
	var letter model.StudentLetter
	err := r.db.WithContext(ctx).
		Preload("Student.Specialization.Course").
		Preload("Assessor").
		Preload("AssessmentType.Course").
		Preload("Location").
		Preload("Sections.Section").
		Preload("Sections.Aspects.Aspect").
		Where("letter_id = ?", id).
		First(&letter).Error
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// FindRecent the newest live letter by assessorID for studentID of typeID created at or after since
func (r *letterRepo) FindRecent(ctx context.Context, studentID, assessorID, typeID string, since time.Time) (*model.StudentLetter, error) {
	var letter model.StudentLetter
	err := r.db.WithContext(ctx).
		Where("tp_student_id = ? AND assessor_id = ? AND assessment_type_id = ?", studentID, assessorID, typeID).
		Where("to_delete = ? AND created_at >= ?", false, since).
		Order("created_at DESC").
		First(&letter).Error
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

func (r *letterRepo) List(ctx context.Context, filter LetterFilter, offset, limit int) ([]model.StudentLetter, int64, error) {
	var letters []model.StudentLetter
	var total int64

	db := r.scoped(ctx, filter.Scope).
		Joins("JOIN tp_students ON tp_students.tp_student_id = tp_letters.tp_student_id").
		Where("tp_letters.to_delete = ?", filter.ToDelete)
	if filter.StudentID != "" {
		db = db.Where("tp_letters.tp_student_id = ?", filter.StudentID)
	}
	if filter.SpecializationID != "" {
		db = db.Where("tp_students.specialization_id = ?", filter.SpecializationID)
	}
	if filter.Department != "" {
		db = db.Where("tp_students.department = ?", filter.Department)
	}
	if filter.Zone != "" {
		db = db.Where("tp_letters.zone = ?", filter.Zone)
	}
	if filter.AssessmentTypeID != "" {
		db = db.Where("tp_letters.assessment_type_id = ?", filter.AssessmentTypeID)
	}
	if filter.AssessorID != "" {
		db = db.Where("tp_letters.assessor_id = ?", filter.AssessorID)
	}
	if filter.From != nil {
		db = db.Where("tp_letters.created_at > ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("tp_letters.created_at < ?", *filter.To)
	}
	if filter.Incomplete {
		db = db.Where("tp_letters.comments IS NULL OR tp_letters.total_score = 0")
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		db = db.Joins("JOIN users assessors ON assessors.user_id = tp_letters.assessor_id").
			Where(`tp_students.full_name ILIKE ? OR tp_students."index" ILIKE ? OR tp_letters.school ILIKE ? OR tp_letters.grade ILIKE ? OR tp_letters.learning_area ILIKE ? OR tp_letters.zone ILIKE ? OR assessors.surname ILIKE ? OR assessors.other_names ILIKE ?`,
				p, p, p, p, p, p, p, p)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := paginate(db, offset, limit).
		Preload("Student").
		Preload("Assessor").
		Preload("AssessmentType").
		Order("tp_letters.created_at DESC").
		Find(&letters).Error; err != nil {
		return nil, 0, err
	}
	return letters, total, nil
}

// ListCompleted letters ready for export: commented, non-zero, locked and live
func (r *letterRepo) ListCompleted(ctx context.Context, scope LetterScope) ([]model.StudentLetter, error) {
	var letters []model.StudentLetter
	err := r.scoped(ctx, scope).
		Joins("JOIN tp_students ON tp_students.tp_student_id = tp_letters.tp_student_id").
		Where("tp_letters.comments IS NOT NULL AND tp_letters.total_score <> 0").
		Where("tp_letters.to_delete = ? AND tp_letters.is_editable = ?", false, false).
		Preload("Student").
		Preload("Assessor").
		Preload("AssessmentType").
		Order("tp_students.full_name ASC, tp_letters.created_at ASC").
		Find(&letters).Error
	return letters, err
}

func (r *letterRepo) Stats(ctx context.Context, scope LetterScope) (*LetterStats, error) {
	var stats LetterStats
	base := func() *gorm.DB {
		return r.scoped(ctx, scope).
			Joins("JOIN tp_students ON tp_students.tp_student_id = tp_letters.tp_student_id").
			Where("tp_letters.to_delete = ?", false)
	}
	if err := base().Count(&stats.Initiated).Error; err != nil {
		return nil, err
	}
	if err := base().Distinct("tp_letters.tp_student_id").Count(&stats.Letters).Error; err != nil {
		return nil, err
	}
	if err := base().Where("tp_letters.comments IS NOT NULL").Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	stats.Pending = stats.Initiated - stats.Completed
	return &stats, nil
}

func (r *letterRepo) Update(ctx context.Context, letter *model.StudentLetter) error {
	return r.db.WithContext(ctx).
		Omit("Student", "Assessor", "AssessmentType", "Location", "Sections").
		Save(letter).Error
}

// Delete removes the letter and its location; sections and aspects cascade
func (r *letterRepo) Delete(ctx context.Context, letter *model.StudentLetter) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("letter_id = ?", letter.LetterID).Delete(&model.StudentLetter{}).Error; err != nil {
		return err
	}
	if letter.LocationID != nil {
		return db.Where("location_id = ?", *letter.LocationID).Delete(&model.Location{}).Error
	}
	return nil
}

// ────────────────────── Sections & aspects ──────────────────────

func (r *letterRepo) GetSection(ctx context.Context, id string) (*model.StudentSection, error) {
	var section model.StudentSection
	err := r.db.WithContext(ctx).
		Preload("Section").
		Preload("Aspects.Aspect").
		Where("student_section_id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *letterRepo) ListSections(ctx context.Context, letterID string) ([]model.StudentSection, error) {
	var sections []model.StudentSection
	err := r.db.WithContext(ctx).
		Joins("Section").
		Where("tp_student_sections.letter_id = ?", letterID).
		Order(`"Section"."number" ASC`).
		Find(&sections).Error
	return sections, err
}

func (r *letterRepo) UpdateSection(ctx context.Context, section *model.StudentSection) error {
	return r.db.WithContext(ctx).Omit("Section", "Aspects").Save(section).Error
}

func (r *letterRepo) GetAspect(ctx context.Context, id string) (*model.StudentAspect, error) {
	var aspect model.StudentAspect
	err := r.db.WithContext(ctx).
		Preload("Aspect").
		Where("student_aspect_id = ?", id).
		First(&aspect).Error
	if err != nil {
		return nil, err
	}
	return &aspect, nil
}

func (r *letterRepo) ListAspects(ctx context.Context, studentSectionID string) ([]model.StudentAspect, error) {
	var aspects []model.StudentAspect
	err := r.db.WithContext(ctx).
		Where("student_section_id = ?", studentSectionID).
		Find(&aspects).Error
	return aspects, err
}

func (r *letterRepo) UpdateAspect(ctx context.Context, aspect *model.StudentAspect) error {
	return r.db.WithContext(ctx).Omit("Aspect").Save(aspect).Error
}

// scoped starts a tp_letters query restricted to scope
func (r *letterRepo) scoped(ctx context.Context, scope LetterScope) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.StudentLetter{})
	if scope.All {
		return db
	}

	var conds []string
	var args []interface{}
	if len(scope.AssessmentTypeIDs) > 0 {
		conds = append(conds, "tp_letters.assessment_type_id IN ?")
		args = append(args, scope.AssessmentTypeIDs)
	}
	if len(scope.Zones) > 0 {
		conds = append(conds, "tp_letters.zone IN ?")
		args = append(args, scope.Zones)
	}
	if len(scope.SpecializationIDs) > 0 {
		conds = append(conds, "tp_letters.tp_student_id IN (SELECT tp_student_id FROM tp_students WHERE specialization_id IN ?)")
		args = append(args, scope.SpecializationIDs)
	}
	if scope.AssessorID != "" {
		conds = append(conds, "tp_letters.assessor_id = ?")
		args = append(args, scope.AssessorID)
	}
	if len(conds) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}
