package dto

// ── periods ──

// PeriodRequest create or rename a period
type PeriodRequest struct {
	Name     string `json:"name"      binding:"required,max=100"`
	IsActive bool   `json:"is_active"`
}

// PeriodResponse teaching practice period
type PeriodResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// ── assessment types ──

// AssessmentTypeRequest create or update an assessment type
type AssessmentTypeRequest struct {
	Name         string `json:"name"          binding:"required,max=100"`
	ShortName    string `json:"short_name"    binding:"required,max=20"`
	CourseID     string `json:"course_id"     binding:"required,uuid"`
	TotalFormula string `json:"total_formula" binding:"omitempty,max=200"`
}

// AssessmentTypeAdminsRequest replaces the admins of a type
type AssessmentTypeAdminsRequest struct {
	UserIDs []string `json:"user_ids" binding:"omitempty,dive,uuid"`
}

// AssessmentTypeResponse assessment type
type AssessmentTypeResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ShortName    string          `json:"short_name"`
	Course       *BriefResponse  `json:"course,omitempty"`
	TotalFormula string          `json:"total_formula,omitempty"`
	Admins       []BriefResponse `json:"admins"`
}

// ── rubric ──

// RubricListRequest section / sub-section / aspect list query
type RubricListRequest struct {
	AssessmentTypeID string `form:"assessment_type_id" binding:"omitempty,uuid"`
	SectionID        string `form:"section_id"         binding:"omitempty,uuid"`
	Keyword          string `form:"keyword"            binding:"omitempty,max=50"`
}

// SectionRequest create or update a section
type SectionRequest struct {
	AssessmentTypeID string `json:"assessment_type_id" binding:"required,uuid"`
	Number           int    `json:"number"             binding:"required,min=1"`
	Name             string `json:"name"               binding:"required,max=200"`
	Contribution     int    `json:"contribution"       binding:"min=0"`
}

// SectionResponse rubric section
type SectionResponse struct {
	ID             string         `json:"id"`
	AssessmentType *BriefResponse `json:"assessment_type,omitempty"`
	Number         int            `json:"number"`
	Name           string         `json:"name"`
	Contribution   int            `json:"contribution"`
}

// SubSectionRequest create or update a sub-section
type SubSectionRequest struct {
	SectionID    string `json:"section_id"   binding:"required,uuid"`
	Name         string `json:"name"         binding:"required,max=200"`
	Contribution int    `json:"contribution" binding:"min=0"`
}

// SubSectionResponse rubric sub-section
type SubSectionResponse struct {
	ID           string         `json:"id"`
	Section      *BriefResponse `json:"section,omitempty"`
	Name         string         `json:"name"`
	Contribution int            `json:"contribution"`
}

// AspectRequest create or update an aspect
type AspectRequest struct {
	SectionID    string  `json:"section_id"     binding:"required,uuid"`
	SubSectionID *string `json:"sub_section_id" binding:"omitempty,uuid"`
	Name         string  `json:"name"           binding:"required,max=300"`
	Contribution int     `json:"contribution"   binding:"min=0"`
	IsActive     *bool   `json:"is_active"`
}

// AspectResponse rubric aspect
type AspectResponse struct {
	ID           string         `json:"id"`
	Section      *BriefResponse `json:"section,omitempty"`
	SubSection   *BriefResponse `json:"sub_section,omitempty"`
	Name         string         `json:"name"`
	Contribution int            `json:"contribution"`
	IsActive     bool           `json:"is_active"`
}

// AspectListResponse aspects with the sum of their contributions
type AspectListResponse struct {
	Aspects           []AspectResponse `json:"aspects"`
	TotalContribution int              `json:"total_contribution"`
}

// ── tp students ──

// TPStudentListRequest tp student list query
type TPStudentListRequest struct {
	PaginationRequest
	SpecializationID string `form:"specialization_id" binding:"omitempty,uuid"`
	PeriodID         string `form:"period_id"         binding:"omitempty,uuid"`
	Department       string `form:"department"        binding:"omitempty,max=100"`
	Keyword          string `form:"keyword"           binding:"omitempty,max=50"`
}

// CreateTPStudentRequest new tp student
type CreateTPStudentRequest struct {
	FullName         string  `json:"full_name"         binding:"required,max=150"`
	Sex              string  `json:"sex"               binding:"omitempty,sex"`
	Index            string  `json:"index"             binding:"required,max=20"`
	Email            string  `json:"email"             binding:"omitempty,email"`
	Department       *string `json:"department"        binding:"omitempty,max=100"`
	SpecializationID *string `json:"specialization_id" binding:"omitempty,uuid"`
}

// UpdateTPStudentRequest partial tp student update
type UpdateTPStudentRequest struct {
	FullName         *string `json:"full_name"         binding:"omitempty,max=150"`
	Sex              *string `json:"sex"               binding:"omitempty,sex"`
	Index            *string `json:"index"             binding:"omitempty,max=20"`
	Email            *string `json:"email"             binding:"omitempty,email"`
	Department       *string `json:"department"        binding:"omitempty,max=100"`
	SpecializationID *string `json:"specialization_id" binding:"omitempty,uuid"`
}

// TPStudentResponse tp student
type TPStudentResponse struct {
	ID             string         `json:"id"`
	FullName       string         `json:"full_name"`
	Sex            string         `json:"sex"`
	Index          string         `json:"index"`
	Email          string         `json:"email"`
	Department     string         `json:"department,omitempty"`
	Specialization *BriefResponse `json:"specialization,omitempty"`
	Period         *BriefResponse `json:"period,omitempty"`
}

// ── letters ──

// CreateLetterRequest starts an assessment
type CreateLetterRequest struct {
	StudentID        string   `json:"student_id"         binding:"required,uuid"`
	AssessmentTypeID string   `json:"assessment_type_id" binding:"required,uuid"`
	Latitude         *float64 `json:"latitude"           binding:"omitempty,latitude"`
	Longitude        *float64 `json:"longitude"          binding:"omitempty,longitude"`
}

// LetterListRequest letter list query
type LetterListRequest struct {
	PaginationRequest
	StudentID        string `form:"student_id"         binding:"omitempty,uuid"`
	SpecializationID string `form:"specialization_id"  binding:"omitempty,uuid"`
	Department       string `form:"department"         binding:"omitempty,max=100"`
	Zone             string `form:"zone"               binding:"omitempty,max=100"`
	AssessmentTypeID string `form:"assessment_type_id" binding:"omitempty,uuid"`
	AssessorID       string `form:"assessor_id"        binding:"omitempty,uuid"`
	From             string `form:"from"` // RFC3339 or 2006-01-02
	To               string `form:"to"`
	Keyword          string `form:"keyword"            binding:"omitempty,max=100"`
	Incomplete       bool   `form:"incomplete"`
	ToDelete         bool   `form:"to_delete"`
}

// UpdateLetterDetailsRequest letter and student particulars
type UpdateLetterDetailsRequest struct {
	School           *string `json:"school"            binding:"omitempty,max=200"`
	Grade            *string `json:"grade"             binding:"omitempty,max=50"`
	LearningArea     *string `json:"learning_area"     binding:"omitempty,max=200"`
	Zone             *string `json:"zone"              binding:"omitempty,max=100"`
	Reason           *string `json:"reason"            binding:"omitempty,max=2000"`
	Department       *string `json:"department"        binding:"omitempty,max=100"`
	SpecializationID *string `json:"specialization_id" binding:"omitempty,uuid"`
}

// CompleteLetterRequest closes an assessment
type CompleteLetterRequest struct {
	Comments string `json:"comments" binding:"required,max=5000"`
}

// DeletionRequest asks an admin to delete a letter
type DeletionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=2000"`
}

// ScoreAspectRequest scores one aspect
type ScoreAspectRequest struct {
	Score *float64 `json:"score" binding:"required"`
}

// CommentSectionRequest comments on one section
type CommentSectionRequest struct {
	Comments string `json:"comments" binding:"required,max=5000"`
}

// LetterSummaryResponse letter row in lists
type LetterSummaryResponse struct {
	ID             string         `json:"id"`
	Student        *BriefResponse `json:"student,omitempty"`
	StudentIndex   string         `json:"student_index,omitempty"`
	Assessor       *BriefResponse `json:"assessor,omitempty"`
	AssessmentType *BriefResponse `json:"assessment_type,omitempty"`
	Zone           string         `json:"zone,omitempty"`
	School         string         `json:"school,omitempty"`
	TotalScore     float64        `json:"total_score"`
	IsEditable     bool           `json:"is_editable"`
	IsComplete     bool           `json:"is_complete"`
	LateSubmission bool           `json:"late_submission"`
	ToDelete       bool           `json:"to_delete"`
	CreatedAt      string         `json:"created_at"`
}

// LetterResponse letter with its sections
type LetterResponse struct {
	LetterSummaryResponse
	Reused         bool                     `json:"reused,omitempty"`
	Grade          string                   `json:"grade,omitempty"`
	LearningArea   string                   `json:"learning_area,omitempty"`
	Comments       string                   `json:"comments,omitempty"`
	Reason         string                   `json:"reason,omitempty"`
	DeletionReason string                   `json:"deletion_reason,omitempty"`
	RequestTime    string                   `json:"request_time,omitempty"`
	Latitude       *float64                 `json:"latitude,omitempty"`
	Longitude      *float64                 `json:"longitude,omitempty"`
	Sections       []StudentSectionResponse `json:"sections"`
}

// StudentSectionResponse letter section
type StudentSectionResponse struct {
	ID           string                  `json:"id"`
	SectionID    string                  `json:"section_id"`
	Number       int                     `json:"number"`
	Name         string                  `json:"name"`
	Contribution int                     `json:"contribution"`
	Score        float64                 `json:"score"`
	Comments     string                  `json:"comments,omitempty"`
	Aspects      []StudentAspectResponse `json:"aspects"`
}

// StudentAspectResponse letter aspect
type StudentAspectResponse struct {
	ID           string   `json:"id"`
	AspectID     string   `json:"aspect_id"`
	Name         string   `json:"name"`
	Contribution int      `json:"contribution"`
	Score        *float64 `json:"score"`
}

// ScoreAspectResponse state after scoring an aspect
type ScoreAspectResponse struct {
	AspectID     string  `json:"id"`
	SectionID    string  `json:"student_section_id"`
	SectionScore float64 `json:"section_score"`
	TotalScore   float64 `json:"total_score"`
}

// CommentSectionResponse state after commenting a section
type CommentSectionResponse struct {
	SectionID     string `json:"id"`
	NextSectionID string `json:"next_section_id,omitempty"`
}

// CompleteLetterResponse result of a completion attempt
type CompleteLetterResponse struct {
	LetterID   string  `json:"id"`
	TotalScore float64 `json:"total_score"`
	Emailed    bool    `json:"emailed"`
	Warning    string  `json:"warning,omitempty"`
}

// ── zonal leaders ──

// ZonalLeaderRequest create or update a zonal leader
type ZonalLeaderRequest struct {
	ZoneName   string `json:"zone_name"   binding:"required,max=100"`
	AssessorID string `json:"assessor_id" binding:"required,uuid"`
}

// ZonalLeaderResponse zonal leader
type ZonalLeaderResponse struct {
	ID       string         `json:"id"`
	ZoneName string         `json:"zone_name"`
	Assessor *BriefResponse `json:"assessor,omitempty"`
}

// ── dashboard ──

// DashboardResponse teaching practice counters
type DashboardResponse struct {
	Students  int64 `json:"students"`
	Letters   int64 `json:"letters"`
	Initiated int64 `json:"initiated"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Sections  int64 `json:"sections"`
	Aspects   int64 `json:"aspects"`
}
