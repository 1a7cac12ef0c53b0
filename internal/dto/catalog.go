package dto

// ── courses ──

// CourseListRequest course list query
type CourseListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CreateCourseRequest new course
type CreateCourseRequest struct {
	Code string `json:"code" binding:"required,max=20"`
	Name string `json:"name" binding:"required,max=200"`
}

// UpdateCourseRequest partial course update
type UpdateCourseRequest struct {
	Code *string `json:"code" binding:"omitempty,max=20"`
	Name *string `json:"name" binding:"omitempty,max=200"`
}

// CourseResponse course
type CourseResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ── specializations ──

// SpecializationListRequest specialization list query
type SpecializationListRequest struct {
	PaginationRequest
	CourseID string `form:"course_id" binding:"omitempty,uuid"`
	Mode     string `form:"mode"      binding:"omitempty,oneof=DL FT"`
	Keyword  string `form:"keyword"   binding:"omitempty,max=50"`
}

// CreateSpecializationRequest new specialization
type CreateSpecializationRequest struct {
	Code     string `json:"code"      binding:"required,max=20"`
	Name     string `json:"name"      binding:"required,max=200"`
	Mode     string `json:"mode"      binding:"required,oneof=DL FT"`
	CourseID string `json:"course_id" binding:"required,uuid"`
}

// UpdateSpecializationRequest partial specialization update
type UpdateSpecializationRequest struct {
	Code     *string `json:"code"      binding:"omitempty,max=20"`
	Name     *string `json:"name"      binding:"omitempty,max=200"`
	Mode     *string `json:"mode"      binding:"omitempty,oneof=DL FT"`
	CourseID *string `json:"course_id" binding:"omitempty,uuid"`
}

// AssignHoDRequest sets the head of a specialization
type AssignHoDRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// SpecializationResponse specialization
type SpecializationResponse struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Mode      string         `json:"mode"`
	Course    *BriefResponse `json:"course,omitempty"`
	HoD       *BriefResponse `json:"hod,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// ── papers ──

// PaperListRequest paper list query
type PaperListRequest struct {
	PaginationRequest
	SpecializationID string `form:"specialization_id" binding:"omitempty,uuid"`
	Keyword          string `form:"keyword"           binding:"omitempty,max=50"`
}

// CreatePaperRequest new paper
type CreatePaperRequest struct {
	Code             string `json:"code"              binding:"required,max=20"`
	Name             string `json:"name"              binding:"required,max=200"`
	SpecializationID string `json:"specialization_id" binding:"required,uuid"`
}

// UpdatePaperRequest partial paper update
type UpdatePaperRequest struct {
	Code             *string `json:"code"              binding:"omitempty,max=20"`
	Name             *string `json:"name"              binding:"omitempty,max=200"`
	SpecializationID *string `json:"specialization_id" binding:"omitempty,uuid"`
}

// PaperResponse paper
type PaperResponse struct {
	ID             string         `json:"id"`
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Specialization *BriefResponse `json:"specialization,omitempty"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// ── modules ──

// ModuleListRequest module list query
type ModuleListRequest struct {
	PaginationRequest
	PaperID string `form:"paper_id" binding:"omitempty,uuid"`
	Keyword string `form:"keyword"  binding:"omitempty,max=50"`
}

// CreateModuleRequest new module
type CreateModuleRequest struct {
	Code    string `json:"code"     binding:"required,max=20"`
	Name    string `json:"name"     binding:"required,max=200"`
	PaperID string `json:"paper_id" binding:"required,uuid"`
}

// UpdateModuleRequest partial module update
type UpdateModuleRequest struct {
	Code    *string `json:"code"     binding:"omitempty,max=20"`
	Name    *string `json:"name"     binding:"omitempty,max=200"`
	PaperID *string `json:"paper_id" binding:"omitempty,uuid"`
}

// ModuleResponse module
type ModuleResponse struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Paper     *BriefResponse `json:"paper,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}
