package dto

// ── deadlines ──

// DeadlineURI names the deadline in the path
type DeadlineURI struct {
	Name string `uri:"name" binding:"required,deadline_kind"`
}

// SetDeadlineRequest upserts a deadline
type SetDeadlineRequest struct {
	Deadline string `json:"deadline" binding:"required"` // RFC3339
}

// DeadlineResponse deadline with its state
type DeadlineResponse struct {
	Name     string `json:"name"`
	Deadline string `json:"deadline,omitempty"`
	IsOpen   bool   `json:"is_open"`
}

// ── cat combinations ──

// CatCombinationRequest create or update the buckets of a paper
type CatCombinationRequest struct {
	PaperID string   `json:"paper_id" binding:"required,uuid"`
	Cat1    []string `json:"cat1"     binding:"omitempty,dive,uuid"`
	Cat2    []string `json:"cat2"     binding:"omitempty,dive,uuid"`
}

// UpdateCatCombinationRequest replaces the buckets
type UpdateCatCombinationRequest struct {
	Cat1 []string `json:"cat1" binding:"omitempty,dive,uuid"`
	Cat2 []string `json:"cat2" binding:"omitempty,dive,uuid"`
}

// CatCombinationResponse paper buckets
type CatCombinationResponse struct {
	ID        string          `json:"id"`
	Paper     *BriefResponse  `json:"paper,omitempty"`
	Cat1      []BriefResponse `json:"cat1"`
	Cat2      []BriefResponse `json:"cat2"`
	CreatedAt string          `json:"created_at"`
}

// ── module scores ──

// ScoreListRequest score list query
type ScoreListRequest struct {
	PaginationRequest
	PaperID   string `form:"paper_id"   binding:"omitempty,uuid"`
	ModuleID  string `form:"module_id"  binding:"omitempty,uuid"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
}

// CreateModuleScoreRequest new module score
type CreateModuleScoreRequest struct {
	StudentID  string   `json:"student_id" binding:"required,uuid"`
	ModuleID   string   `json:"module_id"  binding:"required,uuid"`
	Discussion *float64 `json:"discussion" binding:"omitempty,min=0,max=100"`
	TakeAway   *float64 `json:"take_away"  binding:"omitempty,min=0,max=100"`
}

// UpdateModuleScoreRequest partial module score update
type UpdateModuleScoreRequest struct {
	Discussion *float64 `json:"discussion" binding:"omitempty,min=0,max=100"`
	TakeAway   *float64 `json:"take_away"  binding:"omitempty,min=0,max=100"`
}

// ModuleScoreResponse module score
type ModuleScoreResponse struct {
	ID         string         `json:"id"`
	Student    *BriefResponse `json:"student,omitempty"`
	Module     *BriefResponse `json:"module,omitempty"`
	Discussion *float64       `json:"discussion"`
	TakeAway   *float64       `json:"take_away"`
	UpdatedAt  string         `json:"updated_at"`
}

// ── sit-in cats ──

// CreateSitinCatRequest new sit-in CAT
type CreateSitinCatRequest struct {
	StudentID string   `json:"student_id" binding:"required,uuid"`
	PaperID   string   `json:"paper_id"   binding:"required,uuid"`
	Cat1      *float64 `json:"cat1"       binding:"omitempty,min=0,max=100"`
	Cat2      *float64 `json:"cat2"       binding:"omitempty,min=0,max=100"`
}

// UpdateSitinCatRequest partial sit-in CAT update
type UpdateSitinCatRequest struct {
	Cat1 *float64 `json:"cat1" binding:"omitempty,min=0,max=100"`
	Cat2 *float64 `json:"cat2" binding:"omitempty,min=0,max=100"`
}

// SitinCatResponse sit-in CAT
type SitinCatResponse struct {
	ID        string         `json:"id"`
	Student   *BriefResponse `json:"student,omitempty"`
	Paper     *BriefResponse `json:"paper,omitempty"`
	Cat1      *float64       `json:"cat1"`
	Cat2      *float64       `json:"cat2"`
	UpdatedAt string         `json:"updated_at"`
}

// ── results ──

// GenerateResultsRequest result generation for one CAT of a paper
type GenerateResultsRequest struct {
	PaperID string `json:"paper_id" binding:"required,uuid"`
	Cat     string `json:"cat"      binding:"required,cat_selector"`
}

// GenerateResultsResponse generation summary
type GenerateResultsResponse struct {
	PaperID   string `json:"paper_id"`
	Cat       string `json:"cat"`
	Generated int    `json:"generated"`
	Students  int    `json:"students"`
}

// ResultListRequest result list query
type ResultListRequest struct {
	PaginationRequest
	PaperID          string `form:"paper_id"          binding:"omitempty,uuid"`
	StudentID        string `form:"student_id"        binding:"omitempty,uuid"`
	SpecializationID string `form:"specialization_id" binding:"omitempty,uuid"`
}

// ResultResponse generated result
type ResultResponse struct {
	ID        string         `json:"id"`
	Student   *BriefResponse `json:"student,omitempty"`
	Paper     *BriefResponse `json:"paper,omitempty"`
	Cat1      *float64       `json:"cat1"`
	Cat2      *float64       `json:"cat2"`
	UpdatedAt string         `json:"updated_at"`
}

// ── import ──

// ImportResponse bulk import summary
type ImportResponse struct {
	Kind    string           `json:"kind"`
	Total   int              `json:"total"`
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Failed  int              `json:"failed"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError one rejected row
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ── audit ──

// AuditLogListRequest audit log query
type AuditLogListRequest struct {
	PaginationRequest
	UserID   string `form:"user_id"   binding:"omitempty,uuid"`
	Entity   string `form:"entity"    binding:"omitempty,max=50"`
	EntityID string `form:"entity_id" binding:"omitempty,max=64"`
	Action   string `form:"action"    binding:"omitempty,oneof=create change delete"`
}

// AuditLogResponse audit entry
type AuditLogResponse struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Action    string      `json:"action"`
	Entity    string      `json:"entity"`
	EntityID  string      `json:"entity_id"`
	Summary   string      `json:"summary"`
	Changes   interface{} `json:"changes,omitempty"`
	CreatedAt string      `json:"created_at"`
}
