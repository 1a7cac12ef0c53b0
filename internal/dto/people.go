package dto

// ── lecturers ──

// LecturerListRequest lecturer list query
type LecturerListRequest struct {
	PaginationRequest
	SpecializationID string `form:"specialization_id" binding:"omitempty,uuid"`
	Role             string `form:"role"              binding:"omitempty,oneof=TL LEC"`
	Keyword          string `form:"keyword"           binding:"omitempty,max=50"`
}

// CreateLecturerRequest new lecturer and login
type CreateLecturerRequest struct {
	Username         string `json:"username"          binding:"required,min=2,max=50"`
	Surname          string `json:"surname"           binding:"required,max=50"`
	OtherNames       string `json:"other_names"       binding:"omitempty,max=100"`
	Email            string `json:"email"             binding:"omitempty,email"`
	Sex              string `json:"sex"               binding:"omitempty,sex"`
	SpecializationID string `json:"specialization_id" binding:"required,uuid"`
	Role             string `json:"role"              binding:"omitempty,oneof=TL LEC"`
}

// UpdateLecturerRequest partial lecturer update
type UpdateLecturerRequest struct {
	SpecializationID *string `json:"specialization_id" binding:"omitempty,uuid"`
	Role             *string `json:"role"              binding:"omitempty,oneof=TL LEC"`
}

// LecturerResponse lecturer
type LecturerResponse struct {
	ID             string         `json:"id"`
	User           UserResponse   `json:"user"`
	Role           string         `json:"role"`
	Specialization *BriefResponse `json:"specialization,omitempty"`
	CreatedAt      string         `json:"created_at"`
}

// ── students ──

// StudentListRequest student list query
type StudentListRequest struct {
	PaginationRequest
	SpecializationID string `form:"specialization_id" binding:"omitempty,uuid"`
	Mode             string `form:"mode"              binding:"omitempty,oneof=DL FT"`
	Year             int    `form:"year"              binding:"omitempty,oneof=1 2"`
	Keyword          string `form:"keyword"           binding:"omitempty,max=50"`
}

// CreateStudentRequest new student and login
type CreateStudentRequest struct {
	Admission        string `json:"admission"         binding:"required,max=30"`
	Surname          string `json:"surname"           binding:"required,max=50"`
	OtherNames       string `json:"other_names"       binding:"omitempty,max=100"`
	Email            string `json:"email"             binding:"omitempty,email"`
	Sex              string `json:"sex"               binding:"omitempty,sex"`
	SpecializationID string `json:"specialization_id" binding:"required,uuid"`
	Centre           string `json:"centre"            binding:"omitempty,max=100"`
	Mode             string `json:"mode"              binding:"required,oneof=DL FT"`
	Year             int    `json:"year"              binding:"required,oneof=1 2"`
}

// UpdateStudentRequest partial student update
type UpdateStudentRequest struct {
	SpecializationID *string `json:"specialization_id" binding:"omitempty,uuid"`
	Centre           *string `json:"centre"            binding:"omitempty,max=100"`
	Mode             *string `json:"mode"              binding:"omitempty,oneof=DL FT"`
	Year             *int    `json:"year"              binding:"omitempty,oneof=1 2"`
}

// StudentResponse student
type StudentResponse struct {
	ID             string         `json:"id"`
	Admission      string         `json:"admission"`
	User           UserResponse   `json:"user"`
	Specialization *BriefResponse `json:"specialization,omitempty"`
	Centre         string         `json:"centre"`
	Mode           string         `json:"mode"`
	Year           int            `json:"year"`
	CreatedAt      string         `json:"created_at"`
}
