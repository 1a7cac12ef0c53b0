package dto

import "time"

// ── shared ──

// PaginationRequest common paging parameters
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// GetOffset row offset of the page
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Timestamp formats t as RFC3339 UTC
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// OptionalTimestamp formats t, empty when nil
func OptionalTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Timestamp(*t)
}

// Deref returns *s or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ── auth ──

// TokenResponse token pair
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // access token lifetime in seconds
	User         UserResponse `json:"user"`
}

// ── users ──

// UserResponse user without secrets
type UserResponse struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	Surname            string `json:"surname"`
	OtherNames         string `json:"other_names"`
	FullName           string `json:"full_name"`
	Email              string `json:"email"`
	Sex                string `json:"sex"`
	Role               string `json:"role"`
	IsActive           bool   `json:"is_active"`
	MustChangePassword bool   `json:"must_change_password"`
	LastLoginAt        string `json:"last_login_at,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

// UserDetailResponse GET /auth/me
type UserDetailResponse struct {
	UserResponse
	SpecializationID string   `json:"specialization_id,omitempty"`
	IsHoD            bool     `json:"is_hod"`
	IsTPAdmin        bool     `json:"is_tp_admin"`
	Zones            []string `json:"zones,omitempty"`
}

// BriefResponse id plus display name
type BriefResponse struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name"`
}
