package dto

// ── users ──

// UserListRequest user list query
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=student lecturer admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CreateUserRequest admin creates an account
type CreateUserRequest struct {
	Username   string `json:"username"    binding:"required,min=2,max=50"`
	Surname    string `json:"surname"     binding:"required,max=50"`
	OtherNames string `json:"other_names" binding:"omitempty,max=100"`
	Email      string `json:"email"       binding:"omitempty,email"`
	Sex        string `json:"sex"         binding:"omitempty,sex"`
	Role       string `json:"role"        binding:"required,oneof=student lecturer admin"`
	Password   string `json:"password"    binding:"omitempty,min=8,max=64"`
}

// UpdateUserRequest partial user update
type UpdateUserRequest struct {
	Username   *string `json:"username"    binding:"omitempty,min=2,max=50"`
	Surname    *string `json:"surname"     binding:"omitempty,max=50"`
	OtherNames *string `json:"other_names" binding:"omitempty,max=100"`
	Email      *string `json:"email"       binding:"omitempty,email"`
	Sex        *string `json:"sex"         binding:"omitempty,sex"`
	Role       *string `json:"role"        binding:"omitempty,oneof=student lecturer admin"`
	IsActive   *bool   `json:"is_active"`
}

// ResetPasswordResponse temporary password, shown once
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// CreateUserResponse created user plus the generated password, if any
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password,omitempty"`
}
