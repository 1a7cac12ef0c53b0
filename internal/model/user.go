package model

import (
	"strings"
	"time"
)

// Roles
const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

// User login account (users)
type User struct {
	UserID             string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                                   json:"user_id"`
	Username           string     `gorm:"type:varchar(50);not null;uniqueIndex:uk_users_username,where:deleted_at IS NULL" json:"username"`
	Surname            string     `gorm:"type:varchar(50);not null"                                                        json:"surname"`
	OtherNames         string     `gorm:"type:varchar(100);not null;default:''"                                            json:"other_names"`
	Email              string     `gorm:"type:varchar(255);not null;default:'';index"                                      json:"email"`
	Sex                string     `gorm:"type:varchar(1);not null;default:''"                                              json:"sex"`
	PasswordHash       string     `gorm:"type:varchar(255);not null"                                                       json:"-"`
	Role               string     `gorm:"type:varchar(20);not null;default:'student'"                                      json:"role"`
	IsActive           bool       `gorm:"not null;default:true"                                                            json:"is_active"`
	MustChangePassword bool       `gorm:"not null;default:true"                                                            json:"must_change_password"`
	LastLoginAt        *time.Time `gorm:""                                                                                 json:"last_login_at,omitempty"`
	VersionedModel
}

// FullName surname followed by other names
func (u *User) FullName() string {
	return strings.TrimSpace(u.Surname + " " + u.OtherNames)
}

// TableName table name
func (User) TableName() string { return "users" }
