package model

// Lecturer roles
const (
	LecturerRoleTeamLeader = "TL"
	LecturerRoleLecturer   = "LEC"
)

// Lecturer staff profile (lecturers)
type Lecturer struct {
	LecturerID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecturer_id"`
	UserID           string `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	SpecializationID string `gorm:"type:uuid;not null;index"                       json:"specialization_id"`
	Role             string `gorm:"type:varchar(3);not null;default:'LEC'"         json:"role"`
	BaseModel

	User           *User           `gorm:"foreignKey:UserID;references:UserID"                     json:"user,omitempty"`
	Specialization *Specialization `gorm:"foreignKey:SpecializationID;references:SpecializationID" json:"specialization,omitempty"`
}

// TableName table name
func (Lecturer) TableName() string { return "lecturers" }
