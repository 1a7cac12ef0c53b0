package model

// Study modes
const (
	ModeDistanceLearning = "DL"
	ModeFullTime         = "FT"
)

// Specialization a department / track under a course (specializations)
type Specialization struct {
	SpecializationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"specialization_id"`
	Code             string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Name             string `gorm:"type:varchar(200);not null"                     json:"name"`
	Mode             string `gorm:"type:varchar(2);not null;default:'FT'"          json:"mode"`
	CourseID         string `gorm:"type:uuid;not null;index"                       json:"course_id"`
	BaseModel

	Course *Course           `gorm:"foreignKey:CourseID;references:CourseID"                 json:"course,omitempty"`
	HoD    *HeadOfDepartment `gorm:"foreignKey:SpecializationID;references:SpecializationID" json:"hod,omitempty"`
}

// TableName table name
func (Specialization) TableName() string { return "specializations" }

// HeadOfDepartment the HoD of a specialization (hods)
type HeadOfDepartment struct {
	HodID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"hod_id"`
	SpecializationID string `gorm:"type:uuid;not null;uniqueIndex"                 json:"specialization_id"`
	UserID           string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName table name
func (HeadOfDepartment) TableName() string { return "hods" }
