package model

// Student an enrolled student (students)
type Student struct {
	StudentID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	UserID           string `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	Admission        string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"admission"`
	SpecializationID string `gorm:"type:uuid;not null;index"                       json:"specialization_id"`
	Centre           string `gorm:"type:varchar(100);not null;default:''"          json:"centre"`
	Mode             string `gorm:"type:varchar(2);not null;default:'FT'"          json:"mode"`
	Year             int    `gorm:"not null;default:1"                             json:"year"`
	BaseModel

	User           *User           `gorm:"foreignKey:UserID;references:UserID"                     json:"user,omitempty"`
	Specialization *Specialization `gorm:"foreignKey:SpecializationID;references:SpecializationID" json:"specialization,omitempty"`
}

// TableName table name
func (Student) TableName() string { return "students" }
