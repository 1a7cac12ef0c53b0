package model

// AssessmentType a kind of TP assessment with its own rubric and admins (tp_assessment_types)
type AssessmentType struct {
	AssessmentTypeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assessment_type_id"`
	Name             string `gorm:"type:varchar(100);not null"                     json:"name"`
	ShortName        string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"short_name"`
	CourseID         string `gorm:"type:uuid;not null;index"                       json:"course_id"`
	TotalFormula     string `gorm:"type:varchar(200);not null;default:''"          json:"total_formula"` // empty: plain sum
	BaseModel

	Course *Course `gorm:"foreignKey:CourseID;references:CourseID"                                                                                                 json:"course,omitempty"`
	Admins []User  `gorm:"many2many:tp_assessment_type_admins;foreignKey:AssessmentTypeID;joinForeignKey:AssessmentTypeID;references:UserID;joinReferences:UserID" json:"admins,omitempty"`
}

// TableName table name
func (AssessmentType) TableName() string { return "tp_assessment_types" }
