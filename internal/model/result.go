package model

// Result generated CAT totals of a student in a paper (results)
type Result struct {
	ResultID  string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"result_id"`
	StudentID string   `gorm:"type:uuid;not null;uniqueIndex:uk_results_student_paper" json:"student_id"`
	PaperID   string   `gorm:"type:uuid;not null;uniqueIndex:uk_results_student_paper" json:"paper_id"`
	Cat1      *float64 `gorm:"type:numeric(6,2)"                                       json:"cat1"`
	Cat2      *float64 `gorm:"type:numeric(6,2)"                                       json:"cat2"`
	BaseModel

	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Paper   *Paper   `gorm:"foreignKey:PaperID;references:PaperID"     json:"paper,omitempty"`
}

// TableName table name
func (Result) TableName() string { return "results" }
