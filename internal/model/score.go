package model

// ModuleScore a student's marks in one module (module_scores)
type ModuleScore struct {
	ModuleScoreID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                 json:"module_score_id"`
	StudentID     string   `gorm:"type:uuid;not null;uniqueIndex:uk_module_scores_student_module" json:"student_id"`
	ModuleID      string   `gorm:"type:uuid;not null;uniqueIndex:uk_module_scores_student_module" json:"module_id"`
	Discussion    *float64 `gorm:"type:numeric(5,2)"                                              json:"discussion"`
	TakeAway      *float64 `gorm:"type:numeric(5,2)"                                              json:"take_away"`
	BaseModel

	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Module  *Module  `gorm:"foreignKey:ModuleID;references:ModuleID"   json:"module,omitempty"`
}

// TableName table name
func (ModuleScore) TableName() string { return "module_scores" }

// SitinCat invigilated CAT marks of a student in a paper (sitin_cats)
type SitinCat struct {
	SitinCatID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"             json:"sitin_cat_id"`
	StudentID  string   `gorm:"type:uuid;not null;uniqueIndex:uk_sitin_cats_student_paper" json:"student_id"`
	PaperID    string   `gorm:"type:uuid;not null;uniqueIndex:uk_sitin_cats_student_paper" json:"paper_id"`
	Cat1       *float64 `gorm:"type:numeric(5,2)"                                          json:"cat1"`
	Cat2       *float64 `gorm:"type:numeric(5,2)"                                          json:"cat2"`
	BaseModel

	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Paper   *Paper   `gorm:"foreignKey:PaperID;references:PaperID"     json:"paper,omitempty"`
}

// Score returns the mark for cat, nil when not sat
func (s *SitinCat) Score(cat string) *float64 {
	if cat == Cat2 {
		return s.Cat2
	}
	return s.Cat1
}

// TableName table name
func (SitinCat) TableName() string { return "sitin_cats" }
