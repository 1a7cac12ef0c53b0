package model

// Section a rubric section of an assessment type (tp_sections)
type Section struct {
	SectionID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	AssessmentTypeID string `gorm:"type:uuid;not null;index"                       json:"assessment_type_id"`
	Number           int    `gorm:"not null"                                       json:"number"`
	Name             string `gorm:"type:varchar(200);not null"                     json:"name"`
	Contribution     int    `gorm:"not null"                                       json:"contribution"`
	BaseModel

	AssessmentType *AssessmentType `gorm:"foreignKey:AssessmentTypeID;references:AssessmentTypeID" json:"assessment_type,omitempty"`
}

// TableName table name
func (Section) TableName() string { return "tp_sections" }

// SubSection groups aspects inside a section (tp_sub_sections)
type SubSection struct {
	SubSectionID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"sub_section_id"`
	SectionID    string `gorm:"type:uuid;not null;index"                       json:"section_id"`
	Name         string `gorm:"type:varchar(200);not null"                     json:"name"`
	Contribution int    `gorm:"not null;default:0"                             json:"contribution"`
	BaseModel

	Section *Section `gorm:"foreignKey:SectionID;references:SectionID" json:"section,omitempty"`
}

// TableName table name
func (SubSection) TableName() string { return "tp_sub_sections" }

// Aspect a scored rubric item; Contribution is its maximum (tp_aspects)
type Aspect struct {
	AspectID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"aspect_id"`
	SectionID    string  `gorm:"type:uuid;not null;index"                       json:"section_id"`
	SubSectionID *string `gorm:"type:uuid;index"                                json:"sub_section_id,omitempty"`
	Name         string  `gorm:"type:varchar(300);not null"                     json:"name"`
	Contribution int     `gorm:"not null"                                       json:"contribution"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	Section    *Section    `gorm:"foreignKey:SectionID;references:SectionID"       json:"section,omitempty"`
	SubSection *SubSection `gorm:"foreignKey:SubSectionID;references:SubSectionID" json:"sub_section,omitempty"`
}

// TableName table name
func (Aspect) TableName() string { return "tp_aspects" }
