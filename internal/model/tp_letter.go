package model

import "time"

// Location where an assessment was started (tp_locations)
type Location struct {
	LocationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"location_id"`
	Latitude   float64   `gorm:"not null"                                       json:"latitude"`
	Longitude  float64   `gorm:"not null"                                       json:"longitude"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName table name
func (Location) TableName() string { return "tp_locations" }

// StudentLetter one assessment of a TP student by one assessor (tp_letters)
type StudentLetter struct {
	LetterID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"letter_id"`
	TPStudentID      string     `gorm:"type:uuid;not null;index"                       json:"tp_student_id"`
	AssessorID       string     `gorm:"type:uuid;not null;index"                       json:"assessor_id"`
	AssessmentTypeID string     `gorm:"type:uuid;not null;index"                       json:"assessment_type_id"`
	PeriodID         *string    `gorm:"type:uuid;index"                                json:"period_id,omitempty"`
	LocationID       *string    `gorm:"type:uuid"                                      json:"location_id,omitempty"`
	TotalScore       float64    `gorm:"type:numeric(6,2);not null;default:0"           json:"total_score"`
	Comments         *string    `gorm:"type:text"                                      json:"comments,omitempty"`
	School           *string    `gorm:"type:varchar(200)"                              json:"school,omitempty"`
	Grade            *string    `gorm:"type:varchar(50)"                               json:"grade,omitempty"`
	LearningArea     *string    `gorm:"type:varchar(200)"                              json:"learning_area,omitempty"`
	Zone             *string    `gorm:"type:varchar(100);index"                        json:"zone,omitempty"`
	LateSubmission   bool       `gorm:"not null;default:false"                         json:"late_submission"`
	Reason           *string    `gorm:"type:text"                                      json:"reason,omitempty"`
	IsEditable       bool       `gorm:"not null;default:true"                          json:"is_editable"`
	ToDelete         bool       `gorm:"not null;default:false"                         json:"to_delete"`
	DeletionReason   *string    `gorm:"type:text"                                      json:"deletion_reason,omitempty"`
	RequestTime      *time.Time `gorm:""                                               json:"request_time,omitempty"`
	BaseModel

	Student        *TPStudent       `gorm:"foreignKey:TPStudentID;references:TPStudentID"           json:"student,omitempty"`
	Assessor       *User            `gorm:"foreignKey:AssessorID;references:UserID"                 json:"assessor,omitempty"`
	AssessmentType *AssessmentType  `gorm:"foreignKey:AssessmentTypeID;references:AssessmentTypeID" json:"assessment_type,omitempty"`
	Location       *Location        `gorm:"foreignKey:LocationID;references:LocationID"             json:"location,omitempty"`
	Sections       []StudentSection `gorm:"foreignKey:LetterID;references:LetterID"                 json:"sections,omitempty"`
}

// IsComplete comments given and a non-zero total
func (l *StudentLetter) IsComplete() bool {
	return l.Comments != nil && *l.Comments != "" && l.TotalScore != 0
}

// TableName table name
func (StudentLetter) TableName() string { return "tp_letters" }

// StudentSection a letter's score and comments for one section (tp_student_sections)
type StudentSection struct {
	StudentSectionID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_section_id"`
	LetterID         string  `gorm:"type:uuid;not null;index"                       json:"letter_id"`
	SectionID        string  `gorm:"type:uuid;not null;index"                       json:"section_id"`
	Score            float64 `gorm:"type:numeric(6,2);not null;default:0"           json:"score"`
	Comments         *string `gorm:"type:text"                                      json:"comments,omitempty"`
	BaseModel

	Section *Section        `gorm:"foreignKey:SectionID;references:SectionID"               json:"section,omitempty"`
	Aspects []StudentAspect `gorm:"foreignKey:StudentSectionID;references:StudentSectionID" json:"aspects,omitempty"`
}

// TableName table name
func (StudentSection) TableName() string { return "tp_student_sections" }

// StudentAspect a letter's score for one aspect (tp_student_aspects)
type StudentAspect struct {
	StudentAspectID  string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_aspect_id"`
	StudentSectionID string   `gorm:"type:uuid;not null;index"                       json:"student_section_id"`
	AspectID         string   `gorm:"type:uuid;not null;index"                       json:"aspect_id"`
	Score            *float64 `gorm:"type:numeric(6,2)"                              json:"score"`
	BaseModel

	Aspect *Aspect `gorm:"foreignKey:AspectID;references:AspectID" json:"aspect,omitempty"`
}

// TableName table name
func (StudentAspect) TableName() string { return "tp_student_aspects" }
