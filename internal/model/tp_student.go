package model

import "strings"

// TPStudent a student on teaching practice (tp_students)
type TPStudent struct {
	TPStudentID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"tp_student_id"`
	FullName         string  `gorm:"type:varchar(150);not null"                     json:"full_name"`
	Sex              string  `gorm:"type:varchar(1);not null;default:''"            json:"sex"`
	Index            string  `gorm:"type:varchar(20);not null;uniqueIndex"          json:"index"`
	Email            string  `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	Department       *string `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	SpecializationID *string `gorm:"type:uuid;index"                                json:"specialization_id,omitempty"`
	PeriodID         *string `gorm:"type:uuid;index"                                json:"period_id,omitempty"`
	BaseModel

	Specialization *Specialization `gorm:"foreignKey:SpecializationID;references:SpecializationID" json:"specialization,omitempty"`
	Period         *Period         `gorm:"foreignKey:PeriodID;references:PeriodID"                 json:"period,omitempty"`
}

// TableName table name
func (TPStudent) TableName() string { return "tp_students" }

// HasValidIndex reports a diploma style index: eleven characters starting with TA
func (s *TPStudent) HasValidIndex() bool {
	return len(s.Index) == 11 && strings.HasPrefix(s.Index, "TA")
}
