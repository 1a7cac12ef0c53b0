package model

import "strings"

// Course an academic programme, e.g. a diploma (courses)
type Course struct {
	CourseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code     string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Name     string `gorm:"type:varchar(200);not null"                     json:"name"`
	BaseModel
}

// IsDiploma reports a diploma level course
func (c *Course) IsDiploma() bool { return strings.Contains(c.Name, "Diploma") }

// IsCertificate reports a certificate level course
func (c *Course) IsCertificate() bool { return strings.Contains(c.Name, "Certificate") }

// TableName table name
func (Course) TableName() string { return "courses" }
