package model

// Paper an examined paper of a specialization (papers)
type Paper struct {
	PaperID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"paper_id"`
	Code             string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Name             string `gorm:"type:varchar(200);not null"                     json:"name"`
	SpecializationID string `gorm:"type:uuid;not null;index"                       json:"specialization_id"`
	BaseModel

	Specialization *Specialization `gorm:"foreignKey:SpecializationID;references:SpecializationID" json:"specialization,omitempty"`
}

// TableName table name
func (Paper) TableName() string { return "papers" }

// Module a taught unit of a paper (modules)
type Module struct {
	ModuleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"module_id"`
	Code     string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Name     string `gorm:"type:varchar(200);not null"                     json:"name"`
	PaperID  string `gorm:"type:uuid;not null;index"                       json:"paper_id"`
	BaseModel

	Paper *Paper `gorm:"foreignKey:PaperID;references:PaperID" json:"paper,omitempty"`
}

// TableName table name
func (Module) TableName() string { return "modules" }
