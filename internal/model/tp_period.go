package model

// Period a teaching practice round (tp_periods)
type Period struct {
	PeriodID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"period_id"`
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	IsActive bool   `gorm:"not null;default:false"                         json:"is_active"`
	BaseModel
}

// TableName table name
func (Period) TableName() string { return "tp_periods" }
