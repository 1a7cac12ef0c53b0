package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions
const (
	AuditCreate = "create"
	AuditChange = "change"
	AuditDelete = "delete"
)

// AuditLog one recorded change (audit_logs)
type AuditLog struct {
	AuditLogID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"        json:"audit_log_id"`
	UserID     string         `gorm:"type:uuid;not null;index"                              json:"user_id"`
	Action     string         `gorm:"type:varchar(10);not null"                             json:"action"`
	Entity     string         `gorm:"type:varchar(50);not null;index:idx_audit_logs_entity" json:"entity"`
	EntityID   string         `gorm:"type:varchar(64);not null;index:idx_audit_logs_entity" json:"entity_id"`
	Summary    string         `gorm:"type:varchar(255);not null;default:''"                 json:"summary"`
	Changes    datatypes.JSON `gorm:"type:jsonb"                                            json:"changes,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"                    json:"created_at"`
}

// TableName table name
func (AuditLog) TableName() string { return "audit_logs" }
