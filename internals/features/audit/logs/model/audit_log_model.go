package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is append-only.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	Action     string         `gorm:"size:40;not null;index" json:"action"`
	EntityType string         `gorm:"size:60;not null;index:idx_audit_logs_entity,priority:1" json:"entity_type"`
	EntityID   *uuid.UUID     `gorm:"type:uuid;index:idx_audit_logs_entity,priority:2" json:"entity_id,omitempty"`
	ActorID    *uuid.UUID     `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	ActorName  *string        `gorm:"size:150" json:"actor_name,omitempty"`
	IP         *string        `gorm:"size:64" json:"ip,omitempty"`
	UserAgent  *string        `gorm:"type:text" json:"user_agent,omitempty"`
	BeforeData datatypes.JSON `gorm:"type:jsonb" json:"before_data,omitempty"`
	AfterData  datatypes.JSON `gorm:"type:jsonb" json:"after_data,omitempty"`
	Diff       datatypes.JSON `gorm:"type:jsonb" json:"diff,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
