package models

import (
	"time"
)

type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    *uint     `gorm:"index" json:"actor_id"`
	ActorKind  string    `gorm:"size:20;index" json:"actor_kind"` // account | admin
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Resource   string    `gorm:"size:100;index" json:"resource"`
	ResourceID string    `gorm:"size:100;index" json:"resource_id"`
	IP         string    `gorm:"size:45" json:"ip"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
