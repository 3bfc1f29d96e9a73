package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions
const (
	ActionPlaceOrder        = "place_order"
	ActionUpdateOrderStatus = "update_order_status"
	ActionCreateProduct     = "create_product"
	ActionUpdateProduct     = "update_product"
	ActionDeleteProduct     = "delete_product"
	ActionCreateCategory    = "create_category"
	ActionUpdateCategory    = "update_category"
	ActionDeleteCategory    = "delete_category"
	ActionPromoteUser       = "promote_user"
	ActionDemoteUser        = "demote_user"
	ActionUploadImage       = "upload_image"
)

// AuditLog append-only record of a privileged action
type AuditLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ActorID   *string   `gorm:"size:36;index" json:"actor_id"`
	Action    string    `gorm:"size:255;index;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	Ip        string    `gorm:"size:64" json:"ip"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

// TableName Specify table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return nil
}

// NewAuditLog builds an entry for actorID; an empty actorID records a system action.
func NewAuditLog(actorID, action, details, ip string) *AuditLog {
	log := &AuditLog{Action: action, Details: details, Ip: ip, Timestamp: time.Now()}
	if actorID != "" {
		log.ActorID = &actorID
	}
	return log
}
