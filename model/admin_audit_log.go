package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records admin actions against the ledger (enrollment
// cancellation, manual refunds) with before/after snapshots.
type AdminAuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AdminID     uint           `gorm:"not null;index" json:"admin_id"`
	Action      string         `gorm:"type:varchar(100);not null" json:"action"` // e.g. "enrollment_cancel", "refund_create"
	Resource    string         `gorm:"type:varchar(100)" json:"resource"`        // e.g. "enrollments", "payments"
	ResourceID  uint           `json:"resource_id"`
	OldValue    datatypes.JSON `json:"old_value,omitempty"`
	NewValue    datatypes.JSON `json:"new_value,omitempty"`
	IPAddress   string         `gorm:"type:varchar(45)" json:"ip_address"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
