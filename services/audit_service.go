package services

import (
	"encoding/json"
	"log"

	"github.com/minhtran-dev/edumarket-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditService records admin actions against the ledger. Audit writes
// are best-effort: a failed audit insert is logged but never fails the
// admin operation it describes.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit row. oldValue/newValue are snapshotted as
// JSON; nil values are stored as empty.
func (s *AuditService) Record(adminID uint, action, resource string, resourceID uint, oldValue, newValue interface{}, ip, description string) {
	entry := model.AdminAuditLog{
		AdminID:     adminID,
		Action:      action,
		Resource:    resource,
		ResourceID:  resourceID,
		IPAddress:   ip,
		Description: description,
	}

	if oldValue != nil {
		if data, err := json.Marshal(oldValue); err == nil {
			entry.OldValue = datatypes.JSON(data)
		}
	}
	if newValue != nil {
		if data, err := json.Marshal(newValue); err == nil {
			entry.NewValue = datatypes.JSON(data)
		}
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("Warning: failed to write audit log (%s %s/%d): %v", action, resource, resourceID, err)
	}
}

// List returns audit entries, newest first
func (s *AuditService) List(limit, offset int) ([]model.AdminAuditLog, int64, error) {
	var total int64
	if err := s.db.Model(&model.AdminAuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.AdminAuditLog
	err := s.db.Preload("Admin").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, total, err
}
