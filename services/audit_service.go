package services

import (
	"encoding/json"
	"itr_flow_app_go/models"
	"log"

	"gorm.io/gorm"
)

// AuditContext contains contextual information for audit logging
type AuditContext struct {
	ActorID   string
	ActorName string
	ActorRole string
	IPAddress string
	UserAgent string
}

// LogAuditEvent creates a new audit log entry asynchronously. Used by the HTTP
// layer for request-scoped events (login, downloads); workflow operations write
// their audit rows inside their own transaction instead.
func LogAuditEvent(
	db *gorm.DB,
	ctx AuditContext,
	action models.AuditAction,
	resourceType string,
	resourceID string,
	description string,
	oldValues interface{},
	newValues interface{},
) {
	// Run in goroutine to avoid blocking the request
	go func() {
		var oldJSON, newJSON string

		if oldValues != nil {
			if bytes, err := json.Marshal(oldValues); err == nil {
				oldJSON = string(bytes)
			}
		}
		if newValues != nil {
			if bytes, err := json.Marshal(newValues); err == nil {
				newJSON = string(bytes)
			}
		}

		auditLog := models.AuditLog{
			ActorID:      ptrIfNotEmpty(ctx.ActorID),
			ActorName:    ctx.ActorName,
			ActorRole:    ctx.ActorRole,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Action:       action,
			Description:  description,
			OldValues:    oldJSON,
			NewValues:    newJSON,
			IPAddress:    ctx.IPAddress,
			UserAgent:    ctx.UserAgent,
		}

		if err := db.Create(&auditLog).Error; err != nil {
			log.Printf("[AUDIT] Failed to create audit log: %v", err)
		}
	}()
}

// GetAuditTrail returns the audit entries for one resource, newest first
func GetAuditTrail(db *gorm.DB, resourceType, resourceID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
