package models

import (
	"time"

	"gorm.io/datatypes"
)

// Queued mutation types. A CREATE for a given local id always precedes any
// UPDATE or CLOSE for the same id because the façade enqueues in call order.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionClose  = "CLOSE"
)

// SyncAction is one pending mutation awaiting backend acknowledgment.
// The auto-incrementing ID defines FIFO processing order; rows are deleted
// only after the backend has acknowledged the batch containing them.
type SyncAction struct {
	ID        uint           `gorm:"primaryKey" json:"queueId"`
	Type      string         `gorm:"type:varchar(20);not null" json:"type"`
	LocalID   string         `gorm:"index;not null" json:"localId"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt int64          `gorm:"not null" json:"createdAt"`
}

// TableName specifies the table name for SyncAction model
func (SyncAction) TableName() string {
	return "sync_queue"
}

// SyncMetadata records the outcome of the most recent sync pass.
type SyncMetadata struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	LastSyncAt     *time.Time `json:"lastSyncAt"`
	LastSyncStatus string     `gorm:"type:varchar(50)" json:"lastSyncStatus"`
	RecordsSynced  int        `gorm:"default:0" json:"recordsSynced"`
	ErrorMessage   *string    `gorm:"type:text" json:"errorMessage,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for SyncMetadata model
func (SyncMetadata) TableName() string {
	return "sync_metadata"
}
