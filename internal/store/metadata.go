package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"gorm.io/gorm"
)

// Sync pass outcomes recorded in sync_metadata.
const (
	SyncOutcomeSuccess = "success"
	SyncOutcomeFailed  = "failed"
	SyncOutcomeSkipped = "skipped"
)

// Metadata keeps a single bookkeeping row describing the most recent sync
// pass, for the status endpoint and the UI indicator.
type Metadata struct {
	db *database.DB
}

// NewMetadata creates the sync metadata store.
func NewMetadata(db *database.DB) *Metadata {
	return &Metadata{db: db}
}

// RecordPass overwrites the bookkeeping row with the outcome of a pass.
func (m *Metadata) RecordPass(status string, recordsSynced int, errMessage *string) error {
	now := time.Now().UTC()

	var meta models.SyncMetadata
	err := m.db.First(&meta).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to read sync metadata: %w", err)
	}

	meta.LastSyncAt = &now
	meta.LastSyncStatus = status
	meta.RecordsSynced = recordsSynced
	meta.ErrorMessage = errMessage
	meta.UpdatedAt = now

	if err := m.db.Save(&meta).Error; err != nil {
		return fmt.Errorf("failed to write sync metadata: %w", err)
	}
	return nil
}

// Last returns the bookkeeping row, or nil when no pass has run yet.
func (m *Metadata) Last() (*models.SyncMetadata, error) {
	var meta models.SyncMetadata
	err := m.db.First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync metadata: %w", err)
	}
	return &meta, nil
}
