package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"gorm.io/datatypes"
)

// Queue is the durable FIFO of mutations awaiting backend acknowledgment.
type Queue struct {
	db *database.DB
}

// NewQueue creates a mutation queue over the local database.
func NewQueue(db *database.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue appends a pending mutation. The payload is stored as JSON so the
// synchronizer can replay it verbatim against the backend later.
func (q *Queue) Enqueue(actionType, localID string, payload interface{}) (*models.SyncAction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue payload: %w", err)
	}

	action := &models.SyncAction{
		Type:      actionType,
		LocalID:   localID,
		Payload:   datatypes.JSON(raw),
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := q.db.Create(action).Error; err != nil {
		return nil, fmt.Errorf("failed to enqueue %s action: %w", actionType, err)
	}
	return action, nil
}

// Drain returns a snapshot of all pending mutations in enqueue order.
// Entries stay in the table until RemoveBatch confirms them.
func (q *Queue) Drain() ([]models.SyncAction, error) {
	var actions []models.SyncAction
	if err := q.db.Order("id ASC").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("failed to read sync queue: %w", err)
	}
	return actions, nil
}

// RemoveBatch deletes acknowledged entries by id. Already-removed ids are
// ignored, so confirming the same batch twice is harmless.
func (q *Queue) RemoveBatch(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := q.db.Where("id IN ?", ids).Delete(&models.SyncAction{}).Error; err != nil {
		return fmt.Errorf("failed to remove acknowledged actions: %w", err)
	}
	return nil
}

// CountAll returns the number of pending mutations.
func (q *Queue) CountAll() (int64, error) {
	var count int64
	if err := q.db.Model(&models.SyncAction{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return count, nil
}

// ExistsForLocalID reports whether any pending mutation still references the
// given contract.
func (q *Queue) ExistsForLocalID(localID string) (bool, error) {
	var count int64
	err := q.db.Model(&models.SyncAction{}).Where("local_id = ?", localID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check sync queue: %w", err)
	}
	return count > 0, nil
}
