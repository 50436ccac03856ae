// Package store implements the durable offline cache: the contract record
// table and the pending-mutation queue. It is the only layer that touches
// the local database on behalf of the façade and the synchronizer.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateLocalID is returned by Insert when a contract with the same
// local id already exists.
var ErrDuplicateLocalID = errors.New("contract with this local id already exists")

// Matcher selects contract rows by exactly one of the two identifier spaces.
// Lookups must always be explicit about which identifier they key on.
type Matcher struct {
	column string
	value  interface{}
}

// ByLocalID matches the contract carrying the given client-generated id.
func ByLocalID(localID string) Matcher {
	return Matcher{column: "local_id", value: localID}
}

// ByRemoteID matches the contract carrying the given backend-assigned id.
func ByRemoteID(remoteID int64) Matcher {
	return Matcher{column: "remote_id", value: remoteID}
}

// Contracts is the local record store for rental contracts.
type Contracts struct {
	db *database.DB
}

// NewContracts creates a contract store over the local database.
func NewContracts(db *database.DB) *Contracts {
	return &Contracts{db: db}
}

// Insert adds a new contract record. The record's UpdatedAt is stamped with
// the current local time.
func (s *Contracts) Insert(c *models.Contract) error {
	var count int64
	if err := s.db.Model(&models.Contract{}).Where("local_id = ?", c.LocalID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check local id: %w", err)
	}
	if count > 0 {
		return ErrDuplicateLocalID
	}

	c.UpdatedAt = nowMillis()
	if err := s.db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	return nil
}

// FindByLocalID returns the contract with the given local id, or nil when
// no such record exists.
func (s *Contracts) FindByLocalID(localID string) (*models.Contract, error) {
	return s.findOne("local_id = ?", localID)
}

// FindByRemoteID returns the contract with the given backend id, or nil when
// no such record exists.
func (s *Contracts) FindByRemoteID(remoteID int64) (*models.Contract, error) {
	return s.findOne("remote_id = ?", remoteID)
}

func (s *Contracts) findOne(query string, arg interface{}) (*models.Contract, error) {
	var c models.Contract
	err := s.db.Where(query, arg).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contract: %w", err)
	}
	return &c, nil
}

// UpdateFields merges the given fields into the matched record(s) and bumps
// UpdatedAt. The local id is never overwritten, and a remote id is assigned
// only while the record has none; re-applying the same assignment is a no-op.
func (s *Contracts) UpdateFields(m Matcher, fields map[string]interface{}) error {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		if k == "local_id" || k == "id" {
			continue
		}
		merged[k] = v
	}

	if remoteID, ok := merged["remote_id"]; ok {
		delete(merged, "remote_id")
		err := s.db.Model(&models.Contract{}).
			Where(m.column+" = ?", m.value).
			Where("remote_id IS NULL").
			Update("remote_id", remoteID).Error
		if err != nil {
			return fmt.Errorf("failed to assign remote id: %w", err)
		}
	}

	merged["updated_at"] = nowMillis()

	err := s.db.Model(&models.Contract{}).
		Where(m.column+" = ?", m.value).
		Updates(merged).Error
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return nil
}

// ListByStatus returns all contracts in the given lifecycle status, most
// recently touched first.
func (s *Contracts) ListByStatus(status string) ([]models.Contract, error) {
	var out []models.Contract
	err := s.db.Where("status = ?", status).
		Order("updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return out, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
