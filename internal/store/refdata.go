package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefData is the read-through cache of backend-owned directory entities
// (clients and tools). Successful backend list responses upsert rows here;
// pick-lists fall back to these rows while the backend is unreachable.
type RefData struct {
	db *database.DB
}

// NewRefData creates the reference-data cache.
func NewRefData(db *database.DB) *RefData {
	return &RefData{db: db}
}

// UpsertClients replaces cached client rows by id.
func (r *RefData) UpsertClients(clients []models.CachedClient) error {
	if len(clients) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	for i := range clients {
		clients[i].UpdatedAt = now
	}
	err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&clients).Error
	if err != nil {
		return fmt.Errorf("failed to cache clients: %w", err)
	}
	return nil
}

// UpsertTools replaces cached tool rows by id.
func (r *RefData) UpsertTools(tools []models.CachedTool) error {
	if len(tools) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	for i := range tools {
		tools[i].UpdatedAt = now
	}
	err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&tools).Error
	if err != nil {
		return fmt.Errorf("failed to cache tools: %w", err)
	}
	return nil
}

// GetClient returns one cached client, or nil when not cached.
func (r *RefData) GetClient(id int64) (*models.CachedClient, error) {
	var c models.CachedClient
	err := r.db.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached client: %w", err)
	}
	return &c, nil
}

// GetTool returns one cached tool, or nil when not cached.
func (r *RefData) GetTool(id int64) (*models.CachedTool, error) {
	var t models.CachedTool
	err := r.db.Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached tool: %w", err)
	}
	return &t, nil
}

// ListClients returns all cached clients, alphabetically.
func (r *RefData) ListClients() ([]models.CachedClient, error) {
	var out []models.CachedClient
	if err := r.db.Order("full_name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list cached clients: %w", err)
	}
	return out, nil
}

// ListTools returns all cached tools, alphabetically.
func (r *RefData) ListTools() ([]models.CachedTool, error) {
	var out []models.CachedTool
	if err := r.db.Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list cached tools: %w", err)
	}
	return out, nil
}
