package store

import (
	"testing"

	"github.com/1abama1/prokatgo/internal/config"
	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Contract{},
		&models.SyncAction{},
		&models.SyncMetadata{},
		&models.CachedClient{},
		&models.CachedTool{},
	))
	return db
}

func newContract(localID string) *models.Contract {
	return &models.Contract{
		LocalID:       localID,
		ClientID:      5,
		ToolID:        9,
		StartDateTime: "2025-01-01T10:00:00Z",
		Status:        models.ContractActive,
		SyncStatus:    models.SyncPending,
	}
}

func TestInsertAndFind(t *testing.T) {
	s := NewContracts(openTestDB(t))

	require.NoError(t, s.Insert(newContract("L1")))

	found, err := s.FindByLocalID("L1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "L1", found.LocalID)
	assert.Nil(t, found.RemoteID)
	assert.NotZero(t, found.UpdatedAt)

	missing, err := s.FindByLocalID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = s.FindByRemoteID(12345)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertDuplicateLocalID(t *testing.T) {
	s := NewContracts(openTestDB(t))

	require.NoError(t, s.Insert(newContract("L1")))
	err := s.Insert(newContract("L1"))
	assert.ErrorIs(t, err, ErrDuplicateLocalID)
}

func TestUpdateFieldsAssignsRemoteIDOnce(t *testing.T) {
	s := NewContracts(openTestDB(t))
	require.NoError(t, s.Insert(newContract("L1")))

	require.NoError(t, s.UpdateFields(ByLocalID("L1"), map[string]interface{}{
		"remote_id":       int64(42),
		"contract_number": "R-2025-01-01-123",
		"sync_status":     models.SyncSynced,
	}))

	found, err := s.FindByLocalID("L1")
	require.NoError(t, err)
	require.NotNil(t, found.RemoteID)
	assert.Equal(t, int64(42), *found.RemoteID)
	assert.Equal(t, "R-2025-01-01-123", *found.ContractNumber)
	assert.Equal(t, models.SyncSynced, found.SyncStatus)

	// A second assignment to a different value must not take.
	require.NoError(t, s.UpdateFields(ByLocalID("L1"), map[string]interface{}{
		"remote_id": int64(99),
	}))
	found, err = s.FindByLocalID("L1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), *found.RemoteID)

	// Re-applying the same assignment is a no-op, not an error.
	require.NoError(t, s.UpdateFields(ByLocalID("L1"), map[string]interface{}{
		"remote_id": int64(42),
	}))
	found, err = s.FindByLocalID("L1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), *found.RemoteID)
}

func TestUpdateFieldsNeverTouchesLocalID(t *testing.T) {
	s := NewContracts(openTestDB(t))
	require.NoError(t, s.Insert(newContract("L1")))

	require.NoError(t, s.UpdateFields(ByLocalID("L1"), map[string]interface{}{
		"local_id": "evil",
		"comment":  "rescheduled",
	}))

	found, err := s.FindByLocalID("L1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "rescheduled", *found.Comment)

	gone, err := s.FindByLocalID("evil")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUpdateFieldsBumpsUpdatedAt(t *testing.T) {
	s := NewContracts(openTestDB(t))
	require.NoError(t, s.Insert(newContract("L1")))

	before, err := s.FindByLocalID("L1")
	require.NoError(t, err)

	require.NoError(t, s.UpdateFields(ByLocalID("L1"), map[string]interface{}{
		"amount": 150.0,
	}))

	after, err := s.FindByLocalID("L1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.UpdatedAt, before.UpdatedAt)
	assert.Equal(t, 150.0, *after.Amount)
}

func TestUpdateByRemoteID(t *testing.T) {
	s := NewContracts(openTestDB(t))
	require.NoError(t, s.Insert(newContract("L1")))
	require.NoError(t, s.UpdateFields(ByLocalID("L1"), map[string]interface{}{
		"remote_id": int64(7),
	}))

	require.NoError(t, s.UpdateFields(ByRemoteID(7), map[string]interface{}{
		"status": models.ContractClosed,
	}))

	found, err := s.FindByRemoteID(7)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.ContractClosed, found.Status)
}

func TestListByStatus(t *testing.T) {
	s := NewContracts(openTestDB(t))

	require.NoError(t, s.Insert(newContract("L1")))
	require.NoError(t, s.Insert(newContract("L2")))
	closed := newContract("L3")
	closed.Status = models.ContractClosed
	require.NoError(t, s.Insert(closed))

	active, err := s.ListByStatus(models.ContractActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, c := range active {
		assert.Equal(t, models.ContractActive, c.Status)
	}

	closedList, err := s.ListByStatus(models.ContractClosed)
	require.NoError(t, err)
	require.Len(t, closedList, 1)
	assert.Equal(t, "L3", closedList[0].LocalID)
}
