package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/config"
	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/1abama1/prokatgo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	contracts *store.Contracts
	queue     *store.Queue
	metadata  *store.Metadata
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(&models.Contract{}, &models.SyncAction{}, &models.SyncMetadata{}))

	return fixture{
		contracts: store.NewContracts(db),
		queue:     store.NewQueue(db),
		metadata:  store.NewMetadata(db),
	}
}

type fakeAPI struct {
	mu      gosync.Mutex
	calls   int
	batches []backend.SyncBatchRequest
	resp    *backend.SyncBatchResponse
	err     error

	// When set, SyncContracts signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeAPI) SyncContracts(ctx context.Context, batch backend.SyncBatchRequest) (*backend.SyncBatchResponse, error) {
	f.mu.Lock()
	f.calls++
	f.batches = append(f.batches, batch)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &backend.SyncBatchResponse{IDMappings: []backend.IDMapping{}}, nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeConn struct{ online bool }

func (f *fakeConn) IsOnline() bool { return f.online }

type recordingReporter struct {
	started   int
	completed int
	failed    []error
}

func (r *recordingReporter) PassStarted(pending int)                   { r.started++ }
func (r *recordingReporter) PassCompleted(synced int, d time.Duration) { r.completed++ }
func (r *recordingReporter) PassFailed(err error)                      { r.failed = append(r.failed, err) }

func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{
		Enabled:        true,
		SyncOnStartup:  false,
		Interval:       3600,
		HealthInterval: 3600,
		RequestTimeout: 5,
	}
}

func seedPendingCreate(t *testing.T, fx fixture, localID string) {
	t.Helper()
	require.NoError(t, fx.contracts.Insert(&models.Contract{
		LocalID:       localID,
		ClientID:      5,
		ToolID:        9,
		StartDateTime: "2025-01-01T10:00:00Z",
		Status:        models.ContractActive,
		SyncStatus:    models.SyncPending,
	}))
	_, err := fx.queue.Enqueue(models.ActionCreate, localID, backend.CreateContractRequest{
		ClientID: 5,
		ToolID:   9,
	})
	require.NoError(t, err)
}

func TestPassReconcilesOfflineCreate(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")

	api := &fakeAPI{resp: &backend.SyncBatchResponse{
		IDMappings: []backend.IDMapping{
			{LocalID: "L1", BackendID: 42, ContractNumber: "R-2025-01-01-123"},
		},
	}}
	reporter := &recordingReporter{}
	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, api, &fakeConn{online: true}, testSyncConfig(), reporter)

	require.NoError(t, engine.SyncNow(context.Background()))

	record, err := fx.contracts.FindByLocalID("L1")
	require.NoError(t, err)
	require.NotNil(t, record.RemoteID)
	assert.Equal(t, int64(42), *record.RemoteID)
	assert.Equal(t, "R-2025-01-01-123", *record.ContractNumber)
	assert.Equal(t, models.SyncSynced, record.SyncStatus)

	count, err := fx.queue.CountAll()
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Equal(t, 1, reporter.started)
	assert.Equal(t, 1, reporter.completed)
	assert.Empty(t, reporter.failed)

	meta, err := fx.metadata.Last()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, store.SyncOutcomeSuccess, meta.LastSyncStatus)
	assert.Equal(t, 1, meta.RecordsSynced)
}

func TestPassPartitionsByType(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")
	_, err := fx.queue.Enqueue(models.ActionUpdate, "L1", backend.UpdateContractRequest{})
	require.NoError(t, err)
	_, err = fx.queue.Enqueue(models.ActionClose, "L1", backend.CloseContractRequest{})
	require.NoError(t, err)

	api := &fakeAPI{resp: &backend.SyncBatchResponse{
		IDMappings: []backend.IDMapping{{LocalID: "L1", BackendID: 7}},
	}}
	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, api, &fakeConn{online: true}, testSyncConfig(), &recordingReporter{})

	require.NoError(t, engine.SyncNow(context.Background()))

	require.Len(t, api.batches, 1)
	batch := api.batches[0]
	require.Len(t, batch.Creations, 1)
	require.Len(t, batch.Updates, 1)
	require.Len(t, batch.Closures, 1)
	assert.Equal(t, "L1", batch.Creations[0].LocalID)
	assert.Equal(t, "L1", batch.Updates[0].LocalID)
	assert.Equal(t, "L1", batch.Closures[0].LocalID)
}

func TestPassSkipsWhenOffline(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")

	api := &fakeAPI{}
	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, api, &fakeConn{online: false}, testSyncConfig(), &recordingReporter{})

	require.NoError(t, engine.SyncNow(context.Background()))
	assert.Zero(t, api.callCount())

	count, err := fx.queue.CountAll()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPassSkipsEmptyQueue(t *testing.T) {
	fx := newFixture(t)

	api := &fakeAPI{}
	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, api, &fakeConn{online: true}, testSyncConfig(), &recordingReporter{})

	require.NoError(t, engine.SyncNow(context.Background()))
	assert.Zero(t, api.callCount())
}

func TestPassFailureLeavesQueueIntact(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")

	api := &fakeAPI{err: backend.ErrUnreachable}
	reporter := &recordingReporter{}
	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, api, &fakeConn{online: true}, testSyncConfig(), reporter)

	err := engine.SyncNow(context.Background())
	require.Error(t, err)

	count, qerr := fx.queue.CountAll()
	require.NoError(t, qerr)
	assert.Equal(t, int64(1), count)

	record, rerr := fx.contracts.FindByLocalID("L1")
	require.NoError(t, rerr)
	assert.Equal(t, models.SyncPending, record.SyncStatus)
	assert.Nil(t, record.RemoteID)

	require.Len(t, reporter.failed, 1)

	meta, merr := fx.metadata.Last()
	require.NoError(t, merr)
	require.NotNil(t, meta)
	assert.Equal(t, store.SyncOutcomeFailed, meta.LastSyncStatus)
	require.NotNil(t, meta.ErrorMessage)
}

func TestSingleFlight(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")

	api := &fakeAPI{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		resp: &backend.SyncBatchResponse{
			IDMappings: []backend.IDMapping{{LocalID: "L1", BackendID: 42}},
		},
	}
	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, api, &fakeConn{online: true}, testSyncConfig(), &recordingReporter{})

	done := make(chan error, 1)
	go func() { done <- engine.SyncNow(context.Background()) }()
	<-api.entered

	// Second trigger while the first pass is mid-request coalesces to a no-op.
	require.NoError(t, engine.SyncNow(context.Background()))
	assert.Equal(t, 1, api.callCount())

	close(api.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.callCount())
}

func TestMidPassEnqueueKeepsRecordPending(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")

	api := &fakeAPI{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		resp: &backend.SyncBatchResponse{
			IDMappings: []backend.IDMapping{{LocalID: "L1", BackendID: 42}},
		},
	}
	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, api, &fakeConn{online: true}, testSyncConfig(), &recordingReporter{})

	done := make(chan error, 1)
	go func() { done <- engine.SyncNow(context.Background()) }()
	<-api.entered

	// An update lands while the batch is in flight.
	_, err := fx.queue.Enqueue(models.ActionUpdate, "L1", backend.UpdateContractRequest{})
	require.NoError(t, err)

	close(api.release)
	require.NoError(t, <-done)

	record, err := fx.contracts.FindByLocalID("L1")
	require.NoError(t, err)
	require.NotNil(t, record.RemoteID)
	assert.Equal(t, int64(42), *record.RemoteID)
	// Still pending: the mid-pass mutation has not been confirmed.
	assert.Equal(t, models.SyncPending, record.SyncStatus)

	count, err := fx.queue.CountAll()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReconciliationIdempotence(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")

	actions, err := fx.queue.Drain()
	require.NoError(t, err)

	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, &fakeAPI{}, &fakeConn{online: true}, testSyncConfig(), &recordingReporter{})
	resp := &backend.SyncBatchResponse{
		IDMappings: []backend.IDMapping{{LocalID: "L1", BackendID: 42, ContractNumber: "R-1"}},
	}

	require.NoError(t, engine.applyResponse(actions, resp))
	require.NoError(t, engine.applyResponse(actions, resp))

	record, err := fx.contracts.FindByLocalID("L1")
	require.NoError(t, err)
	require.NotNil(t, record.RemoteID)
	assert.Equal(t, int64(42), *record.RemoteID)
	assert.Equal(t, "R-1", *record.ContractNumber)
	assert.Equal(t, models.SyncSynced, record.SyncStatus)

	count, err := fx.queue.CountAll()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStartStop(t *testing.T) {
	fx := newFixture(t)

	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, &fakeAPI{}, &fakeConn{online: true}, testSyncConfig(), &recordingReporter{})
	require.NoError(t, engine.Start())
	assert.Error(t, engine.Start())
	engine.Stop()
	// Second Stop is a no-op.
	engine.Stop()
}

func TestStatus(t *testing.T) {
	fx := newFixture(t)
	seedPendingCreate(t, fx, "L1")

	engine := NewEngine(fx.contracts, fx.queue, fx.metadata, &fakeAPI{}, &fakeConn{online: false}, testSyncConfig(), &recordingReporter{})

	status := engine.Status()
	assert.Equal(t, false, status["is_running"])
	assert.Equal(t, false, status["is_online"])
	assert.Equal(t, int64(1), status["pending_count"])
}
