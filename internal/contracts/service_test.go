package contracts

import (
	"context"
	"testing"

	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/config"
	"github.com/1abama1/prokatgo/internal/database"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/1abama1/prokatgo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	createResp *backend.ContractResponse
	createErr  error
	createN    int

	updateResp *backend.ContractResponse
	updateErr  error
	updateN    int

	closeResp *backend.ContractResponse
	closeErr  error
	closeN    int

	terminateResp *backend.ContractResponse
	terminateErr  error

	listResp []backend.ContractResponse
	listErr  error
	listN    int
}

func (f *fakeBackend) CreateContract(ctx context.Context, req backend.CreateContractRequest) (*backend.ContractResponse, error) {
	f.createN++
	return f.createResp, f.createErr
}

func (f *fakeBackend) UpdateContract(ctx context.Context, remoteID int64, req backend.UpdateContractRequest) (*backend.ContractResponse, error) {
	f.updateN++
	return f.updateResp, f.updateErr
}

func (f *fakeBackend) CloseContract(ctx context.Context, remoteID int64, req backend.CloseContractRequest) (*backend.ContractResponse, error) {
	f.closeN++
	return f.closeResp, f.closeErr
}

func (f *fakeBackend) TerminateContract(ctx context.Context, remoteID int64, comment *string) (*backend.ContractResponse, error) {
	return f.terminateResp, f.terminateErr
}

func (f *fakeBackend) ListActiveContracts(ctx context.Context) ([]backend.ContractResponse, error) {
	f.listN++
	return f.listResp, f.listErr
}

type fakeConn struct{ online bool }

func (f *fakeConn) IsOnline() bool { return f.online }

type fakeTrigger struct{ requests int }

func (f *fakeTrigger) RequestSync() { f.requests++ }

type fixture struct {
	contracts *store.Contracts
	queue     *store.Queue
	api       *fakeBackend
	conn      *fakeConn
	trigger   *fakeTrigger
	svc       *Service
}

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(&models.Contract{}, &models.SyncAction{}))

	fx := &fixture{
		contracts: store.NewContracts(db),
		queue:     store.NewQueue(db),
		api:       &fakeBackend{},
		conn:      &fakeConn{online: online},
		trigger:   &fakeTrigger{},
	}
	fx.svc = NewService(fx.contracts, fx.queue, fx.api, fx.conn, fx.trigger)
	return fx
}

func createReq() backend.CreateContractRequest {
	return backend.CreateContractRequest{ClientID: 5, ToolID: 9}
}

func TestCreateOfflineIsLocallyDurable(t *testing.T) {
	fx := newFixture(t, false)

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.NotEmpty(t, record.LocalID)
	assert.Nil(t, record.RemoteID)
	assert.Equal(t, models.ContractActive, record.Status)
	assert.Equal(t, models.SyncPending, record.SyncStatus)
	assert.NotEmpty(t, record.StartDateTime)

	// No network traffic while offline.
	assert.Zero(t, fx.api.createN)

	actions, err := fx.queue.Drain()
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionCreate, actions[0].Type)
	assert.Equal(t, record.LocalID, actions[0].LocalID)

	assert.Equal(t, 1, fx.trigger.requests)
}

func TestCreateOnlineSuccess(t *testing.T) {
	fx := newFixture(t, true)
	fx.api.createResp = &backend.ContractResponse{RemoteID: 42, ContractNumber: "R-2025-01-01-123"}

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	require.NotNil(t, record.RemoteID)
	assert.Equal(t, int64(42), *record.RemoteID)
	assert.Equal(t, "R-2025-01-01-123", *record.ContractNumber)
	assert.Equal(t, models.SyncSynced, record.SyncStatus)

	count, err := fx.queue.CountAll()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, fx.trigger.requests)
}

func TestCreateBackendRejectionNoLoss(t *testing.T) {
	fx := newFixture(t, true)
	fx.api.createErr = &backend.RejectionError{StatusCode: 500, Body: "boom"}

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	// The action is presented as completed; the record stays pending with
	// exactly one CREATE entry queued.
	assert.Equal(t, models.SyncPending, record.SyncStatus)
	assert.Nil(t, record.RemoteID)

	actions, qerr := fx.queue.Drain()
	require.NoError(t, qerr)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionCreate, actions[0].Type)
	assert.Equal(t, record.LocalID, actions[0].LocalID)
}

func TestUpdateOfflineEnqueuesAfterCreate(t *testing.T) {
	fx := newFixture(t, false)

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	amount := 150.0
	updated, err := fx.svc.Update(context.Background(), nil, record.LocalID, backend.UpdateContractRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 150.0, *updated.Amount)
	assert.Equal(t, models.SyncPending, updated.SyncStatus)

	actions, err := fx.queue.Drain()
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, models.ActionCreate, actions[0].Type)
	assert.Equal(t, models.ActionUpdate, actions[1].Type)
}

func TestUpdateByRemoteIDOnline(t *testing.T) {
	fx := newFixture(t, true)
	fx.api.createResp = &backend.ContractResponse{RemoteID: 42, ContractNumber: "R-1"}

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	comment := "extended"
	remoteID := int64(42)
	updated, err := fx.svc.Update(context.Background(), &remoteID, "", backend.UpdateContractRequest{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, record.LocalID, updated.LocalID)
	assert.Equal(t, "extended", *updated.Comment)
	assert.Equal(t, models.SyncSynced, updated.SyncStatus)
	assert.Equal(t, 1, fx.api.updateN)

	count, err := fx.queue.CountAll()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateUnknownContract(t *testing.T) {
	fx := newFixture(t, true)

	remoteID := int64(777)
	_, err := fx.svc.Update(context.Background(), &remoteID, "", backend.UpdateContractRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloseOffline(t *testing.T) {
	fx := newFixture(t, false)

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	paid := 200.0
	closed, err := fx.svc.Close(context.Background(), nil, record.LocalID, backend.CloseContractRequest{PaidAmount: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.ContractClosed, closed.Status)
	assert.Equal(t, models.SyncPending, closed.SyncStatus)
	assert.Equal(t, 200.0, *closed.Amount)

	actions, err := fx.queue.Drain()
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, models.ActionClose, actions[1].Type)
}

func TestTerminateRequiresBackend(t *testing.T) {
	fx := newFixture(t, false)

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	_, err = fx.svc.Terminate(context.Background(), nil, record.LocalID, nil)
	assert.ErrorIs(t, err, ErrTerminateRequiresBackend)

	// Never-synced records cannot be terminated even online: there is no
	// backend id to address.
	fx.conn.online = true
	_, err = fx.svc.Terminate(context.Background(), nil, record.LocalID, nil)
	assert.ErrorIs(t, err, ErrTerminateRequiresBackend)
}

func TestTerminateOnline(t *testing.T) {
	fx := newFixture(t, true)
	fx.api.createResp = &backend.ContractResponse{RemoteID: 42}
	fx.api.terminateResp = &backend.ContractResponse{RemoteID: 42, Status: models.ContractTerminated}

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	comment := "tool damaged"
	terminated, err := fx.svc.Terminate(context.Background(), nil, record.LocalID, &comment)
	require.NoError(t, err)
	assert.Equal(t, models.ContractTerminated, terminated.Status)
	assert.Equal(t, "tool damaged", *terminated.Comment)
}

func TestListActiveOfflineFallback(t *testing.T) {
	fx := newFixture(t, false)

	_, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	second, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)
	_, err = fx.svc.Close(context.Background(), nil, second.LocalID, backend.CloseContractRequest{})
	require.NoError(t, err)

	listed, err := fx.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.ContractActive, listed[0].Status)
	assert.Equal(t, 1, listed[0].Index)
	assert.Zero(t, fx.api.listN)
}

func TestListActiveBackfillsShadowRecords(t *testing.T) {
	fx := newFixture(t, true)
	amount := 80.0
	fx.api.listResp = []backend.ContractResponse{
		{RemoteID: 42, ContractNumber: "R-1", ClientID: 5, ToolID: 9, StartDateTime: "2025-01-01T10:00:00Z", Amount: &amount},
	}

	listed, err := fx.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].RemoteID)
	assert.Equal(t, int64(42), *listed[0].RemoteID)
	assert.Equal(t, models.SyncSynced, listed[0].SyncStatus)
	assert.NotEmpty(t, listed[0].LocalID)

	// A second listing reuses the shadow record instead of duplicating it.
	listed, err = fx.svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestListActiveBackendErrorFallsBack(t *testing.T) {
	fx := newFixture(t, true)
	fx.api.createResp = &backend.ContractResponse{RemoteID: 42}
	fx.api.listErr = backend.ErrUnreachable

	_, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	listed, err := fx.svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestListActiveKeepsPendingEditsOverBackendState(t *testing.T) {
	fx := newFixture(t, true)
	fx.api.createResp = &backend.ContractResponse{RemoteID: 42}

	record, err := fx.svc.Create(context.Background(), createReq())
	require.NoError(t, err)

	// Backend update fails; the local edit stays pending.
	fx.api.updateErr = backend.ErrUnreachable
	comment := "local edit"
	_, err = fx.svc.Update(context.Background(), nil, record.LocalID, backend.UpdateContractRequest{Comment: &comment})
	require.NoError(t, err)

	stale := "stale server comment"
	fx.api.listResp = []backend.ContractResponse{
		{RemoteID: 42, ClientID: 5, ToolID: 9, Comment: &stale},
	}

	listed, err := fx.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "local edit", *listed[0].Comment)
	assert.Equal(t, models.SyncPending, listed[0].SyncStatus)
}
