// Package sync contains the background synchronizer: the single writer that
// replays queued offline mutations against the backend and reconciles
// backend-assigned identifiers into the local store.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/config"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/1abama1/prokatgo/internal/store"
)

// BackendAPI is the slice of the backend client the engine needs.
type BackendAPI interface {
	SyncContracts(ctx context.Context, batch backend.SyncBatchRequest) (*backend.SyncBatchResponse, error)
}

// Connectivity supplies the reachability hint consulted before each pass.
type Connectivity interface {
	IsOnline() bool
}

// Reporter observes pass outcomes. Background failures are never raised to
// callers, so this is the only place they become visible.
type Reporter interface {
	PassStarted(pending int)
	PassCompleted(synced int, duration time.Duration)
	PassFailed(err error)
}

// logReporter is the default Reporter, writing to the process log.
type logReporter struct{}

func (logReporter) PassStarted(pending int) {
	log.Printf("🔄 Sync pass started: %d pending mutation(s)", pending)
}

func (logReporter) PassCompleted(synced int, duration time.Duration) {
	log.Printf("✅ Sync pass completed in %v: %d record(s) reconciled", duration, synced)
}

func (logReporter) PassFailed(err error) {
	log.Printf("⚠️  Sync pass failed (queue left intact): %v", err)
}

// Engine drains the mutation queue in batched passes. At most one pass runs
// at a time; triggers arriving mid-pass are coalesced into a no-op and the
// overlapping work is picked up by the next pass.
type Engine struct {
	mu sync.Mutex

	contracts *store.Contracts
	queue     *store.Queue
	metadata  *store.Metadata
	api       BackendAPI
	conn      Connectivity
	reporter  Reporter

	interval       time.Duration
	requestTimeout time.Duration
	syncOnStartup  bool

	isRunning      bool
	syncInProgress bool

	stopChan chan struct{}
	kickChan chan struct{}
}

// NewEngine wires the synchronizer. reporter may be nil, in which case pass
// outcomes go to the process log.
func NewEngine(contracts *store.Contracts, queue *store.Queue, metadata *store.Metadata, api BackendAPI, conn Connectivity, cfg *config.SyncConfig, reporter Reporter) *Engine {
	if reporter == nil {
		reporter = logReporter{}
	}
	return &Engine{
		contracts:      contracts,
		queue:          queue,
		metadata:       metadata,
		api:            api,
		conn:           conn,
		reporter:       reporter,
		interval:       time.Duration(cfg.Interval) * time.Second,
		requestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		syncOnStartup:  cfg.SyncOnStartup,
		stopChan:       make(chan struct{}),
		kickChan:       make(chan struct{}, 1),
	}
}

// Start launches the background worker and, if configured, requests an
// immediate first pass.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.isRunning {
		e.mu.Unlock()
		return fmt.Errorf("sync engine already running")
	}
	e.isRunning = true
	e.mu.Unlock()

	log.Println("🔄 Sync engine starting...")
	go e.worker()

	if e.syncOnStartup {
		e.RequestSync()
	}
	return nil
}

// Stop halts the background worker. A pass already in flight finishes.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isRunning {
		return
	}
	e.isRunning = false
	close(e.stopChan)
	log.Println("🛑 Sync engine stopped")
}

// RequestSync asks for a pass without blocking. Requests arriving while a
// kick is already queued or a pass is running are coalesced.
func (e *Engine) RequestSync() {
	select {
	case e.kickChan <- struct{}{}:
	default:
	}
}

func (e *Engine) worker() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.kickChan:
			e.runPass()
		case <-ticker.C:
			e.runPass()
		case <-e.stopChan:
			return
		}
	}
}

func (e *Engine) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), e.requestTimeout)
	defer cancel()
	// Background pass: the outcome is reported, never raised.
	_ = e.SyncNow(ctx)
}

// SyncNow runs one drain-send-reconcile pass synchronously. It returns nil
// when the pass is skipped (already syncing, offline, or empty queue). The
// returned error mirrors what the Reporter saw; background callers ignore it.
func (e *Engine) SyncNow(ctx context.Context) error {
	e.mu.Lock()
	if e.syncInProgress {
		e.mu.Unlock()
		return nil
	}
	e.syncInProgress = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncInProgress = false
		e.mu.Unlock()
	}()

	if e.conn != nil && !e.conn.IsOnline() {
		return nil
	}

	actions, err := e.queue.Drain()
	if err != nil {
		e.reporter.PassFailed(err)
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	e.reporter.PassStarted(len(actions))
	start := time.Now()

	batch, err := e.buildBatch(actions)
	if err != nil {
		e.reporter.PassFailed(err)
		e.recordFailure(err)
		return err
	}

	resp, err := e.api.SyncContracts(ctx, *batch)
	if err != nil {
		// Queue and record statuses stay untouched; the next trigger retries.
		e.reporter.PassFailed(err)
		e.recordFailure(err)
		return err
	}

	if err := e.applyResponse(actions, resp); err != nil {
		e.reporter.PassFailed(err)
		e.recordFailure(err)
		return err
	}

	synced := len(resp.IDMappings)
	e.reporter.PassCompleted(synced, time.Since(start))
	if err := e.metadata.RecordPass(store.SyncOutcomeSuccess, synced, nil); err != nil {
		log.Printf("⚠️  Could not record sync metadata: %v", err)
	}
	return nil
}

// buildBatch partitions drained actions into the three ordered groups of the
// reconciliation request, resolving remote ids where the store already has
// them.
func (e *Engine) buildBatch(actions []models.SyncAction) (*backend.SyncBatchRequest, error) {
	batch := &backend.SyncBatchRequest{
		Creations: []backend.SyncCreation{},
		Updates:   []backend.SyncUpdate{},
		Closures:  []backend.SyncClosure{},
	}

	for _, action := range actions {
		switch action.Type {
		case models.ActionCreate:
			var req backend.CreateContractRequest
			if err := json.Unmarshal(action.Payload, &req); err != nil {
				return nil, fmt.Errorf("corrupt CREATE payload for %s: %w", action.LocalID, err)
			}
			batch.Creations = append(batch.Creations, backend.SyncCreation{
				CreateContractRequest: req,
				LocalID:               action.LocalID,
			})

		case models.ActionUpdate:
			var req backend.UpdateContractRequest
			if err := json.Unmarshal(action.Payload, &req); err != nil {
				return nil, fmt.Errorf("corrupt UPDATE payload for %s: %w", action.LocalID, err)
			}
			batch.Updates = append(batch.Updates, backend.SyncUpdate{
				UpdateContractRequest: req,
				LocalID:               action.LocalID,
				RemoteID:              e.remoteIDFor(action.LocalID),
			})

		case models.ActionClose:
			var req backend.CloseContractRequest
			if err := json.Unmarshal(action.Payload, &req); err != nil {
				return nil, fmt.Errorf("corrupt CLOSE payload for %s: %w", action.LocalID, err)
			}
			batch.Closures = append(batch.Closures, backend.SyncClosure{
				CloseContractRequest: req,
				LocalID:              action.LocalID,
				RemoteID:             e.remoteIDFor(action.LocalID),
			})

		default:
			return nil, fmt.Errorf("unknown queue action type %q", action.Type)
		}
	}
	return batch, nil
}

// remoteIDFor returns the backend id for a local record, or 0 when the
// record has not been created remotely yet (its creation rides in the same
// batch and the backend resolves it through the local id).
func (e *Engine) remoteIDFor(localID string) int64 {
	record, err := e.contracts.FindByLocalID(localID)
	if err != nil || record == nil || record.RemoteID == nil {
		return 0
	}
	return *record.RemoteID
}

// applyResponse reconciles the backend's acknowledgment: id mappings are
// written first, acknowledged queue entries removed, then each drained
// record is flipped to SYNCED unless a mutation enqueued mid-pass still
// references it.
func (e *Engine) applyResponse(actions []models.SyncAction, resp *backend.SyncBatchResponse) error {
	for _, mapping := range resp.IDMappings {
		fields := map[string]interface{}{
			"remote_id": mapping.BackendID,
		}
		if mapping.ContractNumber != "" {
			fields["contract_number"] = mapping.ContractNumber
		}
		if err := e.contracts.UpdateFields(store.ByLocalID(mapping.LocalID), fields); err != nil {
			return fmt.Errorf("failed to apply id mapping for %s: %w", mapping.LocalID, err)
		}
	}

	ids := make([]uint, 0, len(actions))
	seen := make(map[string]bool)
	drained := make([]string, 0, len(actions))
	for _, action := range actions {
		ids = append(ids, action.ID)
		if !seen[action.LocalID] {
			seen[action.LocalID] = true
			drained = append(drained, action.LocalID)
		}
	}

	if err := e.queue.RemoveBatch(ids); err != nil {
		return err
	}

	for _, localID := range drained {
		pending, err := e.queue.ExistsForLocalID(localID)
		if err != nil {
			return err
		}
		if pending {
			// A mutation arrived while this pass was in flight; the record
			// stays PENDING until the next pass confirms it.
			continue
		}
		err = e.contracts.UpdateFields(store.ByLocalID(localID), map[string]interface{}{
			"sync_status": models.SyncSynced,
		})
		if err != nil {
			return fmt.Errorf("failed to mark %s synced: %w", localID, err)
		}
	}
	return nil
}

func (e *Engine) recordFailure(passErr error) {
	msg := passErr.Error()
	if err := e.metadata.RecordPass(store.SyncOutcomeFailed, 0, &msg); err != nil {
		log.Printf("⚠️  Could not record sync metadata: %v", err)
	}
}

// Status summarizes the synchronizer for the status endpoint and the UI
// indicator.
func (e *Engine) Status() map[string]interface{} {
	e.mu.Lock()
	inProgress := e.syncInProgress
	running := e.isRunning
	e.mu.Unlock()

	status := map[string]interface{}{
		"is_running":       running,
		"sync_in_progress": inProgress,
		"is_online":        e.conn == nil || e.conn.IsOnline(),
	}

	if count, err := e.queue.CountAll(); err == nil {
		status["pending_count"] = count
	}
	if meta, err := e.metadata.Last(); err == nil && meta != nil {
		status["last_sync_at"] = meta.LastSyncAt
		status["last_sync_status"] = meta.LastSyncStatus
		status["records_synced"] = meta.RecordsSynced
	}
	return status
}
