// Package contracts is the single operation surface for rental contracts.
// It hides the online/offline branching: every mutating call writes locally
// first, then attempts the backend, then falls back to the mutation queue.
package contracts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/1abama1/prokatgo/internal/backend"
	"github.com/1abama1/prokatgo/internal/models"
	"github.com/1abama1/prokatgo/internal/store"
	"github.com/google/uuid"
)

// ErrNotFound is returned when neither identifier resolves to a local record.
var ErrNotFound = errors.New("contract not found")

// ErrTerminateRequiresBackend is returned when termination is attempted
// while the backend cannot confirm it. Termination reverses a closure on the
// server side and has no meaningful local-only representation, so it never
// takes the offline path.
var ErrTerminateRequiresBackend = errors.New("termination requires a reachable backend")

// Backend is the slice of the REST client the façade needs.
type Backend interface {
	CreateContract(ctx context.Context, req backend.CreateContractRequest) (*backend.ContractResponse, error)
	UpdateContract(ctx context.Context, remoteID int64, req backend.UpdateContractRequest) (*backend.ContractResponse, error)
	CloseContract(ctx context.Context, remoteID int64, req backend.CloseContractRequest) (*backend.ContractResponse, error)
	TerminateContract(ctx context.Context, remoteID int64, comment *string) (*backend.ContractResponse, error)
	ListActiveContracts(ctx context.Context) ([]backend.ContractResponse, error)
}

// Connectivity supplies the reachability hint.
type Connectivity interface {
	IsOnline() bool
}

// SyncTrigger lets the façade nudge the synchronizer after an enqueue.
type SyncTrigger interface {
	RequestSync()
}

// ListedContract is a contract with its display position in the active list.
type ListedContract struct {
	models.Contract
	Index int `json:"index"`
}

// Service implements the contract operations.
type Service struct {
	contracts *store.Contracts
	queue     *store.Queue
	api       Backend
	conn      Connectivity
	trigger   SyncTrigger
}

// NewService wires the façade. trigger may be nil when no synchronizer runs
// (tests, read-only tooling).
func NewService(contracts *store.Contracts, queue *store.Queue, api Backend, conn Connectivity, trigger SyncTrigger) *Service {
	return &Service{
		contracts: contracts,
		queue:     queue,
		api:       api,
		conn:      conn,
		trigger:   trigger,
	}
}

// Create registers a new contract. The local record exists before any
// network traffic; backend errors downgrade to the offline path and are not
// surfaced. Only local storage failures are returned.
func (s *Service) Create(ctx context.Context, req backend.CreateContractRequest) (*models.Contract, error) {
	if req.StartDateTime == "" {
		req.StartDateTime = time.Now().Format(time.RFC3339)
	}

	record := &models.Contract{
		LocalID:        uuid.NewString(),
		ClientID:       req.ClientID,
		ToolID:         req.ToolID,
		ClientName:     req.ClientName,
		ToolName:       req.ToolName,
		ContractNumber: req.ContractNumber,
		StartDateTime:  req.StartDateTime,
		ReturnDate:     req.ReturnDate,
		Amount:         req.Amount,
		Comment:        req.Comment,
		Status:         models.ContractActive,
		SyncStatus:     models.SyncPending,
	}
	if err := s.contracts.Insert(record); err != nil {
		return nil, err
	}

	if s.online() {
		resp, err := s.api.CreateContract(ctx, req)
		if err == nil {
			fields := map[string]interface{}{
				"remote_id":   resp.RemoteID,
				"sync_status": models.SyncSynced,
			}
			if resp.ContractNumber != "" {
				fields["contract_number"] = resp.ContractNumber
			}
			if err := s.contracts.UpdateFields(store.ByLocalID(record.LocalID), fields); err != nil {
				return nil, err
			}
			return s.contracts.FindByLocalID(record.LocalID)
		}
		log.Printf("⚠️  Direct contract creation failed, queuing for sync: %v", err)
	}

	if _, err := s.queue.Enqueue(models.ActionCreate, record.LocalID, req); err != nil {
		return nil, err
	}
	s.requestSync()
	return s.contracts.FindByLocalID(record.LocalID)
}

// Update modifies contract fields by whichever identifier the caller has.
func (s *Service) Update(ctx context.Context, remoteID *int64, localID string, req backend.UpdateContractRequest) (*models.Contract, error) {
	record, err := s.resolve(remoteID, localID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"sync_status": models.SyncPending}
	if req.ReturnDate != nil {
		fields["return_date"] = *req.ReturnDate
	}
	if req.Amount != nil {
		fields["amount"] = *req.Amount
	}
	if req.Comment != nil {
		fields["comment"] = *req.Comment
	}
	if err := s.contracts.UpdateFields(store.ByLocalID(record.LocalID), fields); err != nil {
		return nil, err
	}

	if s.online() && record.RemoteID != nil {
		if _, err := s.api.UpdateContract(ctx, *record.RemoteID, req); err == nil {
			if err := s.markSyncedIfQuiet(record.LocalID); err != nil {
				return nil, err
			}
			return s.contracts.FindByLocalID(record.LocalID)
		} else {
			log.Printf("⚠️  Direct contract update failed, queuing for sync: %v", err)
		}
	}

	if _, err := s.queue.Enqueue(models.ActionUpdate, record.LocalID, req); err != nil {
		return nil, err
	}
	s.requestSync()
	return s.contracts.FindByLocalID(record.LocalID)
}

// Close ends a rental. Same optimistic pattern as Update; the local record
// flips to CLOSED immediately.
func (s *Service) Close(ctx context.Context, remoteID *int64, localID string, req backend.CloseContractRequest) (*models.Contract, error) {
	record, err := s.resolve(remoteID, localID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"status":      models.ContractClosed,
		"sync_status": models.SyncPending,
	}
	if req.PaidAmount != nil {
		fields["amount"] = *req.PaidAmount
	}
	if req.Comment != nil {
		fields["comment"] = *req.Comment
	}
	if err := s.contracts.UpdateFields(store.ByLocalID(record.LocalID), fields); err != nil {
		return nil, err
	}

	if s.online() && record.RemoteID != nil {
		if _, err := s.api.CloseContract(ctx, *record.RemoteID, req); err == nil {
			if err := s.markSyncedIfQuiet(record.LocalID); err != nil {
				return nil, err
			}
			return s.contracts.FindByLocalID(record.LocalID)
		} else {
			log.Printf("⚠️  Direct contract closure failed, queuing for sync: %v", err)
		}
	}

	if _, err := s.queue.Enqueue(models.ActionClose, record.LocalID, req); err != nil {
		return nil, err
	}
	s.requestSync()
	return s.contracts.FindByLocalID(record.LocalID)
}

// Terminate cancels a contract server-side. Unlike the other mutations this
// one is confirmed synchronously or not at all.
func (s *Service) Terminate(ctx context.Context, remoteID *int64, localID string, comment *string) (*models.Contract, error) {
	record, err := s.resolve(remoteID, localID)
	if err != nil {
		return nil, err
	}
	if record.RemoteID == nil || !s.online() {
		return nil, ErrTerminateRequiresBackend
	}

	if _, err := s.api.TerminateContract(ctx, *record.RemoteID, comment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTerminateRequiresBackend, err)
	}

	fields := map[string]interface{}{"status": models.ContractTerminated}
	if comment != nil {
		fields["comment"] = *comment
	}
	if err := s.contracts.UpdateFields(store.ByLocalID(record.LocalID), fields); err != nil {
		return nil, err
	}
	if err := s.markSyncedIfQuiet(record.LocalID); err != nil {
		return nil, err
	}
	return s.contracts.FindByLocalID(record.LocalID)
}

// ListActive returns the active contracts for display. Online, the backend
// is authoritative and any rows missing locally are backfilled as shadow
// records so later offline edits have somewhere to land. Offline, the local
// store serves the list as-is.
func (s *Service) ListActive(ctx context.Context) ([]ListedContract, error) {
	if s.online() {
		if remote, err := s.api.ListActiveContracts(ctx); err == nil {
			if err := s.backfill(remote); err != nil {
				return nil, err
			}
		} else {
			log.Printf("⚠️  Active contract fetch failed, serving local cache: %v", err)
		}
	}

	records, err := s.contracts.ListByStatus(models.ContractActive)
	if err != nil {
		return nil, err
	}

	listed := make([]ListedContract, len(records))
	for i, r := range records {
		listed[i] = ListedContract{Contract: r, Index: i + 1}
	}
	return listed, nil
}

// backfill inserts shadow records for backend rows unknown locally and
// refreshes fields on rows with no pending local edits.
func (s *Service) backfill(remote []backend.ContractResponse) error {
	for _, rc := range remote {
		existing, err := s.contracts.FindByRemoteID(rc.RemoteID)
		if err != nil {
			return err
		}

		if existing == nil {
			remoteID := rc.RemoteID
			shadow := &models.Contract{
				LocalID:       uuid.NewString(),
				RemoteID:      &remoteID,
				ClientID:      rc.ClientID,
				ToolID:        rc.ToolID,
				ClientName:    rc.ClientName,
				ToolName:      rc.ToolName,
				StartDateTime: rc.StartDateTime,
				ReturnDate:    rc.ReturnDate,
				Amount:        rc.Amount,
				Comment:       rc.Comment,
				Status:        models.ContractActive,
				SyncStatus:    models.SyncSynced,
			}
			if rc.ContractNumber != "" {
				number := rc.ContractNumber
				shadow.ContractNumber = &number
			}
			if err := s.contracts.Insert(shadow); err != nil {
				return err
			}
			continue
		}

		// Pending local edits win until the synchronizer reconciles them.
		if existing.SyncStatus != models.SyncSynced {
			continue
		}
		fields := map[string]interface{}{
			"client_name": rc.ClientName,
			"tool_name":   rc.ToolName,
		}
		if rc.ContractNumber != "" {
			fields["contract_number"] = rc.ContractNumber
		}
		if rc.ReturnDate != nil {
			fields["return_date"] = *rc.ReturnDate
		}
		if rc.Amount != nil {
			fields["amount"] = *rc.Amount
		}
		if err := s.contracts.UpdateFields(store.ByLocalID(existing.LocalID), fields); err != nil {
			return err
		}
	}
	return nil
}

// resolve finds the local record by whichever identifier is present,
// preferring the local id.
func (s *Service) resolve(remoteID *int64, localID string) (*models.Contract, error) {
	if localID != "" {
		record, err := s.contracts.FindByLocalID(localID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return record, nil
		}
	}
	if remoteID != nil {
		record, err := s.contracts.FindByRemoteID(*remoteID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

// markSyncedIfQuiet flips a record to SYNCED unless queued mutations still
// reference it.
func (s *Service) markSyncedIfQuiet(localID string) error {
	pending, err := s.queue.ExistsForLocalID(localID)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}
	return s.contracts.UpdateFields(store.ByLocalID(localID), map[string]interface{}{
		"sync_status": models.SyncSynced,
	})
}

func (s *Service) online() bool {
	return s.conn == nil || s.conn.IsOnline()
}

func (s *Service) requestSync() {
	if s.trigger != nil {
		s.trigger.RequestSync()
	}
}
