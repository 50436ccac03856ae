package backend

// CreateContractRequest is the body for direct contract creation and the
// inner payload of a queued CREATE.
type CreateContractRequest struct {
	ClientID       int64    `json:"clientId"`
	ToolID         int64    `json:"toolId"`
	ClientName     string   `json:"clientName,omitempty"`
	ToolName       string   `json:"toolName,omitempty"`
	ContractNumber *string  `json:"contractNumber,omitempty"`
	StartDateTime  string   `json:"startDateTime,omitempty"`
	ReturnDate     *string  `json:"expectedReturnDate,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	Comment        *string  `json:"comment,omitempty"`
}

// UpdateContractRequest is the body for contract field updates.
type UpdateContractRequest struct {
	ReturnDate *string  `json:"expectedReturnDate,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Comment    *string  `json:"comment,omitempty"`
}

// CloseContractRequest is the body for contract closure.
type CloseContractRequest struct {
	PaidAmount *float64 `json:"paidAmount,omitempty"`
	Comment    *string  `json:"comment,omitempty"`
}

// ContractResponse is the backend's representation of a contract.
type ContractResponse struct {
	RemoteID       int64    `json:"remoteId"`
	ContractNumber string   `json:"contractNumber"`
	ClientID       int64    `json:"clientId"`
	ToolID         int64    `json:"toolId"`
	ClientName     string   `json:"clientName,omitempty"`
	ToolName       string   `json:"toolName,omitempty"`
	StartDateTime  string   `json:"startDateTime,omitempty"`
	ReturnDate     *string  `json:"expectedReturnDate,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	Comment        *string  `json:"comment,omitempty"`
	Status         string   `json:"status,omitempty"`
}

// SyncCreation is a queued creation in the reconciliation batch. LocalID
// correlates the backend's id mapping back to the local record.
type SyncCreation struct {
	CreateContractRequest
	LocalID string `json:"localId"`
}

// SyncUpdate is a queued update in the reconciliation batch. RemoteID may be
// zero when the update targets a record whose creation rides in the same
// batch; the backend resolves it through LocalID.
type SyncUpdate struct {
	UpdateContractRequest
	LocalID  string `json:"localId"`
	RemoteID int64  `json:"remoteId,omitempty"`
}

// SyncClosure is a queued closure in the reconciliation batch.
type SyncClosure struct {
	CloseContractRequest
	LocalID  string `json:"localId"`
	RemoteID int64  `json:"remoteId,omitempty"`
}

// SyncBatchRequest carries one full queue drain to the backend.
type SyncBatchRequest struct {
	Creations []SyncCreation `json:"creations"`
	Updates   []SyncUpdate   `json:"updates"`
	Closures  []SyncClosure  `json:"closures"`
}

// IDMapping links a client-generated local id to the backend-assigned
// identifiers after a successful batch.
type IDMapping struct {
	LocalID        string `json:"localId"`
	BackendID      int64  `json:"backendId"`
	ContractNumber string `json:"contractNumber"`
}

// SyncBatchResponse is the backend's acknowledgment of a reconciliation batch.
type SyncBatchResponse struct {
	IDMappings []IDMapping `json:"idMappings"`
}

// ClientInfo and ToolInfo are backend-owned reference entities cached
// locally for offline display.
type ClientInfo struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Passport string `json:"passport,omitempty"`
	Problem  bool   `json:"problem,omitempty"`
}

type ToolInfo struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	InventoryCode string  `json:"inventoryCode,omitempty"`
	CategoryID    *int64  `json:"categoryId,omitempty"`
	DailyRate     float64 `json:"dailyRate,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// LoginRequest and LoginResponse cover backend authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
