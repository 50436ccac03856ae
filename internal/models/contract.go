package models

// Contract lifecycle states. The backend owns the transition rules; locally
// we only record the state the user last requested.
const (
	ContractActive     = "ACTIVE"
	ContractClosed     = "CLOSED"
	ContractTerminated = "TERMINATED"
)

// Synchronization states for a locally stored contract.
const (
	SyncPending = "PENDING"
	SyncSynced  = "SYNCED"
)

// Contract is the locally cached representation of a rental contract.
// LocalID is generated on this machine and never changes; RemoteID is
// assigned exactly once, when the backend confirms the creation.
type Contract struct {
	ID             uint     `gorm:"primaryKey" json:"-"`
	LocalID        string   `gorm:"uniqueIndex;not null" json:"localId"`
	RemoteID       *int64   `gorm:"index" json:"remoteId,omitempty"`
	ClientID       int64    `gorm:"not null" json:"clientId"`
	ToolID         int64    `gorm:"not null" json:"toolId"`
	ClientName     string   `json:"clientName,omitempty"`
	ToolName       string   `json:"toolName,omitempty"`
	ContractNumber *string  `json:"contractNumber,omitempty"`
	StartDateTime  string   `gorm:"not null" json:"startDateTime"`
	ReturnDate     *string  `json:"returnDate,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	Comment        *string  `json:"comment,omitempty"`
	Status         string   `gorm:"type:varchar(20);not null;index" json:"status"`
	SyncStatus     string   `gorm:"type:varchar(20);not null;default:'PENDING'" json:"syncStatus"`

	// Last local mutation time in unix milliseconds. Display ordering and
	// last-writer-wins hint only; never compared against backend clocks.
	UpdatedAt int64 `gorm:"not null;index" json:"updatedAt"`
}

// TableName specifies the table name for Contract model
func (Contract) TableName() string {
	return "contracts"
}

// CachedClient is a read-through shadow of a backend client record, kept so
// pick-lists still render while the backend is unreachable.
type CachedClient struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	FullName  string `gorm:"not null" json:"fullName"`
	Phone     string `json:"phone,omitempty"`
	Passport  string `json:"passport,omitempty"`
	Problem   bool   `gorm:"default:false" json:"problem"`
	UpdatedAt int64  `json:"updatedAt"`
}

// TableName specifies the table name for CachedClient model
func (CachedClient) TableName() string {
	return "cached_clients"
}

// CachedTool is a read-through shadow of a backend tool record.
type CachedTool struct {
	ID            int64   `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"not null" json:"name"`
	InventoryCode string  `gorm:"index" json:"inventoryCode,omitempty"`
	CategoryID    *int64  `json:"categoryId,omitempty"`
	DailyRate     float64 `json:"dailyRate,omitempty"`
	Status        string  `gorm:"type:varchar(30)" json:"status,omitempty"`
	UpdatedAt     int64   `json:"updatedAt"`
}

// TableName specifies the table name for CachedTool model
func (CachedTool) TableName() string {
	return "cached_tools"
}
