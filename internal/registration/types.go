// internal/registration/types.go
package registration

import (
	"time"

	"github.com/shopspring/decimal"

	"garage-backoffice/internal/lookup"
)

// Status is the back-office processing state of a registration request.
// Transitions are deliberately unrestricted: admins may move a record from
// any status to any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusRejected:
		return true
	default:
		return false
	}
}

// Record is a submitted registration request. Status is forced to pending at
// creation and mutated only by admin action; Documents grows monotonically as
// uploads complete. Records are never physically deleted.
type Record struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	Status       Status             `json:"status"`
	ServiceKey   string             `json:"serviceKey"`
	Vehicle      lookup.VehicleInfo `json:"vehicleInfo"`
	TaxAmount    decimal.Decimal    `json:"taxAmount"`
	ServiceFee   decimal.Decimal    `json:"serviceFee"`
	ContactEmail string             `json:"contactEmail"`
	ContactPhone string             `json:"contactPhone"`
	Documents    map[string]string  `json:"documents"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// ChangeEvent is one entry in the live admin feed.
type ChangeEvent struct {
	Kind     string `json:"kind"`
	RecordID string `json:"recordId"`
	Status   Status `json:"status,omitempty"`
}

const (
	ChangeCreated        = "created"
	ChangeStatusUpdated  = "status_updated"
	ChangeDocumentsAdded = "documents_added"
)
