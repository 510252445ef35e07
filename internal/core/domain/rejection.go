package domain

import "time"

// RejectionRecord is the append-only audit entry written when a transfer is
// rejected. Exactly one exists per rejected transfer; it is immutable.
type RejectionRecord struct {
	RejectionID string    `json:"rejectionID"` // Primary Key (UUID)
	TransferID  string    `json:"transferID"`  // FK -> TransferRequest
	ReasonText  string    `json:"reasonText"`
	RejectedBy  string    `json:"rejectedBy"` // Username of the rejecting approver
	RejectedAt  time.Time `json:"rejectedAt"`
}
