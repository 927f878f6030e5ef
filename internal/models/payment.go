package models

import (
	"time"
)

// PaymentRequest records a manual mobile-money top-up awaiting admin confirmation.
type PaymentRequest struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	AccountID            uint       `gorm:"not null;index" json:"account_id"`
	Amount               int64      `gorm:"not null" json:"amount"`
	Status               string     `gorm:"size:20;not null;index" json:"status"` // pending, approved, rejected
	PaymentMethod        string     `gorm:"size:30;not null" json:"payment_method"`
	PaymentType          string     `gorm:"size:30;not null" json:"payment_type"`
	TransactionReference string     `gorm:"size:128;index" json:"transaction_reference"`
	ProofURL             string     `gorm:"size:512" json:"proof_url,omitempty"`
	Notes                string     `gorm:"type:text" json:"notes,omitempty"`
	RejectionReason      string     `gorm:"size:500" json:"rejection_reason,omitempty"`
	RequestDate          time.Time  `gorm:"not null" json:"request_date"`
	ProcessedDate        *time.Time `json:"processed_date"`
	ProcessedBy          *uint      `json:"processed_by"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

func (PaymentRequest) TableName() string { return "payment_requests" }
