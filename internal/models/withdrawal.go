package models

import (
	"time"
)

type WithdrawalRequest struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	AccountID       uint       `gorm:"not null;index" json:"account_id"`
	Reference       string     `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	Amount          int64      `gorm:"not null" json:"amount"`
	Fee             int64      `gorm:"not null" json:"fee"`
	NetAmount       int64      `gorm:"not null" json:"net_amount"`
	Status          string     `gorm:"size:20;not null;index" json:"status"` // pending, approved, rejected
	RejectionReason string     `gorm:"size:500" json:"rejection_reason,omitempty"`
	RequestDate     time.Time  `gorm:"not null" json:"request_date"`
	ProcessedDate   *time.Time `json:"processed_date"`
	ProcessedBy     *uint      `json:"processed_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }
