package models

import (
	"time"
)

// LedgerEntry records one balance movement. Written in the same transaction as the balance change.
type LedgerEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AccountID    uint      `gorm:"not null;index" json:"account_id"`
	Type         string    `gorm:"size:30;not null;index" json:"type"`
	Amount       int64     `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	Reference    string    `gorm:"size:128" json:"reference"`
	CreatedAt    time.Time `json:"created_at"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
