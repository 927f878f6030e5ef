package models

import (
	"time"

	"investx/internal/domain"

	"github.com/shopspring/decimal"
)

// InvestmentPackage is an admin-defined product. A fixed-amount package has MinAmount == MaxAmount.
type InvestmentPackage struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	MinAmount        int64           `gorm:"not null" json:"min_amount"`
	MaxAmount        int64           `gorm:"not null" json:"max_amount"`
	DurationDays     int             `gorm:"not null" json:"duration_days"`
	ProfitPercentage decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"profit_percentage"`
	MaxUses          int             `gorm:"not null;default:0" json:"max_uses"` // per account, 0 = unlimited
	IsActive         bool            `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (InvestmentPackage) TableName() string { return "investment_packages" }

func (p *InvestmentPackage) InRange(amount int64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

type Investment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AccountID      uint       `gorm:"not null;index" json:"account_id"`
	PackageID      uint       `gorm:"not null;index" json:"package_id"`
	Amount         int64      `gorm:"not null" json:"amount"`
	ExpectedReturn int64      `gorm:"not null" json:"expected_return"`
	StartDate      time.Time  `gorm:"not null" json:"start_date"`
	EndDate        time.Time  `gorm:"not null;index" json:"end_date"`
	Status         string     `gorm:"size:20;not null;index" json:"status"` // active, completed, cancelled
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Package *InvestmentPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
	Account *Account           `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

func (Investment) TableName() string { return "investments" }

func (i *Investment) Profit() int64 { return i.ExpectedReturn - i.Amount }

// Due reports whether an active investment has reached its end date.
func (i *Investment) Due(now time.Time) bool {
	return i.Status == domain.InvestmentActive && !i.EndDate.After(now)
}
