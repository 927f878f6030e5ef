package models

import (
	"time"
)

// Account is the investor record. Amounts are whole Rwandan francs.
type Account struct {
	ID                             uint      `gorm:"primaryKey" json:"id"`
	Name                           string    `gorm:"size:120;not null" json:"name"`
	Email                          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone                          string    `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	PasswordHash                   string    `gorm:"size:255;not null" json:"-"`
	Balance                        int64     `gorm:"not null;default:0" json:"balance"`
	TotalInvested                  int64     `gorm:"not null;default:0" json:"total_invested"`
	TotalEarned                    int64     `gorm:"not null;default:0" json:"total_earned"`
	ReferralCode                   string    `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	ReferredBy                     *string   `gorm:"size:16;index" json:"referred_by"`
	ReferralCount                  int       `gorm:"not null;default:0" json:"referral_count"`
	ReferralsRequiredForWithdrawal int       `gorm:"not null;default:2" json:"referrals_required_for_withdrawal"`
	IsActive                       bool      `gorm:"not null;default:false;index" json:"is_active"`
	IsAdmin                        bool      `gorm:"not null;default:false" json:"is_admin"`
	ReferralBonusPaid              bool      `gorm:"not null;default:false" json:"-"` // referrer already credited for this account
	FCMToken                       string    `gorm:"size:512" json:"-"`
	CreatedAt                      time.Time `json:"created_at"`
	UpdatedAt                      time.Time `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// WithdrawalEligible reports whether the referral threshold is met.
func (a *Account) WithdrawalEligible() bool {
	return a.ReferralCount >= a.ReferralsRequiredForWithdrawal
}

// AdminUser is a separate identity used only by the admin console.
type AdminUser struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:20;not null;default:'ADMIN'" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (AdminUser) TableName() string { return "admin_users" }
