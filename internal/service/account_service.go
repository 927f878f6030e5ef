package service

import (
	"context"
	"net/url"
	"time"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/internal/models"
	"investx/internal/repository"
)

// AccountService serves the read side of an account: profile, dashboard, history and referrals.
type AccountService struct {
	store     repository.Store
	ledger    *LedgerService
	policy    *PolicyService
	publicURL string
}

func NewAccountService(store repository.Store, ledger *LedgerService, policy *PolicyService, publicURL string) *AccountService {
	return &AccountService{store: store, ledger: ledger, policy: policy, publicURL: publicURL}
}

func (s *AccountService) Profile(ctx context.Context, accountID uint) (*models.Account, error) {
	a, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrAccountNotFound)
	}
	return a, nil
}

// settle pays out matured investments before a read so balances shown are current.
func (s *AccountService) settle(ctx context.Context, accountID uint) {
	if s.ledger == nil {
		return
	}
	if _, err := s.ledger.SettleDue(ctx, accountID); err != nil {
		logger.Warn().Err(err).Uint("account_id", accountID).Msg("lazy settlement failed")
	}
}

type ReferredAccount struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
	IsActive bool      `json:"is_active"`
}

type ReferralSummary struct {
	Code                   string            `json:"code"`
	ShareLink              string            `json:"share_link"`
	ReferralCount          int               `json:"referral_count"`
	ActiveReferrals        int               `json:"active_referrals"`
	Referred               []ReferredAccount `json:"referred"`
	BonusPerReferral       int64             `json:"bonus_per_referral"`
	TotalBonusEarned       int64             `json:"total_bonus_earned"`
	RequiredForWithdrawal  int               `json:"required_for_withdrawal"`
	RemainingForWithdrawal int               `json:"remaining_for_withdrawal"`
	WithdrawalEligible     bool              `json:"withdrawal_eligible"`
}

func (s *AccountService) Referrals(ctx context.Context, accountID uint) (*ReferralSummary, error) {
	a, err := s.Profile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.referralSummary(ctx, a)
}

func (s *AccountService) referralSummary(ctx context.Context, a *models.Account) (*ReferralSummary, error) {
	referred, err := s.store.Accounts().ListReferred(ctx, a.ReferralCode)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	earned, err := s.store.Ledger().SumByAccountAndType(ctx, a.ID, domain.LedgerReferralBonus)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	out := &ReferralSummary{
		Code:                  a.ReferralCode,
		ShareLink:             ShareLink(s.publicURL, a.ReferralCode),
		ReferralCount:         a.ReferralCount,
		Referred:              make([]ReferredAccount, 0, len(referred)),
		BonusPerReferral:      s.policy.Current(ctx).ReferralBonus,
		TotalBonusEarned:      earned,
		RequiredForWithdrawal: a.ReferralsRequiredForWithdrawal,
		WithdrawalEligible:    a.WithdrawalEligible(),
	}
	for _, r := range referred {
		out.Referred = append(out.Referred, ReferredAccount{Name: r.Name, JoinedAt: r.CreatedAt, IsActive: r.IsActive})
		if r.IsActive {
			out.ActiveReferrals++
		}
	}
	if remaining := a.ReferralsRequiredForWithdrawal - a.ReferralCount; remaining > 0 {
		out.RemainingForWithdrawal = remaining
	}
	return out, nil
}

// ShareLink builds the registration URL that pre-fills a referral code.
func ShareLink(base, code string) string {
	return base + "/register?ref=" + url.QueryEscape(code)
}

type Dashboard struct {
	Account                 *models.Account            `json:"account"`
	ActiveInvestments       []models.Investment        `json:"active_investments"`
	ProjectedReturns        int64                      `json:"projected_returns"`
	ProjectedProfit         int64                      `json:"projected_profit"`
	NextMaturity            *time.Time                 `json:"next_maturity"`
	PendingWithdrawals      []models.WithdrawalRequest `json:"pending_withdrawals"`
	PendingWithdrawalAmount int64                      `json:"pending_withdrawal_amount"`
	Referrals               *ReferralSummary           `json:"referrals"`
	MinWithdrawal           int64                      `json:"min_withdrawal"`
	WithdrawalFeePercent    string                     `json:"withdrawal_fee_percent"`
}

const dashboardListLimit = 100

func (s *AccountService) Dashboard(ctx context.Context, accountID uint) (*Dashboard, error) {
	s.settle(ctx, accountID)
	a, err := s.Profile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	active, _, err := s.store.Investments().ListByAccount(ctx, a.ID, domain.InvestmentActive, dashboardListLimit, 0)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	pending, _, err := s.store.Withdrawals().ListByAccount(ctx, a.ID, domain.RequestPending, dashboardListLimit, 0)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	referrals, err := s.referralSummary(ctx, a)
	if err != nil {
		return nil, err
	}
	policy := s.policy.Current(ctx)

	d := &Dashboard{
		Account:              a,
		ActiveInvestments:    nonNil(active),
		PendingWithdrawals:   nonNil(pending),
		Referrals:            referrals,
		MinWithdrawal:        policy.MinWithdrawal,
		WithdrawalFeePercent: policy.WithdrawalFeePercent.String(),
	}
	for i := range active {
		inv := &active[i]
		d.ProjectedReturns += inv.ExpectedReturn
		d.ProjectedProfit += inv.Profit()
		if d.NextMaturity == nil || inv.EndDate.Before(*d.NextMaturity) {
			end := inv.EndDate
			d.NextMaturity = &end
		}
	}
	for _, w := range pending {
		d.PendingWithdrawalAmount += w.Amount
	}
	return d, nil
}

func (s *AccountService) Transactions(ctx context.Context, accountID uint, page, limit int) (*Page[models.LedgerEntry], error) {
	list, total, err := s.store.Ledger().ListByAccount(ctx, accountID, limit, offset(page, limit))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.LedgerEntry]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

func (s *AccountService) Investments(ctx context.Context, accountID uint, status string, page, limit int) (*Page[models.Investment], error) {
	s.settle(ctx, accountID)
	list, total, err := s.store.Investments().ListByAccount(ctx, accountID, status, limit, offset(page, limit))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.Investment]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

func (s *AccountService) Payments(ctx context.Context, accountID uint, status string, page, limit int) (*Page[models.PaymentRequest], error) {
	list, total, err := s.store.Payments().ListByAccount(ctx, accountID, status, limit, offset(page, limit))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.PaymentRequest]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

func (s *AccountService) Withdrawals(ctx context.Context, accountID uint, status string, page, limit int) (*Page[models.WithdrawalRequest], error) {
	list, total, err := s.store.Withdrawals().ListByAccount(ctx, accountID, status, limit, offset(page, limit))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page[models.WithdrawalRequest]{Items: nonNil(list), Total: total, Page: page, Limit: limit}, nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
