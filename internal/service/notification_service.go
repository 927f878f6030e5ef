package service

import (
	"context"
	"encoding/json"
	"time"

	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/internal/models"
	"investx/internal/repository"
	"investx/pkg/money"
)

// Pusher delivers a push message to a device token.
type Pusher interface {
	SendToAccount(ctx context.Context, fcmToken string, kind, title, body string, data map[string]interface{}) error
}

const pushTimeout = 10 * time.Second

type NotificationService struct {
	repo     NotificationStore
	accounts repository.AccountRepository
	push     Pusher
}

func NewNotificationService(repo NotificationStore, accounts repository.AccountRepository, push Pusher) *NotificationService {
	return &NotificationService{repo: repo, accounts: accounts, push: push}
}

func (s *NotificationService) Notify(ctx context.Context, accountID uint, kind, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(ctx, &models.Notification{
		AccountID: accountID,
		Type:      kind,
		Title:     title,
		Body:      body,
		Data:      dataJSON,
	})
	if err != nil {
		return err
	}
	s.sendPush(accountID, kind, title, body, data)
	return nil
}

// sendPush runs detached from the request; a failed push is only logged.
func (s *NotificationService) sendPush(accountID uint, kind, title, body string, data map[string]interface{}) {
	if s.push == nil || s.accounts == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		a, err := s.accounts.GetByID(ctx, accountID)
		if err != nil || a.FCMToken == "" {
			return
		}
		if err := s.push.SendToAccount(ctx, a.FCMToken, kind, title, body, data); err != nil {
			logger.Warn().Err(err).Uint("account_id", accountID).Str("type", kind).Msg("push delivery failed")
		}
	}()
}

type NotificationList struct {
	Items  []models.Notification `json:"items"`
	Unread int64                 `json:"unread"`
}

func (s *NotificationService) List(ctx context.Context, accountID uint, page, limit int) (*NotificationList, error) {
	list, err := s.repo.ListByAccountID(ctx, accountID, limit, offset(page, limit))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	unread, err := s.repo.CountUnread(ctx, accountID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return &NotificationList{Items: list, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, accountID, id uint) error {
	if err := s.repo.MarkRead(ctx, id, accountID); err != nil {
		return apperr.NotFoundOr(err, apperr.ErrNotFound.WithMessage("notification not found"))
	}
	return nil
}

func (s *NotificationService) SetFCMToken(ctx context.Context, accountID uint, token string) error {
	if err := s.accounts.SetFCMToken(ctx, accountID, token); err != nil {
		return apperr.NotFoundOr(err, apperr.ErrAccountNotFound)
	}
	return nil
}

func (s *NotificationService) NotifyPaymentApproved(ctx context.Context, accountID uint, amount int64, paymentID uint) error {
	return s.Notify(ctx, accountID, domain.NotifyPaymentApproved, "Payment approved",
		"Your payment of "+money.Format(amount)+" was confirmed and added to your balance.",
		map[string]interface{}{"payment_id": paymentID, "amount": amount})
}

func (s *NotificationService) NotifyPaymentRejected(ctx context.Context, accountID uint, amount int64, paymentID uint, reason string) error {
	body := "Your payment of " + money.Format(amount) + " could not be confirmed."
	if reason != "" {
		body += " Reason: " + reason
	}
	return s.Notify(ctx, accountID, domain.NotifyPaymentRejected, "Payment rejected", body,
		map[string]interface{}{"payment_id": paymentID, "amount": amount})
}

func (s *NotificationService) NotifyManualCredit(ctx context.Context, accountID uint, amount int64) error {
	return s.Notify(ctx, accountID, domain.NotifyManualCredit, "Balance credited",
		money.Format(amount)+" was added to your balance by an administrator.",
		map[string]interface{}{"amount": amount})
}

func (s *NotificationService) NotifyInvestmentMatured(ctx context.Context, accountID uint, investmentID uint, payout int64) error {
	return s.Notify(ctx, accountID, domain.NotifyInvestmentMatured, "Investment matured",
		"Your investment matured and "+money.Format(payout)+" was added to your balance.",
		map[string]interface{}{"investment_id": investmentID, "amount": payout})
}

func (s *NotificationService) NotifyWithdrawalApproved(ctx context.Context, accountID uint, net int64, reference string) error {
	return s.Notify(ctx, accountID, domain.NotifyWithdrawalApproved, "Withdrawal approved",
		money.Format(net)+" is on its way to your mobile money account.",
		map[string]interface{}{"reference": reference, "amount": net})
}

func (s *NotificationService) NotifyWithdrawalRejected(ctx context.Context, accountID uint, amount int64, reference, reason string) error {
	body := "Your withdrawal was rejected and " + money.Format(amount) + " was returned to your balance."
	if reason != "" {
		body += " Reason: " + reason
	}
	return s.Notify(ctx, accountID, domain.NotifyWithdrawalRejected, "Withdrawal rejected", body,
		map[string]interface{}{"reference": reference, "amount": amount})
}

func (s *NotificationService) NotifyReferralBonus(ctx context.Context, accountID uint, bonus int64, referredName string) error {
	return s.Notify(ctx, accountID, domain.NotifyReferralBonus, "Referral bonus",
		referredName+" activated their account. You earned "+money.Format(bonus)+".",
		map[string]interface{}{"amount": bonus})
}

func (s *NotificationService) NotifyAccountStatus(ctx context.Context, accountID uint, active bool) error {
	body := "Your account has been deactivated. Contact support for details."
	if active {
		body = "Your account is active. You can now invest."
	}
	return s.Notify(ctx, accountID, domain.NotifyAccountStatus, "Account status", body,
		map[string]interface{}{"active": active})
}
