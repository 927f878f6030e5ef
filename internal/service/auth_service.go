package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/auth"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/internal/models"
	"investx/internal/repository"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const referralCodeAttempts = 10

type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	ReferralCode string
}

type AuthService struct {
	jwt      *config.JWTConfig
	store    repository.Store
	policy   *PolicyService
	audit    *AuditService
	validate *validator.Validate
}

func NewAuthService(jwt *config.JWTConfig, store repository.Store, policy *PolicyService, audit *AuditService) *AuthService {
	return &AuthService{jwt: jwt, store: store, policy: policy, audit: audit, validate: validator.New()}
}

// Register creates an inactive account with a fresh referral code and credits the referrer's count,
// all in one transaction. A repeated registration fails on the duplicate email or phone check.
// A referral code that matches no account is ignored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*models.Account, *TokenPair, error) {
	policy := s.policy.Current(ctx)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ReferralCode = strings.ToUpper(strings.TrimSpace(in.ReferralCode))
	phone, phoneOK := NormalizePhone(in.Phone)

	switch {
	case in.Name == "":
		return nil, nil, apperr.FieldError("name", "name is required")
	case s.validate.Var(in.Email, "required,email") != nil:
		return nil, nil, apperr.FieldError("email", "must be a valid email address")
	case !phoneOK:
		return nil, nil, apperr.FieldError("phone", "must contain 10 to 15 digits")
	case len(in.Password) < policy.MinPasswordLength:
		return nil, nil, apperr.FieldError("password", "must be at least "+strconv.Itoa(policy.MinPasswordLength)+" characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperr.ErrInternal.WithError(err)
	}

	var account *models.Account
	err = s.store.Atomic(ctx, func(tx repository.Repos) error {
		if err := ensureAbsent(tx.Accounts().GetByEmail(ctx, in.Email)); err != nil {
			return orConflict(err, apperr.ErrEmailExists)
		}
		if err := ensureAbsent(tx.Accounts().GetByPhone(ctx, phone)); err != nil {
			return orConflict(err, apperr.ErrPhoneExists)
		}

		var referrer *models.Account
		if in.ReferralCode != "" {
			r, err := tx.Accounts().GetByReferralCode(ctx, in.ReferralCode)
			switch {
			case err == nil:
				referrer = r
			case errors.Is(err, gorm.ErrRecordNotFound):
				logger.Info().Str("code", in.ReferralCode).Str("email", in.Email).Msg("unknown referral code, registering without referrer")
			default:
				return apperr.Storage(err)
			}
		}

		code, err := uniqueReferralCode(ctx, tx.Accounts())
		if err != nil {
			return err
		}
		a := &models.Account{
			Name:                           in.Name,
			Email:                          in.Email,
			Phone:                          phone,
			PasswordHash:                   string(hash),
			ReferralCode:                   code,
			ReferralsRequiredForWithdrawal: policy.ReferralsRequired,
		}
		if referrer != nil {
			rc := referrer.ReferralCode
			a.ReferredBy = &rc
		}
		if err := tx.Accounts().Create(ctx, a); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrDuplicateAccount.WithError(err)
			}
			return apperr.Storage(err)
		}
		if referrer != nil {
			if err := tx.Accounts().IncrementReferralCount(ctx, referrer.ID); err != nil {
				return apperr.Storage(err)
			}
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, nil, apperr.Storage(err)
	}

	tokens, err := issueTokens(s.jwt, account.ID, account.Email, domain.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		ActorKind: domain.ActorAccount, ActorID: account.ID, Action: "account.register",
		Resource: "account", ResourceID: account.ID, Meta: meta,
		Metadata: map[string]interface{}{"referral_code": in.ReferralCode, "referred_by": account.ReferredBy},
	})
	return account, tokens, nil
}

// Login accepts inactive accounts; they need a session to submit the activation payment.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*models.Account, *TokenPair, error) {
	a, err := s.store.Accounts().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, apperr.NotFoundOr(err, apperr.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperr.ErrInvalidCredentials
	}
	tokens, err := issueTokens(s.jwt, a.ID, a.Email, domain.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAccount, ActorID: a.ID, Action: "account.login", Resource: "account", ResourceID: a.ID, Meta: meta})
	return a, tokens, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, role, err := auth.ParseRefreshToken(s.jwt, refreshToken)
	if err != nil || role != domain.RoleUser {
		return nil, apperr.ErrInvalidToken
	}
	a, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrInvalidToken)
	}
	return issueTokens(s.jwt, a.ID, a.Email, domain.RoleUser)
}

// Logout is stateless; tokens expire on their own. The event is kept for the audit trail.
func (s *AuthService) Logout(ctx context.Context, accountID uint, meta RequestMeta) {
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAccount, ActorID: accountID, Action: "account.logout", Resource: "account", ResourceID: accountID, Meta: meta})
}

func (s *AuthService) ChangePassword(ctx context.Context, accountID uint, current, next string, meta RequestMeta) error {
	if minLen := s.policy.Current(ctx).MinPasswordLength; len(next) < minLen {
		return apperr.FieldError("new_password", "must be at least "+strconv.Itoa(minLen)+" characters")
	}
	err := s.store.Atomic(ctx, func(tx repository.Repos) error {
		a, err := tx.Accounts().GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return apperr.NotFoundOr(err, apperr.ErrAccountNotFound)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)); err != nil {
			return apperr.ErrInvalidCredentials.WithMessage("current password is incorrect")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
		if err != nil {
			return apperr.ErrInternal.WithError(err)
		}
		a.PasswordHash = string(hash)
		return apperr.Storage(tx.Accounts().Update(ctx, a))
	})
	if err != nil {
		return apperr.Storage(err)
	}
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAccount, ActorID: accountID, Action: "account.change_password", Resource: "account", ResourceID: accountID, Meta: meta})
	return nil
}

func issueTokens(cfg *config.JWTConfig, id uint, email, role string) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(cfg, id, email, role)
	if err != nil {
		return nil, apperr.ErrInternal.WithError(err)
	}
	refresh, err := auth.GenerateRefreshToken(cfg, id, role)
	if err != nil {
		return nil, apperr.ErrInternal.WithError(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(cfg.AccessExpiry.Seconds())}, nil
}

func uniqueReferralCode(ctx context.Context, accounts repository.AccountRepository) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := repository.GenerateReferralCode()
		if err != nil {
			return "", apperr.ErrInternal.WithError(err)
		}
		_, err = accounts.GetByReferralCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", apperr.Storage(err)
		}
	}
	return "", apperr.ErrInternal.WithMessage("could not allocate a referral code")
}

// ensureAbsent turns a successful lookup into errFound and a not-found into nil.
var errFound = errors.New("record exists")

func ensureAbsent(_ *models.Account, err error) error {
	if err == nil {
		return errFound
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func orConflict(err error, conflict *apperr.AppError) error {
	if errors.Is(err, errFound) {
		return conflict
	}
	return apperr.Storage(err)
}

// NormalizePhone strips formatting and returns the digits with a leading + kept when present.
func NormalizePhone(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	digits := 0
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", false
		}
	}
	if digits < 10 || digits > 15 {
		return "", false
	}
	return b.String(), true
}
