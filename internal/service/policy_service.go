package service

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Policy is the set of business rules admins can tune at runtime.
type Policy struct {
	MinWithdrawal        int64           `json:"min_withdrawal"`
	WithdrawalFeePercent decimal.Decimal `json:"withdrawal_fee_percent"`
	ReferralsRequired    int             `json:"referrals_required"`
	ReferralBonus        int64           `json:"referral_bonus"`
	MinPasswordLength    int             `json:"-"`
}

// PolicyService reads policy from system settings, falling back to configured defaults.
type PolicyService struct {
	settings SettingStore
	defaults config.PolicyConfig
}

func NewPolicyService(settings SettingStore, defaults config.PolicyConfig) *PolicyService {
	return &PolicyService{settings: settings, defaults: defaults}
}

// Defaults returns the configured values as setting strings, used to seed the table.
func (s *PolicyService) Defaults() map[string]string {
	return map[string]string{
		domain.SettingMinWithdrawal:        strconv.FormatInt(s.defaults.MinWithdrawal, 10),
		domain.SettingWithdrawalFeePercent: s.defaults.WithdrawalFeePercent,
		domain.SettingReferralsRequired:    strconv.Itoa(s.defaults.ReferralsRequired),
		domain.SettingReferralBonus:        strconv.FormatInt(s.defaults.ReferralBonus, 10),
	}
}

// Current resolves every policy value. A missing or malformed setting uses the default.
func (s *PolicyService) Current(ctx context.Context) Policy {
	fee, err := money.ParsePercent(s.defaults.WithdrawalFeePercent)
	if err != nil {
		fee = decimal.NewFromInt(10)
	}
	p := Policy{
		MinWithdrawal:        s.defaults.MinWithdrawal,
		WithdrawalFeePercent: fee,
		ReferralsRequired:    s.defaults.ReferralsRequired,
		ReferralBonus:        s.defaults.ReferralBonus,
		MinPasswordLength:    s.defaults.MinPasswordLength,
	}
	if p.MinPasswordLength <= 0 {
		p.MinPasswordLength = 6
	}
	if s.settings == nil {
		return p
	}

	if v, ok := s.lookup(ctx, domain.SettingMinWithdrawal); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			p.MinWithdrawal = n
		}
	}
	if v, ok := s.lookup(ctx, domain.SettingWithdrawalFeePercent); ok {
		if d, err := money.ParsePercent(v); err == nil && d.LessThan(decimal.NewFromInt(100)) {
			p.WithdrawalFeePercent = d
		}
	}
	if v, ok := s.lookup(ctx, domain.SettingReferralsRequired); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.ReferralsRequired = n
		}
	}
	if v, ok := s.lookup(ctx, domain.SettingReferralBonus); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			p.ReferralBonus = n
		}
	}
	return p
}

func (s *PolicyService) lookup(ctx context.Context, key string) (string, bool) {
	v, err := s.settings.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Err(err).Str("key", key).Msg("setting lookup failed, using default")
		}
		return "", false
	}
	return v, v != ""
}

// Update validates and stores admin overrides. Unknown keys are rejected.
func (s *PolicyService) Update(ctx context.Context, values map[string]string) (Policy, error) {
	if len(values) == 0 {
		return Policy{}, apperr.ErrInvalidSetting.WithMessage("no settings supplied")
	}
	invalid := map[string]interface{}{}
	for key, v := range values {
		if msg := validateSetting(key, v); msg != "" {
			invalid[key] = msg
		}
	}
	if len(invalid) > 0 {
		return Policy{}, apperr.ErrInvalidSetting.WithDetails(invalid)
	}
	if err := s.settings.SetMany(ctx, values); err != nil {
		return Policy{}, apperr.Storage(err)
	}
	return s.Current(ctx), nil
}

func validateSetting(key, v string) string {
	switch key {
	case domain.SettingMinWithdrawal:
		if n, err := strconv.ParseInt(v, 10, 64); err != nil || n <= 0 {
			return "must be a positive whole amount"
		}
	case domain.SettingWithdrawalFeePercent:
		d, err := money.ParsePercent(v)
		if err != nil || !d.LessThan(decimal.NewFromInt(100)) {
			return "must be a percentage from 0 to below 100"
		}
	case domain.SettingReferralsRequired:
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			return "must be zero or a positive whole number"
		}
	case domain.SettingReferralBonus:
		if n, err := strconv.ParseInt(v, 10, 64); err != nil || n < 0 {
			return "must be zero or a positive whole amount"
		}
	default:
		return "unknown setting"
	}
	return ""
}

// SettingView is one row of the admin settings screen.
type SettingView struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Default string `json:"default"`
}

func (s *PolicyService) List(ctx context.Context) ([]SettingView, error) {
	defaults := s.Defaults()
	stored := map[string]string{}
	if s.settings != nil {
		rows, err := s.settings.GetAll(ctx)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		for _, r := range rows {
			stored[r.Key] = r.Value
		}
	}
	out := make([]SettingView, 0, len(defaults))
	for k, def := range defaults {
		v, ok := stored[k]
		if !ok {
			v = def
		}
		out = append(out, SettingView{Key: k, Value: v, Default: def})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
