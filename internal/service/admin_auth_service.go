package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/auth"
	"investx/internal/domain"
	"investx/internal/logger"
	"investx/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminAuthService authenticates console administrators. Credentials live only as bcrypt hashes.
type AdminAuthService struct {
	jwt    *config.JWTConfig
	admins AdminUserStore
	audit  *AuditService
	now    func() time.Time
}

func NewAdminAuthService(jwt *config.JWTConfig, admins AdminUserStore, audit *AuditService) *AdminAuthService {
	return &AdminAuthService{jwt: jwt, admins: admins, audit: audit, now: time.Now}
}

func (s *AdminAuthService) Login(ctx context.Context, username, password string, meta RequestMeta) (*models.AdminUser, *TokenPair, error) {
	u, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, apperr.NotFoundOr(err, apperr.ErrInvalidCredentials.WithMessage("invalid username or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAdmin, ActorID: u.ID, Action: "admin.login_failed", Resource: "admin", ResourceID: u.ID, Meta: meta})
		return nil, nil, apperr.ErrInvalidCredentials.WithMessage("invalid username or password")
	}
	if !u.IsActive {
		return nil, nil, apperr.ErrAdminInactive
	}
	tokens, err := issueTokens(s.jwt, u.ID, u.Email, domain.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	if err := s.admins.TouchLastLogin(ctx, u.ID, now); err != nil {
		logger.Warn().Err(err).Uint("admin_id", u.ID).Msg("could not record admin last login")
	} else {
		u.LastLogin = &now
	}
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAdmin, ActorID: u.ID, Action: "admin.login", Resource: "admin", ResourceID: u.ID, Meta: meta})
	return u, tokens, nil
}

func (s *AdminAuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, role, err := auth.ParseRefreshToken(s.jwt, refreshToken)
	if err != nil || role != domain.RoleAdmin {
		return nil, apperr.ErrInvalidToken
	}
	u, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrInvalidToken)
	}
	if !u.IsActive {
		return nil, apperr.ErrAdminInactive
	}
	return issueTokens(s.jwt, u.ID, u.Email, domain.RoleAdmin)
}

// Get loads an admin and rejects disabled ones, used by the middleware on every admin request.
func (s *AdminAuthService) Get(ctx context.Context, id uint) (*models.AdminUser, error) {
	u, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, apperr.ErrAdminInactive
	}
	return u, nil
}

func (s *AdminAuthService) ChangePassword(ctx context.Context, adminID uint, current, next string, meta RequestMeta) error {
	if len(next) < 8 {
		return apperr.FieldError("new_password", "must be at least 8 characters")
	}
	u, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return apperr.NotFoundOr(err, apperr.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperr.ErrInvalidCredentials.WithMessage("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperr.ErrInternal.WithError(err)
	}
	if err := s.admins.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return apperr.Storage(err)
	}
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAdmin, ActorID: u.ID, Action: "admin.change_password", Resource: "admin", ResourceID: u.ID, Meta: meta})
	return nil
}

// EnsureBootstrapAdmin creates the configured administrator when no admin with that username exists.
// An existing admin is left untouched so a rotated password survives restarts.
func (s *AdminAuthService) EnsureBootstrapAdmin(ctx context.Context, cfg config.AdminConfig) (bool, error) {
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		return false, nil
	}
	_, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash := strings.TrimSpace(cfg.PasswordHash)
	if hash == "" {
		if len(cfg.Password) < 8 {
			return false, errors.New("ADMIN_PASSWORD must be at least 8 characters when ADMIN_PASSWORD_HASH is not set")
		}
		b, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return false, err
		}
		hash = string(b)
	} else if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return false, errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")
	}

	email := strings.TrimSpace(cfg.Email)
	if email == "" {
		email = username + "@admin.local"
	}
	u := &models.AdminUser{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := s.admins.Create(ctx, u); err != nil {
		return false, err
	}
	logger.Info().Str("username", username).Uint("id", u.ID).Msg("bootstrap admin created")
	return true, nil
}
