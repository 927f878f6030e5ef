package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/domain"
	"investx/internal/models"
	"investx/internal/repository"
	"investx/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PackageInput struct {
	Name             string          `json:"name" binding:"required,max=100"`
	Description      string          `json:"description"`
	MinAmount        int64           `json:"min_amount" binding:"required,gt=0"`
	MaxAmount        int64           `json:"max_amount" binding:"required,gtefield=MinAmount,lte=1000000000000000"`
	DurationDays     int             `json:"duration_days" binding:"required,gt=0,lte=3650"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	MaxUses          int             `json:"max_uses" binding:"gte=0"`
	IsActive         *bool           `json:"is_active"`
}

type PackageService struct {
	store repository.Store
	audit *AuditService
}

func NewPackageService(store repository.Store, audit *AuditService) *PackageService {
	return &PackageService{store: store, audit: audit}
}

func (s *PackageService) List(ctx context.Context, activeOnly bool) ([]models.InvestmentPackage, error) {
	list, err := s.store.Packages().List(ctx, activeOnly)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if list == nil {
		list = []models.InvestmentPackage{}
	}
	return list, nil
}

func (s *PackageService) Get(ctx context.Context, id uint) (*models.InvestmentPackage, error) {
	p, err := s.store.Packages().GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFoundOr(err, apperr.ErrPackageNotFound)
	}
	return p, nil
}

func validatePackage(in *PackageInput) error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return apperr.FieldError("name", "name is required")
	case in.MinAmount <= 0:
		return apperr.FieldError("min_amount", "must be greater than zero")
	case in.MaxAmount < in.MinAmount:
		return apperr.FieldError("max_amount", "must be at least min_amount")
	case in.MaxAmount > money.MaxAmount:
		return apperr.FieldError("max_amount", fmt.Sprintf("must not exceed %d", money.MaxAmount))
	case in.DurationDays <= 0:
		return apperr.FieldError("duration_days", "must be greater than zero")
	case in.MaxUses < 0:
		return apperr.FieldError("max_uses", "must be zero (unlimited) or positive")
	}
	pct, err := money.ParsePercent(in.ProfitPercentage.String())
	if err != nil {
		return apperr.FieldError("profit_percentage", "must be between 0 and 1000")
	}
	if _, err := money.ExpectedReturn(in.MaxAmount, pct); err != nil {
		return apperr.FieldError("max_amount", "expected return at this amount exceeds the supported maximum")
	}
	return nil
}

func (s *PackageService) Create(ctx context.Context, in PackageInput, adminID uint, meta RequestMeta) (*models.InvestmentPackage, error) {
	if err := validatePackage(&in); err != nil {
		return nil, err
	}
	p := &models.InvestmentPackage{IsActive: true}
	applyPackage(p, in)
	if err := s.store.Packages().Create(ctx, p); err != nil {
		return nil, packageWriteErr(err)
	}
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAdmin, ActorID: adminID, Action: "package.create", Resource: "package", ResourceID: p.ID, Meta: meta})
	return p, nil
}

func (s *PackageService) Update(ctx context.Context, id uint, in PackageInput, adminID uint, meta RequestMeta) (*models.InvestmentPackage, error) {
	if err := validatePackage(&in); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPackage(p, in)
	if err := s.store.Packages().Update(ctx, p); err != nil {
		return nil, packageWriteErr(err)
	}
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAdmin, ActorID: adminID, Action: "package.update", Resource: "package", ResourceID: p.ID, Meta: meta})
	return p, nil
}

func (s *PackageService) Toggle(ctx context.Context, id uint, adminID uint, meta RequestMeta) (*models.InvestmentPackage, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = !p.IsActive
	if err := s.store.Packages().Update(ctx, p); err != nil {
		return nil, apperr.Storage(err)
	}
	s.audit.Record(ctx, AuditEntry{
		ActorKind: domain.ActorAdmin, ActorID: adminID, Action: "package.toggle", Resource: "package", ResourceID: p.ID, Meta: meta,
		Metadata: map[string]interface{}{"is_active": p.IsActive},
	})
	return p, nil
}

// Delete removes a package nobody has invested in. A package with history is deactivated
// instead and the result reports deleted=false.
func (s *PackageService) Delete(ctx context.Context, id uint, adminID uint, meta RequestMeta) (deleted bool, pkg *models.InvestmentPackage, err error) {
	err = s.store.Atomic(ctx, func(tx repository.Repos) error {
		p, err := tx.Packages().GetByID(ctx, id)
		if err != nil {
			return apperr.NotFoundOr(err, apperr.ErrPackageNotFound)
		}
		used, err := tx.Investments().CountByPackage(ctx, id)
		if err != nil {
			return apperr.Storage(err)
		}
		if used > 0 {
			p.IsActive = false
			pkg = p
			return apperr.Storage(tx.Packages().Update(ctx, p))
		}
		deleted = true
		return apperr.Storage(tx.Packages().Delete(ctx, id))
	})
	if err != nil {
		return false, nil, apperr.Storage(err)
	}
	action := "package.delete"
	if !deleted {
		action = "package.deactivate"
	}
	s.audit.Record(ctx, AuditEntry{ActorKind: domain.ActorAdmin, ActorID: adminID, Action: action, Resource: "package", ResourceID: id, Meta: meta})
	return deleted, pkg, nil
}

// Seed creates the default packages when the table is empty.
func (s *PackageService) Seed(ctx context.Context, seeds []config.PackageSeed) (int, error) {
	n, err := s.store.Packages().Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	created := 0
	for _, seed := range seeds {
		pct, err := money.ParsePercent(seed.ProfitPercentage)
		if err != nil {
			return created, err
		}
		p := &models.InvestmentPackage{
			Name:             seed.Name,
			Description:      seed.Description,
			MinAmount:        seed.MinAmount,
			MaxAmount:        seed.MaxAmount,
			DurationDays:     seed.DurationDays,
			ProfitPercentage: pct,
			MaxUses:          seed.MaxUses,
			IsActive:         seed.Active == nil || *seed.Active,
		}
		if err := s.store.Packages().Create(ctx, p); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func applyPackage(p *models.InvestmentPackage, in PackageInput) {
	p.Name = in.Name
	p.Description = strings.TrimSpace(in.Description)
	p.MinAmount = in.MinAmount
	p.MaxAmount = in.MaxAmount
	p.DurationDays = in.DurationDays
	p.ProfitPercentage = in.ProfitPercentage
	p.MaxUses = in.MaxUses
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func packageWriteErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrPackageNameExists
	}
	return apperr.Storage(err)
}
