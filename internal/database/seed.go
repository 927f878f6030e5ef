package database

import (
	"context"
	"fmt"

	"investx/config"
	"investx/internal/logger"
	"investx/internal/service"
)

// SettingSeeder inserts missing setting rows without touching existing ones.
type SettingSeeder interface {
	SeedDefaults(ctx context.Context, defaults map[string]string) error
}

// Seeds is what a fresh database needs before serving traffic.
type Seeds struct {
	Settings SettingSeeder
	Policy   *service.PolicyService
	Packages *service.PackageService
	Admins   *service.AdminAuthService
	Catalog  []config.PackageSeed
	Admin    config.AdminConfig
}

// Seed is idempotent: settings and packages are only inserted when absent, and an existing
// bootstrap admin keeps its password.
func Seed(ctx context.Context, s Seeds) error {
	if s.Settings != nil && s.Policy != nil {
		if err := s.Settings.SeedDefaults(ctx, s.Policy.Defaults()); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
	}
	if s.Packages != nil && len(s.Catalog) > 0 {
		n, err := s.Packages.Seed(ctx, s.Catalog)
		if err != nil {
			return fmt.Errorf("seed packages: %w", err)
		}
		if n > 0 {
			logger.Info().Int("count", n).Msg("seeded investment packages")
		}
	}
	if s.Admins != nil {
		created, err := s.Admins.EnsureBootstrapAdmin(ctx, s.Admin)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			logger.Info().Str("username", s.Admin.Username).Msg("created bootstrap admin")
		} else if s.Admin.Username == "" {
			logger.Warn().Msg("ADMIN_USERNAME not set; no bootstrap admin created")
		}
	}
	return nil
}
