package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("POLICY_MIN_WITHDRAWAL", "")

	cfg := Load()
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, int64(3000), cfg.Policy.MinWithdrawal)
	assert.Equal(t, "10", cfg.Policy.WithdrawalFeePercent)
	assert.Equal(t, 2, cfg.Policy.ReferralsRequired)
	assert.Equal(t, int64(500), cfg.Policy.ReferralBonus)
	assert.Equal(t, 6, cfg.Policy.MinPasswordLength)
	assert.Equal(t, "Africa/Kigali", cfg.Business.Timezone)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("POLICY_MIN_WITHDRAWAL", "1000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PUBLIC_URL", "https://investx.example/")
	t.Setenv("MATURITY_CRON_ENABLED", "false")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, int64(1000), cfg.Policy.MinWithdrawal)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "https://investx.example", cfg.Server.PublicURL)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("RATE_LIMIT_RPS", "fast")

	cfg := Load()
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, float64(10), cfg.RateLimit.RequestsPerSecond)
}

func TestEmbeddedPackageSeeds(t *testing.T) {
	seeds, err := LoadPackageSeeds("")
	require.NoError(t, err)
	require.Len(t, seeds, 3)
	assert.Equal(t, "Starter", seeds[0].Name)
	assert.Equal(t, int64(5000), seeds[0].MinAmount)
	assert.Equal(t, 7, seeds[0].DurationDays)
	assert.Equal(t, "20", seeds[0].ProfitPercentage)
	assert.Equal(t, 3, seeds[2].MaxUses)
}

func TestParsePackageSeedsRejectsBadRange(t *testing.T) {
	_, err := ParsePackageSeeds([]byte(`
packages:
  - name: Broken
    min_amount: 9000
    max_amount: 100
    duration_days: 7
    profit_percentage: "10"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount range")
}
