package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Admin       AdminConfig
	Cloudinary  CloudinaryConfig
	Firebase    FirebaseConfig
	Log         LogConfig
	Policy      PolicyConfig
	Business    BusinessConfig
	Scheduler   SchedulerConfig
	RateLimit   RateLimitConfig
	PaymentInfo PaymentInfoConfig
	Seed        SeedConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	PublicURL      string // frontend base URL, used for referral share links
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// AdminConfig seeds the bootstrap administrator. PasswordHash wins over Password when both are set.
type AdminConfig struct {
	Username     string
	Email        string
	Password     string
	PasswordHash string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type LogConfig struct {
	Level  string
	Format string
}

// PolicyConfig holds defaults; admins override them at runtime through system settings.
type PolicyConfig struct {
	MinWithdrawal        int64
	WithdrawalFeePercent string
	ReferralsRequired    int
	ReferralBonus        int64
	MinPasswordLength    int
}

type BusinessConfig struct {
	Timezone string
}

type SchedulerConfig struct {
	MaturityCron string
	Enabled      bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	LoginPerMinute    int
}

type PaymentInfoConfig struct {
	MobileMoneyNumber string
	MobileMoneyName   string
	ProofContactLink  string
}

type SeedConfig struct {
	PackagesFile string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("APP_ENV", "development"),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
			PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:5173"), "/"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			DSN:             getEnv("DB_DSN", "investx:investx@tcp(localhost:3306)/investx?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 30*time.Minute),
			RefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "investx"),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", ""),
			Email:        getEnv("ADMIN_EMAIL", ""),
			Password:     getEnv("ADMIN_PASSWORD", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "investx/payment-proofs"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Policy: PolicyConfig{
			MinWithdrawal:        getInt64("POLICY_MIN_WITHDRAWAL", 3000),
			WithdrawalFeePercent: getEnv("POLICY_WITHDRAWAL_FEE_PERCENT", "10"),
			ReferralsRequired:    getInt("POLICY_REFERRALS_REQUIRED", 2),
			ReferralBonus:        getInt64("POLICY_REFERRAL_BONUS", 500),
			MinPasswordLength:    getInt("POLICY_MIN_PASSWORD_LENGTH", 6),
		},
		Business: BusinessConfig{
			Timezone: getEnv("BUSINESS_TIMEZONE", "Africa/Kigali"),
		},
		Scheduler: SchedulerConfig{
			MaturityCron: getEnv("MATURITY_CRON", "*/5 * * * *"),
			Enabled:      getBool("MATURITY_CRON_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloat("RATE_LIMIT_RPS", 10),
			Burst:             getInt("RATE_LIMIT_BURST", 30),
			LoginPerMinute:    getInt("RATE_LIMIT_LOGIN_PER_MINUTE", 10),
		},
		PaymentInfo: PaymentInfoConfig{
			MobileMoneyNumber: getEnv("PAYMENT_MOMO_NUMBER", ""),
			MobileMoneyName:   getEnv("PAYMENT_MOMO_NAME", ""),
			ProofContactLink:  getEnv("PAYMENT_PROOF_LINK", ""),
		},
		Seed: SeedConfig{
			PackagesFile: getEnv("SEED_PACKAGES_FILE", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getList(key string, def []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
