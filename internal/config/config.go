package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Server    ServerConfig
	Physical  PhysicalConfig
	Session   SessionConfig
	Redis     RedisConfig
	Notify    NotifyConfig
	Scheduler SchedulerConfig
	Throttle  ThrottleConfig
}

type AppConfig struct {
	Name        string
	Env         string
	Port        int
	LogLevel    string   // 비어 있으면 환경별 기본값
	AdminEmails []string // 가입 시 ADMIN 권한을 받는 이메일
}

type DatabaseConfig struct {
	Driver          string // oracle | postgres | sqlite
	Host            string
	Port            int
	Service         string
	User            string
	Password        string
	SQLitePath      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrateMode     string // none | update | recreate
	SlowQuery       time.Duration
}

type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	RequestTimeout  time.Duration
	TrustedProxies  []string // ClientIP 판별용, 비어 있으면 X-Forwarded-For를 신뢰하지 않음
}

// PhysicalConfig holds the pricing and limit policy for physical letter requests.
type PhysicalConfig struct {
	LetterCost               int64
	ShippingCostMetro        int64
	ShippingCostStandard     int64
	ShippingCostRemote       int64
	DefaultMaxPerPerson      int
	MaxRecipientsPerRequest  int
	DefaultPageSize          int
	MaxPageSize              int
	PopularLettersMaxResults int
}

type SessionConfig struct {
	Secret     string // IP 해시 키
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type NotifyConfig struct {
	BufferSize   int
	AdminEmails  []string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type SchedulerConfig struct {
	Enabled       bool
	ReconcileSpec string // cron 표현식
	JobTimeout    time.Duration
}

type ThrottleConfig struct {
	SubmitRPS   float64
	SubmitBurst int
}

func Load(env string) (*Config, error) {
	if err := loadEnvFile(env); err != nil {
		return nil, fmt.Errorf("환경 변수 로드 실패: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "letter-press-api"),
			Env:         env,
			Port:        getEnvAsInt("APP_PORT", 8080),
			LogLevel:    getEnv("LOG_LEVEL", ""),
			AdminEmails: getEnvAsSlice("ADMIN_EMAILS", nil),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "oracle"),
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnvAsInt("DB_PORT", 1521),
			Service:         getEnv("DB_SERVICE", ""),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "letter-press.db"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "1h"),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", "10m"),
			MigrateMode:     migrateMode(),
			SlowQuery:       getEnvAsDuration("DB_SLOW_QUERY_THRESHOLD", "200ms"),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", ""),
			Expiry:        getEnvAsDuration("JWT_EXPIRY", "24h"),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", "168h"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"*"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},
		Server: ServerConfig{
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
			GracefulTimeout: getEnvAsDuration("GRACEFUL_TIMEOUT", "30s"),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", "30s"),
			TrustedProxies:  getEnvAsSlice("TRUSTED_PROXIES", nil),
		},
		Physical: PhysicalConfig{
			LetterCost:               getEnvAsInt64("PHYSICAL_LETTER_COST", 2000),
			ShippingCostMetro:        getEnvAsInt64("PHYSICAL_SHIPPING_COST_METRO", 3000),
			ShippingCostStandard:     getEnvAsInt64("PHYSICAL_SHIPPING_COST_STANDARD", 3000),
			ShippingCostRemote:       getEnvAsInt64("PHYSICAL_SHIPPING_COST_REMOTE", 3500),
			DefaultMaxPerPerson:      getEnvAsInt("PHYSICAL_DEFAULT_MAX_PER_PERSON", 5),
			MaxRecipientsPerRequest:  getEnvAsInt("PHYSICAL_MAX_RECIPIENTS_PER_REQUEST", 10),
			DefaultPageSize:          getEnvAsInt("PHYSICAL_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:              getEnvAsInt("PHYSICAL_MAX_PAGE_SIZE", 100),
			PopularLettersMaxResults: getEnvAsInt("PHYSICAL_POPULAR_MAX_RESULTS", 50),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			CookieName: getEnv("SESSION_COOKIE_NAME", "letter_session"),
			MaxAge:     getEnvAsDuration("SESSION_MAX_AGE", "720h"),
			Secure:     getEnvAsBool("SESSION_COOKIE_SECURE", env == "prod"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			LockTTL:  getEnvAsDuration("REDIS_LOCK_TTL", "10s"),
		},
		Notify: NotifyConfig{
			BufferSize:   getEnvAsInt("NOTIFY_BUFFER_SIZE", 256),
			AdminEmails:  getEnvAsSlice("NOTIFY_ADMIN_EMAILS", nil),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:     getEnv("SMTP_FROM", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvAsBool("SCHEDULER_ENABLED", true),
			ReconcileSpec: getEnv("SCHEDULER_RECONCILE_SPEC", "0 4 * * *"),
			JobTimeout:    getEnvAsDuration("SCHEDULER_JOB_TIMEOUT", "10m"),
		},
		Throttle: ThrottleConfig{
			SubmitRPS:   getEnvAsFloat("THROTTLE_SUBMIT_RPS", 1),
			SubmitBurst: getEnvAsInt("THROTTLE_SUBMIT_BURST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("환경 변수 검증 실패 : %w", err)
	}

	return cfg, nil
}

func loadEnvFile(env string) error {
	envFile := fmt.Sprintf(".env.%s", env)

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Warn("환경 변수 파일을 찾을 수 없습니다. 시스템 환경 변수를 사용합니다.",
			"file", envFile)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("환경 변수 파일 로드 오류: %s: %w", envFile, err)
	}

	absPath, _ := filepath.Abs(envFile)
	slog.Info("환경 변수 파일 로드", "file", absPath)
	return nil
}

func (c *Config) Validate() error {
	var errors []string

	// App validation
	if c.App.Port < 1 || c.App.Port > 65535 {
		errors = append(errors, "유효하지 않은 포트 번호")
	}

	// Database validation
	switch c.Database.Driver {
	case "oracle", "postgres":
		if c.Database.Host == "" {
			errors = append(errors, "데이터베이스 Host가 필요합니다")
		}
		if c.Database.Service == "" {
			errors = append(errors, "데이터베이스 Service가 필요합니다")
		}
		if c.Database.User == "" {
			errors = append(errors, "데이터베이스 User가 필요합니다")
		}
		if c.Database.Password == "" {
			errors = append(errors, "데이터베이스 Password가 필요합니다")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			errors = append(errors, "SQLite 파일 경로가 필요합니다")
		}
	default:
		errors = append(errors, fmt.Sprintf("지원하지 않는 데이터베이스 드라이버: %s", c.Database.Driver))
	}
	switch c.Database.MigrateMode {
	case MigrateNone, MigrateUpdate:
	case MigrateRecreate:
		if c.IsProduction() {
			errors = append(errors, "운영 환경에서는 DB_MIGRATE=recreate를 사용할 수 없습니다")
		}
	default:
		errors = append(errors, fmt.Sprintf("지원하지 않는 마이그레이션 모드: %s", c.Database.MigrateMode))
	}

	// JWT validation
	if c.JWT.Secret == "" {
		errors = append(errors, "JWT Secret Key가 필요합니다")
	}
	if len(c.JWT.Secret) < 32 {
		errors = append(errors, "JWT Secret Key는 32자 이상이어야 합니다")
	}

	// Session validation
	if len(c.Session.Secret) < 32 {
		errors = append(errors, "Session Secret은 32자 이상이어야 합니다")
	}

	// Physical request policy validation
	if c.Physical.LetterCost < 0 || c.Physical.ShippingCostMetro < 0 ||
		c.Physical.ShippingCostStandard < 0 || c.Physical.ShippingCostRemote < 0 {
		errors = append(errors, "비용 설정은 0 이상이어야 합니다")
	}
	if c.Physical.DefaultMaxPerPerson < 1 {
		errors = append(errors, "1인당 최대 신청 수는 1 이상이어야 합니다")
	}
	if c.Physical.MaxRecipientsPerRequest < 1 {
		errors = append(errors, "신청당 최대 수신자 수는 1 이상이어야 합니다")
	}

	if c.Throttle.SubmitRPS <= 0 || c.Throttle.SubmitBurst < 1 {
		errors = append(errors, "신청 제한(throttle) 설정이 올바르지 않습니다")
	}

	if len(errors) > 0 {
		return fmt.Errorf("유효성 검사 오류: %s", strings.Join(errors, ", "))
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "local" || c.App.Env == "dev"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "prod"
}

// RedisEnabled reports whether a Redis address is configured for distributed locks
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// SMTPEnabled reports whether email notifications can be delivered
func (c *Config) SMTPEnabled() bool {
	return c.Notify.SMTPHost != "" && c.Notify.SMTPFrom != "" && len(c.Notify.AdminEmails) > 0
}

const (
	MigrateNone     = "none"
	MigrateUpdate   = "update"   // 누락된 테이블/컬럼만 추가
	MigrateRecreate = "recreate" // 모든 테이블 삭제 후 재생성
)

// migrateMode reads DB_MIGRATE, honoring the older DB_AUTO_MIGRATE=true as recreate
func migrateMode() string {
	if mode, ok := os.LookupEnv("DB_MIGRATE"); ok {
		return strings.ToLower(strings.TrimSpace(mode))
	}
	if getEnvAsBool("DB_AUTO_MIGRATE", false) {
		return MigrateRecreate
	}
	return MigrateNone
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if defaultDuration, err := time.ParseDuration(defaultValue); err == nil {
		return defaultDuration
	}
	return 0
}
