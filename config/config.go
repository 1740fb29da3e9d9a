package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"hyperzen/backend/internal/billing"
)

// ErrNotConfigured 关键配置缺失或非法（启动即失败，不作为请求级错误）
var ErrNotConfigured = errors.New("配置缺失或非法")

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Import   ImportConfig   `mapstructure:"import"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（状态缓存、Token 黑名单、限流）
type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	StatusCacheTTL time.Duration `mapstructure:"status_cache_ttl"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	LoginRateLimit  int           `mapstructure:"login_rate_limit"` // 每分钟
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BillingConfig 付款状态判定策略
// 学年窗口与阈值随学年变化，必须显式配置
type BillingConfig struct {
	AcademicYearStart      string  `mapstructure:"academic_year_start"` // "2025-09-01"
	AcademicYearEnd        string  `mapstructure:"academic_year_end"`   // "2026-06-30"
	CreditorTolerance      float64 `mapstructure:"creditor_tolerance"`
	SettledTolerance       float64 `mapstructure:"settled_tolerance"`
	UnpaidElapsedThreshold float64 `mapstructure:"unpaid_elapsed_threshold"`
	ExpectedPaymentRatio   float64 `mapstructure:"expected_payment_ratio"`
	StalePaymentDays       int     `mapstructure:"stale_payment_days"`
}

// Policy 转换为 billing.Policy 并校验
func (c *BillingConfig) Policy() (billing.Policy, error) {
	start, err := time.Parse("2006-01-02", c.AcademicYearStart)
	if err != nil {
		return billing.Policy{}, fmt.Errorf("%w: billing.academic_year_start %q", ErrNotConfigured, c.AcademicYearStart)
	}
	end, err := time.Parse("2006-01-02", c.AcademicYearEnd)
	if err != nil {
		return billing.Policy{}, fmt.Errorf("%w: billing.academic_year_end %q", ErrNotConfigured, c.AcademicYearEnd)
	}

	p := billing.Policy{
		YearStart:              start,
		YearEnd:                end,
		CreditorTolerance:      decimal.NewFromFloat(c.CreditorTolerance),
		SettledTolerance:       decimal.NewFromFloat(c.SettledTolerance),
		UnpaidElapsedThreshold: c.UnpaidElapsedThreshold,
		ExpectedPaymentRatio:   c.ExpectedPaymentRatio,
		StalePaymentDays:       c.StalePaymentDays,
	}
	if err := p.Validate(); err != nil {
		return billing.Policy{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	return p, nil
}

// ReminderConfig 催缴（relance）节奏
type ReminderConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MinIntervalDays int           `mapstructure:"min_interval_days"`
	MaxLevel        int           `mapstructure:"max_level"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
}

// ImportConfig CSV 导入限制
type ImportConfig struct {
	MaxRows      int   `mapstructure:"max_rows"`
	MaxFileBytes int64 `mapstructure:"max_file_bytes"`
	RateLimit    int   `mapstructure:"rate_limit"` // 每小时
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅补充环境变量，不覆盖已存在的值
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("加载 .env 失败: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("HYPERZEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "hyperzen")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Africa/Casablanca")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.status_cache_ttl", "10m")

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.login_rate_limit", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("billing.academic_year_start", "2025-09-01")
	v.SetDefault("billing.academic_year_end", "2026-06-30")
	v.SetDefault("billing.creditor_tolerance", billing.DefaultCreditorTolerance)
	v.SetDefault("billing.settled_tolerance", billing.DefaultSettledTolerance)
	v.SetDefault("billing.unpaid_elapsed_threshold", billing.DefaultUnpaidElapsedThreshold)
	v.SetDefault("billing.expected_payment_ratio", billing.DefaultExpectedPaymentRatio)
	v.SetDefault("billing.stale_payment_days", billing.DefaultStalePaymentDays)

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.min_interval_days", 7)
	v.SetDefault("reminder.max_level", 3)
	v.SetDefault("reminder.sweep_interval", "1h")

	v.SetDefault("import.max_rows", 1000)
	v.SetDefault("import.max_file_bytes", 5<<20)
	v.SetDefault("import.rate_limit", 30)
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret 不能为空", ErrNotConfigured)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("%w: auth.jwt_secret 长度不能少于 16 字符", ErrNotConfigured)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port 必须在 1-65535 之间", ErrNotConfigured)
	}
	if _, err := c.Billing.Policy(); err != nil {
		return err
	}
	if c.Reminder.Enabled {
		if c.Reminder.MinIntervalDays <= 0 || c.Reminder.MaxLevel <= 0 {
			return fmt.Errorf("%w: reminder.min_interval_days 与 reminder.max_level 必须为正数", ErrNotConfigured)
		}
		if c.Reminder.SweepInterval < time.Minute {
			return fmt.Errorf("%w: reminder.sweep_interval 不能小于 1 分钟", ErrNotConfigured)
		}
	}
	if c.Import.MaxRows <= 0 {
		return fmt.Errorf("%w: import.max_rows 必须为正数", ErrNotConfigured)
	}
	return nil
}
