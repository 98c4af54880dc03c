package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Douyin DouyinConfig `mapstructure:"douyin"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Cron   CronConfig   `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DouyinConfig 抖音开放平台接入配置
type DouyinConfig struct {
	AppID     string        `mapstructure:"app_id"`
	AppSecret string        `mapstructure:"app_secret"`
	AccountID string        `mapstructure:"account_id"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SyncConfig 同步任务配置
type SyncConfig struct {
	TaskID   string        `mapstructure:"task_id"`
	Interval time.Duration `mapstructure:"interval"`

	// 同步窗口：显式起止时间优先于相对天数
	DaysBack  int    `mapstructure:"days_back"`
	StartTime string `mapstructure:"start_time"`
	EndTime   string `mapstructure:"end_time"`

	OrderStatus     string `mapstructure:"order_status"`
	PageSize        int    `mapstructure:"page_size"`
	GetSecretNumber bool   `mapstructure:"get_secret_number"`
	UseCreateTime   bool   `mapstructure:"use_create_time"`

	// 解析后的显式窗口（Load 时填充，二者要么都有要么都无）
	ExplicitStart *time.Time `mapstructure:"-"`
	ExplicitEnd   *time.Time `mapstructure:"-"`
}

type CronConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Heartbeat string `mapstructure:"heartbeat"`
}

// ==================== 配置错误 ====================

// ConfigError 缺失必填配置，启动时致命
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("缺少必填配置项: %s", e.Field)
}

// ValidationError 配置取值非法，启动时致命
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置项 %s 非法: %s", e.Field, e.Reason)
}

// ==================== 加载 ====================

// Load 从 yaml 文件与环境变量（DOS_ 前缀）加载配置
//
// envOnly 为 true 时跳过配置文件，仅用环境变量与默认值，便于容器部署
func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("douyin.base_url", "https://open.douyin.com")
	v.SetDefault("douyin.timeout", "30s")
	v.SetDefault("sync.task_id", "douyin_order_sync")
	v.SetDefault("sync.interval", "300s")
	v.SetDefault("sync.days_back", 1)
	v.SetDefault("sync.page_size", 50)
	v.SetDefault("sync.get_secret_number", true)
	v.SetDefault("sync.use_create_time", false)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.heartbeat", "@every 30s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Douyin.AppID == "" {
		return &ConfigError{Field: "douyin.app_id"}
	}
	if cfg.Douyin.AppSecret == "" {
		return &ConfigError{Field: "douyin.app_secret"}
	}
	if cfg.Douyin.AccountID == "" {
		return &ConfigError{Field: "douyin.account_id"}
	}
	if cfg.DB.DSN == "" {
		return &ConfigError{Field: "db.dsn"}
	}

	// 页大小限制为上游允许的 1-100
	if cfg.Sync.PageSize < 1 {
		cfg.Sync.PageSize = 1
	}
	if cfg.Sync.PageSize > 100 {
		cfg.Sync.PageSize = 100
	}

	if cfg.Sync.DaysBack < 1 && cfg.Sync.StartTime == "" {
		return &ValidationError{Field: "sync.days_back", Reason: "必须为正数"}
	}

	// 显式窗口必须成对出现
	if (cfg.Sync.StartTime == "") != (cfg.Sync.EndTime == "") {
		return &ValidationError{Field: "sync.start_time/end_time", Reason: "必须同时配置"}
	}
	if cfg.Sync.StartTime != "" {
		start, err := parseDate(cfg.Sync.StartTime, false)
		if err != nil {
			return &ValidationError{Field: "sync.start_time", Reason: err.Error()}
		}
		end, err := parseDate(cfg.Sync.EndTime, true)
		if err != nil {
			return &ValidationError{Field: "sync.end_time", Reason: err.Error()}
		}
		if end.Before(start) {
			return &ValidationError{Field: "sync.end_time", Reason: "结束时间早于开始时间"}
		}
		cfg.Sync.ExplicitStart = &start
		cfg.Sync.ExplicitEnd = &end
	}

	return nil
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// parseDate 按常见格式解析本地时间；纯日期作为结束时间时取当天末尾
func parseDate(s string, isEnd bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			continue
		}
		if isEnd && !strings.Contains(layout, "15:04:05") {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("无法解析时间 %q", s)
}
