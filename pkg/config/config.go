// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 引擎配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 运维接口配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置（成交/周期归档，可选）
	Database DatabaseConfig `mapstructure:"database"`
	// Kafka 配置（审计事件，可选）
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 账户配置
	Account AccountConfig `mapstructure:"account"`
	// 风控配置
	Risk RiskConfig `mapstructure:"risk"`
	// 自适应容量参数
	Adaptive AdaptiveConfig `mapstructure:"adaptive"`
	// 周期调度配置
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	// 结算配置
	Settlement SettlementConfig `mapstructure:"settlement"`
}

// HTTPConfig HTTP 运维接口配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 是否启用归档
	Enabled bool `mapstructure:"enabled"`
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 是否启用审计发布
	Enabled bool `mapstructure:"enabled"`
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// 审计事件主题
	AuditTopic string `mapstructure:"audit_topic"`
	// 最大重试次数
	MaxRetries int `mapstructure:"max_retries"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level"`
	// 输出格式
	Format string `mapstructure:"format"`
	// 输出目标
	Output string `mapstructure:"output"`
	// 文件路径
	FilePath string `mapstructure:"file_path"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age"`
	// 是否压缩
	Compress bool `mapstructure:"compress"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// 指标路径
	Path string `mapstructure:"path"`
}

// AccountConfig 模拟账户配置
type AccountConfig struct {
	// 用户 ID
	UserID string `mapstructure:"user_id"`
	// 用户类别：NGD, restricted, semi, admin
	Category string `mapstructure:"category"`
	// 初始资金（精确小数字符串）
	InitialBalance string `mapstructure:"initial_balance"`
}

// RiskConfig 风控配置
type RiskConfig struct {
	// 当日最大亏损（触发熔断，不可越权）
	MaxDailyLoss string `mapstructure:"max_daily_loss"`
	// 基础同时持仓笔数上限
	MaxOpenTrades int `mapstructure:"max_open_trades"`
	// 单一标的持仓市值上限
	MaxPositionValue string `mapstructure:"max_position_value"`
	// 自适应越权时的上限放大系数
	ExceedFactor float64 `mapstructure:"exceed_factor"`
}

// AdaptiveConfig 自适应容量参数（保持可配置，不内嵌推导逻辑）
type AdaptiveConfig struct {
	// 波动率阈值（升序）
	CalmBelow     float64 `mapstructure:"calm_below"`
	NormalBelow   float64 `mapstructure:"normal_below"`
	ElevatedBelow float64 `mapstructure:"elevated_below"`
	// 各波动率档位的每日建议上限
	CalmMax     int `mapstructure:"calm_max"`
	NormalMax   int `mapstructure:"normal_max"`
	ElevatedMax int `mapstructure:"elevated_max"`
	ExtremeMax  int `mapstructure:"extreme_max"`
	// 置信度阈值与缩放系数
	HighConfidence float64 `mapstructure:"high_confidence"`
	LowConfidence  float64 `mapstructure:"low_confidence"`
	HighScale      float64 `mapstructure:"high_scale"`
	LowScale       float64 `mapstructure:"low_scale"`
}

// SchedulerConfig 周期调度配置
type SchedulerConfig struct {
	// 周期长度（分钟）
	CycleMinutes int `mapstructure:"cycle_minutes"`
	// 信号拉取阶段长度（分钟）
	SignalMinutes int `mapstructure:"signal_minutes"`
	// 执行窗口数量
	Windows int `mapstructure:"windows"`
	// 每交易日周期数（用于日配额折算到单周期）
	CyclesPerSession int `mapstructure:"cycles_per_session"`
	// 无自适应决策时的每日兜底上限
	DefaultDailyCeiling int `mapstructure:"default_daily_ceiling"`
	// 周期故障后的重试等待（秒）
	FaultBackoff int `mapstructure:"fault_backoff"`
}

// SettlementConfig 结算配置
type SettlementConfig struct {
	// 主受益方分成比例
	TreasuryShare float64 `mapstructure:"treasury_share"`
	// 次受益方分成比例
	PartnerShare float64 `mapstructure:"partner_share"`
	// 税费锁定比例
	TaxRate float64 `mapstructure:"tax_rate"`
}

// Load 从 TOML 文件加载配置，支持 APP_ 前缀环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required when archival is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when audit publishing is enabled")
	}
	if c.Scheduler.SignalMinutes >= c.Scheduler.CycleMinutes {
		return fmt.Errorf("signal phase (%dm) must be shorter than the cycle (%dm)",
			c.Scheduler.SignalMinutes, c.Scheduler.CycleMinutes)
	}
	if c.Settlement.TreasuryShare+c.Settlement.PartnerShare > 1.0 {
		return fmt.Errorf("beneficiary shares exceed 100%%")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8086)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.audit_topic", "trading.audit")
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/engine.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("account.user_id", "SIM-001")
	v.SetDefault("account.category", "restricted")
	v.SetDefault("account.initial_balance", "1000000")

	v.SetDefault("risk.max_daily_loss", "50000")
	v.SetDefault("risk.max_open_trades", 10)
	v.SetDefault("risk.max_position_value", "100000")
	v.SetDefault("risk.exceed_factor", 1.2)

	v.SetDefault("adaptive.calm_below", 15.0)
	v.SetDefault("adaptive.normal_below", 20.0)
	v.SetDefault("adaptive.elevated_below", 30.0)
	v.SetDefault("adaptive.calm_max", 180)
	v.SetDefault("adaptive.normal_max", 135)
	v.SetDefault("adaptive.elevated_max", 90)
	v.SetDefault("adaptive.extreme_max", 90)
	v.SetDefault("adaptive.high_confidence", 0.80)
	v.SetDefault("adaptive.low_confidence", 0.50)
	v.SetDefault("adaptive.high_scale", 1.2)
	v.SetDefault("adaptive.low_scale", 0.7)

	v.SetDefault("scheduler.cycle_minutes", 15)
	v.SetDefault("scheduler.signal_minutes", 2)
	v.SetDefault("scheduler.windows", 3)
	v.SetDefault("scheduler.cycles_per_session", 25)
	v.SetDefault("scheduler.default_daily_ceiling", 90)
	v.SetDefault("scheduler.fault_backoff", 30)

	v.SetDefault("settlement.treasury_share", 0.7)
	v.SetDefault("settlement.partner_share", 0.3)
	v.SetDefault("settlement.tax_rate", 0.39)
}
