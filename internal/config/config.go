// Package config 提供配置加载和管理功能
package config

import (
	"fmt"
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Generation    GenerationConfig    `yaml:"generation" mapstructure:"generation"`
	Renderer      RendererConfig      `yaml:"renderer" mapstructure:"renderer"`
	Messaging     MessagingConfig     `yaml:"messaging" mapstructure:"messaging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
// 整本书在一次请求内生成，WriteTimeout 需要覆盖最长的生成时间
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// Addr 返回监听地址
func (c HTTPServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
// Enabled=false 时不记录文档元数据，生成接口仍然可用
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// ConnString 返回连接串，优先使用 DSN
func (c PostgresConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
	// Local 在 Redis 关闭时使用的进程内缓存
	Local LocalCacheConfig `yaml:"local" mapstructure:"local"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// ConversationTTL 会话快照在 Redis 中的保留时间
	ConversationTTL time.Duration `yaml:"conversation_ttl" mapstructure:"conversation_ttl"`
}

// LocalCacheConfig 进程内缓存配置
type LocalCacheConfig struct {
	DefaultTTL      time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	GCS GCSConfig `yaml:"gcs" mapstructure:"gcs"`
}

// GCSConfig Google Cloud Storage 配置
type GCSConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	PublicBaseURL   string `yaml:"public_base_url" mapstructure:"public_base_url"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider" mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig LLM 提供商配置
// 惩罚系数随提供商固定，不向调用方开放
type ProviderConfig struct {
	APIKey           string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL          string        `yaml:"base_url" mapstructure:"base_url"`
	Model            string        `yaml:"model" mapstructure:"model"`
	MaxTokens        int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature      float64       `yaml:"temperature" mapstructure:"temperature"`
	PresencePenalty  float64       `yaml:"presence_penalty" mapstructure:"presence_penalty"`
	FrequencyPenalty float64       `yaml:"frequency_penalty" mapstructure:"frequency_penalty"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// GenerationConfig 文档生成配置
type GenerationConfig struct {
	// Provider 生成使用的 LLM 提供商，空则使用 llm.default_provider
	Provider string `yaml:"provider" mapstructure:"provider"`
	// ArtifactRoot 每个任务的临时工作目录根路径
	ArtifactRoot string `yaml:"artifact_root" mapstructure:"artifact_root"`
	// QueueCapacity 等待队列容量
	QueueCapacity int `yaml:"queue_capacity" mapstructure:"queue_capacity"`
	// JobTimeout 单个任务的最长执行时间，0 表示不限制
	JobTimeout time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`
	// Persona 对话裁剪后注入的系统前言
	Persona string `yaml:"persona" mapstructure:"persona"`
}

// RendererConfig 渲染配置
type RendererConfig struct {
	// BrowserBin 浏览器可执行文件，空则由 launcher 自动下载/查找
	BrowserBin string        `yaml:"browser_bin" mapstructure:"browser_bin"`
	NoSandbox  bool          `yaml:"no_sandbox" mapstructure:"no_sandbox"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	PageSize   string        `yaml:"page_size" mapstructure:"page_size"`
	Author     string        `yaml:"author" mapstructure:"author"`
	CodeStyle  string        `yaml:"code_style" mapstructure:"code_style"`
}

// MessagingConfig 消息配置
type MessagingConfig struct {
	RedisStream RedisStreamConfig `yaml:"redis_stream" mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Stream  string `yaml:"stream" mapstructure:"stream"`
	MaxLen  int    `yaml:"max_len" mapstructure:"max_len"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter   string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT       JWTConfig       `yaml:"jwt" mapstructure:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// JWTConfig JWT 配置
// 令牌由外部身份服务签发，这里只做校验
type JWTConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
	Issuer  string `yaml:"issuer" mapstructure:"issuer"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Limit   int           `yaml:"limit" mapstructure:"limit"`
	Window  time.Duration `yaml:"window" mapstructure:"window"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
