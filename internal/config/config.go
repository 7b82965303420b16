package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Nats          NatsConfig          `mapstructure:"nats"`
	Log           LogConfig           `mapstructure:"log"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Feed          FeedConfig          `mapstructure:"feed"`
	Snowflake     SnowflakeConfig     `mapstructure:"snowflake"`
	Cron          CronConfig          `mapstructure:"cron"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name               string     `mapstructure:"name"`
	Mode               string     `mapstructure:"mode"`
	Port               int        `mapstructure:"port"`
	Cors               CorsConfig `mapstructure:"cors"`
	SensitiveWordsFile string     `mapstructure:"sensitive_words_file"`
}

// CorsConfig 跨域配置
type CorsConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposedHeaders   []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql postgres
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.Username, c.Password, c.Database, sslMode)
	}
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, charset)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	URLs         []string `mapstructure:"urls"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	ProfileIndex string   `mapstructure:"profile_index"`
}

// NatsConfig NATS消息配置
type NatsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey            string `mapstructure:"secret_key"`
	AccessExpireSeconds  int    `mapstructure:"access_expire_seconds"`
	RefreshExpireSeconds int    `mapstructure:"refresh_expire_seconds"`
	BufferSeconds        int    `mapstructure:"buffer_seconds"`
	Issuer               string `mapstructure:"issuer"`
	Blacklist            string `mapstructure:"blacklist"` // memory redis
}

// StorageConfig 媒体存储配置
type StorageConfig struct {
	Type         string       `mapstructure:"type"` // local cos
	Local        LocalStorage `mapstructure:"local"`
	COS          COSStorage   `mapstructure:"cos"`
	MaxFileSize  int64        `mapstructure:"max_file_size"`
	AllowedTypes []string     `mapstructure:"allowed_types"`
}

// LocalStorage 本地存储配置
type LocalStorage struct {
	Path      string `mapstructure:"path"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// COSStorage 腾讯云COS存储配置
type COSStorage struct {
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	BucketURL string `mapstructure:"bucket_url"`
}

// FeedConfig 信息流相关配置
type FeedConfig struct {
	TrendingLimit   int `mapstructure:"trending_limit"`
	SuggestionLimit int `mapstructure:"suggestion_limit"`
	PageSize        int `mapstructure:"page_size"`
	SlugLength      int `mapstructure:"slug_length"`
	SlugAttempts    int `mapstructure:"slug_attempts"`
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	StartTime string `mapstructure:"start_time"`
	MachineID int64  `mapstructure:"machine_id"`
}

// CronConfig 定时任务配置
type CronConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BloomSaveSpec     string `mapstructure:"bloom_save_spec"`
	SearchReindexSpec string `mapstructure:"search_reindex_spec"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
	// 配置Viper实例
	viperInstance *viper.Viper
	watchOnce     sync.Once
)

// Init 初始化配置
func Init(configPath string) error {
	// .env 文件可选，存在时优先注入环境变量
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	GlobalConfig = &config
	viperInstance = v
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gram-api")
	v.SetDefault("app.mode", "debug")
	v.SetDefault("app.port", 8080)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("elasticsearch.profile_index", "gram_profiles")
	v.SetDefault("nats.subject_prefix", "gram")
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.access_expire_seconds", 7200)
	v.SetDefault("jwt.refresh_expire_seconds", 604800)
	v.SetDefault("jwt.buffer_seconds", 300)
	v.SetDefault("jwt.blacklist", "memory")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.path", "./uploads")
	v.SetDefault("storage.local.url_prefix", "/media")
	v.SetDefault("storage.max_file_size", 10<<20)
	v.SetDefault("storage.allowed_types", []string{"image/jpeg", "image/png", "image/gif", "image/webp"})
	v.SetDefault("feed.trending_limit", 6)
	v.SetDefault("feed.suggestion_limit", 6)
	v.SetDefault("feed.page_size", 20)
	v.SetDefault("feed.slug_length", 10)
	v.SetDefault("feed.slug_attempts", 5)
	v.SetDefault("snowflake.start_time", "2024-01-01")
	v.SetDefault("snowflake.machine_id", 1)
	v.SetDefault("cron.bloom_save_spec", "0 */10 * * * *")
	v.SetDefault("cron.search_reindex_spec", "0 0 * * * *")
}

// WatchConfig 监听配置文件变化，热更新日志级别等可变配置
func WatchConfig(onChange func(cfg *Config)) {
	if viperInstance == nil {
		return
	}
	watchOnce.Do(func() {
		viperInstance.OnConfigChange(func(e fsnotify.Event) {
			var config Config
			if err := viperInstance.Unmarshal(&config); err != nil {
				return
			}
			GlobalConfig = &config
			if onChange != nil {
				onChange(&config)
			}
		})
		viperInstance.WatchConfig()
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return viperInstance.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return viperInstance.GetInt(key)
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return GlobalConfig
}
