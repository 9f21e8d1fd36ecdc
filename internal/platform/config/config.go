package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 是全局配置实例，由main在启动时通过LoadConfig填充。
var Cfg *Config

// Config 结构体与 config.yaml 的结构完全对应。
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
}

// ServerConfig 定义了服务器相关的配置。
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置。
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置。
type DatabaseConfig struct {
	// Driver 可选 sqlite 或 postgres
	Driver   string         `mapstructure:"driver"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置。
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的配置。
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置。
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 定义了图片对象存储（Cloudinary）的配置。
type StorageConfig struct {
	CloudName string `mapstructure:"cloudName"`
	APIKey    string `mapstructure:"apiKey"`
	APISecret string `mapstructure:"apiSecret"`
	Folder    string `mapstructure:"folder"`
}

// AggregationConfig 定义了聚合引擎的运行参数。
type AggregationConfig struct {
	// ProvinceInvalidateDelay 是活动提交后到省份统计缓存失效之间的延迟，
	// 对应异步聚合的最终一致窗口。
	ProvinceInvalidateDelay time.Duration `mapstructure:"provinceInvalidateDelay"`
	// WriteConcurrency 是批量重算时并发写入的上限。
	WriteConcurrency int `mapstructure:"writeConcurrency"`
}

// LoadConfig 查找、加载并解析配置文件。
// 在 ./config 和当前目录下查找 config.yaml，并允许环境变量覆盖。
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 缺省值：本地开发可以零配置启动
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "greenaction.db")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("aggregation.provinceInvalidateDelay", 3*time.Second)
	v.SetDefault("aggregation.writeConcurrency", 8)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用全部缺省值
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}
