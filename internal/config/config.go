package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EngineElasticsearch = "elasticsearch"
	EngineEmbedded      = "embedded"
)

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Log           LogConfig           `mapstructure:"log"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Indices       IndicesConfig       `mapstructure:"indices"`
	Search        SearchConfig        `mapstructure:"search"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type AppConfig struct {
	Host     string `mapstructure:"host"`
	HTTPPort string `mapstructure:"http_port"`
	GRPCPort string `mapstructure:"grpc_port"`
	Env      string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// EngineConfig selects the backend. RequestTimeout bounds every single engine call.
type EngineConfig struct {
	Mode           string        `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ElasticsearchConfig struct {
	URLs          []string `mapstructure:"urls"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	SkipTLSVerify bool     `mapstructure:"skip_tls_verify"`
	// Refresh is passed on every write: "true", "false" or "wait_for".
	Refresh string `mapstructure:"refresh"`
}

type IndicesConfig struct {
	Employee  string `mapstructure:"employee"`
	Ecommerce string `mapstructure:"ecommerce"`
}

type SearchConfig struct {
	DefaultSize int `mapstructure:"default_size"`
	MaxWindow   int `mapstructure:"max_window"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  []string `mapstructure:"topics"`
	GroupID string   `mapstructure:"group_id"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads .env (if present), then configPath or ./config.yaml (if present), then the
// environment. Keys map to variables by upper-casing and replacing dots with underscores,
// e.g. engine.request_timeout is ENGINE_REQUEST_TIMEOUT.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("elasticsearch.urls", "ELASTICSEARCH_URLS", "ELASTICSEARCH_URL")
	_ = v.BindEnv("app.http_port", "APP_HTTP_PORT", "APP_PORT", "HTTP_PORT")
	_ = v.BindEnv("app.grpc_port", "APP_GRPC_PORT", "GRPC_PORT")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Elasticsearch.URLs = splitList(cfg.Elasticsearch.URLs)
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Kafka.Topics = splitList(cfg.Kafka.Topics)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.http_port", "8096")
	v.SetDefault("app.grpc_port", "9096")
	v.SetDefault("app.env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("engine.mode", EngineElasticsearch)
	v.SetDefault("engine.request_timeout", 10*time.Second)

	v.SetDefault("elasticsearch.urls", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.skip_tls_verify", false)
	v.SetDefault("elasticsearch.refresh", "wait_for")

	v.SetDefault("indices.employee", "employee")
	v.SetDefault("indices.ecommerce", "kibana_sample_data_ecommerce")

	v.SetDefault("search.default_size", 10)
	v.SetDefault("search.max_window", 10000)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topics", []string{"facade.document.index", "facade.document.update", "facade.document.delete"})
	v.SetDefault("kafka.group_id", "search-facade")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Engine.Mode {
	case EngineElasticsearch:
		if len(c.Elasticsearch.URLs) == 0 {
			errs = append(errs, errors.New("elasticsearch.urls is required (ELASTICSEARCH_URL)"))
		}
	case EngineEmbedded:
	default:
		errs = append(errs, fmt.Errorf("engine.mode must be %q or %q, got %q", EngineElasticsearch, EngineEmbedded, c.Engine.Mode))
	}
	if c.Engine.RequestTimeout <= 0 {
		errs = append(errs, errors.New("engine.request_timeout must be positive"))
	}
	switch c.Elasticsearch.Refresh {
	case "", "true", "false", "wait_for":
	default:
		errs = append(errs, fmt.Errorf("elasticsearch.refresh must be true, false or wait_for, got %q", c.Elasticsearch.Refresh))
	}
	if c.Indices.Employee == "" || c.Indices.Ecommerce == "" {
		errs = append(errs, errors.New("indices.employee and indices.ecommerce are required"))
	}
	if c.Search.DefaultSize < 1 {
		errs = append(errs, errors.New("search.default_size must be at least 1"))
	}
	if c.Search.MaxWindow < c.Search.DefaultSize {
		errs = append(errs, errors.New("search.max_window must not be smaller than search.default_size"))
	}
	if c.Cache.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when cache.enabled is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.App.Host, c.App.HTTPPort)
}

func (c *Config) GRPCAddr() string {
	return net.JoinHostPort(c.App.Host, c.App.GRPCPort)
}

// splitList accepts both real lists and a single comma-separated entry from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
