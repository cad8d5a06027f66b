package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env                 string `mapstructure:"env"`
	Port                int    `mapstructure:"port"`
	ShutdownTimeoutSecs int    `mapstructure:"shutdown_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	CORSOrigins         string `mapstructure:"cors_origins"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type StorageConfig struct {
	// Driver is "mongo" or "memory". The memory driver keeps everything in
	// process and is meant for local runs only.
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Brokers            []string `mapstructure:"brokers"`
	TopicTicketEvents  string   `mapstructure:"topic_ticket_events"`
	GroupID            string   `mapstructure:"group_id"`
	TopicNotifications string   `mapstructure:"topic_notifications"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type WSConfig struct {
	Path                 string `mapstructure:"path"`
	PingIntervalSeconds  int    `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int    `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64  `mapstructure:"max_message_size_bytes"`
	SendBuffer           int    `mapstructure:"send_buffer"`
}

type NotificationsConfig struct {
	CacheTTLSeconds   int `mapstructure:"cache_ttl_seconds"`
	FanoutConcurrency int `mapstructure:"fanout_concurrency"`
	DefaultPageSize   int `mapstructure:"default_page_size"`
	MaxPageSize       int `mapstructure:"max_page_size"`
}

type InternalConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	WS            WSConfig            `mapstructure:"ws"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Internal      InternalConfig      `mapstructure:"internal"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`

	// derived
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	CacheTTL        time.Duration
}

// Load reads the YAML file at path and overlays environment variables
// (MONGO_URI overrides mongo.uri and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.Port == 0 {
		c.App.Port = 8085
	}
	if c.App.ShutdownTimeoutSecs == 0 {
		c.App.ShutdownTimeoutSecs = 15
	}
	if c.App.ReadTimeoutSeconds == 0 {
		c.App.ReadTimeoutSeconds = 15
	}
	if c.App.WriteTimeoutSeconds == 0 {
		c.App.WriteTimeoutSeconds = 15
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mongo"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "helpdesk"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "notifications"
	}
	if c.Kafka.TopicTicketEvents == "" {
		c.Kafka.TopicTicketEvents = "ticket.events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "notification-service"
	}
	if c.Kafka.TopicNotifications == "" {
		c.Kafka.TopicNotifications = "notification.created"
	}
	if c.WS.Path == "" {
		c.WS.Path = "/ws/notifications"
	}
	if c.WS.PingIntervalSeconds == 0 {
		c.WS.PingIntervalSeconds = 25
	}
	if c.WS.WriteDeadlineSeconds == 0 {
		c.WS.WriteDeadlineSeconds = 10
	}
	if c.WS.MaxMessageSizeBytes == 0 {
		c.WS.MaxMessageSizeBytes = 4096
	}
	if c.WS.SendBuffer == 0 {
		c.WS.SendBuffer = 32
	}
	if c.Notifications.CacheTTLSeconds == 0 {
		c.Notifications.CacheTTLSeconds = 30
	}
	if c.Notifications.FanoutConcurrency == 0 {
		c.Notifications.FanoutConcurrency = 8
	}
	if c.Notifications.DefaultPageSize == 0 {
		c.Notifications.DefaultPageSize = 20
	}
	if c.Notifications.MaxPageSize == 0 {
		c.Notifications.MaxPageSize = 50
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 120
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}

	c.ShutdownTimeout = time.Duration(c.App.ShutdownTimeoutSecs) * time.Second
	c.ReadTimeout = time.Duration(c.App.ReadTimeoutSeconds) * time.Second
	c.WriteTimeout = time.Duration(c.App.WriteTimeoutSeconds) * time.Second
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	c.CacheTTL = time.Duration(c.Notifications.CacheTTLSeconds) * time.Second
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Storage.Driver {
	case "mongo":
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required")
		}
	case "memory":
	default:
		return errors.New("storage.driver must be mongo or memory")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	if c.Notifications.MaxPageSize < c.Notifications.DefaultPageSize {
		return errors.New("notifications.max_page_size must be >= default_page_size")
	}
	return nil
}

func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}
