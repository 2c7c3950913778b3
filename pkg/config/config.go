package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "HONEYBOT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Mapbox   MapboxConfig
	Cron     CronConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HONEYBOT_APP_ENV" default:"dev"`
	Port         string `envconfig:"HONEYBOT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"HONEYBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HONEYBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HONEYBOT_SERVICE_KIND" default:"bot"`
}

type DBConfig struct {
	DSN string `envconfig:"HONEYBOT_DB_DSN"`

	Host     string `envconfig:"HONEYBOT_DB_HOST"`
	Port     int    `envconfig:"HONEYBOT_DB_PORT" default:"5432"`
	User     string `envconfig:"HONEYBOT_DB_USER"`
	Password string `envconfig:"HONEYBOT_DB_PASSWORD"`
	Name     string `envconfig:"HONEYBOT_DB_NAME"`
	SSLMode  string `envconfig:"HONEYBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HONEYBOT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"HONEYBOT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"HONEYBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HONEYBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either HONEYBOT_DB_DSN or host/user/name components are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"HONEYBOT_REDIS_URL"`
	Address      string        `envconfig:"HONEYBOT_REDIS_ADDR"`
	Password     string        `envconfig:"HONEYBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"HONEYBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HONEYBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HONEYBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HONEYBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HONEYBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HONEYBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type TelegramConfig struct {
	Token         string `envconfig:"HONEYBOT_TELEGRAM_TOKEN" required:"true"`
	AdminChatID   int64  `envconfig:"HONEYBOT_ADMIN_CHAT_ID" required:"true"`
	OwnerID       int64  `envconfig:"HONEYBOT_OWNER_ID" required:"true"`
	PickupAddress string `envconfig:"HONEYBOT_PICKUP_ADDRESS" default:"Красная Поляна, ул. Плотинная, д. 4"`
	Debug         bool   `envconfig:"HONEYBOT_TELEGRAM_DEBUG" default:"false"`
}

type MapboxConfig struct {
	Token   string        `envconfig:"HONEYBOT_MAPBOX_TOKEN"`
	Timeout time.Duration `envconfig:"HONEYBOT_MAPBOX_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"HONEYBOT_CRON_INTERVAL" default:"1m"`
	DraftTTL time.Duration `envconfig:"HONEYBOT_DRAFT_TTL" default:"10m"`
	LockTTL  time.Duration `envconfig:"HONEYBOT_CRON_LOCK_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HONEYBOT_AUTO_MIGRATE" default:"false"`
}
