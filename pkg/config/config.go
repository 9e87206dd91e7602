package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Media        MediaConfig
	Repair       RepairConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"BACKSTAGE_APP_ENV" required:"true"`
	Port         string `envconfig:"BACKSTAGE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BACKSTAGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BACKSTAGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BACKSTAGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BACKSTAGE_DB_DSN"`
	Driver string `envconfig:"BACKSTAGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BACKSTAGE_DB_HOST"`
	LegacyPort     int    `envconfig:"BACKSTAGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BACKSTAGE_DB_USER"`
	LegacyPassword string `envconfig:"BACKSTAGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BACKSTAGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BACKSTAGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BACKSTAGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BACKSTAGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BACKSTAGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BACKSTAGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BACKSTAGE_REDIS_URL"`
	Address      string        `envconfig:"BACKSTAGE_REDIS_ADDR"`
	Password     string        `envconfig:"BACKSTAGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BACKSTAGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BACKSTAGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BACKSTAGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BACKSTAGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BACKSTAGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BACKSTAGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type MediaConfig struct {
	Disk          string `envconfig:"BACKSTAGE_MEDIA_DISK" default:"uploadcare"`
	Visibility    string `envconfig:"BACKSTAGE_MEDIA_VISIBILITY" default:"public"`
	TenantAware   bool   `envconfig:"BACKSTAGE_MEDIA_TENANT_AWARE" default:"false"`
	CDNBase       string `envconfig:"BACKSTAGE_MEDIA_CDN_BASE" default:"https://ucarecdn.com"`
	WebhookSecret string `envconfig:"BACKSTAGE_MEDIA_WEBHOOK_SECRET"`
}

// PublicByDefault reports whether new media rows should be publicly visible.
func (m MediaConfig) PublicByDefault() bool {
	return strings.EqualFold(m.Visibility, "public")
}

type RepairConfig struct {
	ChunkSize int           `envconfig:"BACKSTAGE_REPAIR_CHUNK_SIZE" default:"50"`
	Interval  time.Duration `envconfig:"BACKSTAGE_REPAIR_INTERVAL" default:"24h"`
}

type AdminConfig struct {
	Token string `envconfig:"BACKSTAGE_ADMIN_TOKEN"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BACKSTAGE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
