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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Twilio       TwilioConfig
	Reminders    RemindersConfig
	Scheduler    SchedulerConfig
	Inbound      InboundConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Reminders.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CREWTEXT_APP_ENV" required:"true"`
	Port         string `envconfig:"CREWTEXT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CREWTEXT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CREWTEXT_LOG_WARN_STACK" default:"false"`

	AdminCORSOrigins []string `envconfig:"CREWTEXT_ADMIN_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CREWTEXT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CREWTEXT_DB_DSN"`
	Driver string `envconfig:"CREWTEXT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CREWTEXT_DB_HOST"`
	LegacyPort     int    `envconfig:"CREWTEXT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CREWTEXT_DB_USER"`
	LegacyPassword string `envconfig:"CREWTEXT_DB_PASSWORD"`
	LegacyName     string `envconfig:"CREWTEXT_DB_NAME"`
	LegacySSLMode  string `envconfig:"CREWTEXT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CREWTEXT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CREWTEXT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CREWTEXT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CREWTEXT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CREWTEXT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CREWTEXT_REDIS_ADDR"`
	Password     string        `envconfig:"CREWTEXT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CREWTEXT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CREWTEXT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CREWTEXT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CREWTEXT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CREWTEXT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CREWTEXT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig guards the admin endpoints.
type JWTConfig struct {
	Secret            string `envconfig:"CREWTEXT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CREWTEXT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CREWTEXT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CREWTEXT_AUTO_MIGRATE" default:"false"`
}

type TwilioConfig struct {
	AccountSID       string        `envconfig:"CREWTEXT_TWILIO_ACCOUNT_SID" required:"true"`
	AuthToken        string        `envconfig:"CREWTEXT_TWILIO_AUTH_TOKEN" required:"true"`
	RemindersNumber  string        `envconfig:"CREWTEXT_TWILIO_REMINDERS_NUMBER" required:"true"`
	StatusCallback   string        `envconfig:"CREWTEXT_TWILIO_STATUS_CALLBACK_URL"`
	Timeout          time.Duration `envconfig:"CREWTEXT_TWILIO_TIMEOUT" default:"30s"`
	MaxRetries       int           `envconfig:"CREWTEXT_TWILIO_MAX_RETRIES" default:"2"`
	WebhookURL       string        `envconfig:"CREWTEXT_TWILIO_WEBHOOK_URL"`
	ValidateWebhooks bool          `envconfig:"CREWTEXT_TWILIO_VALIDATE_WEBHOOKS" default:"true"`
}

type RemindersConfig struct {
	SendDelay         time.Duration `envconfig:"CREWTEXT_REMINDERS_SEND_DELAY" default:"200ms"`
	DayOfMinGap       time.Duration `envconfig:"CREWTEXT_REMINDERS_DAY_OF_MIN_GAP" default:"4h"`
	DefaultMinGap     time.Duration `envconfig:"CREWTEXT_REMINDERS_DEFAULT_MIN_GAP" default:"24h"`
	MorningHoursAhead int           `envconfig:"CREWTEXT_REMINDERS_MORNING_HOURS_AHEAD" default:"2"`
	Timezone          string        `envconfig:"CREWTEXT_REMINDERS_TIMEZONE" default:"UTC"`
	TemplatesPath     string        `envconfig:"CREWTEXT_REMINDERS_TEMPLATES_PATH"`
	DisclosureEnabled bool          `envconfig:"CREWTEXT_REMINDERS_OPT_OUT_DISCLOSURE" default:"true"`
}

// Location resolves the zone used for calendar-day comparisons and message rendering.
func (r RemindersConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(r.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvRemindersTimezone, name, err)
	}
	return loc, nil
}

type SchedulerConfig struct {
	Enabled           bool          `envconfig:"CREWTEXT_SCHEDULER_ENABLED" default:"true"`
	IntervalMinutes   int           `envconfig:"CREWTEXT_SCHEDULER_INTERVAL_MINUTES" default:"15"`
	MaxRetries        int           `envconfig:"CREWTEXT_SCHEDULER_MAX_RETRIES" default:"3"`
	RetryDelayMinutes int           `envconfig:"CREWTEXT_SCHEDULER_RETRY_DELAY_MINUTES" default:"5"`
	RunOnStart        bool          `envconfig:"CREWTEXT_SCHEDULER_RUN_ON_START" default:"true"`
	LockTTL           time.Duration `envconfig:"CREWTEXT_SCHEDULER_LOCK_TTL" default:"1h"`
	AdminPort         string        `envconfig:"CREWTEXT_SCHEDULER_ADMIN_PORT" default:"8090"`
}

type InboundConfig struct {
	IdempotencyTTL time.Duration `envconfig:"CREWTEXT_INBOUND_IDEMPOTENCY_TTL" default:"24h"`
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
