package config

const EnvPrefix = "CREWTEXT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv            = "CREWTEXT_APP_ENV"
	EnvPort              = "CREWTEXT_APP_PORT"
	EnvDBDSN             = "CREWTEXT_DB_DSN"
	EnvDBHost            = "CREWTEXT_DB_HOST"
	EnvDBPort            = "CREWTEXT_DB_PORT"
	EnvDBUser            = "CREWTEXT_DB_USER"
	EnvDBPassword        = "CREWTEXT_DB_PASSWORD"
	EnvDBName            = "CREWTEXT_DB_NAME"
	EnvRedisURL          = "CREWTEXT_REDIS_URL"
	EnvJWTSecret         = "CREWTEXT_JWT_SECRET"
	EnvJWTIssuer         = "CREWTEXT_JWT_ISSUER"
	EnvTwilioAccountSID  = "CREWTEXT_TWILIO_ACCOUNT_SID"
	EnvTwilioAuthToken   = "CREWTEXT_TWILIO_AUTH_TOKEN"
	EnvTwilioReminders   = "CREWTEXT_TWILIO_REMINDERS_NUMBER"
	EnvRemindersTimezone = "CREWTEXT_REMINDERS_TIMEZONE"
	EnvSchedulerInterval = "CREWTEXT_SCHEDULER_INTERVAL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
