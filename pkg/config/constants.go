package config

const EnvPrefix = "backstage"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "BACKSTAGE_APP_ENV"
	EnvDBDSN  = "BACKSTAGE_DB_DSN"
	EnvDBHost = "BACKSTAGE_DB_HOST"
	EnvDBUser = "BACKSTAGE_DB_USER"
	EnvDBName = "BACKSTAGE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
