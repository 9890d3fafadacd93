package config

const (
	EnvPrefix = "serialguard"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvDBDSN     = "SERIALGUARD_DB_DSN"
	EnvDBHost    = "SERIALGUARD_DB_HOST"
	EnvDBUser    = "SERIALGUARD_DB_USER"
	EnvDBName    = "SERIALGUARD_DB_NAME"
	EnvUseSQLite = "SERIALGUARD_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
