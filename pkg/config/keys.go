package config

const (
	EnvPrefix = "ORDERSTOCK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "ORDERSTOCK_APP_ENV"
	EnvPort     = "ORDERSTOCK_APP_PORT"
	EnvLogLevel = "ORDERSTOCK_LOG_LEVEL"

	EnvDBDriver = "ORDERSTOCK_DB_DRIVER"
	EnvDBDSN    = "ORDERSTOCK_DB_DSN"
	EnvDBHost   = "ORDERSTOCK_DB_HOST"
	EnvDBPort   = "ORDERSTOCK_DB_PORT"
	EnvDBUser   = "ORDERSTOCK_DB_USER"
	EnvDBName   = "ORDERSTOCK_DB_NAME"

	EnvRedisURL  = "ORDERSTOCK_REDIS_URL"
	EnvRedisAddr = "ORDERSTOCK_REDIS_ADDR"

	EnvInventoryBackend = "ORDERSTOCK_INVENTORY_BACKEND"
	EnvOrdersBackend    = "ORDERSTOCK_ORDERS_BACKEND"

	EnvPersistTimeout = "ORDERSTOCK_ORDERS_PERSIST_TIMEOUT"
	EnvReleaseTimeout = "ORDERSTOCK_ORDERS_RELEASE_TIMEOUT"

	EnvTracingEndpoint = "ORDERSTOCK_OTEL_ENDPOINT"

	EnvTrustedProxies = "ORDERSTOCK_TRUSTED_PROXIES"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendSQL    = "sql"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
