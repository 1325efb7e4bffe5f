package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stores       StoresConfig
	Orders       OrdersConfig
	RateLimit    RateLimitConfig
	Tracing      TracingConfig
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
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERSTOCK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDERSTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERSTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERSTOCK_DB_DSN"`
	Driver string `envconfig:"ORDERSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"ORDERSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

// RedisConfig is optional; an empty URL and address disables Redis-backed features.
type RedisConfig struct {
	URL          string        `envconfig:"ORDERSTOCK_REDIS_URL"`
	Address      string        `envconfig:"ORDERSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// StoresConfig selects the backend behind each store contract.
type StoresConfig struct {
	Inventory string `envconfig:"ORDERSTOCK_INVENTORY_BACKEND" default:"sql"`
	Orders    string `envconfig:"ORDERSTOCK_ORDERS_BACKEND" default:"sql"`
}

type OrdersConfig struct {
	PersistTimeout time.Duration `envconfig:"ORDERSTOCK_ORDERS_PERSIST_TIMEOUT" default:"5s"`
	ReleaseTimeout time.Duration `envconfig:"ORDERSTOCK_ORDERS_RELEASE_TIMEOUT" default:"10s"`
	MaxIDAttempts  int           `envconfig:"ORDERSTOCK_ORDERS_MAX_ID_ATTEMPTS" default:"3"`
}

type RateLimitConfig struct {
	CreateOrderWindow time.Duration `envconfig:"ORDERSTOCK_RATE_LIMIT_CREATE_ORDER_WINDOW" default:"1m"`
	CreateOrderLimit  int           `envconfig:"ORDERSTOCK_RATE_LIMIT_CREATE_ORDER_LIMIT" default:"60"`
	// Comma-separated IPs or CIDRs of proxies whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the peer address is used.
	TrustedProxies []string `envconfig:"ORDERSTOCK_TRUSTED_PROXIES"`

	trusted []netip.Prefix
}

// TrustedProxyPrefixes returns the prefixes parsed by Load.
func (r RateLimitConfig) TrustedProxyPrefixes() []netip.Prefix {
	return r.trusted
}

func parseTrustedProxies(raw []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", EnvTrustedProxies, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTrustedProxies, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

type TracingConfig struct {
	Endpoint      string        `envconfig:"ORDERSTOCK_OTEL_ENDPOINT"`
	URLPath       string        `envconfig:"ORDERSTOCK_OTEL_TRACES_PATH" default:"/v1/traces"`
	AuthHeader    string        `envconfig:"ORDERSTOCK_OTEL_AUTH_HEADER"`
	Insecure      bool          `envconfig:"ORDERSTOCK_OTEL_INSECURE" default:"false"`
	ExportTimeout time.Duration `envconfig:"ORDERSTOCK_OTEL_EXPORT_TIMEOUT" default:"10s"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERSTOCK_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validate() error {
	c.Stores.Inventory = strings.ToLower(strings.TrimSpace(c.Stores.Inventory))
	c.Stores.Orders = strings.ToLower(strings.TrimSpace(c.Stores.Orders))
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))

	switch c.Stores.Inventory {
	case BackendSQL, BackendMemory:
	case BackendRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvInventoryBackend, EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvInventoryBackend, c.Stores.Inventory)
	}

	switch c.Stores.Orders {
	case BackendSQL, BackendMemory:
	default:
		return fmt.Errorf("unsupported %s %q", EnvOrdersBackend, c.Stores.Orders)
	}

	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}

	if c.App.IsProd() && c.Stores.Orders == BackendMemory {
		return fmt.Errorf("%s=memory is not allowed when %s=%s", EnvOrdersBackend, EnvAppEnv, AppEnvProd)
	}

	trusted, err := parseTrustedProxies(c.RateLimit.TrustedProxies)
	if err != nil {
		return err
	}
	c.RateLimit.trusted = trusted

	if c.Orders.PersistTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPersistTimeout)
	}
	if c.Orders.ReleaseTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvReleaseTimeout)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if db.IsSQLite() {
		db.DSN = "file:orderstock.db?cache=shared&_busy_timeout=5000"
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
