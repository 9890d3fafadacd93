package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Registry      RegistryConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// The sqlite flag wins over the driver variable so a dev deployment can
	// flip one switch.
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		if cfg.DB.DSN == "" {
			return nil, fmt.Errorf("%s is required when %s is set", EnvDBDSN, EnvUseSQLite)
		}
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SERIALGUARD_APP_ENV" required:"true"`
	Port         string   `envconfig:"SERIALGUARD_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"SERIALGUARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SERIALGUARD_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"SERIALGUARD_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SERIALGUARD_DB_DSN"`
	Driver string `envconfig:"SERIALGUARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERIALGUARD_DB_HOST"`
	LegacyPort     int    `envconfig:"SERIALGUARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERIALGUARD_DB_USER"`
	LegacyPassword string `envconfig:"SERIALGUARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERIALGUARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERIALGUARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERIALGUARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERIALGUARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERIALGUARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERIALGUARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERIALGUARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERIALGUARD_REDIS_ADDR"`
	Password     string        `envconfig:"SERIALGUARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERIALGUARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERIALGUARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERIALGUARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERIALGUARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERIALGUARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERIALGUARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SERIALGUARD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SERIALGUARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SERIALGUARD_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SERIALGUARD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SERIALGUARD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SERIALGUARD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SERIALGUARD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SERIALGUARD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SERIALGUARD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SERIALGUARD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SERIALGUARD_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SERIALGUARD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SERIALGUARD_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SERIALGUARD_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SERIALGUARD_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type RegistryConfig struct {
	SellerCooldownDays     int `envconfig:"SERIALGUARD_SELLER_COOLDOWN_DAYS" default:"3"`
	UserProductQuota       int `envconfig:"SERIALGUARD_USER_PRODUCT_QUOTA" default:"3"`
	ShopkeeperProductQuota int `envconfig:"SERIALGUARD_SHOPKEEPER_PRODUCT_QUOTA" default:"25"`
	MaxDealItems           int `envconfig:"SERIALGUARD_MAX_DEAL_ITEMS" default:"50"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SERIALGUARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SERIALGUARD_AUTO_MIGRATE" default:"false"`
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
