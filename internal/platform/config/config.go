package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	JWTSigningKey   string
	SessionTTL      time.Duration
	LogLevel        string
	// TrustedProxies are CIDRs or addresses whose forwarding headers name the
	// client. Empty means only the direct peer is used.
	TrustedProxies []string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL selects the
// in-memory profile cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ProfileTTL   time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	AuditTopic  string
	Partitions  int32
	AuditBuffer int
}

// ClassifierConfig points at the external model runtime.
type ClassifierConfig struct {
	RuntimeURL       string
	ModelBundleURL   string
	Timeout          time.Duration
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

type CaptureConfig struct {
	AcceptanceThreshold float64
}

type VisibilityConfig struct {
	RestrictedGenders []string
}

type CatalogConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	SeedFile        string
}

type AccountConfig struct {
	DeletionGracePeriod time.Duration
	MinPasswordLength   int
}

// RateLimitConfig throttles the unauthenticated /auth routes per client IP.
// Zero AuthRequests disables throttling.
type RateLimitConfig struct {
	AuthRequests int
	AuthWindow   time.Duration
}

type Config struct {
	Environment string
	Server      Server
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Classifier  ClassifierConfig
	Capture     CaptureConfig
	Visibility  VisibilityConfig
	Catalog     CatalogConfig
	Account     AccountConfig
	RateLimit   RateLimitConfig
}

// Load reads configuration from VIEWERGATE_* environment variables and an
// optional config.yaml searched in the given paths (current directory when
// none are passed).
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("VIEWERGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Capture.AcceptanceThreshold <= 0 || c.Capture.AcceptanceThreshold > 1 {
		return fmt.Errorf("capture.acceptancethreshold must be in (0, 1], got %v", c.Capture.AcceptanceThreshold)
	}
	if c.Catalog.DefaultPageSize <= 0 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("catalog page sizes invalid: default=%d max=%d", c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	if c.Account.MinPasswordLength <= 0 {
		return fmt.Errorf("account.minpasswordlength must be positive")
	}
	if c.RateLimit.AuthRequests < 0 {
		return fmt.Errorf("ratelimit.authrequests must not be negative")
	}
	if c.Environment == "production" && c.Server.JWTSigningKey == devSigningKey {
		return fmt.Errorf("server.jwtsigningkey must be set in production")
	}
	return nil
}

const devSigningKey = "dev-secret-key-change-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdowntimeout", "10s")
	v.SetDefault("server.jwtsigningkey", devSigningKey)
	v.SetDefault("server.sessionttl", "12h")
	v.SetDefault("server.loglevel", "info")
	v.SetDefault("server.trustedproxies", []string{})

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.poolsize", 10)
	v.SetDefault("redis.minidleconns", 2)
	v.SetDefault("redis.dialtimeout", "5s")
	v.SetDefault("redis.readtimeout", "3s")
	v.SetDefault("redis.writetimeout", "3s")
	v.SetDefault("redis.profilettl", "12h")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audittopic", "viewergate.audit")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.auditbuffer", 256)

	v.SetDefault("classifier.runtimeurl", "")
	v.SetDefault("classifier.modelbundleurl", "")
	v.SetDefault("classifier.timeout", "5s")
	v.SetDefault("classifier.failurethreshold", 5)
	v.SetDefault("classifier.successthreshold", 2)
	v.SetDefault("classifier.cooldown", "30s")

	v.SetDefault("capture.acceptancethreshold", 0.5)

	v.SetDefault("visibility.restrictedgenders", []string{"female"})

	v.SetDefault("catalog.defaultpagesize", 24)
	v.SetDefault("catalog.maxpagesize", 100)
	v.SetDefault("catalog.seedfile", "")

	v.SetDefault("account.deletiongraceperiod", "168h")
	v.SetDefault("account.minpasswordlength", 6)

	v.SetDefault("ratelimit.authrequests", 10)
	v.SetDefault("ratelimit.authwindow", "1m")
}
