package config

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jmehdipour/billing-sync/internal/util"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	ClickHouse DatabaseConfig   `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Site       SiteConfig       `mapstructure:"site"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Admin      AdminConfig      `mapstructure:"admin"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr      string `mapstructure:"addr"`
	BodyLimit string `mapstructure:"body_limit"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold" yaml:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"    yaml:"open_for_ms"`
}

type StripeConfig struct {
	SecretKey         string        `mapstructure:"secret_key"`
	WebhookSecret     string        `mapstructure:"webhook_secret"`
	WebhookSecretLive string        `mapstructure:"webhook_secret_live"`
	TimeoutMs         int           `mapstructure:"timeout_ms"`
	Breaker           BreakerConfig `mapstructure:"breaker"`
}

type SiteConfig struct {
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Audience  string `mapstructure:"audience"`
}

type AdminConfig struct {
	Keys []string `mapstructure:"keys"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type EnrichmentConfig struct {
	Mode    string `mapstructure:"mode"` // inline | kafka
	Topic   string `mapstructure:"topic"`
	Workers int    `mapstructure:"workers"`
}

// WebhookSecrets returns the configured signing secrets, live first.
func (c Config) WebhookSecrets() []string {
	var out []string
	for _, s := range []string{c.Stripe.WebhookSecretLive, c.Stripe.WebhookSecret} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SiteURL is the normalised base URL redirect targets are built from.
func (c Config) SiteURL() string { return util.SiteURL(c.Site.URL) }

// envAliases binds the provider's conventional variable names next to the
// prefixed ones.
var envAliases = map[string][]string{
	"stripe.secret_key":          {"BILLSYNC_STRIPE_SECRET_KEY", "STRIPE_SECRET_KEY"},
	"stripe.webhook_secret":      {"BILLSYNC_STRIPE_WEBHOOK_SECRET", "STRIPE_WEBHOOK_SECRET"},
	"stripe.webhook_secret_live": {"BILLSYNC_STRIPE_WEBHOOK_SECRET_LIVE", "STRIPE_WEBHOOK_SECRET_LIVE"},
	"site.url":                   {"BILLSYNC_SITE_URL", "NEXT_PUBLIC_SITE_URL", "SITE_URL"},
	"auth.jwt_secret":            {"BILLSYNC_AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET"},
}

// Load reads embedded defaults, merges user YAML (if provided), loads .env
// (if present) and applies env overrides (BILLSYNC_*).
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (BILLSYNC_*)
	v.SetEnvPrefix("BILLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
