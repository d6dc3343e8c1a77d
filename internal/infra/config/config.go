package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Login     LoginSettings     `mapstructure:"login"`
	TwoFactor TwoFactorSettings `mapstructure:"two_factor"`
	Session   SessionSettings   `mapstructure:"session"`
	Firewall  FirewallSettings  `mapstructure:"firewall"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Mail      MailSettings      `mapstructure:"mail"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// DomainName is this server's own bare hostname, matched against the
	// aud claim of incoming tokens.
	DomainName string `mapstructure:"domain_name"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS.
type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	TwoFactorPrefix string `mapstructure:"two_factor_prefix"`
	SessionPrefix   string `mapstructure:"session_prefix"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the auth event producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// JWTSettings configures validation of incoming cross-domain tokens.
type JWTSettings struct {
	// IatWindow bounds how long after issuance a token remains acceptable,
	// independent of its exp claim.
	IatWindow time.Duration `mapstructure:"iat_window"`
	// ExpWindow is the lifetime front ends are expected to stamp into the
	// exp claim; recorded here for operators, not enforced server side.
	ExpWindow time.Duration `mapstructure:"exp_window"`
	// RetentionWindow controls how long accepted token strings stay on file
	// for replay detection before the cleanup job removes them.
	RetentionWindow time.Duration `mapstructure:"retention_window"`
}

// LoginSettings configures the session-login guard.
type LoginSettings struct {
	// InactivityWindow is how long a login may sit idle before the cleanup
	// job deletes its ledger row.
	InactivityWindow time.Duration `mapstructure:"inactivity_window"`
	// BanAllUsers is the emergency switch: when set, every authentication
	// check forces a logout and reports anonymous.
	BanAllUsers bool `mapstructure:"ban_all_users"`
}

// TwoFactorSettings configures the optional email-code login flow.
type TwoFactorSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	CodeTTL     time.Duration `mapstructure:"code_ttl"`
}

// SessionSettings configures the browser session cookie and store.
type SessionSettings struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

// FirewallSettings configures the optional IP whitelist on admin routes.
type FirewallSettings struct {
	WhitelistEnabled bool     `mapstructure:"whitelist_enabled"`
	WhitelistIPs     []string `mapstructure:"whitelist_ips"`
}

// RateLimitSettings configures the login attempt throttle.
type RateLimitSettings struct {
	WindowDuration   time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
}

// MailSettings configures outbound two-factor code delivery.
type MailSettings struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CMSAUTH")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.domain_name",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.two_factor_prefix",
		"redis.session_prefix",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"jwt.iat_window",
		"jwt.exp_window",
		"jwt.retention_window",
		"login.inactivity_window",
		"login.ban_all_users",
		"two_factor.enabled",
		"two_factor.max_attempts",
		"two_factor.code_ttl",
		"session.cookie_name",
		"session.ttl",
		"session.secure",
		"firewall.whitelist_enabled",
		"firewall.whitelist_ips",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"mail.resend_api_key",
		"mail.from",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cms-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.domain_name", "admin.example.com")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "cmsauth")
	v.SetDefault("postgres.password", "cmsauth_password")
	v.SetDefault("postgres.database", "cmsauth")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.two_factor_prefix", "cmsauth:2fa")
	v.SetDefault("redis.session_prefix", "cmsauth:session")
	v.SetDefault("redis.rate_limit_prefix", "cmsauth:rate-limit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "cmsauth")
	v.SetDefault("kafka.async", true)

	v.SetDefault("jwt.iat_window", "120s")
	v.SetDefault("jwt.exp_window", "3600s")
	// Slightly under a day so the cleanup never races a 24h issuance cycle.
	v.SetDefault("jwt.retention_window", "23h50m")

	v.SetDefault("login.inactivity_window", "60m")
	v.SetDefault("login.ban_all_users", false)

	v.SetDefault("two_factor.enabled", false)
	v.SetDefault("two_factor.max_attempts", 3)
	v.SetDefault("two_factor.code_ttl", "5m")

	v.SetDefault("session.cookie_name", "cmsauth_session")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.secure", true)

	v.SetDefault("firewall.whitelist_enabled", false)
	v.SetDefault("firewall.whitelist_ips", []string{})

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)

	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.from", "no-reply@example.com")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "CMSAUTH_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
