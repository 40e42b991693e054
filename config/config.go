// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

type Config struct {
	LogLevel string

	Port        int
	CORSOrigins []string
	SSL         SSL

	DBURI string

	JWTSecret string
	JWTTTL    time.Duration
	JWTIssuer string

	CookieName   string
	CookieSecure bool
	LoginPath    string

	RateLimit    int
	MaxBodyBytes int64

	PublicIngest      bool
	RetentionDays     int
	RetentionInterval time.Duration

	Storage Storage
	Mail    Mail
}

type SSL struct {
	Enabled  bool
	CertPath string
	KeyPath  string
}

// Storage points at an S3 compatible bucket used for reading exports.
// Leaving Bucket empty disables exports.
type Storage struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	URLExpiry       time.Duration
}

func (s Storage) Enabled() bool {
	return s.Bucket != ""
}

type Mail struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Setup reads configuration from flags, environment variables and an
// optional config.toml, in that order of precedence. It returns an error
// if something is critically wrong and the application can't run
// because of that.
func Setup(args []string) (*Config, error) {
	v := viper.New()

	fs := pflag.NewFlagSet("telemetry-api", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a config.toml file")
	fs.Int("port", 0, "Port to listen on")
	fs.String("log-level", "", "Log level (debug, info, warn, error, fatal)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags, %w", err)
	}

	if f := fs.Lookup("port"); f.Changed {
		v.Set("host.port", f.Value.String())
	}
	if f := fs.Lookup("log-level"); f.Changed {
		v.Set("app.log_level", f.Value.String())
	}

	v.SetConfigType("toml")
	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "LOG_LEVEL", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "PORT", "HOST_PORT")
	v.BindEnv("host.cors_origins", "HOST_CORS")
	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("db.uri", "DB_URI")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.ttl", "JWT_TTL")
	v.BindEnv("jwt.issuer", "JWT_ISSUER")

	v.BindEnv("session.cookie_name", "SESSION_COOKIE_NAME")
	v.BindEnv("session.cookie_secure", "SESSION_COOKIE_SECURE")
	v.BindEnv("session.login_path", "SESSION_LOGIN_PATH")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	v.BindEnv("security.max_body_bytes", "SECURITY_MAX_BODY_BYTES")

	v.BindEnv("telemetry.public_ingest", "TELEMETRY_PUBLIC_INGEST")
	v.BindEnv("telemetry.retention_days", "TELEMETRY_RETENTION_DAYS")
	v.BindEnv("telemetry.retention_interval", "TELEMETRY_RETENTION_INTERVAL")

	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.region", "STORAGE_REGION")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	v.BindEnv("storage.use_path_style", "STORAGE_USE_PATH_STYLE")
	v.BindEnv("storage.url_expiry", "STORAGE_URL_EXPIRY")

	v.BindEnv("mail.enabled", "MAIL_ENABLED")
	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.from", "MAIL_SENDER_ADDRESS")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("jwt.issuer", "telemetry-api")

	v.SetDefault("session.cookie_name", "session_token")
	v.SetDefault("session.cookie_secure", true)
	v.SetDefault("session.login_path", "/app/login")

	v.SetDefault("security.rate_limit", 5)
	v.SetDefault("security.max_body_bytes", 1<<20)

	v.SetDefault("telemetry.public_ingest", false)
	v.SetDefault("telemetry.retention_days", 0)
	v.SetDefault("telemetry.retention_interval", "24h")

	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.url_expiry", "15m")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || *configPath != "" {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	c := &Config{
		LogLevel: v.GetString("app.log_level"),

		Port:        v.GetInt("host.port"),
		CORSOrigins: stringList(v, "host.cors_origins"),
		SSL: SSL{
			Enabled:  v.GetBool("host.ssl.enabled"),
			CertPath: v.GetString("host.ssl.certificate_path"),
			KeyPath:  v.GetString("host.ssl.certificate_key_path"),
		},

		DBURI: v.GetString("db.uri"),

		JWTSecret: v.GetString("jwt.secret"),
		JWTTTL:    v.GetDuration("jwt.ttl"),
		JWTIssuer: v.GetString("jwt.issuer"),

		CookieName:   v.GetString("session.cookie_name"),
		CookieSecure: v.GetBool("session.cookie_secure"),
		LoginPath:    v.GetString("session.login_path"),

		RateLimit:    v.GetInt("security.rate_limit"),
		MaxBodyBytes: v.GetInt64("security.max_body_bytes"),

		PublicIngest:      v.GetBool("telemetry.public_ingest"),
		RetentionDays:     v.GetInt("telemetry.retention_days"),
		RetentionInterval: v.GetDuration("telemetry.retention_interval"),

		Storage: Storage{
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			URLExpiry:       v.GetDuration("storage.url_expiry"),
		},

		Mail: Mail{
			Enabled:  v.GetBool("mail.enabled"),
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if c.DBURI == "" {
		return errors.New("DB_URI is required")
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("PORT is required and must be between 1 and 65535")
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.JWTTTL <= 0 {
		return errors.New("jwt.ttl must be a positive duration")
	}

	if c.CookieName == "" {
		return errors.New("session.cookie_name can't be empty")
	}

	if !strings.HasPrefix(c.LoginPath, "/") {
		return errors.New("session.login_path must be an absolute path")
	}

	if c.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.MaxBodyBytes <= 0 {
		return errors.New("security.max_body_bytes must be bigger than 0")
	}

	if c.RetentionDays < 0 {
		return errors.New("telemetry.retention_days can't be negative")
	}

	if c.RetentionDays > 0 && c.RetentionInterval <= 0 {
		return errors.New("telemetry.retention_interval must be a positive duration")
	}

	for _, o := range c.CORSOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("invalid CORS origin %q", o)
		}
	}

	if c.SSL.Enabled {
		if c.SSL.CertPath == "" {
			return errors.New("no ssl certificate path provided")
		}

		if c.SSL.KeyPath == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if c.Storage.Enabled() {
		if c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
			return errors.New("storage access key id and secret are required when a bucket is set")
		}

		if c.Storage.URLExpiry <= 0 {
			return errors.New("storage.url_expiry must be a positive duration")
		}
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return errors.New("mail.host is required when mail is enabled")
		}

		if c.Mail.From == "" {
			return errors.New("mail.from is required when mail is enabled")
		}
	}

	return nil
}

// stringList accepts both a TOML array and a comma separated env value
func stringList(v *viper.Viper, key string) []string {
	var parts []string

	switch v.Get(key).(type) {
	case []any, []string:
		parts = v.GetStringSlice(key)
	default:
		parts = strings.Split(v.GetString(key), ",")
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
