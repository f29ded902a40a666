package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "config/config.yml"

type AppConfig struct {
	Port      int    `yaml:"port"`
	GinMode   string `yaml:"gin_mode"`
	TimeZone  string `yaml:"time_zone"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type DatabaseConfig struct {
	DSN         string `yaml:"dsn"`
	TablePrefix string `yaml:"table_prefix"`
	LogSQL      bool   `yaml:"log_sql"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type OTPConfig struct {
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

type RateLimitConfig struct {
	Capacity int    `yaml:"capacity"`
	Period   string `yaml:"period"`
}

type MailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
	AppURL         string `yaml:"app_url"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type StorageConfig struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	OTP       OTPConfig       `yaml:"otp"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Mail      MailConfig      `yaml:"mail"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Storage   StorageConfig   `yaml:"storage"`
	Casbin    CasbinConfig    `yaml:"casbin"`
}

type Config struct {
	Port      string
	GinMode   string
	Location  *time.Location
	LogLevel  string
	LogFormat string

	DSN         string
	TablePrefix string
	LogSQL      bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	OTPTTL           time.Duration
	OTPSweepInterval time.Duration

	RateLimitCapacity int
	RateLimitPeriod   time.Duration

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
	AppURL         string

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	MaxUploadBytes int64

	CasbinModelPath string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the YAML file at path (DefaultPath when empty), applies a .env
// file if one exists, then lets environment variables override secrets and
// endpoints.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	// .env is optional
	_ = godotenv.Load()

	file, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return fromFile(file)
}

func parseDuration(name, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func fromFile(f *ConfigFile) (*Config, error) {
	cfg := &Config{
		Port:      strconv.Itoa(f.App.Port),
		GinMode:   f.App.GinMode,
		LogLevel:  f.App.LogLevel,
		LogFormat: f.App.LogFormat,

		DSN:         env("DATABASE_DSN", f.Database.DSN),
		TablePrefix: f.Database.TablePrefix,
		LogSQL:      f.Database.LogSQL,

		RedisAddr:     env("REDIS_ADDR", f.Redis.Addr),
		RedisPassword: env("REDIS_PASSWORD", f.Redis.Password),
		RedisDB:       f.Redis.DB,

		JWTSecret: env("JWT_SECRET", f.JWT.Secret),
		JWTIssuer: f.JWT.Issuer,

		RateLimitCapacity: f.RateLimit.Capacity,

		SendGridAPIKey: env("SENDGRID_API_KEY", f.Mail.SendGridAPIKey),
		MailFrom:       env("MAIL_FROM", f.Mail.FromAddress),
		MailFromName:   f.Mail.FromName,
		AppURL:         f.Mail.AppURL,

		TwilioSID:   env("TWILIO_ACCOUNT_SID", f.Twilio.AccountSID),
		TwilioToken: env("TWILIO_AUTH_TOKEN", f.Twilio.AuthToken),
		TwilioFrom:  env("TWILIO_FROM_NUMBER", f.Twilio.FromNumber),

		S3Bucket:       env("S3_BUCKET", f.Storage.Bucket),
		S3Region:       env("AWS_REGION", f.Storage.Region),
		S3Endpoint:     env("S3_ENDPOINT", f.Storage.Endpoint),
		MaxUploadBytes: f.Storage.MaxUploadBytes,

		CasbinModelPath: f.Casbin.ModelPath,
	}
	var err error
	if cfg.AccessTTL, err = parseDuration("jwt access_ttl", f.JWT.AccessTTL, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = parseDuration("jwt refresh_ttl", f.JWT.RefreshTTL, 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = parseDuration("otp ttl", f.OTP.TTL, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTPSweepInterval, err = parseDuration("otp sweep_interval", f.OTP.SweepInterval, time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPeriod, err = parseDuration("rate_limit period", f.RateLimit.Period, time.Minute); err != nil {
		return nil, err
	}

	if f.App.Port == 0 {
		cfg.Port = env("PORT", "8080")
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.RateLimitCapacity <= 0 {
		cfg.RateLimitCapacity = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.CasbinModelPath == "" {
		cfg.CasbinModelPath = "config/rbac_model.conf"
	}

	tz := env("TZ_NAME", f.App.TimeZone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
	}
	cfg.Location = loc

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
