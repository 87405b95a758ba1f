package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const EnvProduction = "production"

type Config struct {
	AppEnv   string `env:"APP_ENV,default=development"`
	Addr     string `env:"ADDR,default=:8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	DB    DBConfig
	JWT   JWTConfig
	Rate  RateConfig
	Kafka KafkaConfig
	ES    ESConfig
	S3    S3Config
	Seed  SeedConfig

	BcryptCost     int      `env:"BCRYPT_COST,default=12"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	MediaMaxBytes  int64    `env:"MEDIA_MAX_BYTES,default=5242880"`
	OTLPEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type DBConfig struct {
	Driver      string `env:"DB_DRIVER,default=postgres"`
	URL         string `env:"DATABASE_URL,required"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=false"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET,required"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET,required"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL,default=15m"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL,default=168h"`
}

type RateConfig struct {
	Window          time.Duration `env:"RATE_LIMIT_WINDOW,default=15m"`
	Max             int           `env:"RATE_LIMIT_MAX,default=300"`
	AuthWindow      time.Duration `env:"AUTH_RATE_LIMIT_WINDOW,default=15m"`
	AuthMax         int           `env:"AUTH_RATE_LIMIT_MAX,default=10"`
	ContactWindow   time.Duration `env:"CONTACT_RATE_LIMIT_WINDOW,default=1h"`
	ContactMax      int           `env:"CONTACT_RATE_LIMIT_MAX,default=5"`
	BypassLocalhost bool          `env:"RATE_LIMIT_BYPASS_LOCALHOST,default=false"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS"`
}

type ESConfig struct {
	URL      string `env:"ES_URL"`
	User     string `env:"ES_USER"`
	Password string `env:"ES_PASSWORD"`
	Index    string `env:"ES_INDEX,default=portfolio"`
}

type S3Config struct {
	Endpoint       string `env:"S3_ENDPOINT"`
	Region         string `env:"S3_REGION,default=us-east-1"`
	Bucket         string `env:"S3_BUCKET"`
	AccessKey      string `env:"S3_ACCESS_KEY"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	PublicURL      string `env:"S3_PUBLIC_URL"`
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE,default=true"`
}

type SeedConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
	AdminName     string `env:"SEED_ADMIN_NAME,default=Administrator"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using process environment", "error", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load over an explicit key/value map.
func LoadFrom(ctx context.Context, env map[string]string) (Config, error) {
	return load(ctx, envconfig.MapLookuper(env))
}

// LoadDB reads only the database settings, for tools that need no secrets.
func LoadDB(ctx context.Context) (DBConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using process environment", "error", err)
	}
	var cfg DBConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return DBConfig{}, fmt.Errorf("load db config: %w", err)
	}
	return cfg, nil
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.IsProduction() && cfg.Rate.BypassLocalhost {
		slog.Warn("config_override", "key", "RATE_LIMIT_BYPASS_LOCALHOST", "reason", "loopback bypass is disabled in production")
		cfg.Rate.BypassLocalhost = false
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive"))
	}
	for name, v := range map[string]int{
		"RATE_LIMIT_MAX":         c.Rate.Max,
		"AUTH_RATE_LIMIT_MAX":    c.Rate.AuthMax,
		"CONTACT_RATE_LIMIT_MAX": c.Rate.ContactMax,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.MediaMaxBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_BYTES must be positive"))
	}
	if (c.Seed.AdminEmail == "") != (c.Seed.AdminPassword == "") {
		errs = append(errs, errors.New("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}
