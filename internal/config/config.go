package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/hailinhs/alumnisite/internal/domain"
)

const envPrefix = "ALUMNI_"

type Server struct {
	Host     string `toml:"host" env:"HOST"`
	Port     int    `toml:"port" env:"PORT"`
	Debug    bool   `toml:"debug_mode" env:"DEBUG"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`
	Timezone string `toml:"timezone" env:"TIMEZONE"`
	TLSCert  string `toml:"tls_cert" env:"TLS_CERT"`
	TLSKey   string `toml:"tls_key" env:"TLS_KEY"`
}

type Rule struct {
	Name   string   `toml:"name"`
	Path   string   `toml:"path"`
	Method []string `toml:"method"`
	Allow  []string `toml:"allow"`
}

type Auth struct {
	JWTSecret    string        `toml:"jwt_secret" env:"JWT_SECRET"`
	Expiration   time.Duration `toml:"expiration" env:"EXPIRATION"`
	DemoPassword string        `toml:"demo_password" env:"DEMO_PASSWORD"`
	// Latency imitates the round trip of a remote login service.
	Latency    time.Duration `toml:"latency" env:"LATENCY"`
	AdminEmail string        `toml:"admin_email" env:"ADMIN_EMAIL"`
}

const (
	DriverSqlite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Store struct {
	Driver        string `toml:"driver" env:"DRIVER"`
	SqliteFile    string `toml:"sqlite_file" env:"SQLITE_FILE"`
	RedisAddr     string `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string `toml:"redis_prefix" env:"REDIS_PREFIX"`
}

type Scheduler struct {
	Enabled           bool   `toml:"enabled" env:"ENABLED"`
	StatusRefreshCron string `toml:"status_refresh_cron" env:"STATUS_REFRESH_CRON"`
}

type TgBot struct {
	Enabled          bool    `toml:"enabled" env:"ENABLED"`
	TelegramApiToken string  `toml:"telegram_apitoken" env:"TELEGRAM_APITOKEN"`
	AdminChatIDs     []int64 `toml:"admin_chat_ids" env:"ADMIN_CHAT_IDS"`
}

type Site struct {
	Name        string                 `toml:"name"`
	About       string                 `toml:"about"`
	Address     string                 `toml:"address"`
	Phone       string                 `toml:"phone"`
	Email       string                 `toml:"email"`
	OfficeHours string                 `toml:"office_hours"`
	Alumni      []domain.AlumniProfile `toml:"alumni"`
}

type Config struct {
	Server    Server
	Auth      Auth
	Store     Store
	Scheduler Scheduler
	TgBot     TgBot
	Site      Site
	// Rules guard the HTTP API, first match wins.
	Rules []Rule `toml:"rules"`
}

func Default() Config {
	return Config{
		Server: Server{
			Host:     "0.0.0.0",
			Port:     3000,
			LogLevel: "info",
			Timezone: "Local",
		},
		Auth: Auth{
			Expiration:   24 * time.Hour,
			DemoPassword: "password",
			Latency:      time.Second,
			AdminEmail:   "admin@hailin.edu",
		},
		Store: Store{
			Driver:      DriverSqlite,
			SqliteFile:  "alumni.sqlite",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "alumni:",
		},
		Scheduler: Scheduler{
			Enabled:           true,
			StatusRefreshCron: "@every 10m",
		},
		Site: Site{
			Name: "海林市高级中学校友会",
		},
		Rules: DefaultRules(),
	}
}

// DefaultRules keep the admin console to admins and leave the rest public.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "admin", Path: "^/api/admin(/|$)", Method: []string{"*"}, Allow: []string{"admin"}},
		{Name: "public", Path: "^/", Method: []string{"*"}, Allow: []string{"guest"}},
	}
}

// New reads the TOML file at path (missing file is fine), then lets .env and
// ALUMNI_* variables override it.
func New(path string) (Config, error) {
	cfg := Default()
	// rules from the file replace the defaults instead of merging into them
	cfg.Rules = nil
	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if len(cfg.Rules) == 0 {
		cfg.Rules = DefaultRules()
	}
	_ = godotenv.Load()
	if err := overlayEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayEnv(cfg *Config) error {
	sections := []struct {
		prefix string
		v      any
	}{
		{"SERVER_", &cfg.Server},
		{"AUTH_", &cfg.Auth},
		{"STORE_", &cfg.Store},
		{"SCHEDULER_", &cfg.Scheduler},
		{"TGBOT_", &cfg.TgBot},
	}
	for _, s := range sections {
		if err := env.ParseWithOptions(s.v, env.Options{Prefix: envPrefix + s.prefix}); err != nil {
			return fmt.Errorf("env: %w", err)
		}
	}
	return nil
}

var (
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrEmptySecret   = errors.New("auth.jwt_secret must be set")
)

func (c Config) Validate() error {
	var err error
	switch c.Store.Driver {
	case DriverSqlite, DriverRedis, DriverMemory:
	default:
		err = errors.Join(err, fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver))
	}
	if c.Auth.JWTSecret == "" {
		err = errors.Join(err, ErrEmptySecret)
	}
	if _, locErr := time.LoadLocation(c.Server.Timezone); locErr != nil {
		err = errors.Join(err, fmt.Errorf("server.timezone: %w", locErr))
	}
	return err
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
