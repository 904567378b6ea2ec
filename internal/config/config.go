package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Duration parses "10s", "5m" or a bare number of seconds.
type Duration time.Duration

func (d *Duration) SetValue(s string) error {
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalText(b []byte) error { return d.SetValue(string(b)) }

func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

type Config struct {
	App     AppConfig     `yaml:"app"`
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type AppConfig struct {
	Env       string `yaml:"env" env:"APP_ENV" env-default:"dev"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
}

type HTTPConfig struct {
	Port         int      `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout  Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type DBConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DSN      string `yaml:"dsn" env:"DB_DSN"`
	Host     string `yaml:"host" env:"BLUEPRINT_DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"BLUEPRINT_DB_PORT" env-default:"5432"`
	Username string `yaml:"username" env:"BLUEPRINT_DB_USERNAME"`
	Password string `yaml:"password" env:"BLUEPRINT_DB_PASSWORD"`
	Database string `yaml:"database" env:"BLUEPRINT_DB_DATABASE"`
	Schema   string `yaml:"schema" env:"BLUEPRINT_DB_SCHEMA"`

	SQLitePath string `yaml:"sqlite_path" env:"DB_SQLITE_PATH" env-default:"todo.db"`

	MaxIdleConns    int      `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int      `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool     `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// PostgresDSN returns DSN when set, otherwise builds a key/value DSN from the
// individual fields.
func (c DBConfig) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.Username, c.Password, c.Database, c.Port)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

type NATSConfig struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX" env-default:"todoapp"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// Load reads configuration from path when given (YAML or .env), then from the
// environment.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.HTTP.Port)
	}
	return nil
}
