package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr   string    `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	Redis      Redis     `yaml:"redis"`
	SQLitePath string    `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"./master.db"`
	JWTSecret  string    `yaml:"jwt-secret" env:"JWT_SECRET" env-default:"my_super_secret_key"`
	Session    Session   `yaml:"session"`
	Telemetry  Telemetry `yaml:"telemetry"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_CONNSTRING" env-default:"localhost:6379"`
}

type Session struct {
	TTL time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT" env-default:"otel-collector:4317"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tic-tac-toe"`
	StdoutTrace bool   `yaml:"stdout-trace" env:"OTEL_STDOUT_TRACE" env-default:"false"`
}

// Load reads the YAML file at path, then applies environment overrides.
// With an empty path only the environment and defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("unable to read config from environment: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
