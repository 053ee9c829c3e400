package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type Config struct {
	ServerAddr         string        `yaml:"server_addr"`
	DBDriver           string        `yaml:"db_driver"`
	DSN                string        `yaml:"db_dsn"`
	MaxOpenConns       int           `yaml:"db_max_open_conns"`
	MaxIdleConns       int           `yaml:"db_max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"db_conn_max_lifetime"`
	JWTSecret          string        `yaml:"jwt_secret"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
	LogLevel           string        `yaml:"log_level"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	GinMode            string        `yaml:"gin_mode"`
}

var Cfg *Config

func Default() *Config {
	return &Config{
		ServerAddr:         ":8080",
		DBDriver:           DriverMySQL,
		DSN:                defaultMysqlDSN(),
		MaxOpenConns:       25,
		MaxIdleConns:       5,
		ConnMaxLifetime:    5 * time.Minute,
		JWTSecret:          "friendlink-secret-key-change-in-production",
		TokenTTL:           24 * time.Hour,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		GinMode:            "release",
	}
}

func defaultMysqlDSN() string {
	c := mysql.NewConfig()
	c.User = "root"
	c.Passwd = "root"
	c.Net = "tcp"
	c.Addr = "localhost:3306"
	c.DBName = "friendlink"
	c.ParseTime = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Load reads .env, then the optional YAML file named by FRIENDLINK_CONFIG,
// then environment variables. Later sources win.
func Load() (*Config, error) {
	// a missing .env falls back to the process environment
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("FRIENDLINK_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	Cfg = cfg
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.ServerAddr = ":" + port
	}
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DSN = getEnv("DB_DSN", c.DSN)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORSAllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, strings.TrimSpace(origin))
		}
	}

	var err error
	if c.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", c.MaxOpenConns); err != nil {
		return err
	}
	if c.MaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", c.MaxIdleConns); err != nil {
		return err
	}
	if c.ConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime); err != nil {
		return err
	}
	if c.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverSQLite:
	default:
		return errors.Errorf("unsupported DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverMySQL, DriverSQLite)
	}
	if c.DSN == "" {
		return errors.New("missing DB_DSN")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}
