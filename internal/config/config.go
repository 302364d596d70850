package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/imf-gadgets/gadget-api/internal/models"
)

const (
	DriverPgx = "pgx"
	DriverPQ  = "postgres"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_DRIVER   string

	PORT       string
	JWT_SECRET string
	VERBOSE    int

	COOKIE_SECURE bool

	KAFKA_BROKERS []string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
	ES_INDEX    string

	AUTH_RATE_LIMIT_RPS   float64
	AUTH_RATE_LIMIT_BURST int
}

var required = []string{
	"POSTGRES_HOST",
	"POSTGRES_PORT",
	"POSTGRES_USER",
	"POSTGRES_PASSWORD",
	"POSTGRES_DATABASE",
	"PORT",
	"JWT_SIGNING_SECRET",
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("notice: .env file not found, using system environment variables", "error", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and reports every bad variable at once.
func FromEnv(getenv func(string) string) (*Config, error) {
	var problems []string
	for _, key := range required {
		if strings.TrimSpace(getenv(key)) == "" {
			problems = append(problems, key+" is required")
		}
	}

	cfg := &Config{
		DB_HOST:     getenv("POSTGRES_HOST"),
		DB_PORT:     getenv("POSTGRES_PORT"),
		DB_USER:     getenv("POSTGRES_USER"),
		DB_PASSWORD: getenv("POSTGRES_PASSWORD"),
		DB_NAME:     getenv("POSTGRES_DATABASE"),
		DB_DRIVER:   DriverPgx,
		PORT:        getenv("PORT"),
		JWT_SECRET:  getenv("JWT_SIGNING_SECRET"),
		VERBOSE:     1,
		ES_URL:      getenv("ES_URL"),
		ES_USER:     getenv("ES_USER"),
		ES_PASSWORD: getenv("ES_PASSWORD"),
		ES_INDEX:    "gadgets",

		AUTH_RATE_LIMIT_RPS:   5,
		AUTH_RATE_LIMIT_BURST: 10,
	}

	if v := getenv("VERBOSE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 2 {
			problems = append(problems, "VERBOSE must be 0, 1 or 2")
		} else {
			cfg.VERBOSE = n
		}
	}
	if v := getenv("DB_DRIVER"); v != "" {
		if v != DriverPgx && v != DriverPQ {
			problems = append(problems, "DB_DRIVER must be pgx or postgres")
		} else {
			cfg.DB_DRIVER = v
		}
	}
	if v := getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 || n > 65535 {
			problems = append(problems, "PORT must be a valid port number")
		}
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			problems = append(problems, "COOKIE_SECURE must be a boolean")
		}
		cfg.COOKIE_SECURE = b
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KAFKA_BROKERS = append(cfg.KAFKA_BROKERS, b)
			}
		}
	}
	if v := getenv("ES_INDEX"); v != "" {
		cfg.ES_INDEX = v
	}
	if v := getenv("AUTH_RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			problems = append(problems, "AUTH_RATE_LIMIT_RPS must be a positive number")
		} else {
			cfg.AUTH_RATE_LIMIT_RPS = f
		}
	}
	if v := getenv("AUTH_RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			problems = append(problems, "AUTH_RATE_LIMIT_BURST must be a positive integer")
		} else {
			cfg.AUTH_RATE_LIMIT_BURST = n
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.PORT
}

func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB_USER, c.DB_PASSWORD),
		Host:     c.DB_HOST + ":" + c.DB_PORT,
		Path:     c.DB_NAME,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Dialector picks the database/sql driver behind gorm's postgres dialect.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPgx, "":
		return postgres.Open(dsn), nil
	case DriverPQ:
		return postgres.New(postgres.Config{DriverName: DriverPQ, DSN: dsn}), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func InitDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	return OpenDB(ctx, cfg.DB_DRIVER, cfg.DSN())
}

// OpenDB connects, sizes the pool, checks reachability and migrates the schema.
func OpenDB(ctx context.Context, driver, dsn string) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
