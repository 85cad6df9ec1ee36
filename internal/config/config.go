// Package config reads process configuration from an optional .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

// DSN returns a lib/pq connection URL.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.DB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type Config struct {
	HTTPAddr  string
	Store     string
	Postgres  Postgres
	JWTSecret string
	LogLevel  string
	LogFormat string

	VoteMaxAttempts int
	VoteRetryDelay  time.Duration
	VoteRateLimit   float64
	VoteRateBurst   int
	AllowedOrigins  []string

	ReconcileSchedule    string
	ReconcileConcurrency int

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// Load builds the configuration for the named binary. args are the
// command-line arguments without the program name.
func Load(name string, args []string) (*Config, error) {
	_ = godotenv.Load()

	env := envReader{}
	cfg := &Config{
		HTTPAddr:  env.getString("HTTP_ADDR", "0.0.0.0:8080"),
		Store:     env.getString("STORE", StorePostgres),
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  env.getString("LOG_LEVEL", "info"),
		LogFormat: env.getString("LOG_FORMAT", "text"),
		Postgres: Postgres{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     env.getString("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
		},
		VoteMaxAttempts:      env.getInt("VOTE_MAX_ATTEMPTS", 3),
		VoteRetryDelay:       env.getDuration("VOTE_RETRY_DELAY", 10*time.Millisecond),
		VoteRateLimit:        env.getFloat("VOTE_RATE_LIMIT", 5),
		VoteRateBurst:        env.getInt("VOTE_RATE_BURST", 10),
		AllowedOrigins:       env.getList("ALLOWED_ORIGINS", []string{"*"}),
		ReconcileSchedule:    os.Getenv("RECONCILE_SCHEDULE"),
		ReconcileConcurrency: env.getInt("RECONCILE_CONCURRENCY", 8),
	}
	if err := env.err(); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Storage backend (postgres or memory)")
	fs.StringVar(&cfg.Postgres.Host, "db-host", cfg.Postgres.Host, "Database host")
	fs.StringVar(&cfg.Postgres.Port, "db-port", cfg.Postgres.Port, "Database port")
	fs.StringVar(&cfg.Postgres.User, "db-user", cfg.Postgres.User, "Database user")
	fs.StringVar(&cfg.Postgres.Password, "db-pass", cfg.Postgres.Password, "Database password")
	fs.StringVar(&cfg.Postgres.DB, "db-name", cfg.Postgres.DB, "Database name")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.ReconcileSchedule, "schedule", cfg.ReconcileSchedule, "Cron schedule for the tally reconciler, empty to run once")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Store != StorePostgres && c.Store != StoreMemory:
		return fmt.Errorf("invalid store %q: must be %s or %s", c.Store, StorePostgres, StoreMemory)
	case c.VoteMaxAttempts < 1:
		return fmt.Errorf("VOTE_MAX_ATTEMPTS must be at least 1")
	case c.VoteRateLimit <= 0 || c.VoteRateBurst < 1:
		return fmt.Errorf("VOTE_RATE_LIMIT and VOTE_RATE_BURST must be positive")
	case c.ReconcileConcurrency < 1:
		return fmt.Errorf("RECONCILE_CONCURRENCY must be at least 1")
	}
	return nil
}

// envReader collects the first parse failure so Load can report it once.
type envReader struct {
	failure error
}

func (e *envReader) err() error {
	return e.failure
}

func (e *envReader) fail(key string, err error) {
	if e.failure == nil {
		e.failure = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (e *envReader) getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return f
}

func (e *envReader) getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *envReader) getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
