package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/eaglebank/account-registry/internal/repository"
	"github.com/eaglebank/account-registry/shared/utils"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Accounts AccountsConfig
}

type ServerConfig struct {
	BindAddress     string
	Port            int
	MetricsPort     int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

// RedisConfig is optional. An empty Addr disables the view cache, event
// publishing and the audit subscriber.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ViewTTL       time.Duration
	ConsumerGroup string
	ConsumerName  string
}

type AccountsConfig struct {
	RestrictedIDs []int64
	IDSeed        int64
}

func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:     "0.0.0.0",
			Port:            8083,
			MetricsPort:     9090,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: repository.DriverSQLite,
			URL:    "./account.db",
		},
		Redis: RedisConfig{
			Addr:          "",
			DB:            0,
			ViewTTL:       10 * time.Minute,
			ConsumerGroup: "account-audit-group",
			ConsumerName:  "account-audit-1",
		},
		Accounts: AccountsConfig{
			RestrictedIDs: []int64{200, 201, 202, 203},
			IDSeed:        100,
		},
	}
}

// LoadEnv overrides defaults with the environment. Unset or empty variables
// keep the current value.
func (c *Config) LoadEnv() error {
	c.Server.BindAddress = getEnv("BIND_ADDRESS", c.Server.BindAddress)
	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	var err error
	if c.Server.Port, err = getEnvInt("PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Server.MetricsPort, err = getEnvInt("METRICS_PORT", c.Server.MetricsPort); err != nil {
		return err
	}
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Server.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	if c.Redis.ViewTTL, err = getEnvDuration("REDIS_VIEW_TTL", c.Redis.ViewTTL); err != nil {
		return err
	}
	if raw := os.Getenv("ACCOUNT_ID_SEED"); raw != "" {
		if c.Accounts.IDSeed, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return errors.Wrapf(err, "invalid ACCOUNT_ID_SEED %q", raw)
		}
	}
	if raw, ok := os.LookupEnv("RESTRICTED_IDS"); ok {
		if c.Accounts.RestrictedIDs, err = ParseIDList(raw); err != nil {
			return errors.Wrap(err, "invalid RESTRICTED_IDS")
		}
	}
	return nil
}

// Validate checks the values that cannot be caught by parsing.
func (c *Config) Validate() error {
	if _, err := repository.DialectFor(c.Database.Driver); err != nil {
		return err
	}
	if c.Database.URL == "" {
		return errors.New("database url is required")
	}
	for name, port := range map[string]int{"port": c.Server.Port, "metrics port": c.Server.MetricsPort} {
		if port < 1 || port > 65535 {
			return errors.Errorf("%s %d out of range", name, port)
		}
	}
	if c.Server.Port == c.Server.MetricsPort {
		return errors.Errorf("port and metrics port must differ, both are %d", c.Server.Port)
	}
	if c.Accounts.IDSeed < 0 {
		return errors.Errorf("id seed must not be negative, got %d", c.Accounts.IDSeed)
	}
	return nil
}

// ParseIDList parses a comma separated list of account ids. An empty list
// restricts nothing.
func ParseIDList(raw string) ([]int64, error) {
	parts := utils.SplitList(raw)
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, ok := utils.ParseAccountID(part)
		if !ok {
			return nil, errors.Errorf("%q is not an account id", part)
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, raw)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", key, raw)
	}
	return v, nil
}
