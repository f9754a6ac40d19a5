package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Port        string

	DatabaseURL      string
	DatabaseMaxConns int32
	TxIsolation      string
	AutoMigrate      bool

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	InventoryCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	OtelEndpoint   string
	OtelInsecure   bool
	ServiceName    string
	ServiceVersion string

	LowStockThreshold int
	InvitationTTL     time.Duration

	InvitationSweepInterval time.Duration
	LowStockInterval        time.Duration
	ReconcileInterval       time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.tx_isolation", "read committed")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.inventory_ttl", 5*time.Minute)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "inventory.transactions")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", true)
	v.SetDefault("otel.service_name", "stockledger")
	v.SetDefault("otel.service_version", "1.0.0")
	v.SetDefault("inventory.low_stock_threshold", 5)
	v.SetDefault("invitation.ttl", 7*24*time.Hour)
	v.SetDefault("jobs.invitation_sweep_interval", time.Hour)
	v.SetDefault("jobs.low_stock_interval", 30*time.Minute)
	v.SetDefault("jobs.reconcile_interval", 24*time.Hour)
}

// Load reads configuration from the environment and, when path is set, from a
// config file. Environment variables win: database.url is read from DATABASE_URL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Environment:             v.GetString("app.env"),
		Port:                    v.GetString("server.port"),
		DatabaseURL:             v.GetString("database.url"),
		DatabaseMaxConns:        v.GetInt32("database.max_conns"),
		TxIsolation:             v.GetString("database.tx_isolation"),
		AutoMigrate:             v.GetBool("database.auto_migrate"),
		RedisAddr:               v.GetString("redis.addr"),
		RedisPassword:           v.GetString("redis.password"),
		RedisDB:                 v.GetInt("redis.db"),
		InventoryCacheTTL:       v.GetDuration("cache.inventory_ttl"),
		KafkaBrokers:            splitList(v.GetString("kafka.brokers")),
		KafkaTopic:              v.GetString("kafka.topic"),
		OtelEndpoint:            v.GetString("otel.endpoint"),
		OtelInsecure:            v.GetBool("otel.insecure"),
		ServiceName:             v.GetString("otel.service_name"),
		ServiceVersion:          v.GetString("otel.service_version"),
		LowStockThreshold:       v.GetInt("inventory.low_stock_threshold"),
		InvitationTTL:           v.GetDuration("invitation.ttl"),
		InvitationSweepInterval: v.GetDuration("jobs.invitation_sweep_interval"),
		LowStockInterval:        v.GetDuration("jobs.low_stock_interval"),
		ReconcileInterval:       v.GetDuration("jobs.reconcile_interval"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable is required"))
	}
	if c.LowStockThreshold < 0 {
		errs = append(errs, errors.New("INVENTORY_LOW_STOCK_THRESHOLD cannot be negative"))
	}
	if c.InvitationTTL <= 0 {
		errs = append(errs, errors.New("INVITATION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
