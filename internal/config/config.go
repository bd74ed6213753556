// Package config reads process settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"billdesk/pkg/redis"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

type MongoConfig struct {
	URI            string        `envconfig:"URI" default:"mongodb://localhost:27017/?replicaSet=rs0"`
	Database       string        `envconfig:"DATABASE" default:"billdesk"`
	ConnectTimeout time.Duration `split_words:"true" default:"10s"`
}

type BillingConfig struct {
	RejectUnderpayment bool `split_words:"true" default:"false"`
}

type Config struct {
	AppEnv                  string        `envconfig:"APP_ENV" default:"development"`
	HTTPAddr                string        `envconfig:"HTTP_ADDR" default:":9091"`
	ShutdownTimeout         time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	StoreDriver             string        `envconfig:"STORE_DRIVER" default:"memory"`
	IdempotencyTTL          time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	CORSOrigins             []string      `envconfig:"CORS_ORIGINS" default:"*"`
	InventoryReportInterval time.Duration `envconfig:"INVENTORY_REPORT_INTERVAL" default:"1m"`
	SeedDemoData            bool          `envconfig:"SEED_DEMO_DATA" default:"true"`

	Mongo   MongoConfig   `envconfig:"MONGO"`
	Redis   redis.Config  `envconfig:"REDIS"`
	Billing BillingConfig `envconfig:"BILLING"`
}

// Load reads envFile if it exists, then the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreMongo:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	if c.StoreDriver == StoreMongo && c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required for the mongo store")
	}
	if c.InventoryReportInterval <= 0 {
		return errors.New("INVENTORY_REPORT_INTERVAL must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be positive")
	}
	return nil
}

func (c *Config) Production() bool { return c.AppEnv == "production" }
