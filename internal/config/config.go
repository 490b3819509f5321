package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	BotToken string  `env:"BOT_TOKEN,required"`
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`
	Greeting string  `env:"GREETING"`

	TreePath string `env:"TREE_PATH" envDefault:"data/tree.txt"`
	ImageDir string `env:"IMAGE_DIR" envDefault:"images"`

	PaymentEnabled     bool     `env:"PAYMENT_ENABLED" envDefault:"true"`
	PaymentCost        string   `env:"PAYMENT_COST" envDefault:"390.00"`
	PaymentCurrency    string   `env:"PAYMENT_CURRENCY" envDefault:"RUB"`
	PaymentDescription string   `env:"PAYMENT_DESCRIPTION"`
	PaymentEmail       string   `env:"PAYMENT_EMAIL"`
	PaymentPhone       string   `env:"PAYMENT_PHONE"`
	PaymentReturnURL   string   `env:"PAYMENT_RETURN_URL"`
	PaymentAccountID   string   `env:"PAYMENT_ACCOUNT_ID"`
	PaymentSecretKey   string   `env:"PAYMENT_SECRET_KEY"`
	PrivilegedUsers    []string `env:"PAYMENT_PRIVILEGED_USERS" envSeparator:","`
	TrustedNetworks    []string `env:"PAYMENT_TRUSTED_NETWORKS" envSeparator:","`

	ServerAddr  string `env:"SERVER_ADDR" envDefault:"0.0.0.0:8080"`
	RoutePrefix string `env:"ROUTE_PREFIX" envDefault:"/infobot"`

	RedisAddr     string `env:"DB_ADDR" envDefault:"localhost:6379"`
	RedisUser     string `env:"DB_USER"`
	RedisPassword string `env:"DB_PASSWORD"`
	RedisDB       int    `env:"DB_NUMBER" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment, with a best-effort .env
// bootstrap for local runs.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
