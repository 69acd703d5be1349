package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

const developmentMode = "development"

type Config struct {
	Address string `env:"RUN_ADDRESS" envDefault:":4000"`
	DBURL   string `env:"DATABASE_URI,required"`
	Mode    string `env:"APP_ENV" envDefault:"development"`

	PayPalClientID     string `env:"PAYPAL_CLIENT_ID,required"`
	PayPalClientSecret string `env:"PAYPAL_CLIENT_SECRET,required"`

	AdminSecret string `env:"ADMIN_SECRET"`

	AMQPURL        string `env:"AMQP_URL"`
	EventsExchange string `env:"EVENTS_EXCHANGE" envDefault:"orders"`

	ReconcileInterval   time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	PendingCaptureGrace time.Duration `env:"PENDING_CAPTURE_GRACE" envDefault:"2m"`
	PendingCaptureTTL   time.Duration `env:"PENDING_CAPTURE_TTL" envDefault:"6h"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	err := env.Parse(&cfg)

	return &cfg, err
}

// Sandbox reports whether the payment gateway should run against its sandbox environment.
func (c *Config) Sandbox() bool {
	return c.Mode == developmentMode
}
