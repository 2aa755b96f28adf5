package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	BaseCurrency string `env:"BASE_CURRENCY" envDefault:"KES"`

	// Accepted overpayment above total outstanding, in percent. The excess is
	// applied to principal; larger payments are rejected.
	OverpayTolerancePct int64 `env:"OVERPAY_TOLERANCE_PCT" envDefault:"10"`

	// Attempts for operations that hit a concurrency conflict before the
	// conflict is surfaced to the caller.
	RetryAttempts int `env:"RETRY_ATTEMPTS" envDefault:"3"`

	// Cron expression for the balance reconciliation sweep.
	ReconcileCron string `env:"RECONCILE_CRON" envDefault:"0 3 * * *"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
