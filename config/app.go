package config

import "time"

type App struct {
	Port           string        `env:"APP_PORT" default:"8080"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	JWTSecret      string        `env:"JWT_SECRET,required"`
	OverdueWebhook string        `env:"OVERDUE_WEBHOOK_URL"`
	OverdueSweep   time.Duration `env:"OVERDUE_SWEEP_INTERVAL" default:"1h"`
	Env            string        `env:"APP_ENV" default:"dev"`
}
