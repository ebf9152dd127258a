package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type DB struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Pass     string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"group_orders"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

type MQ struct {
	Host string `env:"RABBIT_HOST" envDefault:"localhost"`
	Port int    `env:"RABBIT_PORT" envDefault:"5672"`
	User string `env:"RABBIT_USER" envDefault:"guest"`
	Pass string `env:"RABBIT_PASSWORD" envDefault:"guest"`
}

type App struct {
	Database   DB
	Rabbit     MQ
	BotToken   string        `env:"TELEGRAM_TOKEN"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// Load reads configuration from the environment.
func Load() (App, error) {
	var a App
	if err := env.Parse(&a); err != nil {
		return App{}, fmt.Errorf("parse env: %w", err)
	}
	if a.Database.Host == "" {
		return App{}, errors.New("invalid config: missing database host")
	}
	return a, nil
}

// RequireToken is checked only in bot mode; the event-logger runs without a
// Telegram connection.
func (a App) RequireToken() error {
	if a.BotToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	return nil
}
