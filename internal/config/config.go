package config

import (
	"os"
	"path"
	"strconv"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/env"

	"go.uber.org/zap"
)

const (
	PortEnv           = "PORT"
	DatabaseUrlEnv    = "DATABASE_URL"
	RootPathEnv       = "ROOT_PATH"
	TickIntervalMsEnv = "TICK_INTERVAL_MS"

	defaultTickIntervalMs = 10
)

type Config struct {
	Logger *zap.Logger

	Port           int
	DatabaseURL    string
	MigrationsPath string

	TickInterval time.Duration
}

func Load() (Config, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return Config{}, err
	}

	port := env.MustGetInt(PortEnv)
	dbURL := env.MustGetString(DatabaseUrlEnv)

	rootPath := env.MustGetString(RootPathEnv)
	migrationsPath := path.Join(rootPath, "db", "migrations")

	tickIntervalMs := defaultTickIntervalMs
	if val, found := os.LookupEnv(TickIntervalMsEnv); found {
		tickIntervalMs, err = strconv.Atoi(val)
		if err != nil {
			return Config{}, err
		}
	}

	return Config{
		Logger:         logger,
		Port:           port,
		DatabaseURL:    dbURL,
		MigrationsPath: migrationsPath,
		TickInterval:   time.Duration(tickIntervalMs) * time.Millisecond,
	}, nil
}
