package main

import (
	"errors"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	Debug       bool          `env:"GROVE_DEBUG,default=false"`
	StopTimeout time.Duration `env:"GROVE_STOP_TIMEOUT,default=10s"`
	HTTPAddr    string        `env:"GROVE_HTTP_ADDR,default=:8080"`
	LogFormat   string        `env:"GROVE_LOG_FORMAT,default=console"`
}

// loadConfig loads envFile if it exists and decodes GROVE_* variables.
func loadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}

	return &cfg, nil
}

func newLogger(cfg *Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.LogFormat == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return zc.Build()
}
