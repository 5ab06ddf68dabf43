// Package config loads the service settings from a .env file and WELCOME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/monadicstack/welcome/internal/logging"
	"github.com/monadicstack/welcome/welcome"
	"github.com/rs/zerolog"
)

// Environment variables read by Load().
const (
	EnvAddr            = "WELCOME_ADDR"
	EnvGreeting        = "WELCOME_GREETING"
	EnvLogLevel        = "WELCOME_LOG_LEVEL"
	EnvLogFormat       = "WELCOME_LOG_FORMAT"
	EnvShutdownTimeout = "WELCOME_SHUTDOWN_TIMEOUT"
)

// Defaults used when neither the environment nor a flag supplies a value.
const (
	DefaultAddr            = ":9090"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds everything the "serve" command needs to run the service.
type Config struct {
	// Addr is the host:port the server listens on.
	Addr string
	// Greeting is the greeting format; blank means welcome.DefaultGreeting.
	Greeting string
	// LogLevel is any level zerolog understands ("debug", "info", ...).
	LogLevel string
	// LogFormat is either "console" or "json".
	LogFormat string
	// ShutdownTimeout bounds how long in-flight requests get to finish on shutdown.
	ShutdownTimeout time.Duration
}

// Load reads the optional .env files (default ".env" in the working directory) and then the
// WELCOME_* environment variables. Variables already set in the environment win over .env values.
//
// Load only fails when a value can't be parsed at all. It doesn't Validate() so that callers can
// apply their own overrides (e.g. CLI flags) first and validate the final result.
func Load(envFiles ...string) (Config, error) {
	// A missing .env file is the normal case outside of local development.
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: env file: %w", err)
	}

	config := Config{
		Addr:            firstNonEmpty(os.Getenv(EnvAddr), DefaultAddr),
		Greeting:        os.Getenv(EnvGreeting),
		LogLevel:        firstNonEmpty(os.Getenv(EnvLogLevel), DefaultLogLevel),
		LogFormat:       firstNonEmpty(os.Getenv(EnvLogFormat), logging.FormatConsole),
		ShutdownTimeout: DefaultShutdownTimeout,
	}

	if raw := strings.TrimSpace(os.Getenv(EnvShutdownTimeout)); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return config, fmt.Errorf("config: %s: %w", EnvShutdownTimeout, err)
		}
		config.ShutdownTimeout = timeout
	}
	return config, nil
}

// Validate reports the first setting that the server would not be able to use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("config: address is required")
	}
	if err := welcome.ValidateGreeting(c.Greeting); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("config: log format %q must be %q or %q", c.LogFormat, logging.FormatConsole, logging.FormatJSON)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: shutdown timeout must be positive, got %v", c.ShutdownTimeout)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
