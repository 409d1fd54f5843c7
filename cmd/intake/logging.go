package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"intake/internal/config"
)

const (
	logLevelEnvKey  = "INTAKE_LOG_LEVEL"
	logFormatEnvKey = "INTAKE_LOG_FORMAT"
)

// configureLoggerForCLI installs the default logger. The level comes from
// --log-level, then INTAKE_LOG_LEVEL, then log_level in config. An invalid
// flag is an error; an invalid env or config value falls back to debug and
// returns a warning line for stderr.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	rawLevel, source := selectedLogLevel(flagLevel, envLevel, configLevel)
	if err := configureDefaultLogger(rawLevel); err == nil {
		return "", nil
	}

	switch source {
	case "flag":
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	case "env":
		_ = configureDefaultLogger("")
		return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, envLevel, config.DefaultLogLevel), nil
	case "config":
		_ = configureDefaultLogger("")
		return fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, config.DefaultLogLevel), nil
	default:
		_ = configureDefaultLogger("")
		return "", nil
	}
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, string) {
	switch {
	case strings.TrimSpace(flagLevel) != "":
		return flagLevel, "flag"
	case strings.TrimSpace(envLevel) != "":
		return envLevel, "env"
	case strings.TrimSpace(configLevel) != "":
		return configLevel, "config"
	default:
		return "", "default"
	}
}

func configureDefaultLogger(rawLevel string) error {
	level, err := parseLogLevel(rawLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(os.Stderr, level, os.Getenv(logFormatEnvKey)))
	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelDebug, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// newLogger writes text lines unless logFormat is "json", which suits
// servers whose stderr is collected by a log shipper.
func newLogger(w io.Writer, level slog.Level, logFormat string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(logFormat), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
