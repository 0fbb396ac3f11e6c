package config

import (
	"log/slog"
	"os"
)

// Environment variables surfaced at startup. They carry no behavioral weight;
// the configuration file stays authoritative. Logging them mirrors the
// original deployment's env debugging aid.
var envKeys = []string{
	"OSR_API_URL",
	"OSR_SIGNALING_URL",
	"OSR_MEDIA_URL",
	"OSR_WS_URL",
}

// LogEnvironment logs the backend-related environment variables for operator
// diagnostics.
func LogEnvironment(logger *slog.Logger) {
	if logger == nil {
		return
	}
	for _, key := range envKeys {
		value, ok := os.LookupEnv(key)
		if !ok {
			logger.Debug("backend env var unset", "key", key)
			continue
		}
		logger.Info("backend env var", "key", key, "value", value)
	}
}
