package logger

import (
	"log/slog"

	"github.com/tilsley/repomark/pkg/logging"
)

// New returns the server logger, configured from LOG_FORMAT and LOG_LEVEL,
// and installs it as the slog default so library code that logs through
// slog.Default lands in the same stream. Every record carries the service name.
func New(service string) *slog.Logger {
	log := logging.New().With("service", service)
	slog.SetDefault(log)
	return log
}
