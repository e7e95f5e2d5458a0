package monitoring

import (
	"fmt"
	"log"
	"log/slog"
)

// Logger is the printf style logging surface used by the hooks.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// StandardLogger wraps the standard log package.
type StandardLogger struct{}

func (s *StandardLogger) Info(msg string, args ...any) {
	log.Printf("[INFO] "+msg, args...)
}

func (s *StandardLogger) Error(msg string, args ...any) {
	log.Printf("[ERROR] "+msg, args...)
}

func (s *StandardLogger) Debug(msg string, args ...any) {
	log.Printf("[DEBUG] "+msg, args...)
}

// SlogLogger formats messages and forwards them to a structured logger,
// tagging every record with a component attribute.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger uses slog.Default when logger is nil.
func NewSlogLogger(logger *slog.Logger, component string) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	if component != "" {
		logger = logger.With(slog.String("component", component))
	}
	return &SlogLogger{logger: logger}
}

func (s *SlogLogger) Info(msg string, args ...any) {
	s.logger.Info(fmt.Sprintf(msg, args...))
}

func (s *SlogLogger) Error(msg string, args ...any) {
	s.logger.Error(fmt.Sprintf(msg, args...))
}

func (s *SlogLogger) Debug(msg string, args ...any) {
	s.logger.Debug(fmt.Sprintf(msg, args...))
}
