package client

import "github.com/rs/zerolog"

// RequestLogger is the interface used by [Client] for logging request attempts,
// retries and failures. The same logger receives resty's own warnings. Implement
// this interface to integrate with your logging library and supply the
// implementation via [WithRequestLogger].
type RequestLogger interface {
	Errorf(format string, v ...any)
	Warnf(format string, v ...any)
	Debugf(format string, v ...any)
}

// NoopLogger is a [RequestLogger] that silently discards all log messages.
// It is the default logger used when no logger is provided to [New].
type NoopLogger struct{}

func (l *NoopLogger) Errorf(_ string, _ ...any) {}
func (l *NoopLogger) Warnf(_ string, _ ...any)  {}
func (l *NoopLogger) Debugf(_ string, _ ...any) {}

// ZerologLogger adapts a zerolog.Logger to [RequestLogger].
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger returns a [RequestLogger] writing through l. Entries carry a
// "component" field so they can be told apart from application logs.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: l.With().Str("component", "http-client").Logger()}
}

func (l *ZerologLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l *ZerologLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l *ZerologLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
