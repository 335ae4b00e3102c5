// Package logging provides infrastructure adapters for daemon event logging.
// It implements the domain logging interfaces with multiple output writers.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orlv/nsrvm/internal/domain/logging"
)

// ZapWriter adapts a zap.Logger to the domain logging.Writer port.
// The daemon always constructs it, alongside a ConsoleWriter on stdout.
type ZapWriter struct {
	core *zap.Logger
}

// NewZapWriter builds a ZapWriter with a production JSON encoder writing to stderr.
//
// Returns:
//   - *ZapWriter: the constructed writer.
//   - error: any error building the underlying zap core.
func NewZapWriter() (*ZapWriter, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core, err := cfg.Build(zap.AddCallerSkip(0), zap.WithCaller(false))
	if err != nil {
		return nil, err
	}
	return &ZapWriter{core: core}, nil
}

// Write writes a log event using the zap core at the matching level.
//
// Params:
//   - event: the log event to write.
//
// Returns:
//   - error: always nil; zap does not return write errors to callers.
func (w *ZapWriter) Write(event logging.LogEvent) error {
	fields := make([]zap.Field, 0, len(event.Metadata)+2)
	if event.Service != "" {
		fields = append(fields, zap.String("service", event.Service))
	}
	fields = append(fields, zap.String("event_type", event.EventType))
	for k, v := range event.Metadata {
		fields = append(fields, zap.Any(k, v))
	}

	switch event.Level {
	case logging.LevelDebug:
		w.core.Debug(event.Message, fields...)
	case logging.LevelWarn:
		w.core.Warn(event.Message, fields...)
	case logging.LevelError:
		w.core.Error(event.Message, fields...)
	default:
		w.core.Info(event.Message, fields...)
	}
	return nil
}

// Close flushes buffered log entries.
//
// Returns:
//   - error: always nil; a failed sync is ignored.
func (w *ZapWriter) Close() error {
	// Sync can legitimately fail on stderr for non-file descriptors (e.g. /dev/null);
	// callers treat this as best-effort.
	_ = w.core.Sync()
	return nil
}

// Ensure ZapWriter implements logging.Writer.
var _ logging.Writer = (*ZapWriter)(nil)
