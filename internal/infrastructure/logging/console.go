package logging

import (
	"fmt"
	"io"

	"github.com/orlv/nsrvm/internal/domain/logging"
)

// ConsoleWriter writes events as plain text lines to an io.Writer.
// The daemon always constructs it on stdout, alongside the ZapWriter.
type ConsoleWriter struct {
	out io.Writer
}

// NewConsoleWriter creates a ConsoleWriter that writes to out.
//
// Params:
//   - out: destination for formatted log lines.
//
// Returns:
//   - *ConsoleWriter: the constructed writer.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out}
}

// Write formats the event as a single line and writes it to the underlying writer.
//
// Params:
//   - event: the log event to write.
//
// Returns:
//   - error: any error returned by the underlying writer.
func (w *ConsoleWriter) Write(event logging.LogEvent) error {
	service := event.Service
	if service == "" {
		service = "nsrvm"
	}
	_, err := fmt.Fprintf(w.out, "%s [%s] %s: %s %v\n",
		event.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		event.Level, service, event.Message, event.Metadata)
	return err
}

// Close is a no-op; ConsoleWriter does not own its underlying writer.
//
// Returns:
//   - error: always nil.
func (w *ConsoleWriter) Close() error {
	return nil
}

// Ensure ConsoleWriter implements logging.Writer.
var _ logging.Writer = (*ConsoleWriter)(nil)
