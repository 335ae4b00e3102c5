// Package broker provides the infrastructure transport for the
// parent/child IPC channel: a newline-delimited JSON codec running over
// a Unix-domain socketpair.
package broker

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	domainbroker "github.com/orlv/nsrvm/internal/domain/broker"
)

// maxFrameSize bounds a single decoded frame to guard against a runaway
// or misbehaving peer exhausting memory with an unterminated line.
const maxFrameSize = 4 << 20 // 4 MiB

// Encoder writes frames as newline-delimited JSON. It serializes
// concurrent writers so two goroutines submitting frames at once never
// interleave partial lines.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder wraps w.
//
// Returns:
//   - *Encoder: the constructed encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes frame as one JSON-object line.
//
// Params:
//   - frame: the frame to encode.
//
// Returns:
//   - error: any error marshaling or writing the frame.
func (e *Encoder) Encode(frame domainbroker.Frame) error {
	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = e.w.Write(raw)
	return err
}

// EncodeSigint writes the single reserved non-object payload: the bare
// JSON string "SIGINT", substituting for a native signal on platforms
// with no POSIX signal delivery.
//
// Returns:
//   - error: any error writing to the underlying writer.
func (e *Encoder) EncodeSigint() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.w.Write([]byte("\"" + domainbroker.SigintSentinel + "\"\n"))
	return err
}

// Decoder reads newline-delimited JSON frames.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder wraps r.
//
// Returns:
//   - *Decoder: the constructed decoder.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Decoder{scanner: scanner}
}

// Next reads and decodes the next line. It returns io.EOF once the
// underlying reader is exhausted (the peer closed its end of the
// channel). A line may decode to an object frame or, for the reserved
// sentinel relay, a bare JSON string — callers distinguish the two
// with domainbroker.ParseLine.
//
// Returns:
//   - []byte: the raw decoded line.
//   - error: io.EOF at end of stream; otherwise the scanner's error (a
//     read error, or bufio.ErrTooLong for a line over maxFrameSize).
func (d *Decoder) Next() ([]byte, error) {
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	// Copy the line: bufio.Scanner reuses its internal buffer on the
	// next Scan call.
	line := d.scanner.Bytes()
	out := make([]byte, len(line))
	copy(out, line)
	return out, nil
}
