//go:build unix

// Package adminsocket provides the nsrvmctl control surface: a
// Unix-domain JSON-lines socket distinct from any service's IPC
// channel, reusing the same broker wire codec but gating every caller
// behind the fixed "nsrvm-cli" identity.
package adminsocket

import (
	"errors"
	"net"
	"os"

	domainbroker "github.com/orlv/nsrvm/internal/domain/broker"
	"github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/logging"
	infrabroker "github.com/orlv/nsrvm/internal/infrastructure/broker"
)

// callerName identifies every admin-socket connection to the Router;
// its allowedAPI is fixed here, never read from the services config,
// so no service can grant itself supervisor-wide control by naming
// itself "nsrvm-cli".
const callerName = "nsrvm-cli"

// Dispatcher handles one decoded admin frame and reports whether a
// reply should be sent.
type Dispatcher interface {
	DispatchChildFrame(caller *handle.Handle, frame domainbroker.Frame) (map[string]any, bool)
}

// Listener accepts nsrvmctl connections on a Unix-domain socket.
type Listener struct {
	path       string
	dispatcher Dispatcher
	logger     logging.Logger
	ln         net.Listener
}

// New creates a Listener bound to path. Any pre-existing socket file
// at path is removed first — a stale file left by an unclean shutdown
// would otherwise make the bind fail with "address already in use".
//
// Params:
//   - path: filesystem path for the Unix-domain socket.
//   - dispatcher: handles decoded frames from each connection.
//   - logger: destination for connection-level diagnostics.
//
// Returns:
//   - *Listener: the constructed, not-yet-serving listener.
//   - error: any error removing a stale socket file or binding.
func New(path string, dispatcher Dispatcher, logger logging.Logger) (*Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Listener{path: path, dispatcher: dispatcher, logger: logger, ln: ln}, nil
}

// Serve accepts connections until Close is called, handling each on
// its own goroutine. It blocks; callers run it on its own goroutine.
func (l *Listener) Serve() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return
		}
		go l.handle(conn)
	}
}

// Close stops accepting new connections and removes the socket file.
//
// Returns:
//   - error: any error closing the underlying listener.
func (l *Listener) Close() error {
	err := l.ln.Close()
	_ = os.Remove(l.path)
	return err
}

// handle runs the decode loop for one nsrvmctl connection, dispatching
// each frame as the fixed nsrvm-cli caller and replying with the
// echoed _reqId.
func (l *Listener) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	caller := handle.New(config.ServiceConfig{Name: callerName, AllowedAPI: []string{"nsrvm"}})

	dec := infrabroker.NewDecoder(conn)
	enc := infrabroker.NewEncoder(conn)

	for {
		line, err := dec.Next()
		if err != nil {
			return
		}
		frame, isSigint, err := domainbroker.ParseLine(line)
		if err != nil || isSigint {
			if err != nil {
				l.logger.Warn(callerName, "protocol_fault", "decoding admin frame", map[string]any{"error": err.Error()})
			}
			continue
		}

		reqID, hasID := frame.ReqID()
		reply, ok := l.dispatcher.DispatchChildFrame(caller, frame)
		if !ok || !hasID {
			continue
		}

		out, err := domainbroker.NewFrame("", reqID, reply)
		if err != nil {
			l.logger.Error(callerName, "encode_failed", "building admin reply frame", map[string]any{"error": err.Error()})
			continue
		}
		if err := enc.Encode(out); err != nil {
			return
		}
	}
}
