//go:build unix

// Package adminsocket_test provides black-box tests for the admin control
// surface listener.
package adminsocket_test

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbroker "github.com/orlv/nsrvm/internal/domain/broker"
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/logging"
	"github.com/orlv/nsrvm/internal/infrastructure/adminsocket"
	infrabroker "github.com/orlv/nsrvm/internal/infrastructure/broker"
)

// nullLogger discards every event; admin-socket tests only assert on wire
// behavior, not on logging output.
type nullLogger struct{}

func (nullLogger) Log(logging.LogEvent)                          {}
func (nullLogger) Debug(string, string, string, map[string]any)  {}
func (nullLogger) Info(string, string, string, map[string]any)   {}
func (nullLogger) Warn(string, string, string, map[string]any)   {}
func (nullLogger) Error(string, string, string, map[string]any)  {}
func (nullLogger) Close() error                                  { return nil }

// recordingDispatcher records the caller identity and frame it receives
// and returns a fixed reply.
type recordingDispatcher struct {
	caller *handle.Handle
	method string
}

func (d *recordingDispatcher) DispatchChildFrame(caller *handle.Handle, frame domainbroker.Frame) (map[string]any, bool) {
	d.caller = caller
	_ = frame.Field("method", &d.method)
	return map[string]any{"status": true}, true
}

// TestListener_HandlesRequestAsFixedCaller verifies a connection's frame is
// dispatched as the fixed "nsrvm-cli" caller identity, regardless of
// connection origin, and that the reply echoes the request's _reqId.
//
// Params:
//   - t: testing context for assertions
func TestListener_HandlesRequestAsFixedCaller(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "nsrvm.sock")
	dispatcher := &recordingDispatcher{}

	l, err := adminsocket.New(socketPath, dispatcher, nullLogger{})
	require.NoError(t, err)
	go l.Serve()
	defer func() { _ = l.Close() }()

	conn, err := net.DialTimeout("unix", socketPath, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	enc := infrabroker.NewEncoder(conn)
	frame, err := domainbroker.NewFrame("api", 7, map[string]any{"method": "getServicesList", "args": map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, enc.Encode(frame))

	dec := infrabroker.NewDecoder(conn)
	line, err := dec.Next()
	require.NoError(t, err)

	reply, isSigint, err := domainbroker.ParseLine(line)
	require.NoError(t, err)
	require.False(t, isSigint)

	reqID, ok := reply.ReqID()
	require.True(t, ok)
	assert.Equal(t, uint32(7), reqID)

	var status bool
	require.NoError(t, reply.Field("status", &status))
	assert.True(t, status)

	require.NotNil(t, dispatcher.caller)
	assert.Equal(t, "nsrvm-cli", dispatcher.caller.Config.Name)
	assert.True(t, dispatcher.caller.Config.HasCapability("nsrvm"))
}
