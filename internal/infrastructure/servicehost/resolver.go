//go:build unix

// Package servicehost provides the infrastructure SpecResolver: it
// builds a process.Spec for a resolved module path and wires the
// parent/child IPC channel onto it so the Lifecycle Controller and
// Reconciler never need to know a socketpair exists.
package servicehost

import (
	"os"
	"strings"

	domainbroker "github.com/orlv/nsrvm/internal/domain/broker"
	"github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/logging"
	"github.com/orlv/nsrvm/internal/domain/process"
	infrabroker "github.com/orlv/nsrvm/internal/infrastructure/broker"
)

// nodeHost is the interpreter used for .mjs/.js module paths.
const nodeHost = "node"

// Dispatcher handles one decoded inbound frame from a child and
// reports whether a reply should be sent.
type Dispatcher interface {
	DispatchChildFrame(caller *handle.Handle, frame domainbroker.Frame) (map[string]any, bool)
}

// Resolver implements reconcile.SpecResolver for Unix hosts: it resolves
// the interpreter/argv convention from the module path's extension and
// attaches a fresh IPC socketpair to every spawned child.
type Resolver struct {
	dispatcher Dispatcher
	logger     logging.Logger
}

// New creates a Resolver with no dispatcher attached. The supervisor
// that will ultimately dispatch inbound frames is itself constructed
// from the Reconciler that holds this Resolver, so callers must finish
// wiring with SetDispatcher before reconciling any service.
//
// Params:
//   - logger: destination for connection-level diagnostics.
//
// Returns:
//   - *Resolver: the constructed resolver.
func New(logger logging.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// SetDispatcher attaches the frame dispatcher, breaking the
// construction-order cycle between the Resolver (owned by the
// Reconciler) and the Supervisor (which owns the Reconciler).
//
// Params:
//   - dispatcher: handles decoded frames arriving from each child.
func (r *Resolver) SetDispatcher(dispatcher Dispatcher) {
	r.dispatcher = dispatcher
}

// Resolve builds the process.Spec for h, attaching a fresh IPC channel
// whose read loop is started once the spawn succeeds.
//
// Params:
//   - h: the handle being started.
//   - modulePath: the resolved executable/entry-file path.
//   - cfg: the service's current configuration.
//
// Returns:
//   - process.Spec: the spec to pass to the Executor.
func (r *Resolver) Resolve(h *handle.Handle, modulePath string, cfg config.ServiceConfig) process.Spec {
	command, args := interpreterFor(modulePath, cfg)

	pair, err := infrabroker.NewPair()
	if err != nil {
		r.logger.Error(cfg.Name, "ipc_pair_failed", "creating ipc socketpair", map[string]any{"error": err.Error()})
		return process.Spec{Command: command, Args: args, Env: cfg.Env, User: cfg.User, Group: cfg.Group}
	}

	onSpawn := func(pid int, spawnErr error) {
		if spawnErr != nil {
			_ = pair.Close()
			_ = pair.CloseChildEnd()
			return
		}
		if closeErr := pair.CloseChildEnd(); closeErr != nil {
			r.logger.Warn(cfg.Name, "ipc_close_failed", "closing duplicate child descriptor", map[string]any{"error": closeErr.Error()})
		}
		go r.serve(h, pair)
	}

	return process.Spec{
		Command:    command,
		Args:       args,
		Env:        cfg.Env,
		User:       cfg.User,
		Group:      cfg.Group,
		ExtraFiles: []*os.File{pair.ChildFile()},
		OnSpawn:    onSpawn,
	}
}

// interpreterFor decides the command/args convention for modulePath: a
// .mjs/.js entry is run under the Node.js host; anything else (a Go
// service binary, or any other extensionless executable resolved by
// ResolveModulePath) is executed directly.
func interpreterFor(modulePath string, cfg config.ServiceConfig) (string, []string) {
	if strings.HasSuffix(modulePath, ".mjs") || strings.HasSuffix(modulePath, ".js") {
		args := append([]string{modulePath}, cfg.ExecArgv...)
		return nodeHost, args
	}
	command := modulePath
	if cfg.ExecPath != "" {
		command = cfg.ExecPath
	}
	return command, cfg.ExecArgv
}

// serve runs the decode loop for h's IPC channel until EOF or a fatal
// decode error, dispatching each inbound frame and replying with the
// echoed _reqId.
func (r *Resolver) serve(h *handle.Handle, pair *infrabroker.Pair) {
	defer func() { _ = pair.Close() }()

	dec := infrabroker.NewDecoder(pair.Parent)
	enc := infrabroker.NewEncoder(pair.Parent)

	for {
		line, err := dec.Next()
		if err != nil {
			return
		}
		frame, isSigint, err := domainbroker.ParseLine(line)
		if err != nil || isSigint {
			// The child never sends the sentinel; a malformed or
			// unexpected line is logged and dropped.
			if err != nil {
				r.logger.Warn(h.Config.Name, "protocol_fault", "decoding inbound frame", map[string]any{"error": err.Error()})
			}
			continue
		}

		reqID, hasID := frame.ReqID()
		reply, ok := r.dispatcher.DispatchChildFrame(h, frame)
		if !ok || !hasID {
			// Denied capability call or a notification with no
			// correlation id: no reply is sent.
			continue
		}

		out, err := domainbroker.NewFrame("", reqID, reply)
		if err != nil {
			r.logger.Error(h.Config.Name, "encode_failed", "building reply frame", map[string]any{"error": err.Error()})
			continue
		}
		if err := enc.Encode(out); err != nil {
			return
		}
	}
}
