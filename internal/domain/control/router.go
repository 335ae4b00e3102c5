// Package control provides the Control-Plane Router: the capability-
// gated method table every child reaches over its IPC channel under
// the "api" command.
package control

import (
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/identity"
)

// Supervisor is the router's view of the wider supervisor state: the
// set of operations a control-plane method may trigger, supplied by
// the application-layer orchestrator so this package stays free of any
// dependency on reconciliation, the broker transport, or bootstrap.
type Supervisor interface {
	// Lookup returns the handle registered under name, if any.
	Lookup(name string) (*handle.Handle, bool)

	// List returns a snapshot of every currently registered handle.
	List() []handle.Snapshot

	// APIPort returns the configured apiPort for name, if any.
	APIPort(name string) (int, bool)

	// RequestStart asks the supervisor to (re)start name.
	RequestStart(name string) bool

	// RequestStop asks the supervisor to stop name.
	RequestStop(name string) bool

	// RequestRestart asks the supervisor to stop then start name.
	RequestRestart(name string) bool

	// RequestServerRestart queues a shutdown that stops every child and
	// then exits the supervisor process with status 0. It returns once
	// the shutdown is queued, without waiting for it.
	RequestServerRestart()
}

// Router dispatches control-plane method calls from a caller handle
// against the method table in §4.6.
type Router struct {
	keys       *identity.Registry
	supervisor Supervisor
}

// New creates a Router with no supervisor attached. The Supervisor
// this router dispatches into is itself constructed from the
// Reconciler the Router's caller (the service host's Resolver) feeds
// frames through, so callers must finish wiring with SetSupervisor
// before any child frame is dispatched.
//
// Params:
//   - keys: the api-key registry consulted by getApiKey.
//
// Returns:
//   - *Router: the constructed router.
func New(keys *identity.Registry) *Router {
	return &Router{keys: keys}
}

// SetSupervisor attaches the operation port, breaking the
// construction-order cycle between the Router and the Supervisor it
// drives.
//
// Params:
//   - supervisor: the operation port the method table drives.
func (r *Router) SetSupervisor(supervisor Supervisor) {
	r.supervisor = supervisor
}

// Dispatch resolves method against caller's capability set and, if
// granted, executes it. A denied capability call returns ok=false and
// the caller must send no reply at all — a denied call is
// indistinguishable from an unreachable peer.
//
// Params:
//   - caller: the handle whose allowedAPI set gates this call.
//   - method: the control-plane method name.
//   - args: method-specific arguments; getApiKey, restartService,
//     stopService and startService read serviceName from it.
//
// Returns:
//   - any: the reply payload (a map to merge at the wire frame's top
//     level) when ok is true.
//   - bool: true if the capability check passed and the method ran.
func (r *Router) Dispatch(caller *handle.Handle, method string, args map[string]any) (any, bool) {
	switch method {
	case "getApiKey":
		return r.getAPIKey(caller, args)
	case "restartService":
		return r.requireNsrvm(caller, func() (any, bool) {
			name, _ := args["serviceName"].(string)
			return map[string]any{"status": r.supervisor.RequestRestart(name)}, true
		})
	case "stopService":
		return r.requireNsrvm(caller, func() (any, bool) {
			name, _ := args["serviceName"].(string)
			return map[string]any{"status": r.supervisor.RequestStop(name)}, true
		})
	case "startService":
		return r.requireNsrvm(caller, func() (any, bool) {
			name, _ := args["serviceName"].(string)
			return map[string]any{"status": r.supervisor.RequestStart(name)}, true
		})
	case "restartServer":
		return r.requireNsrvm(caller, func() (any, bool) {
			// No reply: the supervisor exits before one could be sent.
			r.supervisor.RequestServerRestart()
			return nil, false
		})
	case "getServicesList":
		return r.requireNsrvm(caller, func() (any, bool) {
			return map[string]any{"services": r.listPayload()}, true
		})
	default:
		return nil, false
	}
}

// getAPIKey implements the getApiKey method: granted when caller's
// allowedAPI set contains the target serviceName itself, or the
// "nsrvm" supervisor-wide sentinel.
func (r *Router) getAPIKey(caller *handle.Handle, args map[string]any) (any, bool) {
	name, _ := args["serviceName"].(string)
	if name == "" {
		return nil, false
	}
	if !caller.Config.HasCapability(name) {
		return nil, false
	}
	port, ok := r.supervisor.APIPort(name)
	if !ok {
		return nil, false
	}
	key, err := r.keys.Ensure(name)
	if err != nil {
		return nil, false
	}
	return map[string]any{
		"serviceName": name,
		"apiPort":     port,
		"apiKey":      key,
	}, true
}

// requireNsrvm gates fn behind the "nsrvm" supervisor-wide capability.
func (r *Router) requireNsrvm(caller *handle.Handle, fn func() (any, bool)) (any, bool) {
	if !caller.Config.HasCapability("nsrvm") {
		return nil, false
	}
	return fn()
}

// listPayload converts the supervisor's handle snapshots into the
// getServicesList wire shape.
func (r *Router) listPayload() []map[string]any {
	snaps := r.supervisor.List()
	out := make([]map[string]any, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, map[string]any{
			"serviceName": s.ServiceName,
			"api":         s.API,
			"status":      s.Status,
		})
	}
	return out
}
