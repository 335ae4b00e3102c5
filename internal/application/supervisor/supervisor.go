// Package supervisor provides the application service tying the domain
// Reconciler, Control-Plane Router, and per-child message dispatch
// together into a single running supervisor instance.
package supervisor

import (
	"encoding/json"
	"fmt"

	appconfig "github.com/orlv/nsrvm/internal/application/config"
	domainbroker "github.com/orlv/nsrvm/internal/domain/broker"
	domainconfig "github.com/orlv/nsrvm/internal/domain/config"
	domaincontrol "github.com/orlv/nsrvm/internal/domain/control"
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/identity"
	"github.com/orlv/nsrvm/internal/domain/kernel"
	"github.com/orlv/nsrvm/internal/domain/logging"
	"github.com/orlv/nsrvm/internal/domain/reconcile"
)

// State represents the supervisor's own run state.
type State int

// Supervisor state constants.
const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

// Errors for supervisor operations.
var (
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = fmt.Errorf("supervisor: already running")
	// ErrNotRunning is returned when a control operation is attempted
	// before Run or after Shutdown.
	ErrNotRunning = fmt.Errorf("supervisor: not running")
)

// ConfigSource supplies the initial configuration snapshot and watches
// for subsequent changes; it composes the Config Store's two
// application-level ports (Loader and Watcher) into the single
// dependency this package needs.
type ConfigSource interface {
	appconfig.Loader
	appconfig.Watcher
}

// ProcessExitFn terminates the supervisor's own process; injected so
// the domain/application layers never call os.Exit directly.
type ProcessExitFn func(code int)

// Supervisor is the top-level application service: one Mailbox, one
// Reconciler, one Router, wired to a configuration source and the set
// of per-child broker connections.
type Supervisor struct {
	mailbox    *kernel.Mailbox
	reconciler *reconcile.Reconciler
	router     *domaincontrol.Router
	keys       *identity.Registry
	config     ConfigSource
	logger     logging.Logger
	exit       ProcessExitFn

	state State
}

// New creates a Supervisor. The Reconciler and Router must already be
// constructed with this Supervisor's mailbox.Submit as their submit
// function (see bootstrap wiring), since this type only orchestrates
// their lifecycle, it does not own their dependency graph.
//
// Params:
//   - mailbox: the single serialized kernel job queue.
//   - reconciler: the wired Reconciler.
//   - router: the wired Control-Plane Router.
//   - keys: the api-key registry, pre-populated eagerly by bootstrap
//     for every service present at initial load.
//   - config: the configuration source.
//   - logger: destination for supervisor-level diagnostics.
//   - exit: terminates the host process; os.Exit in production, a
//     recording stub in tests.
//
// Returns:
//   - *Supervisor: the constructed, not-yet-running supervisor.
func New(mailbox *kernel.Mailbox, reconciler *reconcile.Reconciler, router *domaincontrol.Router, keys *identity.Registry, config ConfigSource, logger logging.Logger, exit ProcessExitFn) *Supervisor {
	return &Supervisor{
		mailbox:    mailbox,
		reconciler: reconciler,
		router:     router,
		keys:       keys,
		config:     config,
		logger:     logger,
		exit:       exit,
		state:      StateStopped,
	}
}

// Run starts the kernel run loop, loads the initial configuration, and
// begins watching for changes. It returns once the initial
// reconciliation has been submitted; the kernel loop keeps running on
// its own goroutine until Shutdown.
//
// Returns:
//   - error: ErrAlreadyRunning if called more than once.
func (s *Supervisor) Run() error {
	if s.state != StateStopped {
		return ErrAlreadyRunning
	}
	s.state = StateStarting

	go s.mailbox.Run()

	snap := s.config.Load().Normalize()
	for name := range snap.Services {
		if _, err := s.keys.Ensure(name); err != nil {
			s.logger.Error(name, "key_mint_failed", "minting initial api key", map[string]any{"error": err.Error()})
		}
	}

	s.mailbox.Submit(func() { s.reconciler.ApplyConfig(snap) })

	// Watch blocks running its own event loop until Close is called, so
	// it runs on its own goroutine; a setup-time error would have
	// already surfaced from the constructor used to build s.config.
	go func() {
		if err := s.config.Watch(func(next domainconfig.Snapshot) {
			next = next.Normalize()
			s.mailbox.Submit(func() { s.reconciler.ApplyConfig(next) })
		}); err != nil {
			s.logger.Error("", "config_watch_failed", "watching configuration for changes", map[string]any{"error": err.Error()})
		}
	}()

	s.state = StateRunning
	return nil
}

// RequestServerRestart implements the restartServer control-plane
// method: it satisfies domaincontrol.Supervisor by queuing a job that
// runs the Reconciler's Shutdown and terminates the host process once
// every child has stopped. It returns as soon as the job is queued.
func (s *Supervisor) RequestServerRestart() {
	s.mailbox.Submit(func() {
		s.state = StateStopping
		s.reconciler.Shutdown(func() {
			_ = s.config.Close()
			s.exit(0)
		})
	})
}

// Lookup satisfies domaincontrol.Supervisor.
func (s *Supervisor) Lookup(name string) (*handle.Handle, bool) { return s.reconciler.Lookup(name) }

// List satisfies domaincontrol.Supervisor.
func (s *Supervisor) List() []handle.Snapshot { return s.reconciler.List() }

// APIPort satisfies domaincontrol.Supervisor.
func (s *Supervisor) APIPort(name string) (int, bool) { return s.reconciler.APIPort(name) }

// RequestStart satisfies domaincontrol.Supervisor.
func (s *Supervisor) RequestStart(name string) bool { return s.reconciler.RequestStart(name) }

// RequestStop satisfies domaincontrol.Supervisor.
func (s *Supervisor) RequestStop(name string) bool { return s.reconciler.RequestStop(name) }

// RequestRestart satisfies domaincontrol.Supervisor.
func (s *Supervisor) RequestRestart(name string) bool { return s.reconciler.RequestRestart(name) }

// DispatchChildFrame handles one inbound message from a service's own
// child process, per §4.3's message table. Every reply (including the
// denial/no-reply cases for "api") echoes the inbound _reqId unless ok
// is false, per the "no reply at all" denial contract.
//
// Params:
//   - caller: the handle this frame arrived on.
//   - frame: the decoded inbound frame.
//
// Returns:
//   - map[string]any: the reply fields to merge with the echoed
//     _reqId, nil if no reply should be sent.
//   - bool: false when the caller should send no reply at all.
func (s *Supervisor) DispatchChildFrame(caller *handle.Handle, frame domainbroker.Frame) (map[string]any, bool) {
	cmd, _ := frame.Cmd()
	switch cmd {
	case "getConfig":
		key, _ := s.keys.Get(caller.Config.Name)
		return map[string]any{"config": caller.Config, "apiKey": key}, true

	case "api":
		// The api body is flat per the wire schema: method sits alongside
		// its own arguments (e.g. serviceName) at the frame's top level,
		// not nested under a separate "args" key — this mirrors exactly
		// what sdk.Client.Call merges into its request body.
		var method string
		_ = frame.Field("method", &method)
		args := make(map[string]any, len(frame))
		for key, raw := range frame {
			if key == domainbroker.CmdField || key == domainbroker.ReqIDField || key == "method" {
				continue
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				continue
			}
			args[key] = v
		}
		result, ok := s.router.Dispatch(caller, method, args)
		if !ok {
			s.logger.Warn(caller.Config.Name, "api_denied", "capability check failed", map[string]any{"method": method})
			return nil, false
		}
		payload, _ := result.(map[string]any)
		if payload == nil {
			payload = map[string]any{}
		}
		return payload, true

	case "setPublicApi":
		var raw []handle.APIDescriptor
		if err := frame.Field("api", &raw); err != nil {
			return map[string]any{}, true
		}
		if err := caller.SetAPI(raw); err != nil {
			s.logger.Warn(caller.Config.Name, "set_api_rejected", "invalid public api descriptor list", map[string]any{"error": err.Error()})
		}
		return map[string]any{}, true

	case "exit":
		s.mailbox.Submit(func() { s.reconciler.RequestStop(caller.Config.Name) })
		return map[string]any{}, true

	case "setChildServices":
		var raw []struct {
			Name   string                   `json:"name"`
			Config domainconfig.ServiceConfig `json:"config"`
		}
		if err := frame.Field("services", &raw); err != nil {
			return map[string]any{}, true
		}
		requests := make([]reconcile.ChildRequest, 0, len(raw))
		for _, r := range raw {
			requests = append(requests, reconcile.ChildRequest{Name: r.Name, Config: r.Config})
		}
		s.reconciler.SetChildServices(caller.Config.Name, requests)
		return map[string]any{}, true

	default:
		s.logger.Warn(caller.Config.Name, "unknown_command", "unrecognized child command", map[string]any{"cmd": cmd})
		return map[string]any{}, true
	}
}
