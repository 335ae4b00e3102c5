// Package handle provides the domain Service Handle: the one-per-child
// runtime record owning a live process's configuration, pending
// replies, advertised public API, and registered sub-service list.
package handle

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orlv/nsrvm/internal/domain/broker"
	"github.com/orlv/nsrvm/internal/domain/config"
)

// State is the Lifecycle Controller's state for a handle.
type State int

// Lifecycle states, per the state machine driving each handle from
// spawn through exit.
const (
	// Absent is both the initial and terminal state: no process is
	// attached.
	Absent State = iota
	// Starting covers runBeforeStart hooks, the wait-before-start pause,
	// and the spawn call itself.
	Starting
	// Running is the steady state: a live process with attached
	// message and exit handlers.
	Running
	// Stopping covers the graceful-stop window between the interrupt
	// signal and either the exit event or the kill-timer escalation.
	Stopping
	// Crashed is a transient state entered on an unexpected non-zero
	// exit, covering runAfterExit hooks and the restart-delay window.
	Crashed
)

// String returns the lifecycle state's name.
//
// Returns:
//   - string: the state name.
func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Crashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// APIDescriptor is one entry of a service's advertised public-API list.
type APIDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Handle is the runtime record for one launched (or about-to-be
// launched) child service.
//
// A Handle is owned exclusively by the cooperative kernel goroutine
// that mutates SupervisorState; its mutex exists only to let read-only
// observers (e.g. getServicesList, an admin-socket query) take a
// consistent snapshot concurrently with kernel mutation, not to permit
// concurrent writers.
type Handle struct {
	mu sync.RWMutex

	// InstanceID is a fresh identifier minted each time New is called,
	// distinguishing one spawn attempt of a given service name from the
	// next (e.g. across a crash-restart) in log correlation, since the
	// service name itself is stable across the handle's whole lifetime.
	InstanceID string

	// Config is the currently applied ServiceConfig; overwritten in
	// place by the Reconciler's config-refresh phase.
	Config config.ServiceConfig

	// State is the Lifecycle Controller's current state for this handle.
	State State

	// PID is the OS process id of the attached process; 0 when Absent.
	PID int

	// Dead is true iff no running process is currently attached. It is
	// kept independent of State so the broker's liveness gate
	// (never write to a dead handle) is a single, cheap field read.
	Dead bool

	// API is the advertised public-method descriptor list, validated on
	// receipt of setPublicApi.
	API []APIDescriptor

	// Pending is this handle's private request/reply correlation table.
	// It is never shared across handles.
	Pending *broker.PendingTable

	// Counter issues this handle's outbound correlation ids.
	Counter *broker.CorrelationCounter

	// RestartTimer is the pending fixed-delay crash-restart timer, set
	// while State is Crashed; cancellable by Stop. Nil otherwise. Owned
	// exclusively by the kernel goroutine, like State and PID.
	RestartTimer *time.Timer

	// KillTimer is the pending graceful-stop escalation timer, armed
	// while State is Stopping; cancelled when the exit event arrives
	// before it fires. Nil otherwise.
	KillTimer *time.Timer

	// StopDone is closed by the Lifecycle Controller once a requested
	// stop completes (the handle reaches Absent). Callers awaiting a
	// stop in parallel (the Reconciler's stop phase) receive from it;
	// nil when no stop is in flight.
	StopDone chan struct{}
}

// New creates a Handle in the Absent state for cfg.
//
// Params:
//   - cfg: the service configuration to apply.
//
// Returns:
//   - *Handle: the constructed handle.
func New(cfg config.ServiceConfig) *Handle {
	return &Handle{
		InstanceID: uuid.NewString(),
		Config:     cfg,
		State:      Absent,
		Dead:       true,
		API:        []APIDescriptor{},
		Pending:    broker.NewPendingTable(broker.DefaultReplyTimeout),
		Counter:    broker.NewCorrelationCounter(),
	}
}

// Snapshot is a read-only, race-free view of a handle's externally
// visible fields, used by getServicesList and admin queries.
type Snapshot struct {
	ServiceName string
	API         []APIDescriptor
	Status      bool
}

// Snapshot returns a consistent point-in-time view of h.
//
// Returns:
//   - Snapshot: the handle's externally visible state.
func (h *Handle) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Snapshot{
		ServiceName: h.Config.Name,
		API:         append([]APIDescriptor(nil), h.API...),
		Status:      !h.Dead,
	}
}

// SetAPI validates and replaces the handle's advertised public-API
// descriptor list. Per the data-model invariant, at most 16 entries are
// accepted, each with a 1-32 character name and a 0-128 character
// description.
//
// Params:
//   - descriptors: the proposed replacement list.
//
// Returns:
//   - error: ErrTooManyDescriptors or ErrInvalidDescriptor if the list
//     fails validation; the existing list is left untouched on error.
func (h *Handle) SetAPI(descriptors []APIDescriptor) error {
	if err := ValidateAPI(descriptors); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.API = append([]APIDescriptor(nil), descriptors...)
	return nil
}
