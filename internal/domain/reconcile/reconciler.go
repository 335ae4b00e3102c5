// Package reconcile provides the Reconciler: the component that
// diffs desired configuration against the live handle set and drives
// the Lifecycle Controller to converge them.
package reconcile

import (
	"sync"

	"github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/identity"
	"github.com/orlv/nsrvm/internal/domain/logging"
	"github.com/orlv/nsrvm/internal/domain/process"
)

// Controller is the Lifecycle Controller surface the Reconciler
// drives. Start blocks on hooks/spawn and Stop is fast/non-blocking;
// both return/signal through the shared submit function rather than
// synchronously, so the Reconciler never blocks the kernel goroutine
// waiting on child I/O.
type Controller interface {
	Start(h *handle.Handle, spec process.Spec)
	Stop(h *handle.Handle) <-chan struct{}
}

// SpecResolver builds a process.Spec for a resolved module path and
// service configuration; the infrastructure layer supplies the
// concrete interpreter/argv rules (e.g. running a .js file under a
// Node.js host vs. executing a Go binary directly) and attaches the
// handle's IPC channel via Spec.ExtraFiles/OnSpawn.
type SpecResolver interface {
	Resolve(h *handle.Handle, modulePath string, cfg config.ServiceConfig) process.Spec
}

// Reconciler owns the live handle set and the desired-state map, and
// implements the three-phase convergence algorithm.
//
// Every exported method is a Mailbox Job: it is invoked only via
// submit, runs to completion on the single serialized kernel goroutine,
// and never blocks on child I/O. Suspension points (hooks, spawn,
// awaiting a stop) run on separate goroutines spawned here; their
// results are folded back in by submitting a continuation Job, so the
// kernel goroutine is always free to process the next Job while a
// phase's I/O is in flight.
type Reconciler struct {
	servicesDir string
	controller  Controller
	resolver    SpecResolver
	keys        *identity.Registry
	logger      logging.Logger
	submit      func(func())

	handles map[string]*handle.Handle
	desired map[string]config.ServiceConfig
	// childNames retains, per parent name, the sub-service names it has
	// registered via setChildServices.
	childNames map[string][]string
}

// New creates a Reconciler with an empty handle set.
//
// Params:
//   - servicesDir: the directory module paths resolve beneath.
//   - controller: the Lifecycle Controller driving handles.
//   - resolver: builds a process.Spec from a resolved module path.
//   - keys: the api-key registry minted for new services.
//   - logger: destination for reconciliation diagnostics.
//   - submit: schedules a function to run on the single serialized
//     kernel goroutine; every Reconciler entry point, and every
//     continuation after a phase's background I/O completes, runs via
//     this function.
//
// Returns:
//   - *Reconciler: the constructed reconciler.
func New(servicesDir string, controller Controller, resolver SpecResolver, keys *identity.Registry, logger logging.Logger, submit func(func())) *Reconciler {
	return &Reconciler{
		servicesDir: servicesDir,
		controller:  controller,
		resolver:    resolver,
		keys:        keys,
		logger:      logger,
		submit:      submit,
		handles:     make(map[string]*handle.Handle),
		desired:     make(map[string]config.ServiceConfig),
		childNames:  make(map[string][]string),
	}
}

// Lookup returns the handle registered under name, if any. Callers
// invoke this via submit, like every other Reconciler method.
func (r *Reconciler) Lookup(name string) (*handle.Handle, bool) {
	h, ok := r.handles[name]
	return h, ok
}

// List returns a snapshot of every currently registered handle.
func (r *Reconciler) List() []handle.Snapshot {
	out := make([]handle.Snapshot, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h.Snapshot())
	}
	return out
}

// APIPort returns the configured apiPort for name.
func (r *Reconciler) APIPort(name string) (int, bool) {
	cfg, ok := r.desired[name]
	if !ok {
		return 0, false
	}
	return cfg.APIPort, true
}

// ApplyConfig replaces the desired-state map wholesale (a fresh config
// load or reload) and runs a full reconciliation.
//
// Params:
//   - snap: the newly loaded, normalized configuration snapshot.
func (r *Reconciler) ApplyConfig(snap config.Snapshot) {
	r.desired = make(map[string]config.ServiceConfig, len(snap.Services))
	for name, cfg := range snap.Services {
		r.desired[name] = cfg
	}
	r.Reconcile()
}

// SetChildServices implements the setChildServices operation for
// parent P, per §4.7's registration algorithm, then triggers a full
// reconciliation.
//
// Params:
//   - parentName: P's service name.
//   - requested: the new sub-service list L.
//
// Returns:
//   - bool: false if rejected outright (|L| > P.config.maxChilds); the
//     desired state and P's allowedAPI are left untouched in that case.
func (r *Reconciler) SetChildServices(parentName string, requested []ChildRequest) bool {
	parent, ok := r.handles[parentName]
	if !ok {
		return false
	}

	nextRetained, nextAllowed, ok := ApplyChildServices(
		parentName, parent.Config.MaxChilds, r.childNames[parentName], requested, r.desired, parent.Config.AllowedAPI,
	)
	if !ok {
		return false
	}

	r.childNames[parentName] = nextRetained
	parent.Config.AllowedAPI = nextAllowed

	r.Reconcile()
	return true
}

// RequestStop stops name if a live handle exists for it.
//
// Returns:
//   - bool: true if a stop was issued (or the handle was already down).
func (r *Reconciler) RequestStop(name string) bool {
	h, ok := r.handles[name]
	if !ok {
		return false
	}
	r.controller.Stop(h)
	return true
}

// RequestStart starts name by re-running a full reconciliation, which
// picks up any desired entry without a live handle.
//
// Returns:
//   - bool: true if name is present in the desired set.
func (r *Reconciler) RequestStart(name string) bool {
	if _, ok := r.desired[name]; !ok {
		return false
	}
	r.Reconcile()
	return true
}

// RequestRestart stops then, once the stop completes, restarts name.
//
// Returns:
//   - bool: true if name currently has a live handle.
func (r *Reconciler) RequestRestart(name string) bool {
	h, ok := r.handles[name]
	if !ok {
		return false
	}
	done := r.controller.Stop(h)
	go func() {
		<-done
		r.submit(func() { r.Reconcile() })
	}()
	return true
}

// Shutdown implements the restartServer operation: snapshot the live
// handles, clear desired state, stop every snapshotted handle in
// parallel, and invoke onDone once all have stopped. The core never
// executes the external restart command itself.
//
// Params:
//   - onDone: invoked (off the kernel goroutine) once every handle has
//     stopped; the caller uses this to terminate the process.
func (r *Reconciler) Shutdown(onDone func()) {
	snapshot := make([]*handle.Handle, 0, len(r.handles))
	for _, h := range r.handles {
		snapshot = append(snapshot, h)
	}
	r.desired = make(map[string]config.ServiceConfig)
	r.handles = make(map[string]*handle.Handle)
	r.childNames = make(map[string][]string)

	dones := make([]<-chan struct{}, 0, len(snapshot))
	for _, h := range snapshot {
		dones = append(dones, r.controller.Stop(h))
	}
	go func() {
		awaitAll(dones)
		onDone()
	}()
}

// Reconcile runs the three-phase convergence algorithm against the
// current desired-state map: the stop phase's synchronous part runs
// here; its background waits continue into the refresh and start
// phases via a submitted continuation.
func (r *Reconciler) Reconcile() {
	var dones []<-chan struct{}
	for name, h := range r.handles {
		cfg, ok := r.desired[name]
		if ok && cfg.APIPort == h.Config.APIPort {
			continue
		}
		dones = append(dones, r.controller.Stop(h))
	}

	go func() {
		awaitAll(dones)
		r.submit(func() {
			r.pruneStopped()
			r.refreshPhase()
			r.startPhase()
		})
	}()
}

// pruneStopped drops handles that are dead and no longer desired.
func (r *Reconciler) pruneStopped() {
	for name, h := range r.handles {
		if h.Dead {
			if _, ok := r.desired[name]; !ok {
				delete(r.handles, name)
			}
		}
	}
}

// refreshPhase overwrites each existing handle's config in place and
// mints a missing api key for every desired service.
func (r *Reconciler) refreshPhase() {
	for name, cfg := range r.desired {
		if h, ok := r.handles[name]; ok {
			h.Config = cfg
		}
		if _, err := r.keys.Ensure(name); err != nil {
			r.logger.Error(name, "key_mint_failed", "minting api key", map[string]any{"error": err.Error()})
		}
	}
}

// startPhase resolves and spawns every desired service without a live,
// non-dead handle. Each start runs on its own goroutine (the model's
// suspension points); the phase itself does not await them, matching
// the "no ordering guarantee across services" rule — a caller that
// needs to know when every start attempt has resolved (e.g. tests)
// should await the per-handle state instead.
func (r *Reconciler) startPhase() {
	for name, cfg := range r.desired {
		if h, ok := r.handles[name]; ok && !h.Dead {
			continue
		}

		modulePath, err := ResolveModulePath(r.servicesDir, cfg)
		if err != nil {
			r.logger.Warn(name, "module_not_found", "resolving module path", map[string]any{"error": err.Error()})
			continue
		}

		h := handle.New(cfg)
		r.handles[name] = h
		spec := r.resolver.Resolve(h, modulePath, cfg)
		go r.controller.Start(h, spec)
	}
}

// awaitAll blocks until every channel in dones is closed.
func awaitAll(dones []<-chan struct{}) {
	var wg sync.WaitGroup
	wg.Add(len(dones))
	for _, done := range dones {
		go func(done <-chan struct{}) {
			defer wg.Done()
			<-done
		}(done)
	}
	wg.Wait()
}
