// Package lifecycle provides the domain Lifecycle Controller: the
// per-handle state machine driving a child service from Absent through
// Starting, Running, Stopping/Crashed, and back to Absent.
package lifecycle

import (
	"context"
	"os"
	"time"

	"github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/logging"
	"github.com/orlv/nsrvm/internal/domain/process"
)

// Timing constants fixed by the concurrency model: graceful stop waits
// this long for exit before escalating to SIGKILL; a crash schedules a
// restart after this fixed delay (no exponential back-off); reply
// correlation timeout lives in the broker package.
const (
	KillTimeout  = 5000 * time.Millisecond
	RestartDelay = 3000 * time.Millisecond
)

// Signaler abstracts sending the platform interrupt to a running
// child: a native SIGINT on POSIX, or the in-band "SIGINT" sentinel
// message where no native signal delivery exists (Windows).
type Signaler interface {
	// Interrupt delivers the graceful-stop request to pid.
	Interrupt(pid int) error
}

// Controller drives handles through their lifecycle. All state
// mutation happens on the caller-supplied submit function, so a single
// Controller is safe to drive many concurrently-starting/stopping
// handles as long as submit itself serializes onto one goroutine (see
// kernel.Mailbox).
type Controller struct {
	executor process.Executor
	hooks    process.HookRunner
	signals  Signaler
	logger   logging.Logger
	submit   func(func())

	// onRestart is invoked, under kernel serialization, when a scheduled
	// crash-restart's delay elapses and the handle is still eligible (no
	// intervening stop). It is the Reconciler's hook back into Start.
	onRestart func(h *handle.Handle)
}

// New creates a Controller.
//
// Params:
//   - executor: the process spawn/signal port.
//   - hooks: the runBeforeStart/runAfterExit execution port.
//   - signals: the graceful-interrupt delivery port.
//   - logger: destination for lifecycle diagnostics.
//   - submit: schedules a function to run on the single serialized
//     kernel goroutine; all handle/SupervisorState mutation happens
//     inside functions passed to submit.
//
// Returns:
//   - *Controller: the constructed controller.
func New(executor process.Executor, hooks process.HookRunner, signals Signaler, logger logging.Logger, submit func(func())) *Controller {
	return &Controller{executor: executor, hooks: hooks, signals: signals, logger: logger, submit: submit}
}

// SetOnRestart installs the callback invoked when a crash-restart timer
// elapses for an eligible handle. The Reconciler/Supervisor wires this
// to re-enter Start with a freshly resolved Spec.
//
// Params:
//   - fn: the restart callback.
func (c *Controller) SetOnRestart(fn func(h *handle.Handle)) {
	c.onRestart = fn
}

// Start drives h from Absent to Running (or back to Absent on spawn
// failure). It runs hooks and the spawn call on the calling goroutine —
// these are the model's suspension points — and reports back to the
// kernel goroutine via submit for every state mutation. Callers
// (Reconciler, restart callback) must invoke Start off the kernel
// goroutine since it blocks on hooks and the spawn call.
//
// Params:
//   - h: the handle to start; must currently be Absent.
//   - spec: the process specification to spawn.
func (c *Controller) Start(h *handle.Handle, spec process.Spec) {
	c.submit(func() { h.State = handle.Starting })

	c.runHooks(h, h.Config.RunBeforeStart, "runBeforeStart")
	process.Delay(h.Config.WaitBeforeStart)

	pid, wait, err := c.executor.Start(context.Background(), spec)
	if err != nil {
		c.logger.Error(h.Config.Name, "spawn_failed", "starting child process", map[string]any{"error": err.Error()})
		c.submit(func() {
			h.State = handle.Absent
			h.Dead = true
			h.PID = 0
		})
		return
	}

	c.submit(func() {
		h.State = handle.Running
		h.PID = pid
		h.Dead = false
	})

	go c.watch(h, wait)
}

// watch waits for the child's exit and routes the result to either the
// graceful-stop completion or the crash-restart path, depending on
// whether a stop was requested for h.
func (c *Controller) watch(h *handle.Handle, wait <-chan process.ExitResult) {
	result := <-wait
	c.submit(func() {
		wasStopping := h.State == handle.Stopping
		if h.KillTimer != nil {
			h.KillTimer.Stop()
			h.KillTimer = nil
		}
		h.Dead = true
		h.PID = 0

		switch {
		case wasStopping:
			h.State = handle.Absent
			if h.StopDone != nil {
				close(h.StopDone)
				h.StopDone = nil
			}
		case result.Code == 0:
			// Clean exit while not stopping is still terminal: no
			// restart is scheduled per the exit-code-0 transition rule.
			h.State = handle.Absent
		default:
			h.State = handle.Crashed
			go c.scheduleRestart(h)
		}
	})
}

// scheduleRestart runs runAfterExit hooks, waits waitAfterExit, then
// arms the fixed-delay restart timer.
func (c *Controller) scheduleRestart(h *handle.Handle) {
	c.runHooks(h, h.Config.RunAfterExit, "runAfterExit")
	process.Delay(h.Config.WaitAfterExit)

	c.submit(func() {
		if h.State != handle.Crashed {
			// A stop superseded the crash state while hooks/delay ran.
			return
		}
		h.RestartTimer = time.AfterFunc(RestartDelay, func() {
			c.submit(func() {
				if h.State != handle.Crashed {
					return
				}
				h.RestartTimer = nil
				if c.onRestart != nil {
					c.onRestart(h)
				}
			})
		})
	})
}

// Stop drives h from Running to Absent via the graceful-stop sequence:
// cancel any pending restart, arm the kill-timer, send the interrupt,
// and let the exit event (routed through watch) cancel the timer and
// complete the transition. If the kill-timer fires first, escalate to
// SIGKILL.
//
// Unlike Start, Stop does not block on child I/O beyond delivering the
// interrupt, so callers invoke it directly on the kernel goroutine
// (e.g. from within a Mailbox job); the returned channel is closed once
// the stop completes, for callers (the Reconciler's stop phase) that
// need to await several stops in parallel.
//
// Params:
//   - h: the handle to stop.
//
// Returns:
//   - <-chan struct{}: closed when h reaches Absent. Already closed if
//     h was not running.
func (c *Controller) Stop(h *handle.Handle) <-chan struct{} {
	done := make(chan struct{})
	if h.Dead {
		// A crashed handle may still have its restart pending (hooks
		// running or the delay timer armed); cancel it here too.
		if h.RestartTimer != nil {
			h.RestartTimer.Stop()
			h.RestartTimer = nil
		}
		if h.State == handle.Crashed {
			h.State = handle.Absent
		}
		close(done)
		return done
	}
	h.StopDone = done

	if h.RestartTimer != nil {
		h.RestartTimer.Stop()
		h.RestartTimer = nil
	}
	pid := h.PID
	h.State = handle.Stopping

	if err := c.signals.Interrupt(pid); err != nil {
		c.logger.Warn(h.Config.Name, "interrupt_failed", "sending graceful stop signal", map[string]any{"error": err.Error()})
	}

	h.KillTimer = time.AfterFunc(KillTimeout, func() {
		c.submit(func() {
			if h.State != handle.Stopping || h.Dead {
				return
			}
			_ = c.executor.Signal(pid, os.Kill)
		})
	})
	return done
}

// runHooks executes hooks in order via the HookRunner, logging but not
// aborting the sequence on individual hook failure.
func (c *Controller) runHooks(h *handle.Handle, hooks []config.HookCommand, stage string) {
	process.RunHooks(c.hooks, hooks, func(hook config.HookCommand, err error) {
		c.logger.Warn(h.Config.Name, "hook_failed", stage+" hook failed", map[string]any{
			"app": hook.App, "error": err.Error(),
		})
	})
}
