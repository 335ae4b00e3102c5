//go:build unix

package process

import (
	"fmt"
	"syscall"

	domain "github.com/orlv/nsrvm/internal/domain/process"
)

// Interrupter implements lifecycle.Signaler by delivering a native
// SIGINT through the domain Executor port. The in-band "SIGINT"
// sentinel string exists for hosts with no native signal delivery
// (Windows); this build only targets Unix, where a real signal is
// always available, so that path has no adapter here.
type Interrupter struct {
	executor domain.Executor
}

// NewInterrupter creates an Interrupter.
//
// Params:
//   - executor: the process signal port.
//
// Returns:
//   - *Interrupter: the constructed interrupter.
func NewInterrupter(executor domain.Executor) *Interrupter {
	return &Interrupter{executor: executor}
}

// Interrupt sends SIGINT to pid.
//
// Params:
//   - pid: the target process id.
//
// Returns:
//   - error: any error delivering the signal.
func (i *Interrupter) Interrupt(pid int) error {
	if err := i.executor.Signal(pid, syscall.SIGINT); err != nil {
		return fmt.Errorf("sending SIGINT: %w", err)
	}
	return nil
}
