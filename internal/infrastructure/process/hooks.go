package process

import (
	"context"
	"time"

	"github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/infrastructure/process/executor"
)

// defaultHookTimeout bounds a hook command with no explicit RunTimeout,
// so a misconfigured hook can never hang the lifecycle it gates.
const defaultHookTimeout = 30 * time.Second

// HookExecutor implements process.HookRunner by running each hook
// through exec.CommandContext, honoring WaitForClose and RunTimeout.
type HookExecutor struct{}

// NewHookExecutor creates a HookExecutor.
//
// Returns:
//   - *HookExecutor: the constructed runner.
func NewHookExecutor() *HookExecutor {
	return &HookExecutor{}
}

// Run executes cmd, blocking until exit when WaitForClose is set and
// force-terminating it after RunTimeout (or defaultHookTimeout, if
// unset) elapses.
//
// Params:
//   - cmd: the hook command to run.
//
// Returns:
//   - error: any error starting the command; when WaitForClose is set,
//     also its exit error (a non-zero exit, or the kill after the timeout).
func (h *HookExecutor) Run(cmd config.HookCommand) error {
	timeout := defaultHookTimeout
	if cmd.RunTimeout > 0 {
		timeout = time.Duration(cmd.RunTimeout) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	c := executor.TrustedCommand(ctx, cmd.App, cmd.Args...)

	if !cmd.WaitForClose {
		err := c.Start()
		go func() {
			defer cancel()
			_ = c.Wait()
		}()
		return err
	}
	defer cancel()
	return c.Run()
}
