package process

import (
	"time"

	"github.com/orlv/nsrvm/internal/domain/config"
)

// HookRunner executes a single runBeforeStart/runAfterExit hook
// command. Implementations honor WaitForClose (block until exit or
// fire-and-forget) and RunTimeout (force-terminate after the given
// duration, logging but not failing the hook sequence).
type HookRunner interface {
	// Run executes cmd.
	//
	// Params:
	//   - cmd: the hook command to run.
	//
	// Returns:
	//   - error: any error starting the command; a timeout is not an
	//     error (the caller logs it separately).
	Run(cmd config.HookCommand) error
}

// RunHooks runs each hook in order using runner, honoring WaitForClose.
// A hook's own error is logged by the caller and does not abort the
// remaining hooks in the sequence — the spec only requires they run "in
// order", not that a failure short-circuits them.
//
// Params:
//   - runner: the hook execution port.
//   - hooks: the ordered hook sequence.
//   - onError: invoked with each hook's error, if any.
func RunHooks(runner HookRunner, hooks []config.HookCommand, onError func(config.HookCommand, error)) {
	for _, h := range hooks {
		if err := runner.Run(h); err != nil && onError != nil {
			onError(h, err)
		}
	}
}

// Delay pauses for the given number of milliseconds, or returns
// immediately if ms <= 0. This is a named suspension point matching the
// "delay(waitBeforeStart/waitAfterExit)" point enumerated for the
// supervisor kernel's cooperative scheduling model.
//
// Params:
//   - ms: the delay in milliseconds.
func Delay(ms int) {
	if ms <= 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
