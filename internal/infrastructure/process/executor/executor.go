//go:build unix

// Package executor provides infrastructure adapters for OS process execution.
// It implements the domain process interfaces using Unix system calls.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	domain "github.com/orlv/nsrvm/internal/domain/process"
	"github.com/orlv/nsrvm/internal/domain/shared"
	"github.com/orlv/nsrvm/internal/infrastructure/process/control"
	"github.com/orlv/nsrvm/internal/infrastructure/process/credentials"
)

// Waiter is a minimal interface for waiting on commands.
// It abstracts exec.Cmd.Wait() for testability.
type Waiter interface {
	Wait() error
}

// Process is an interface for process operations.
// It abstracts os.Process methods for testability.
type Process interface {
	Signal(sig os.Signal) error
	Kill() error
	Wait() (*os.ProcessState, error)
}

// ProcessFinder is a function type for finding processes.
// It abstracts os.FindProcess for testability.
type ProcessFinder func(pid int) (Process, error)

// Executor implements the domain.Executor interface for Unix systems.
// It wraps the standard library exec.Cmd to provide process lifecycle management
// with support for credentials, environment variables, and signal handling.
type Executor struct {
	credentials credentials.CredentialManager
	process     control.ProcessControl
	findProcess ProcessFinder
}

// NewWithDeps creates a new Unix process executor with injected dependencies.
// This is the primary constructor for Wire dependency injection.
//
// Params:
//   - creds: the credential manager for user/group resolution.
//   - proc: the process control for process group management.
//
// Returns:
//   - *Executor: a configured executor instance.
func NewWithDeps(creds credentials.CredentialManager, proc control.ProcessControl) *Executor {
	// Create and return executor with injected dependencies.
	return &Executor{
		credentials: creds,
		process:     proc,
		findProcess: defaultFindProcess,
	}
}

// Start starts a process with the given specification and returns its PID.
// This method spawns a background goroutine to monitor the process lifecycle.
// The goroutine terminates when the spawned process exits (normally or via signal).
// Resources: The goroutine uses a buffered channel (size 1) for the exit result.
// Thread-safety: The wait channel is safe to read from any goroutine.
// Cleanup: The channel is closed after sending the result.
//
// Params:
//   - ctx: context for command cancellation.
//   - spec: process specification containing command, args, env, and credentials.
//
// Returns:
//   - int: the process ID of the started process.
//   - <-chan domain.ExitResult: channel that receives exit result when process terminates.
//   - error: any error encountered during process start.
func (e *Executor) Start(ctx context.Context, spec domain.Spec) (pid int, wait <-chan domain.ExitResult, err error) {
	// Build the command from specification
	cmd, err := e.buildCommand(ctx, spec)
	// Check if command building failed
	if err != nil {
		// Return error if command could not be built
		return 0, nil, err
	}

	// Configure user and group credentials if specified
	if err := e.configureCredentials(cmd, spec.User, spec.Group); err != nil {
		// Return error if credentials configuration failed
		return 0, nil, err
	}

	// Start the process
	if err := cmd.Start(); err != nil {
		if spec.OnSpawn != nil {
			spec.OnSpawn(0, err)
		}
		// Return error if process failed to start
		return 0, nil, fmt.Errorf("starting process: %w", err)
	}

	if spec.OnSpawn != nil {
		spec.OnSpawn(cmd.Process.Pid, nil)
	}

	// Create channel for exit result notification
	waitCh := make(chan domain.ExitResult, 1)
	// Launch goroutine to wait for process completion
	go e.waitForProcess(cmd, waitCh)

	// Return process ID and wait channel
	return cmd.Process.Pid, waitCh, nil
}

// waitForProcess waits for the command to complete and sends the result.
//
// Params:
//   - cmd: the command waiter interface to wait on
//   - wait: channel to send the exit result
//
// Returns:
//   - None (sends result via channel)
func (e *Executor) waitForProcess(cmd Waiter, wait chan<- domain.ExitResult) {
	// Wait for process to complete
	err := cmd.Wait()
	// Initialize result with zero exit code
	result := domain.ExitResult{}
	// Check if process exited with an error
	if err != nil {
		// Try to extract exit code from error
		var exitErr *exec.ExitError
		// Handle exit error type to extract exit code
		if errors.As(err, &exitErr) {
			// Set exit code from exit error
			result.Code = exitErr.ExitCode()
		} else {
			// Set error code for non-exit errors
			result.Code = -1
			result.Error = err
		}
	}
	// Send result to wait channel
	wait <- result
	// Close channel to signal completion
	close(wait)
}

// Signal sends a signal to the process with the given PID.
//
// Params:
//   - pid: the process ID to signal
//   - sig: the signal to send
//
// Returns:
//   - error: any error encountered during signal delivery
func (e *Executor) Signal(pid int, sig os.Signal) error {
	// Find the process by PID
	proc, err := e.findProcess(pid)
	// Check if process lookup failed
	if err != nil {
		// Return error if process not found
		return fmt.Errorf("finding process: %w", err)
	}
	// Send the signal and return result
	return proc.Signal(sig)
}

// buildCommand creates an exec.Cmd from the specification.
//
// Params:
//   - ctx: context for command cancellation
//   - spec: process specification with command, args, and environment
//
// Returns:
//   - *exec.Cmd: configured command ready to execute
//   - error: any error encountered during command building
func (e *Executor) buildCommand(ctx context.Context, spec domain.Spec) (*exec.Cmd, error) {
	// Split command string into parts
	parts := strings.Fields(spec.Command)
	// Check if command is empty
	if len(parts) == 0 {
		// Return error for empty command
		return nil, shared.ErrEmptyCommand
	}

	// Initialize args slice with preallocated capacity
	args := make([]string, 0, len(parts)-1+len(spec.Args))
	args = append(args, parts[1:]...)
	// Append additional args from spec
	args = append(args, spec.Args...)

	// Create command with context for cancellation support
	cmd := TrustedCommand(ctx, parts[0], args...)

	// Set working directory if specified
	if spec.Dir != "" {
		// Configure command working directory
		cmd.Dir = spec.Dir
	}

	// Initialize environment with current process environment.
	// Pre-allocate capacity for spec.Env additions.
	baseEnv := os.Environ()
	cmd.Env = make([]string, len(baseEnv), len(baseEnv)+len(spec.Env))
	copy(cmd.Env, baseEnv)
	// Append custom environment variables using string concatenation (faster than fmt.Sprintf).
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	// Note: stdout/stderr are left unset, so os/exec connects them to the
// null device.
	// I/O configuration is handled at infrastructure level (e.g., logging/capture)
	// rather than through domain Spec, following hexagonal architecture.

	// Set process group for signal forwarding
	e.process.SetProcessGroup(cmd)

	// Attach any extra files (the parent/child IPC channel's child end
	// always lands first here, so it reaches the child as fd 3).
	if len(spec.ExtraFiles) > 0 {
		cmd.ExtraFiles = append(cmd.ExtraFiles, spec.ExtraFiles...)
	}

	// Return configured command
	return cmd, nil
}

// configureCredentials sets up user/group credentials on the command.
//
// Params:
//   - cmd: the exec.Cmd to configure
//   - user: username or UID to run as (empty string to skip)
//   - group: group name or GID to run as (empty string to skip)
//
// Returns:
//   - error: any error encountered during credentials configuration
func (e *Executor) configureCredentials(cmd *exec.Cmd, user, group string) error {
	// Check if credentials are specified
	if user == "" && group == "" {
		// Skip configuration if no credentials specified
		return nil
	}

	// Resolve user and group to UID and GID
	uid, gid, err := e.credentials.ResolveCredentials(user, group)
	// Check if resolution failed
	if err != nil {
		// Return error if credentials could not be resolved
		return fmt.Errorf("resolving credentials: %w", err)
	}

	// Apply resolved credentials to command
	if err := e.credentials.ApplyCredentials(cmd, uid, gid); err != nil {
		// Return error if credentials could not be applied
		return fmt.Errorf("applying credentials: %w", err)
	}

	// Return nil on success
	return nil
}
