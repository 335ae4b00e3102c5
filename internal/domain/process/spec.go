// Package process provides domain entities and value objects for process lifecycle management.
package process

import "os"

// Spec contains process execution parameters.
// This is a value object passed to the Executor.
// Note: I/O configuration (stdout/stderr) is handled at the infrastructure layer,
// not in the domain, following hexagonal architecture principles.
type Spec struct {
	// Command is the executable path or command to run.
	Command string
	// Args contains command-line arguments.
	Args []string
	// Dir is the working directory.
	Dir string
	// Env contains environment variables as key=value pairs.
	Env map[string]string
	// User specifies the username to run as.
	User string
	// Group specifies the group to run as.
	Group string
	// ExtraFiles are additional open files passed to the child beyond
	// stdin/stdout/stderr, appended to exec.Cmd.ExtraFiles in order —
	// the parent/child IPC channel's child-side descriptor always lands
	// first here, so it reaches the child as fd 3.
	ExtraFiles []*os.File
	// OnSpawn, if set, is invoked once immediately after the spawn
	// attempt with the resulting pid (0 on failure) and error. It lets
	// the caller that built ExtraFiles (typically attaching one half of
	// an IPC pair) close its duplicate of the child's file descriptor
	// and begin reading from its own end, without the executor itself
	// knowing anything about IPC.
	OnSpawn func(pid int, err error)
}

// NewSpec creates a new process specification from configuration parameters.
// It initializes a Spec with the provided execution parameters.
//
// Params:
//   - params: the configuration parameters for the process
//
// Returns:
//   - Spec: a configured process specification ready for execution
func NewSpec(params SpecParams) Spec {
	// convert params to spec
	return Spec(params)
}
