//go:build unix

package broker

import (
	"fmt"
	"os"
	"syscall"
)

// ChildFD is the file descriptor number the child observes its end of
// the IPC channel on. exec.Cmd always places ExtraFiles starting at fd
// 3 (0, 1, 2 are stdin/stdout/stderr), and since the supervisor passes
// exactly one extra file per child, that file always lands on fd 3.
const ChildFD = 3

// Pair is one parent-held end of a freshly created socketpair, plus the
// *os.File to hand the child via exec.Cmd.ExtraFiles.
type Pair struct {
	// Parent is the supervisor's end of the channel: read/write this to
	// talk to the child. Close it when the child exits.
	Parent *os.File
	// childFile is the child's end; ownership transfers to the spawned
	// exec.Cmd, which closes its own copy of ExtraFiles entries after
	// fork+exec. The parent must also close its duplicate fd once the
	// child has been started, to avoid leaking it into future children.
	childFile *os.File
}

// NewPair creates a connected SOCK_STREAM Unix-domain socketpair for one
// parent/child IPC channel.
//
// Returns:
//   - *Pair: the parent/child file descriptor pair.
//   - error: any error from the underlying socketpair syscall.
func NewPair() (*Pair, error) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("creating socketpair: %w", err)
	}
	return &Pair{
		Parent:    os.NewFile(uintptr(fds[0]), "nsrvm-ipc-parent"),
		childFile: os.NewFile(uintptr(fds[1]), "nsrvm-ipc-child"),
	}, nil
}

// ChildFile returns the child's end of the pair, for embedding into a
// process.Spec's ExtraFiles before spawning.
//
// Returns:
//   - *os.File: the child's end of the socketpair.
func (p *Pair) ChildFile() *os.File {
	return p.childFile
}

// CloseChildEnd closes the parent process's duplicate of the child's fd
// once the child has been started; the child keeps its own copy across
// fork+exec, so this does not affect the spawned process.
//
// Returns:
//   - error: any error closing the duplicate descriptor.
func (p *Pair) CloseChildEnd() error {
	return p.childFile.Close()
}

// Close closes the parent's end of the channel.
//
// Returns:
//   - error: any error closing the descriptor.
func (p *Pair) Close() error {
	return p.Parent.Close()
}
