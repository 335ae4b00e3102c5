//go:build unix && !race

package executor_test

import (
	"context"
	"syscall"
	"testing"

	domainprocess "github.com/orlv/nsrvm/internal/domain/process"
	"github.com/orlv/nsrvm/internal/infrastructure/process/control"
	"github.com/orlv/nsrvm/internal/infrastructure/process/credentials"
	"github.com/orlv/nsrvm/internal/infrastructure/process/executor"
)

// BenchmarkExecutorStart measures process startup overhead.
func BenchmarkExecutorStart(b *testing.B) {
	exec := executor.NewWithDeps(credentials.New(), control.New())
	ctx := context.Background()

	spec := domainprocess.Spec{
		Command: "/bin/true",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		_, _, err := exec.Start(ctx, spec)
		if err != nil {
			b.Fatalf("Start failed: %v", err)
		}
	}
}

// BenchmarkExecutorStartLongRunning measures startup of long-running process.
func BenchmarkExecutorStartLongRunning(b *testing.B) {
	exec := executor.NewWithDeps(credentials.New(), control.New())
	ctx := context.Background()

	spec := domainprocess.Spec{
		Command: "/bin/sleep",
		Args:    []string{"0.01"},
	}

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		pid, _, err := exec.Start(ctx, spec)
		if err != nil {
			b.Fatalf("Start failed: %v", err)
		}
		_ = exec.Signal(pid, syscall.SIGKILL)
	}
}

// BenchmarkExecutorStartWithEnv measures startup with environment variables.
func BenchmarkExecutorStartWithEnv(b *testing.B) {
	exec := executor.NewWithDeps(credentials.New(), control.New())
	ctx := context.Background()

	spec := domainprocess.Spec{
		Command: "/bin/true",
		Env: map[string]string{
			"FOO":       "bar",
			"BAZ":       "qux",
			"BENCHMARK": "true",
		},
	}

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		_, _, err := exec.Start(ctx, spec)
		if err != nil {
			b.Fatalf("Start failed: %v", err)
		}
	}
}

// BenchmarkExecutorStartWithWorkDir measures startup with working directory.
func BenchmarkExecutorStartWithWorkDir(b *testing.B) {
	exec := executor.NewWithDeps(credentials.New(), control.New())
	ctx := context.Background()

	spec := domainprocess.Spec{
		Command: "/bin/true",
		Dir:     "/tmp",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		_, _, err := exec.Start(ctx, spec)
		if err != nil {
			b.Fatalf("Start failed: %v", err)
		}
	}
}

// BenchmarkExecutorSignal measures signal sending overhead.
func BenchmarkExecutorSignal(b *testing.B) {
	exec := executor.NewWithDeps(credentials.New(), control.New())
	ctx := context.Background()

	spec := domainprocess.Spec{
		Command: "/bin/sleep",
		Args:    []string{"60"},
	}

	pid, _, err := exec.Start(ctx, spec)
	if err != nil {
		b.Fatalf("Start failed: %v", err)
	}
	defer func() {
		_ = exec.Signal(pid, syscall.SIGKILL)
	}()

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		_ = exec.Signal(pid, syscall.SIGUSR1)
	}
}

// BenchmarkExecutorStartStop measures complete process start and kill cycle.
func BenchmarkExecutorStartStop(b *testing.B) {
	benchmarks := []struct {
		name    string
		command string
		args    []string
	}{
		{"True", "/bin/true", nil},
		{"Echo", "/bin/echo", []string{"benchmark"}},
		{"Sleep10ms", "/bin/sleep", []string{"0.01"}},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			exec := executor.NewWithDeps(credentials.New(), control.New())
			ctx := context.Background()

			spec := domainprocess.Spec{
				Command: bm.command,
				Args:    bm.args,
			}

			b.ResetTimer()
			b.ReportAllocs()

			for range b.N {
				pid, _, err := exec.Start(ctx, spec)
				if err != nil {
					b.Fatalf("Start failed: %v", err)
				}
				_ = exec.Signal(pid, syscall.SIGKILL)
			}
		})
	}
}
