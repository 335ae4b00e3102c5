// Command nsrvmd runs the node-service supervisor daemon: it loads a
// services-config.json document from its root directory, spawns and
// supervises every configured service, and reconciles against the
// document on every subsequent change.
package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/orlv/nsrvm/internal/bootstrap"
	"github.com/orlv/nsrvm/internal/infrastructure/process/reaper"
	"github.com/orlv/nsrvm/internal/infrastructure/process/signals"
)

func main() {
	rootDir := flag.String("root", ".", "root directory holding the services/ tree")
	flag.Parse()

	app, err := bootstrap.InitializeApp(*rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nsrvmd: %v\n", err)
		os.Exit(1)
	}

	// Reaping unowned zombies is only our job when we are PID 1 — the
	// supervisor's own children are already reaped by the Executor's
	// exec.Cmd.Wait() calls, and competing with those for the same
	// SIGCHLD would race them.
	r := reaper.New()
	if r.IsPID1() {
		r.Start()
		defer r.Stop()
	}

	if err := app.Supervisor.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "nsrvmd: %v\n", err)
		os.Exit(1)
	}
	go app.Admin.Serve()
	defer func() { _ = app.Admin.Close() }()

	sigMgr := signals.New()
	sigCh := sigMgr.Notify(syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	for sig := range sigCh {
		if sigMgr.IsTermSignal(sig) {
			break
		}
	}

	app.Supervisor.RequestServerRestart()
	// RequestServerRestart only queues the shutdown; the supervisor ends
	// the process with status 0 once every child has stopped.
	select {}
}
