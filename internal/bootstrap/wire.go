//go:build wireinject

// Package bootstrap assembles the NSRVM dependency graph. wire_gen.go
// is the hand-authored stand-in for what `wire` would generate from
// this file; this file itself is never compiled (the wireinject tag
// excludes it) and exists to document the provider set for anyone
// regenerating it with the real tool.
package bootstrap

import (
	"github.com/google/wire"

	"github.com/orlv/nsrvm/internal/application/supervisor"
	domaincontrol "github.com/orlv/nsrvm/internal/domain/control"
	"github.com/orlv/nsrvm/internal/domain/identity"
	"github.com/orlv/nsrvm/internal/domain/kernel"
	"github.com/orlv/nsrvm/internal/domain/lifecycle"
	"github.com/orlv/nsrvm/internal/domain/reconcile"
	"github.com/orlv/nsrvm/internal/infrastructure/adminsocket"
	infraconfig "github.com/orlv/nsrvm/internal/infrastructure/config"
	"github.com/orlv/nsrvm/internal/infrastructure/logging"
	infraprocess "github.com/orlv/nsrvm/internal/infrastructure/process"
	"github.com/orlv/nsrvm/internal/infrastructure/process/control"
	"github.com/orlv/nsrvm/internal/infrastructure/process/credentials"
	"github.com/orlv/nsrvm/internal/infrastructure/process/executor"
	"github.com/orlv/nsrvm/internal/infrastructure/servicehost"
)

// ProviderSet is the full graph InitializeApp builds. The Resolver,
// Router and Supervisor legs of the graph form two construction
// cycles (Resolver needs the Supervisor as a Dispatcher, Router needs
// it as a domaincontrol.Supervisor); wire has no facility for late
// binding, so those two edges are closed by hand in wire_gen.go via
// SetDispatcher/SetSupervisor rather than generated here.
var ProviderSet = wire.NewSet(
	logging.NewZapWriter,
	logging.New,
	infraconfig.New,
	infraconfig.NewWatcher,
	identity.NewRegistry,
	credentials.New,
	control.New,
	executor.NewWithDeps,
	infraprocess.NewInterrupter,
	infraprocess.NewHookExecutor,
	kernel.NewMailbox,
	lifecycle.New,
	servicehost.New,
	reconcile.New,
	domaincontrol.New,
	supervisor.New,
	adminsocket.New,
)

func initializeApp(rootDir string) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
