// Package control_test provides black-box tests for the control-plane Router.
package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconfig "github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/domain/control"
	"github.com/orlv/nsrvm/internal/domain/handle"
	"github.com/orlv/nsrvm/internal/domain/identity"
)

// fakeSupervisor is a minimal control.Supervisor stub recording calls made
// against it.
type fakeSupervisor struct {
	apiPort      int
	apiPortOK    bool
	handles      map[string]*handle.Handle
	snapshots    []handle.Snapshot
	restarted    []string
	stopped      []string
	started      []string
	serverExited bool
}

func (f *fakeSupervisor) Lookup(name string) (*handle.Handle, bool) {
	h, ok := f.handles[name]
	return h, ok
}

func (f *fakeSupervisor) List() []handle.Snapshot { return f.snapshots }

func (f *fakeSupervisor) APIPort(name string) (int, bool) { return f.apiPort, f.apiPortOK }

func (f *fakeSupervisor) RequestStart(name string) bool {
	f.started = append(f.started, name)
	return true
}

func (f *fakeSupervisor) RequestStop(name string) bool {
	f.stopped = append(f.stopped, name)
	return true
}

func (f *fakeSupervisor) RequestRestart(name string) bool {
	f.restarted = append(f.restarted, name)
	return true
}

func (f *fakeSupervisor) RequestServerRestart() { f.serverExited = true }

// callerWithCapabilities builds a handle whose config grants exactly caps.
func callerWithCapabilities(caps ...string) *handle.Handle {
	return handle.New(domainconfig.ServiceConfig{Name: "caller", AllowedAPI: caps})
}

// TestRouter_Dispatch_UnknownMethod verifies an unrecognized method is
// denied outright.
//
// Params:
//   - t: testing context for assertions
func TestRouter_Dispatch_UnknownMethod(t *testing.T) {
	t.Parallel()

	r := control.New(identity.NewRegistry())
	r.SetSupervisor(&fakeSupervisor{})

	_, ok := r.Dispatch(callerWithCapabilities("nsrvm"), "doesNotExist", nil)
	assert.False(t, ok)
}

// TestRouter_Dispatch_RequireNsrvm verifies every nsrvm-gated method is
// denied without the "nsrvm" capability and granted with it.
//
// Params:
//   - t: testing context for assertions
func TestRouter_Dispatch_RequireNsrvm(t *testing.T) {
	t.Parallel()

	methods := []string{"restartService", "stopService", "startService", "getServicesList"}

	for _, method := range methods {
		method := method
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			r := control.New(identity.NewRegistry())
			sup := &fakeSupervisor{}
			r.SetSupervisor(sup)

			_, ok := r.Dispatch(callerWithCapabilities("other"), method, map[string]any{"serviceName": "web"})
			assert.False(t, ok, "method %s must be denied without nsrvm capability", method)

			_, ok = r.Dispatch(callerWithCapabilities("nsrvm"), method, map[string]any{"serviceName": "web"})
			assert.True(t, ok, "method %s must be granted with nsrvm capability", method)
		})
	}
}

// TestRouter_Dispatch_RestartServer verifies restartServer sends no reply
// since the supervisor process exits before one could be delivered.
//
// Params:
//   - t: testing context for assertions
func TestRouter_Dispatch_RestartServer(t *testing.T) {
	t.Parallel()

	r := control.New(identity.NewRegistry())
	sup := &fakeSupervisor{}
	r.SetSupervisor(sup)

	reply, ok := r.Dispatch(callerWithCapabilities("nsrvm"), "restartServer", nil)
	assert.Nil(t, reply)
	assert.False(t, ok)
	assert.True(t, sup.serverExited)
}

// TestRouter_Dispatch_GetAPIKey verifies getApiKey is granted only when the
// caller's capability set includes the target service name, and mints a
// stable key through the shared identity registry.
//
// Params:
//   - t: testing context for assertions
func TestRouter_Dispatch_GetAPIKey(t *testing.T) {
	t.Parallel()

	keys := identity.NewRegistry()
	r := control.New(keys)
	sup := &fakeSupervisor{apiPort: 9000, apiPortOK: true}
	r.SetSupervisor(sup)

	denied, ok := r.Dispatch(callerWithCapabilities("other"), "getApiKey", map[string]any{"serviceName": "web"})
	assert.Nil(t, denied)
	assert.False(t, ok)

	reply, ok := r.Dispatch(callerWithCapabilities("web"), "getApiKey", map[string]any{"serviceName": "web"})
	require.True(t, ok)
	payload, isMap := reply.(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, "web", payload["serviceName"])
	assert.Equal(t, 9000, payload["apiPort"])

	expectedKey, _ := keys.Get("web")
	assert.Equal(t, expectedKey, payload["apiKey"])
}

// TestRouter_Dispatch_GetAPIKey_UnknownPort verifies getApiKey is denied
// when the supervisor has no apiPort registered for the target service.
//
// Params:
//   - t: testing context for assertions
func TestRouter_Dispatch_GetAPIKey_UnknownPort(t *testing.T) {
	t.Parallel()

	r := control.New(identity.NewRegistry())
	r.SetSupervisor(&fakeSupervisor{apiPortOK: false})

	_, ok := r.Dispatch(callerWithCapabilities("web"), "getApiKey", map[string]any{"serviceName": "web"})
	assert.False(t, ok)
}

// TestRouter_Dispatch_GetServicesList verifies the services list is
// translated into the wire payload shape.
//
// Params:
//   - t: testing context for assertions
func TestRouter_Dispatch_GetServicesList(t *testing.T) {
	t.Parallel()

	r := control.New(identity.NewRegistry())
	sup := &fakeSupervisor{
		snapshots: []handle.Snapshot{
			{ServiceName: "web", API: nil, Status: true},
		},
	}
	r.SetSupervisor(sup)

	reply, ok := r.Dispatch(callerWithCapabilities("nsrvm"), "getServicesList", nil)
	require.True(t, ok)
	payload, isMap := reply.(map[string]any)
	require.True(t, isMap)
	list, isSlice := payload["services"].([]map[string]any)
	require.True(t, isSlice)
	require.Len(t, list, 1)
	assert.Equal(t, "web", list[0]["serviceName"])
	assert.Equal(t, true, list[0]["status"])
}
