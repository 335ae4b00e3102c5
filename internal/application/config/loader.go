// Package config provides the application port for configuration loading
// and change notification, i.e. the Config Store.
package config

import (
	domainconfig "github.com/orlv/nsrvm/internal/domain/config"
)

// Loader loads the desired configuration snapshot from its configured
// source. Implementations never return an error from Load itself: a
// malformed or unreadable document yields domainconfig.Empty() and the
// error is logged by the adapter, per the fail-soft startup contract.
type Loader interface {
	// Load reads and decodes the configuration document, normalizing
	// and validating it.
	//
	// Returns:
	//   - domainconfig.Snapshot: the desired snapshot, or the empty
	//     snapshot if the document could not be read or parsed.
	Load() domainconfig.Snapshot
}

// Watcher notifies a callback every time the underlying configuration
// document changes on disk. A reload already in progress when a new
// change event arrives is not pre-empted; at most one pending
// notification coalesces the burst, matching the supervisor's
// single-thread cooperative model.
type Watcher interface {
	// Watch begins watching for changes and invokes onChange after each
	// one, passing the freshly loaded snapshot. Watch blocks until
	// Close is called.
	Watch(onChange func(domainconfig.Snapshot)) error

	// Close stops watching and releases any OS resources.
	Close() error
}
