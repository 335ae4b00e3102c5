// Package config provides the JSON-backed Config Store infrastructure
// adapter: a file loader plus an fsnotify-driven change watcher.
package config

import (
	"encoding/json"
	"os"

	domainconfig "github.com/orlv/nsrvm/internal/domain/config"
	"github.com/orlv/nsrvm/internal/domain/logging"
)

// document is the on-disk JSON shape; decoding into this type first keeps
// Snapshot free of encoding tags that would otherwise leak into every
// domain consumer.
type document struct {
	Services   map[string]domainconfig.ServiceConfig `json:"services"`
	RestartCmd string                                 `json:"restartCmd"`
}

// Loader reads the service configuration document from a fixed path on
// disk.
type Loader struct {
	path   string
	logger logging.Logger
}

// New creates a Loader reading from path.
//
// Params:
//   - path: filesystem path to the JSON configuration document.
//   - logger: destination for load-failure diagnostics.
//
// Returns:
//   - *Loader: the constructed loader.
func New(path string, logger logging.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// Load reads and decodes the configuration document. Any failure to
// read or parse the file, or a document missing a top-level "services"
// object, is logged and yields the empty snapshot — startup always
// proceeds with zero services rather than aborting.
//
// Returns:
//   - domainconfig.Snapshot: the decoded and normalized snapshot, or the
//     empty snapshot on any error.
func (l *Loader) Load() domainconfig.Snapshot {
	raw, err := os.ReadFile(l.path) // #nosec G304 - path is operator-supplied, not external input
	if err != nil {
		l.logger.Error("", "config_load_failed", "reading configuration file", map[string]any{
			"path": l.path, "error": err.Error(),
		})
		return domainconfig.Empty()
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		l.logger.Error("", "config_parse_failed", "parsing configuration document", map[string]any{
			"path": l.path, "error": err.Error(),
		})
		return domainconfig.Empty()
	}

	snap := domainconfig.Snapshot{Services: doc.Services, RestartCmd: doc.RestartCmd}
	if err := snap.Validate(); err != nil {
		l.logger.Error("", "config_invalid", "validating configuration document", map[string]any{
			"path": l.path, "error": err.Error(),
		})
		return domainconfig.Empty()
	}

	return snap.Normalize()
}
