package reconcile

import (
	"os"
	"path/filepath"

	"github.com/orlv/nsrvm/internal/domain/config"
)

// ErrModuleNotFound is returned by ResolveModulePath when no candidate
// matches, per the resolution rule's "log and skip the start" clause.
var ErrModuleNotFound = errModuleNotFound{}

type errModuleNotFound struct{}

func (errModuleNotFound) Error() string { return "reconcile: no module path candidate found" }

// statFunc abstracts os.Stat for testing.
type statFunc func(string) (os.FileInfo, error)

// ResolveModulePath resolves a service's executable path within
// servicesDir, per the ordered first-match resolution rule: given
// name = cfg.ModulePath or cfg.Name, probe <servicesDir>/<name>: if it
// is a directory, probe index.mjs, then index.js, then an extensionless
// index inside it; if it is any other file, use it directly (this is
// how a Go-built service binary resolves). If nothing matched yet,
// probe <servicesDir>/<name>.mjs, then <servicesDir>/<name>.js.
//
// Params:
//   - servicesDir: the root directory services are resolved beneath.
//   - cfg: the service configuration supplying name/modulePath.
//
// Returns:
//   - string: the resolved executable path.
//   - error: ErrModuleNotFound if no candidate matched.
func ResolveModulePath(servicesDir string, cfg config.ServiceConfig) (string, error) {
	return resolveModulePath(servicesDir, cfg, os.Stat)
}

func resolveModulePath(servicesDir string, cfg config.ServiceConfig, stat statFunc) (string, error) {
	name := cfg.ModulePath
	if name == "" {
		name = cfg.Name
	}

	base := filepath.Join(servicesDir, name)
	if info, err := stat(base); err == nil {
		if info.IsDir() {
			for _, entry := range []string{"index.mjs", "index.js", "index"} {
				candidate := filepath.Join(base, entry)
				if _, err := stat(candidate); err == nil {
					return candidate, nil
				}
			}
		} else {
			// A regular file at <servicesDir>/<name>, with no extension
			// required: this is how a Go-built service binary resolves
			// without a JS-style entry file, extending the first-match
			// order beyond the two interpreted extensions below.
			return base, nil
		}
	}

	for _, ext := range []string{".mjs", ".js"} {
		candidate := base + ext
		if _, err := stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrModuleNotFound
}
