package bootstrap

import (
	domainconfig "github.com/orlv/nsrvm/internal/domain/config"
	infraconfig "github.com/orlv/nsrvm/internal/infrastructure/config"
)

// fileConfigSource adapts the infrastructure Loader and Watcher — two
// separate types, since loading and watching are independently useful
// in tests — into the single supervisor.ConfigSource the application
// layer consumes.
type fileConfigSource struct {
	loader  *infraconfig.Loader
	watcher *infraconfig.Watcher
}

func (s *fileConfigSource) Load() domainconfig.Snapshot {
	return s.loader.Load()
}

func (s *fileConfigSource) Watch(onChange func(domainconfig.Snapshot)) error {
	return s.watcher.Watch(onChange)
}

func (s *fileConfigSource) Close() error {
	return s.watcher.Close()
}
