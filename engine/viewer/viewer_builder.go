package viewer

import "github.com/Carmen-Shannon/oxy-viewer/engine/profiler"

// ViewerBuilderOption is a functional option applied by NewViewer.
type ViewerBuilderOption func(*viewer)

// WithConfigSource enables live reloading. The viewer polls the source once per frame and applies
// orbit sensitivity, clear color and log level. The caller keeps ownership of the source.
//
// Parameters:
//   - source: the change source, usually a *config.Watcher
//
// Returns:
//   - ViewerBuilderOption: a function that sets the config source
func WithConfigSource(source ConfigSource) ViewerBuilderOption {
	return func(v *viewer) {
		v.watcher = source
	}
}

// WithProfiler replaces the default one-second profiler.
func WithProfiler(p *profiler.Profiler) ViewerBuilderOption {
	return func(v *viewer) {
		v.profiler = p
	}
}
