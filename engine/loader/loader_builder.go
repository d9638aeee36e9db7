package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithResolver is an option builder that sets the Resolver used to turn manifest names into host handles.
//
// Parameters:
//   - r: the resolver
//
// Returns:
//   - LoaderBuilderOption: a function that applies the resolver option to a loader
func WithResolver(r Resolver) LoaderBuilderOption {
	return func(l *loader) {
		if r != nil {
			l.resolver = r
		}
	}
}

// WithScene is an option builder that pre-populates the scene cache.
//
// Parameters:
//   - key: the cache key for the scene
//   - s: the scene to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene option to a loader
func WithScene(key string, s *Scene) LoaderBuilderOption {
	return func(l *loader) {
		l.sceneCache[key] = s
	}
}
