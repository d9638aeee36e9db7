package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// LoaderBackendType identifies the manifest file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeYAML selects the YAML manifest backend.
	BackendTypeYAML LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	resolver Resolver

	sceneCache map[string]*Scene

	backend loaderBackend
}

// Loader loads manipulator manifests into validated scenes and caches them. It stands in for the asset pipeline
// that owns the real scene format: whatever produces a Scene guarantees dense identities and kind-consistent
// bindings, because construction goes through manipulator.NewCatalog.
type Loader interface {
	// Load decodes the manifest file at path and caches the result.
	// If the scene is already cached (by file path), the cached version is returned.
	// The backend is selected based on the file extension (.yaml/.yml → YAML backend).
	//
	// Parameters:
	//   - path: the file path to the manifest
	//
	// Returns:
	//   - *Scene: the loaded and cached scene
	//   - error: error if loading or validation fails
	Load(path string) (*Scene, error)

	// LoadReader decodes a manifest from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded scene
	//   - r: the reader providing manifest data
	//
	// Returns:
	//   - *Scene: the loaded scene
	//   - error: error if loading or validation fails
	LoadReader(name string, r io.Reader) (*Scene, error)

	// Get retrieves a cached scene by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Scene: the cached scene or nil
	Get(name string) *Scene

	// Scenes returns a copy of the scene cache.
	//
	// Returns:
	//   - map[string]*Scene: all cached scenes keyed by name
	Scenes() map[string]*Scene

	// Unload drops a scene from the cache. The catalog is discarded as a whole; engines built on it must be closed
	// by the caller.
	//
	// Parameters:
	//   - name: the cache key to drop
	Unload(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeYAML)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		resolver:   NamedResolver{},
		sceneCache: make(map[string]*Scene),
	}

	switch backendType {
	case BackendTypeYAML:
		l.backend = newYAMLLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Scene, error) {
	l.mu.RLock()
	if cached, ok := l.sceneCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	m, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	s, err := build(m, l.resolver)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	l.mu.Lock()
	l.sceneCache[path] = s
	l.mu.Unlock()
	return s, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*Scene, error) {
	l.mu.RLock()
	if cached, ok := l.sceneCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	m, err := l.backend.LoadReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	s, err := build(m, l.resolver)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %q: %w", name, err)
	}

	l.mu.Lock()
	l.sceneCache[name] = s
	l.mu.Unlock()
	return s, nil
}

func (l *loader) Get(name string) *Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sceneCache[name]
}

func (l *loader) Scenes() map[string]*Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Scene, len(l.sceneCache))
	for k, v := range l.sceneCache {
		result[k] = v
	}
	return result
}

func (l *loader) Unload(name string) {
	l.mu.Lock()
	delete(l.sceneCache, name)
	l.mu.Unlock()
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only YAML is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", ext)
	}
}
