package loader

import "io"

// loaderBackend defines the generic interface for decoding manipulator manifests from files or streams.
// Concrete implementations (e.g., yamlLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load decodes the manifest at the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Manifest: the decoded manifest
	//   - error: error if reading or decoding fails
	Load(path string) (*Manifest, error)

	// LoadReader decodes a manifest from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing manifest data
	//
	// Returns:
	//   - *Manifest: the decoded manifest
	//   - error: error if decoding fails
	LoadReader(r io.Reader) (*Manifest, error)
}
