package loader

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlLoaderBackend decodes YAML manifests.
type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() loaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return b.LoadReader(f)
}

func (b *yamlLoaderBackend) LoadReader(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return &m, nil
		}
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
