package manipulator

// CatalogBuilderOption is a functional option applied to a Catalog during NewCatalog.
type CatalogBuilderOption func(*Catalog)

// WithScene records the name of the scene the catalog belongs to.
//
// Parameters:
//   - name: the scene name, used in logs
//
// Returns:
//   - CatalogBuilderOption: a function that applies the scene name to a catalog
func WithScene(name string) CatalogBuilderOption {
	return func(c *Catalog) {
		c.scene = name
	}
}
