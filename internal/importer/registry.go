// Package importer holds the registry that maps a source slug to the
// connector implementing it.
package importer

import (
	"fmt"

	"github.com/ameyrk/gutengo/internal/models"
)

// Registry is an explicit value constructed once at startup and passed to
// whatever submits runs. There is no package-level registration state.
type Registry struct {
	importers map[string]models.Importer
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{importers: make(map[string]models.Importer)}
}

// Register adds an importer. It's called at startup.
func (r *Registry) Register(imp models.Importer) {
	info := imp.Info()
	if _, exists := r.importers[info.Slug]; exists {
		// Panic is appropriate here as it's a developer error during setup.
		panic(fmt.Sprintf("importer with slug '%s' is already registered", info.Slug))
	}
	r.importers[info.Slug] = imp
	r.order = append(r.order, info.Slug)
}

// Get returns an importer by its slug.
func (r *Registry) Get(slug string) (models.Importer, bool) {
	imp, ok := r.importers[slug]
	return imp, ok
}

// All returns information for every registered importer, in registration
// order.
func (r *Registry) All() []models.ImporterInfo {
	infos := make([]models.ImporterInfo, 0, len(r.order))
	for _, slug := range r.order {
		infos = append(infos, r.importers[slug].Info())
	}
	return infos
}

// Detect returns the slug of the first importer that recognizes the given
// URL or content, in registration order. The second return is false when
// nothing matched.
func (r *Registry) Detect(urlOrContent string) (string, bool) {
	for _, slug := range r.order {
		if r.importers[slug].CanImport(urlOrContent) {
			return slug, true
		}
	}
	return "", false
}
