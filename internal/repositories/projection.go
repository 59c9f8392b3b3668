package repositories

import "fmt"

// UserSummaryView is the name of the declared read-shape the view store
// uses to serve list pages without fetching full rows.
const UserSummaryView = "user_summary"

// Projection is a named read-shape: the subset of columns a query is
// allowed to return. Projections are declared before a store is built,
// never supplied per call.
type Projection struct {
	Name    string
	Columns []string
}

// ProjectionRegistry holds the read-shapes declared at startup. The view
// store compiles its statements from this registry at construction time,
// which is what makes the projection a build-time decision rather than a
// query-time parameter.
type ProjectionRegistry struct {
	views map[string]Projection
}

// NewProjectionRegistry creates an empty registry.
func NewProjectionRegistry() *ProjectionRegistry {
	return &ProjectionRegistry{
		views: make(map[string]Projection),
	}
}

// Declare registers a named projection. Re-declaring a name is an error:
// a store built against the old shape would silently disagree with one
// built against the new shape.
func (r *ProjectionRegistry) Declare(name string, columns ...string) error {
	if name == "" {
		return fmt.Errorf("projection name must not be empty")
	}
	if len(columns) == 0 {
		return fmt.Errorf("projection %q must declare at least one column", name)
	}
	if _, exists := r.views[name]; exists {
		return fmt.Errorf("projection %q already declared", name)
	}
	r.views[name] = Projection{Name: name, Columns: append([]string(nil), columns...)}
	return nil
}

// Lookup returns the declared projection, if any.
func (r *ProjectionRegistry) Lookup(name string) (Projection, bool) {
	p, ok := r.views[name]
	return p, ok
}

// Has reports whether a projection was declared.
func (r *ProjectionRegistry) Has(name string) bool {
	_, ok := r.views[name]
	return ok
}

// covers reports whether the projection includes every required column.
func (p Projection) covers(required ...string) bool {
	set := make(map[string]struct{}, len(p.Columns))
	for _, c := range p.Columns {
		set[c] = struct{}{}
	}
	for _, c := range required {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}
