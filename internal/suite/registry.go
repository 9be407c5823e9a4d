package suite

import (
	"sort"
)

// Registry indexes loaded suites by id. It is read-only after construction.
type Registry struct {
	suites  map[string]Definition
	ids     []string
	invalid []InvalidEntry
}

// NewRegistry builds a registry, rejecting duplicate ids across valid and
// invalid entries.
func NewRegistry(defs []Definition, invalid []InvalidEntry) (*Registry, error) {
	paths := make(map[string][]string, len(defs)+len(invalid))
	for _, d := range defs {
		paths[d.ID] = append(paths[d.ID], d.Path)
	}
	for _, e := range invalid {
		paths[e.ID] = append(paths[e.ID], e.Path)
	}
	dupIDs := make([]string, 0)
	for id, p := range paths {
		if len(p) > 1 {
			dupIDs = append(dupIDs, id)
		}
	}
	if len(dupIDs) > 0 {
		sort.Strings(dupIDs)
		return nil, &DuplicateIDError{ID: dupIDs[0], Paths: paths[dupIDs[0]]}
	}

	r := &Registry{
		suites:  make(map[string]Definition, len(defs)),
		ids:     make([]string, 0, len(defs)),
		invalid: append([]InvalidEntry{}, invalid...),
	}
	for _, d := range defs {
		r.suites[d.ID] = d.clone()
		r.ids = append(r.ids, d.ID)
	}
	sort.Strings(r.ids)
	sort.Slice(r.invalid, func(i, j int) bool { return r.invalid[i].ID < r.invalid[j].ID })
	return r, nil
}

// Get returns the suite with id or a *NotFoundError.
func (r *Registry) Get(id string) (Definition, error) {
	if d, ok := r.suites[id]; ok {
		return d.clone(), nil
	}
	for _, e := range r.invalid {
		if e.ID == id {
			return Definition{}, &NotFoundError{ID: id, Reason: e.Reason}
		}
	}
	return Definition{}, &NotFoundError{ID: id}
}

// All returns every valid suite ordered by id.
func (r *Registry) All() []Definition {
	return r.Filter(func(Definition) bool { return true })
}

// FilterByTag returns suites carrying tag, ordered by id.
func (r *Registry) FilterByTag(tag string) []Definition {
	return r.Filter(func(d Definition) bool { return d.HasTag(tag) })
}

// Filter returns the suites accepted by match, ordered by id.
func (r *Registry) Filter(match func(Definition) bool) []Definition {
	out := make([]Definition, 0, len(r.ids))
	for _, id := range r.ids {
		d := r.suites[id]
		if match(d) {
			out = append(out, d.clone())
		}
	}
	return out
}

// Invalid returns the entries that failed validation, ordered by id.
func (r *Registry) Invalid() []InvalidEntry {
	return append([]InvalidEntry{}, r.invalid...)
}

// Len reports the number of valid suites.
func (r *Registry) Len() int {
	return len(r.ids)
}
