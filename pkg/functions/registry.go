package functions

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/hashicorp/go-version"
)

// Registry is a read-only table of function signatures keyed by name.
// It is built once and shared; lookups never mutate it.
type Registry struct {
	defs map[string]*FuncDef
}

// NewRegistry creates a registry holding the given signatures
func NewRegistry(defs map[string]*FuncDef) *Registry {
	r := &Registry{defs: make(map[string]*FuncDef, len(defs))}
	for name, def := range defs {
		if def == nil {
			continue
		}
		if def.Name == "" {
			def.Name = name
		}
		r.defs[name] = def
	}
	return r
}

// Builtin returns a registry with the static signature table.
func Builtin() *Registry {
	return NewRegistry(builtinDefs())
}

// Get returns the signature for name. Unknown names get a synthetic signature
// flagged Unknown; it is not stored, so the registry stays unchanged.
func (r *Registry) Get(name string) *FuncDef {
	if def, ok := r.defs[name]; ok {
		return def
	}
	return Synthetic(name)
}

// Lookup returns the signature for name and whether it is known
func (r *Registry) Lookup(name string) (*FuncDef, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Len returns the number of known functions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Names returns the known function names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the signatures available in Graphite versionFloor. Functions and
// their params carrying a newer version are left out. An empty or unparsable
// floor returns everything.
func (r *Registry) All(versionFloor string) map[string]*FuncDef {
	floor, err := version.NewVersion(versionFloor)
	if err != nil {
		floor = nil
	}

	result := make(map[string]*FuncDef, len(r.defs))
	for name, def := range r.defs {
		if !available(def.Version, floor) {
			continue
		}

		filtered := def.clone()
		params := filtered.Params[:0]
		for _, p := range filtered.Params {
			if available(p.Version, floor) {
				params = append(params, p)
			}
		}
		filtered.Params = params
		result[name] = filtered
	}
	return result
}

// available reports whether an item introduced in since exists at floor
func available(since string, floor *version.Version) bool {
	if since == "" || floor == nil {
		return true
	}
	v, err := version.NewVersion(since)
	if err != nil {
		return true
	}
	return floor.GreaterThanOrEqual(v)
}

// Suggest returns up to n known names close to name, nearest first.
func (r *Registry) Suggest(name string, n int) []string {
	if name == "" || n <= 0 {
		return nil
	}

	type candidate struct {
		name     string
		distance int
	}

	target := strings.ToLower(name)
	limit := max(2, len(name)/3)

	var candidates []candidate
	for known := range r.defs {
		d := levenshtein.ComputeDistance(target, strings.ToLower(known))
		if d <= limit {
			candidates = append(candidates, candidate{name: known, distance: d})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names
}
