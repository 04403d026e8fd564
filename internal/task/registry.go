package task

import (
	"fmt"
	"sort"
)

var builtins = map[string]Definition{}

func register(def Definition) {
	builtins[def.ID] = def
}

// Get returns the registered definition for id.
func Get(id string) (Definition, error) {
	def, ok := builtins[id]
	if !ok {
		return Definition{}, fmt.Errorf("unknown task: %q", id)
	}
	return def, nil
}

// Catalog returns every registered definition, sorted by category then id.
func Catalog() []Definition {
	defs := make([]Definition, 0, len(builtins))
	for _, def := range builtins {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Category != defs[j].Category {
			return defs[i].Category < defs[j].Category
		}
		return defs[i].ID < defs[j].ID
	})
	return defs
}
