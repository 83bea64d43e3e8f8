package workflow

import (
	"embed"
	"fmt"
	"sort"
	"sync"
)

//go:embed definitions/*.yaml
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtinDefs map[string]*Definition
)

// BuiltIn returns the embedded workflow library keyed by name. The map is
// shared; callers must not modify it or the definitions.
func BuiltIn() map[string]*Definition {
	builtinOnce.Do(func() {
		builtinDefs = make(map[string]*Definition)
		entries, err := builtinFS.ReadDir("definitions")
		if err != nil {
			panic(fmt.Sprintf("workflow: read embedded definitions: %v", err))
		}
		for _, entry := range entries {
			data, err := builtinFS.ReadFile("definitions/" + entry.Name())
			if err != nil {
				panic(fmt.Sprintf("workflow: read embedded %s: %v", entry.Name(), err))
			}
			def, err := Parse(data)
			if err != nil {
				panic(fmt.Sprintf("workflow: embedded %s: %v", entry.Name(), err))
			}
			builtinDefs[def.Name] = def
		}
	})
	return builtinDefs
}

// BuiltInNames returns the names of all embedded workflows, sorted.
func BuiltInNames() []string {
	defs := BuiltIn()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
