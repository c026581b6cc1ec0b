// Package solution holds the named solutions that plug domain specific
// hooks into the completion engine.
package solution

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/autocoding/internal/complete"
	"github.com/ppiankov/autocoding/internal/internalerr"
)

// DefaultName is used when the rules file names no solution
const DefaultName = "default"

// Definition is a configured solution. New is called once per document
// so instances may keep per-document state.
type Definition interface {
	Name() string
	KnownConcepts() []string // Concepts the solution data references
	New() complete.Solution
}

// Factory builds a Definition from the solution section of a rules file.
// data is nil when the section is empty.
type Factory func(data *yaml.Node) (Definition, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a solution available by name. Registering a name twice panics.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("solution %q registered twice", name))
	}
	factories[name] = f
}

// Names lists the registered solutions
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New configures the named solution
func New(name string, data *yaml.Node) (Definition, error) {
	if name == "" {
		name = DefaultName
	}
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", internalerr.ErrUnknownSolution, name, strings.Join(Names(), ", "))
	}
	if data != nil && data.Kind == 0 {
		data = nil
	}
	def, err := f(data)
	if err != nil {
		return nil, fmt.Errorf("solution %s: %w", name, err)
	}
	return def, nil
}

// decode unmarshals solution data, treating a missing section as empty
func decode(data *yaml.Node, v any) error {
	if data == nil {
		return nil
	}
	if err := data.Decode(v); err != nil {
		return internalerr.Configf("decode solution data: %v", err)
	}
	return nil
}
