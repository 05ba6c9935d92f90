package tooling

import (
	"context"
	"sort"
	"sync"
)

// Param describes one parameter of a tool, flattened from the tool's
// declared input schema.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Descriptor describes a callable tool as reported by the backend.
// Descriptors are replaced wholesale on refresh and never mutated.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
}

// Backend is a handle to an external tool-invocation service.
type Backend interface {
	// Discover lists the tools the backend currently exposes.
	Discover(ctx context.Context) ([]Descriptor, error)
	// Invoke calls a tool by name and returns its raw text payload.
	Invoke(ctx context.Context, name string, params map[string]any) (string, error)
	Close() error
}

// Directory holds the set of tools known to be callable. Refresh swaps
// the whole set atomically so concurrent readers never observe a
// partially-updated directory.
type Directory struct {
	mu    sync.RWMutex
	tools map[string]Descriptor
}

func NewDirectory() *Directory {
	return &Directory{tools: make(map[string]Descriptor)}
}

// Replace installs a new tool set, discarding the previous one.
func (d *Directory) Replace(descs []Descriptor) {
	next := make(map[string]Descriptor, len(descs))
	for _, desc := range descs {
		next[desc.Name] = desc
	}
	d.mu.Lock()
	d.tools = next
	d.mu.Unlock()
}

// Refresh queries the backend and replaces the directory with the
// result. An unreachable backend leaves the directory empty rather
// than failing: the agent then simply plans without tools.
func (d *Directory) Refresh(ctx context.Context, backend Backend) error {
	descs, err := backend.Discover(ctx)
	if err != nil {
		d.Replace(nil)
		return err
	}
	d.Replace(descs)
	return nil
}

func (d *Directory) Get(name string) (Descriptor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	desc, ok := d.tools[name]
	return desc, ok
}

// List returns all descriptors sorted by name.
func (d *Directory) List() []Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Descriptor, 0, len(d.tools))
	for _, desc := range d.tools {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tools)
}
