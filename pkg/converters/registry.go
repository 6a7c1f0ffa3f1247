// Package converters implements the built-in dataset converters and the
// registry the CLI dispatches on.
package converters

import (
	"sort"

	"github.com/hopperdata/hopper/pkg/core"
)

// Registry is an immutable mapping from dataset name to converter. It is
// built once at process start; there is no way to mutate it afterwards.
type Registry struct {
	converters map[string]core.Converter
	names      []string
}

// NewRegistry builds a registry from a name-to-converter map. The map is
// copied, so later changes to the argument do not leak in.
func NewRegistry(converters map[string]core.Converter) *Registry {
	m := make(map[string]core.Converter, len(converters))
	names := make([]string, 0, len(converters))
	for name, conv := range converters {
		m[name] = conv
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{converters: m, names: names}
}

// Names returns the registered dataset names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Lookup returns the converter registered under name.
func (r *Registry) Lookup(name string) (core.Converter, bool) {
	conv, ok := r.converters[name]
	return conv, ok
}

// Default holds the built-in converters, declared statically so the set of
// valid dataset names is fixed at compile time.
var Default = NewRegistry(map[string]core.Converter{
	"mnist":    ConvertMNIST,
	"cifar10":  ConvertCIFAR10,
	"cifar100": ConvertCIFAR100,
	"iris":     ConvertIris,
	"wine":     ConvertWine,
})
