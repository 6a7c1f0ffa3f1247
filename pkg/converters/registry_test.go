package converters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopperdata/hopper/pkg/core"
)

func noopConverter(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	return &core.ConvertResult{}, nil
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry(map[string]core.Converter{
		"zebra": noopConverter,
		"alpha": noopConverter,
		"mnist": noopConverter,
	})

	assert.Equal(t, []string{"alpha", "mnist", "zebra"}, reg.Names())
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(map[string]core.Converter{"mnist": noopConverter})

	conv, ok := reg.Lookup("mnist")
	assert.True(t, ok)
	assert.NotNil(t, conv)

	_, ok = reg.Lookup("cifar")
	assert.False(t, ok)
}

func TestRegistryCopiesInput(t *testing.T) {
	source := map[string]core.Converter{"mnist": noopConverter}
	reg := NewRegistry(source)

	// Mutating the source map must not leak into the registry.
	source["svhn"] = noopConverter
	delete(source, "mnist")

	_, ok := reg.Lookup("mnist")
	assert.True(t, ok)
	_, ok = reg.Lookup("svhn")
	assert.False(t, ok)
	assert.Equal(t, []string{"mnist"}, reg.Names())
}

func TestDefaultRegistry(t *testing.T) {
	names := Default.Names()
	require.Equal(t, []string{"cifar10", "cifar100", "iris", "mnist", "wine"}, names)
	for _, name := range names {
		conv, ok := Default.Lookup(name)
		assert.True(t, ok, "converter %s missing", name)
		assert.NotNil(t, conv)
	}
}
