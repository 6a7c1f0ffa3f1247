package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTrip(t *testing.T) {
	splits := Splits{
		{Name: "train", Start: 0, Stop: 60000},
		{Name: "test", Start: 60000, Stop: 70000},
	}

	md := splits.Metadata("mnist")

	got, dataset, err := FromMetadata(md)
	require.NoError(t, err)
	assert.Equal(t, "mnist", dataset)
	require.Len(t, got, 2)
	assert.Equal(t, Split{Name: "train", Start: 0, Stop: 60000}, got[0])
	assert.Equal(t, Split{Name: "test", Start: 60000, Stop: 70000}, got[1])
}

func TestFromMetadataSortsByStart(t *testing.T) {
	md := arrow.NewMetadata(
		[]string{MetadataPrefix + "test", MetadataPrefix + "train"},
		[]string{"60000:70000", "0:60000"},
	)

	splits, _, err := FromMetadata(md)
	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.Equal(t, "train", splits[0].Name)
	assert.Equal(t, "test", splits[1].Name)
}

func TestFromMetadataIgnoresForeignKeys(t *testing.T) {
	md := arrow.NewMetadata(
		[]string{"pandas", MetadataPrefix + "all"},
		[]string{"{}", "0:150"},
	)

	splits, dataset, err := FromMetadata(md)
	require.NoError(t, err)
	assert.Empty(t, dataset)
	require.Len(t, splits, 1)
	assert.Equal(t, int64(150), splits[0].Rows())
}

func TestFromMetadataMalformedRange(t *testing.T) {
	cases := []string{"60000", "a:b", "10:5", ":"}
	for _, value := range cases {
		md := arrow.NewMetadata([]string{MetadataPrefix + "train"}, []string{value})
		_, _, err := FromMetadata(md)
		assert.Error(t, err, "value %q should not parse", value)
	}
}

func TestValidate(t *testing.T) {
	splits := Splits{
		{Name: "train", Start: 0, Stop: 60},
		{Name: "test", Start: 60, Stop: 70},
	}

	assert.NoError(t, splits.Validate(70))
	assert.Error(t, splits.Validate(69), "splits past the row count must fail")

	bad := Splits{{Name: "train", Start: -1, Stop: 10}}
	assert.Error(t, bad.Validate(10))
}

func TestEmptyMetadata(t *testing.T) {
	splits, dataset, err := FromMetadata(arrow.Metadata{})
	require.NoError(t, err)
	assert.Empty(t, splits)
	assert.Empty(t, dataset)
}
