package readers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopperdata/hopper/pkg/core"
)

func TestCSVReaderExplicitSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iris.data")
	content := "5.1,3.5,1.4,0.2,Iris-setosa\n4.9,3.0,1.4,0.2,Iris-setosa\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "sepal_length", Type: arrow.PrimitiveTypes.Float64},
		{Name: "sepal_width", Type: arrow.PrimitiveTypes.Float64},
		{Name: "petal_length", Type: arrow.PrimitiveTypes.Float64},
		{Name: "petal_width", Type: arrow.PrimitiveTypes.Float64},
		{Name: "class", Type: arrow.BinaryTypes.String},
	}, nil)

	reader, err := NewCSVReader(core.ReaderConfig{
		Path:      path,
		Schema:    schema,
		BatchSize: 100,
	})
	require.NoError(t, err)
	defer reader.Close()

	record, err := reader.Read(context.Background())
	require.NoError(t, err)
	defer record.Release()

	assert.Equal(t, int64(2), record.NumRows())
	classes := record.Column(4).(*array.String)
	assert.Equal(t, "Iris-setosa", classes.Value(0))

	_, err = reader.Read(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestCSVReaderInferred(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "id,name\n1,alpha\n2,beta\n3,gamma\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reader, err := NewCSVReader(core.ReaderConfig{Path: path, BatchSize: 100})
	require.NoError(t, err)
	defer reader.Close()

	record, err := reader.Read(context.Background())
	require.NoError(t, err)
	defer record.Release()

	assert.Equal(t, int64(3), record.NumRows())
	assert.Equal(t, 2, record.Schema().NumFields())
}

func TestCSVReaderMissingPath(t *testing.T) {
	_, err := NewCSVReader(core.ReaderConfig{})
	assert.Error(t, err)
}

func TestFactoryUnknownType(t *testing.T) {
	_, err := DefaultFactory.Create(core.ReaderConfig{Type: "hdf5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported reader type")
}
