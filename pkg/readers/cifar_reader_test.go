package readers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopperdata/hopper/pkg/core"
)

// writeCIFARRows writes count rows of labelBytes label bytes followed by the
// image payload. Label bytes are the row index, pixels are zero.
func writeCIFARRows(t *testing.T, path string, count, labelBytes int) {
	t.Helper()

	rowSize := labelBytes + cifarImageBytes
	payload := make([]byte, count*rowSize)
	for i := 0; i < count; i++ {
		for j := 0; j < labelBytes; j++ {
			payload[i*rowSize+j] = byte(i)
		}
	}
	require.NoError(t, os.WriteFile(path, payload, 0644))
}

func TestCIFAR10Reader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_batch_1.bin")
	writeCIFARRows(t, path, 7, 1)

	reader, err := NewCIFAR10Reader(core.ReaderConfig{Path: path, BatchSize: 3})
	require.NoError(t, err)
	defer reader.Close()

	schema := reader.Schema()
	require.Equal(t, 2, schema.NumFields())
	assert.Equal(t, "label", schema.Field(0).Name)
	assert.Equal(t, "image", schema.Field(1).Name)

	counter, ok := reader.(interface{ TotalRows() int64 })
	require.True(t, ok)
	assert.Equal(t, int64(7), counter.TotalRows())

	ctx := context.Background()

	record, err := reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), record.NumRows())
	labels := record.Column(0).(*array.Uint8)
	assert.Equal(t, uint8(0), labels.Value(0))
	assert.Equal(t, uint8(2), labels.Value(2))
	record.Release()

	var total int64 = 3
	for {
		record, err := reader.Read(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		total += record.NumRows()
		record.Release()
	}
	assert.Equal(t, int64(7), total)
}

func TestCIFAR100Reader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.bin")
	writeCIFARRows(t, path, 4, 2)

	reader, err := NewCIFAR100Reader(core.ReaderConfig{Path: path, BatchSize: 10})
	require.NoError(t, err)
	defer reader.Close()

	schema := reader.Schema()
	require.Equal(t, 3, schema.NumFields())
	assert.Equal(t, "coarse_label", schema.Field(0).Name)
	assert.Equal(t, "fine_label", schema.Field(1).Name)
	assert.Equal(t, "image", schema.Field(2).Name)

	record, err := reader.Read(context.Background())
	require.NoError(t, err)
	defer record.Release()
	assert.Equal(t, int64(4), record.NumRows())
}

func TestCIFARReaderTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	// One full row plus a dangling byte.
	payload := make([]byte, 1+cifarImageBytes+1)
	require.NoError(t, os.WriteFile(path, payload, 0644))

	_, err := NewCIFAR10Reader(core.ReaderConfig{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a multiple")
}

func TestCIFARReaderMissingPath(t *testing.T) {
	_, err := NewCIFAR10Reader(core.ReaderConfig{})
	assert.Error(t, err)
}
