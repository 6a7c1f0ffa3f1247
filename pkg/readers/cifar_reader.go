package readers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hopperdata/hopper/pkg/core"
)

// cifarImageBytes is the pixel payload of one CIFAR example: 3 channels of
// 32x32 bytes, channel-major.
const cifarImageBytes = 3 * 32 * 32

// CIFARReader reads the CIFAR binary format: a flat sequence of fixed-size
// rows, each a small label prefix followed by the image bytes. CIFAR-10 rows
// carry one label byte, CIFAR-100 rows carry a coarse and a fine label byte.
type CIFARReader struct {
	schema     *arrow.Schema
	file       *os.File
	buf        *bufio.Reader
	alloc      memory.Allocator
	labelNames []string
	rowSize    int
	total      int64
	batchSize  int64
	done       bool
}

// NewCIFAR10Reader creates a reader for a CIFAR-10 batch file.
func NewCIFAR10Reader(config core.ReaderConfig) (core.DatasetReader, error) {
	return newCIFARReader(config, []string{"label"})
}

// NewCIFAR100Reader creates a reader for a CIFAR-100 train or test file.
func NewCIFAR100Reader(config core.ReaderConfig) (core.DatasetReader, error) {
	return newCIFARReader(config, []string{"coarse_label", "fine_label"})
}

func newCIFARReader(config core.ReaderConfig, labelNames []string) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CIFAR reader")
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 4096
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CIFAR file: %w", err)
	}

	rowSize := len(labelNames) + cifarImageBytes
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat CIFAR file: %w", err)
	}
	if info.Size()%int64(rowSize) != 0 {
		file.Close()
		return nil, fmt.Errorf("%s: size %d is not a multiple of the %d-byte row",
			config.Path, info.Size(), rowSize)
	}

	fields := make([]arrow.Field, 0, len(labelNames)+1)
	for _, name := range labelNames {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Uint8})
	}
	fields = append(fields, arrow.Field{
		Name: "image",
		Type: &arrow.FixedSizeBinaryType{ByteWidth: cifarImageBytes},
		Metadata: arrow.NewMetadata(
			[]string{"channels", "rows", "cols"},
			[]string{"3", "32", "32"},
		),
	})

	return &CIFARReader{
		schema:     arrow.NewSchema(fields, nil),
		file:       file,
		buf:        bufio.NewReaderSize(file, 1<<20),
		alloc:      memory.NewGoAllocator(),
		labelNames: labelNames,
		rowSize:    rowSize,
		total:      info.Size() / int64(rowSize),
		batchSize:  batchSize,
	}, nil
}

// Read returns the next batch of records.
func (r *CIFARReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.done {
		return nil, io.EOF
	}

	labelBuilders := make([]*array.Uint8Builder, len(r.labelNames))
	for i := range labelBuilders {
		labelBuilders[i] = array.NewUint8Builder(r.alloc)
		defer labelBuilders[i].Release()
	}
	imageBuilder := array.NewFixedSizeBinaryBuilder(r.alloc, &arrow.FixedSizeBinaryType{ByteWidth: cifarImageBytes})
	defer imageBuilder.Release()

	row := make([]byte, r.rowSize)
	var n int64
	for n < r.batchSize {
		if _, err := io.ReadFull(r.buf, row); err != nil {
			if err == io.EOF {
				r.done = true
				break
			}
			return nil, fmt.Errorf("failed to read CIFAR row: %w", err)
		}
		for i := range labelBuilders {
			labelBuilders[i].Append(row[i])
		}
		imageBuilder.Append(row[len(r.labelNames):])
		n++
	}

	if n == 0 {
		return nil, io.EOF
	}

	cols := make([]arrow.Array, 0, len(labelBuilders)+1)
	for _, b := range labelBuilders {
		arr := b.NewArray()
		defer arr.Release()
		cols = append(cols, arr)
	}
	imageArr := imageBuilder.NewArray()
	defer imageArr.Release()
	cols = append(cols, imageArr)

	return array.NewRecord(r.schema, cols, n), nil
}

// Schema returns the schema of the dataset.
func (r *CIFARReader) Schema() *arrow.Schema {
	return r.schema
}

// TotalRows returns the number of rows implied by the file size.
func (r *CIFARReader) TotalRows() int64 {
	return r.total
}

// Close closes the reader and releases resources.
func (r *CIFARReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
