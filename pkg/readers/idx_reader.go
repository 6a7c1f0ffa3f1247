package readers

import (
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hopperdata/hopper/pkg/core"
)

// IDX magic numbers: ubyte tensor of rank 3 (images) and rank 1 (labels).
const (
	idxImageMagic = 0x00000803
	idxLabelMagic = 0x00000801
)

// IDXReader reads an MNIST-style IDX image/label file pair, yielding batches
// with one fixed-size binary image column and one uint8 label column.
// Gzip-compressed files (the form the dataset is distributed in) are handled
// transparently based on the .gz suffix.
type IDXReader struct {
	schema    *arrow.Schema
	images    io.ReadCloser
	labels    io.ReadCloser
	closers   []io.Closer
	alloc     memory.Allocator
	imageSize int
	total     int64
	remaining int64
	batchSize int64
}

// NewIDXReader creates a reader over an image file (Path) and its companion
// label file (LabelPath).
func NewIDXReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" || config.LabelPath == "" {
		return nil, errors.New("image and label paths are required for IDX reader")
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 4096
	}

	r := &IDXReader{
		alloc:     memory.NewGoAllocator(),
		batchSize: batchSize,
	}

	images, err := r.open(config.Path)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.images = images

	labels, err := r.open(config.LabelPath)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.labels = labels

	imageCount, rows, cols, err := readIDXImageHeader(images)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", config.Path, err)
	}
	labelCount, err := readIDXLabelHeader(labels)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", config.LabelPath, err)
	}
	if imageCount != labelCount {
		r.Close()
		return nil, fmt.Errorf("image count %d does not match label count %d", imageCount, labelCount)
	}

	r.imageSize = int(rows * cols)
	r.total = int64(imageCount)
	r.remaining = int64(imageCount)
	r.schema = arrow.NewSchema([]arrow.Field{
		{
			Name: "image",
			Type: &arrow.FixedSizeBinaryType{ByteWidth: r.imageSize},
			Metadata: arrow.NewMetadata(
				[]string{"rows", "cols"},
				[]string{fmt.Sprint(rows), fmt.Sprint(cols)},
			),
		},
		{Name: "label", Type: arrow.PrimitiveTypes.Uint8},
	}, nil)

	return r, nil
}

// open opens path, stacking a gzip reader on top when the file is compressed.
func (r *IDXReader) open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open IDX file: %w", err)
	}
	r.closers = append(r.closers, file)

	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}
	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	r.closers = append(r.closers, gz)
	return gz, nil
}

// Read returns the next batch of records.
func (r *IDXReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.remaining == 0 {
		return nil, io.EOF
	}

	n := r.batchSize
	if n > r.remaining {
		n = r.remaining
	}

	pixels := make([]byte, int(n)*r.imageSize)
	if _, err := io.ReadFull(r.images, pixels); err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	labels := make([]byte, n)
	if _, err := io.ReadFull(r.labels, labels); err != nil {
		return nil, fmt.Errorf("failed to read label data: %w", err)
	}

	imageBuilder := array.NewFixedSizeBinaryBuilder(r.alloc, &arrow.FixedSizeBinaryType{ByteWidth: r.imageSize})
	defer imageBuilder.Release()
	labelBuilder := array.NewUint8Builder(r.alloc)
	defer labelBuilder.Release()

	for i := 0; i < int(n); i++ {
		imageBuilder.Append(pixels[i*r.imageSize : (i+1)*r.imageSize])
	}
	labelBuilder.AppendValues(labels, nil)

	imageArr := imageBuilder.NewArray()
	defer imageArr.Release()
	labelArr := labelBuilder.NewArray()
	defer labelArr.Release()

	r.remaining -= n
	return array.NewRecord(r.schema, []arrow.Array{imageArr, labelArr}, n), nil
}

// Schema returns the schema of the dataset.
func (r *IDXReader) Schema() *arrow.Schema {
	return r.schema
}

// TotalRows returns the number of examples declared by the file headers.
func (r *IDXReader) TotalRows() int64 {
	return r.total
}

// Close closes the reader and releases resources.
func (r *IDXReader) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if closeErr := r.closers[i].Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	r.closers = nil
	return err
}

func readIDXImageHeader(r io.Reader) (count, rows, cols uint32, err error) {
	var header [16]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read IDX header: %w", err)
	}
	magic := binary.BigEndian.Uint32(header[0:4])
	if magic != idxImageMagic {
		return 0, 0, 0, fmt.Errorf("bad IDX image magic 0x%08x", magic)
	}
	count = binary.BigEndian.Uint32(header[4:8])
	rows = binary.BigEndian.Uint32(header[8:12])
	cols = binary.BigEndian.Uint32(header[12:16])
	if rows == 0 || cols == 0 {
		return 0, 0, 0, fmt.Errorf("degenerate image dimensions %dx%d", rows, cols)
	}
	return count, rows, cols, nil
}

func readIDXLabelHeader(r io.Reader) (uint32, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, fmt.Errorf("failed to read IDX header: %w", err)
	}
	magic := binary.BigEndian.Uint32(header[0:4])
	if magic != idxLabelMagic {
		return 0, fmt.Errorf("bad IDX label magic 0x%08x", magic)
	}
	return binary.BigEndian.Uint32(header[4:8]), nil
}
