package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopperdata/hopper/pkg/converters"
	"github.com/hopperdata/hopper/pkg/core"
)

// recordingConverter captures every invocation so dispatch behavior can be
// asserted without touching raw files.
type recordingConverter struct {
	calls []core.ConvertOptions
	err   error
}

func (r *recordingConverter) convert(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	r.calls = append(r.calls, opts)
	if r.err != nil {
		return nil, r.err
	}
	return &core.ConvertResult{
		Dataset:    "mnist",
		OutputPath: "mnist.parquet",
		Format:     "parquet",
		Rows:       10,
		Batches:    1,
		Splits:     map[string]int64{"train": 8, "test": 2},
		Duration:   5 * time.Millisecond,
	}, nil
}

func runConvert(t *testing.T, rec *recordingConverter, args ...string) error {
	t.Helper()

	reg := converters.NewRegistry(map[string]core.Converter{"mnist": rec.convert})
	cmd := newConvertCommand(reg)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestConvertDispatchesOnce(t *testing.T) {
	rec := &recordingConverter{}
	err := runConvert(t, rec, "mnist", "-d", "/data/raw", "-o", "/tmp/mnist.parquet")
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	opts := rec.calls[0]
	require.NotNil(t, opts.Directory)
	assert.Equal(t, "/data/raw", *opts.Directory)
	require.NotNil(t, opts.OutputPath)
	assert.Equal(t, "/tmp/mnist.parquet", *opts.OutputPath)
}

func TestConvertOmittedFlagsStayNil(t *testing.T) {
	rec := &recordingConverter{}
	err := runConvert(t, rec, "mnist")
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	assert.Nil(t, rec.calls[0].Directory)
	assert.Nil(t, rec.calls[0].OutputPath)
}

func TestConvertEmptyFlagValueIsForwarded(t *testing.T) {
	rec := &recordingConverter{}
	err := runConvert(t, rec, "mnist", "--directory", "")
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	require.NotNil(t, rec.calls[0].Directory)
	assert.Equal(t, "", *rec.calls[0].Directory)
	assert.Nil(t, rec.calls[0].OutputPath)
}

func TestConvertLongFlags(t *testing.T) {
	rec := &recordingConverter{}
	err := runConvert(t, rec, "mnist", "--output-file", "out.arrow")
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	assert.Nil(t, rec.calls[0].Directory)
	require.NotNil(t, rec.calls[0].OutputPath)
	assert.Equal(t, "out.arrow", *rec.calls[0].OutputPath)
}

func TestConvertUnknownDataset(t *testing.T) {
	rec := &recordingConverter{}
	err := runConvert(t, rec, "cifar")
	require.Error(t, err)
	assert.Empty(t, rec.calls, "no converter may run for an unknown dataset")
}

func TestConvertMissingDataset(t *testing.T) {
	rec := &recordingConverter{}
	err := runConvert(t, rec)
	require.Error(t, err)
	assert.Empty(t, rec.calls)
}

func TestConvertTooManyDatasets(t *testing.T) {
	rec := &recordingConverter{}
	err := runConvert(t, rec, "mnist", "mnist")
	require.Error(t, err)
	assert.Empty(t, rec.calls)
}

func TestConvertErrorPropagates(t *testing.T) {
	want := errors.New("train-images-idx3-ubyte: no such file")
	rec := &recordingConverter{err: want}
	err := runConvert(t, rec, "mnist")
	require.Error(t, err)
	assert.ErrorIs(t, err, want)
	assert.Len(t, rec.calls, 1)
}

func TestDatasetsCommand(t *testing.T) {
	reg := converters.NewRegistry(map[string]core.Converter{
		"wine":  (&recordingConverter{}).convert,
		"mnist": (&recordingConverter{}).convert,
	})
	cmd := newDatasetsCommand(reg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "mnist\nwine\n", out.String())
}
