package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopperdata/hopper/pkg/converters"
	"github.com/hopperdata/hopper/pkg/core"
)

type stubConverter struct {
	calls []core.ConvertOptions
	err   error
}

func (s *stubConverter) convert(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return nil, s.err
	}
	return &core.ConvertResult{
		Dataset:    "mnist",
		OutputPath: "mnist.parquet",
		Format:     "parquet",
		Rows:       70000,
		Batches:    18,
		Splits:     map[string]int64{"train": 60000, "test": 10000},
		Inputs:     []string{"train-images-idx3-ubyte.gz"},
	}, nil
}

func newTestServer(stub *stubConverter) *Server {
	reg := converters.NewRegistry(map[string]core.Converter{"mnist": stub.convert})
	return NewServer(ServerOptions{Registry: reg})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubConverter{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(body))
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(&stubConverter{})
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	resp, err := srv.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "hopper API", payload["service"])
	assert.NotEmpty(t, payload["version"])
}

func TestDatasetsEndpoint(t *testing.T) {
	srv := newTestServer(&stubConverter{})
	req := httptest.NewRequest(http.MethodGet, "/datasets", nil)
	resp, err := srv.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		Datasets []string `json:"datasets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, []string{"mnist"}, payload.Datasets)
}

func TestConvertEndpoint(t *testing.T) {
	stub := &stubConverter{}
	srv := newTestServer(stub)

	body := `{"dataset":"mnist","directory":"/data/raw","output_file":"/tmp/mnist.parquet"}`
	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, stub.calls, 1)
	require.NotNil(t, stub.calls[0].Directory)
	assert.Equal(t, "/data/raw", *stub.calls[0].Directory)
	require.NotNil(t, stub.calls[0].OutputPath)
	assert.Equal(t, "/tmp/mnist.parquet", *stub.calls[0].OutputPath)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "mnist", payload["dataset"])
	assert.Equal(t, float64(70000), payload["rows"])
}

func TestConvertEndpointOmittedOptions(t *testing.T) {
	stub := &stubConverter{}
	srv := newTestServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"dataset":"mnist"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, stub.calls, 1)
	assert.Nil(t, stub.calls[0].Directory)
	assert.Nil(t, stub.calls[0].OutputPath)
}

func TestConvertEndpointUnknownDataset(t *testing.T) {
	stub := &stubConverter{}
	srv := newTestServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"dataset":"svhn"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, stub.calls)
}

func TestConvertEndpointBadRequests(t *testing.T) {
	stub := &stubConverter{}
	srv := newTestServer(stub)

	for _, body := range []string{`{`, `{}`, `{"dataset":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := srv.GetApp().Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
	assert.Empty(t, stub.calls)
}

func TestConvertEndpointConverterError(t *testing.T) {
	stub := &stubConverter{err: errors.New("required file not found")}
	srv := newTestServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"dataset":"mnist"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Len(t, stub.calls, 1)
}
