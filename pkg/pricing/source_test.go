package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const sampleCSV = "Model,Version,Input,Cached input,Output\n" +
	"gpt-4o,2024-08-06,$2.50,$1.25,$10.00\n" +
	"gpt-4o-mini,2024-07-18,$0.15,$0.075,$0.60\n"

func TestRemoteSource_Load(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(sampleCSV))
		}))
		defer server.Close()

		src := &RemoteSource{URL: server.URL}
		table, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, "remote:"+server.URL, table.Metadata().Source)
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := (&RemoteSource{URL: server.URL}).Load(context.Background())
		var ferr *FetchError
		require.True(t, errors.As(err, &ferr))
		assert.Equal(t, http.StatusNotFound, ferr.StatusCode)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := (&RemoteSource{URL: server.URL}).Load(context.Background())
		var ferr *FetchError
		require.True(t, errors.As(err, &ferr))
		assert.Equal(t, http.StatusInternalServerError, ferr.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		start := time.Now()
		_, err := (&RemoteSource{URL: server.URL, Timeout: 50 * time.Millisecond}).Load(context.Background())
		var ferr *FetchError
		require.True(t, errors.As(err, &ferr))
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("oversize body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("a", maxBodySize+10)))
		}))
		defer server.Close()

		_, err := (&RemoteSource{URL: server.URL}).Load(context.Background())
		var ferr *FetchError
		require.True(t, errors.As(err, &ferr))
		assert.Contains(t, ferr.Error(), "too large")
	})

	t.Run("malformed csv", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("Model,Input,Output\ngpt-4,oops,$60\n"))
		}))
		defer server.Close()

		_, err := (&RemoteSource{URL: server.URL}).Load(context.Background())
		var perr *ParseError
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := (&RemoteSource{URL: url, Timeout: time.Second}).Load(context.Background())
		var ferr *FetchError
		require.True(t, errors.As(err, &ferr))
		assert.Zero(t, ferr.StatusCode)
	})
}

func TestRemoteSource_Name(t *testing.T) {
	assert.Equal(t, "remote:"+DefaultRemoteURL, (&RemoteSource{}).Name())
}

func TestCSVFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	table, err := CSVFileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = CSVFileSource{Path: filepath.Join(dir, "missing.csv")}.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVFilePersister_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "pricing.csv")

	require.NoError(t, CSVFilePersister{Path: path}.Persist(context.Background(), EmbeddedTable()))

	table, err := CSVFileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EmbeddedTable().Len(), table.Len())
}

func TestEmbeddedSource(t *testing.T) {
	table, err := EmbeddedSource{}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceEmbedded, table.Metadata().Source)
	assert.Equal(t, SourceEmbedded, EmbeddedSource{}.Name())
}

func TestRemoteSource_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{0, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)

	var traceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	_, err := (&RemoteSource{URL: server.URL}).Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, traceparent, traceID.String())
}
